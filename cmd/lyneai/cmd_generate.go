// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
	"github.com/imvino/lyneAiBeta/services/scene/engine"
)

// newLocalService builds a chat service that runs entirely in process. The
// CLI never talks to an LLM; default templates answer every request.
func newLocalService() *engine.SceneChatService {
	catalog := engine.NewLayerCatalog()
	return engine.NewSceneChatService(catalog, nil, nil)
}

func runGenerate(cmd *cobra.Command, args []string) {
	request := strings.Join(args, " ")
	svc := newLocalService()

	result, err := svc.Process(context.Background(), request, nil, nil)
	if err != nil {
		printError("Could not process the request: %v", err)
		return
	}
	if len(result.CreatedIDs) == 0 && len(result.UpdatedIDs) == 0 {
		printError("No layer type recognized in %q. Try mentioning one, e.g. a landing pad or taxiway.", request)
		return
	}

	if err := writeJSON(outputPath, result.Document, compactJSON); err != nil {
		printError("Could not write the document: %v", err)
		return
	}
	if outputPath != "" {
		printSuccess("Wrote %s (%d layers created)", outputPath, len(result.CreatedIDs))
	}
}

func runTemplates(cmd *cobra.Command, args []string) {
	catalog := engine.NewLayerCatalog()

	types := datatypes.LayerTypes
	if len(args) == 1 {
		t, ok := datatypes.KnownLayerType(args[0])
		if !ok {
			printError("Unknown layer type %q", args[0])
			return
		}
		types = []datatypes.LayerType{t}
	}

	if jsonOutput {
		out := make([]datatypes.TemplateResponse, 0, len(types))
		for _, t := range types {
			dims, _ := catalog.TemplateFor(t)
			out = append(out, datatypes.TemplateResponse{
				Type:        t,
				DisplayName: catalog.DisplayNameFor(t),
				Dimensions:  dims,
			})
		}
		if err := writeJSON("", out, false); err != nil {
			printError("Could not encode templates: %v", err)
		}
		return
	}

	for _, t := range types {
		dims, _ := catalog.TemplateFor(t)
		printHeading(fmt.Sprintf("%s (%s)", t, catalog.DisplayNameFor(t)))
		printMuted(fmt.Sprintf("  %d default dimensions", len(dims)))
	}
}
