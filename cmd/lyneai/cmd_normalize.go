// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

func runNormalize(cmd *cobra.Command, args []string) {
	var raw []byte
	var err error
	if len(args) == 1 {
		raw, err = os.ReadFile(args[0])
		if err != nil {
			printError("Could not read %s: %v", args[0], err)
			return
		}
	} else {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			printError("Could not read stdin: %v", err)
			return
		}
	}

	doc, err := datatypes.NormalizeDocumentJSON(raw)
	if err != nil {
		printError("Could not normalize the document: %v", err)
		return
	}
	if err := writeJSON("", doc, compactJSON); err != nil {
		printError("Could not encode the document: %v", err)
	}
}
