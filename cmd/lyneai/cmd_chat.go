// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

func runChat(cmd *cobra.Command, args []string) {
	var doc json.RawMessage
	if len(args) == 1 {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			printError("Could not read %s: %v", args[0], err)
			return
		}
		doc = raw
	}

	svc := newLocalService()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	printHeading("Scene editor. Describe a change, or: show, save <file>, exit.")
	var history []datatypes.Message
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "exit" || line == "quit":
			return
		case line == "show":
			if err := writeJSON("", currentDocument(doc), false); err != nil {
				printError("Could not render the document: %v", err)
			}
		case strings.HasPrefix(line, "save "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "save "))
			if err := writeJSON(path, currentDocument(doc), false); err != nil {
				printError("Could not save to %s: %v", path, err)
			} else {
				printSuccess("Saved %s", path)
			}
		default:
			result, err := svc.Process(ctx, line, history, doc)
			if err != nil {
				printError("%v", err)
				break
			}
			encoded, err := json.Marshal(result.Document)
			if err != nil {
				printError("Could not encode the document: %v", err)
				break
			}
			doc = encoded
			history = append(history,
				datatypes.Message{Role: "user", Content: line},
				datatypes.Message{Role: "assistant", Content: result.Reply},
			)
			printMuted(fmt.Sprintf("[%s] created=%d updated=%d",
				result.Intent, len(result.CreatedIDs), len(result.UpdatedIDs)))
			fmt.Println(result.Reply)
		}
		fmt.Print("> ")
	}
}

// currentDocument renders the working document, falling back to an empty
// canonical document before the first edit.
func currentDocument(raw json.RawMessage) datatypes.SceneDocument {
	doc, err := datatypes.NormalizeDocumentJSON(raw)
	if err != nil {
		return datatypes.NewSceneDocument()
	}
	return doc
}
