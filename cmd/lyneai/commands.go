// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	outputPath   string
	outputDir    string
	batchCount   int
	batchWorkers int
	aircraftList []string
	jsonOutput   bool
	compactJSON  bool

	rootCmd = &cobra.Command{
		Use:   "lyneai",
		Short: "A cli to build and edit vertiport scene documents from plain language",
		Long: `Lyneai turns plain-language requests like "create a landing pad for
				an EC135" into complete vertiport scene documents, locally and
				without a server.`,
	}

	// --- Single document generation ---
	generateCmd = &cobra.Command{
		Use:   "generate [request]",
		Short: "Generate a scene document from one plain-language request",
		Args:  cobra.MinimumNArgs(1),
		Run:   runGenerate, // Defined in cmd_generate.go
	}

	// --- Batch generation ---
	batchCmd = &cobra.Command{
		Use:   "batch [requests.txt]",
		Short: "Generate a batch of scene configs, one per request line or aircraft model",
		Args:  cobra.MaximumNArgs(1),
		Run:   runBatch, // Defined in cmd_batch.go
	}

	// --- Interactive editing ---
	chatCmd = &cobra.Command{
		Use:   "chat [document.json]",
		Short: "Edit a scene document interactively, one request per line",
		Args:  cobra.MaximumNArgs(1),
		Run:   runChat, // Defined in cmd_chat.go
	}

	// --- Utilities ---
	normalizeCmd = &cobra.Command{
		Use:   "normalize [document.json]",
		Short: "Rewrite a scene payload into the canonical document shape",
		Args:  cobra.MaximumNArgs(1),
		Run:   runNormalize, // Defined in cmd_normalize.go
	}

	templatesCmd = &cobra.Command{
		Use:   "templates [type]",
		Short: "Show the default dimension templates for every layer type",
		Args:  cobra.MaximumNArgs(1),
		Run:   runTemplates, // Defined in cmd_generate.go
	}
)

func init() {
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the document to this file instead of stdout")
	generateCmd.Flags().BoolVar(&compactJSON, "compact", false, "Emit compact JSON")

	batchCmd.Flags().StringVar(&outputDir, "dir", "", "Output directory (default from config.yaml, else ./out)")
	batchCmd.Flags().IntVarP(&batchCount, "count", "n", 0, "Number of configs to generate (default one per aircraft)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 4, "Concurrent generation workers")
	batchCmd.Flags().StringSliceVar(&aircraftList, "aircraft", nil, "Aircraft models, one config each")

	normalizeCmd.Flags().BoolVar(&compactJSON, "compact", false, "Emit compact JSON")
	templatesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit templates as JSON")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(templatesCmd)
}
