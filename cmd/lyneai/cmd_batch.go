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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/imvino/lyneAiBeta/pkg/validation"
)

// defaultAircraft seeds batch generation when neither flags nor config.yaml
// name any models.
var defaultAircraft = []string{"EC135", "AW139", "BELL429", "H145", "S76", "VOLOCITY"}

// BatchEntry records one generated config in the summary.
type BatchEntry struct {
	File       string   `json:"file"`
	Request    string   `json:"request"`
	Aircraft   string   `json:"aircraft,omitempty"`
	CreatedIDs []string `json:"created_ids"`
}

// batchRequests resolves the batch work list: explicit request lines from a
// file, or one landing pad request per aircraft model.
func batchRequests(args []string) ([]BatchEntry, error) {
	if len(args) == 1 {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return nil, err
		}
		var entries []BatchEntry
		for _, line := range strings.Split(string(raw), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			entries = append(entries, BatchEntry{Request: line})
		}
		return entries, nil
	}

	aircraft := aircraftList
	if len(aircraft) == 0 {
		aircraft = config.Batch.Aircraft
	}
	if len(aircraft) == 0 {
		aircraft = defaultAircraft
	}
	// Models come from flags or config.yaml and end up in layer names and
	// file content; reject anything that is not a safe identifier.
	for _, model := range aircraft {
		if err := validation.ValidateAircraftModel(model); err != nil {
			return nil, err
		}
	}

	count := batchCount
	if count == 0 {
		count = config.Batch.Count
	}
	if count == 0 {
		count = len(aircraft)
	}

	entries := make([]BatchEntry, 0, count)
	for i := 0; i < count; i++ {
		model := aircraft[i%len(aircraft)]
		entries = append(entries, BatchEntry{
			Request:  fmt.Sprintf("create a landing pad for a %s", model),
			Aircraft: model,
		})
	}
	return entries, nil
}

// BatchSummary is written alongside the generated configs.
type BatchSummary struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Count       int          `json:"count"`
	Entries     []BatchEntry `json:"entries"`
}

func runBatch(cmd *cobra.Command, args []string) {
	dir := outputDir
	if dir == "" {
		dir = config.Output.Dir
	}
	if dir == "" {
		dir = "out"
	}
	prefix := config.Output.Prefix
	if prefix == "" {
		prefix = "tlof_config"
	}

	work, err := batchRequests(args)
	if err != nil {
		printError("Could not resolve the batch work list: %v", err)
		return
	}
	if len(work) == 0 {
		printError("Nothing to generate")
		return
	}

	workers := batchWorkers
	if config.Batch.Concurrency > 0 {
		workers = config.Batch.Concurrency
	}
	if workers < 1 {
		workers = 1
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		printError("Could not create the output directory: %v", err)
		return
	}

	printHeading(fmt.Sprintf("Generating %d configs into %s", len(work), dir))

	svc := newLocalService()
	// Keep disk writes paced so huge counts do not thrash the filesystem.
	limiter := rate.NewLimiter(rate.Limit(200), 20)

	var mu sync.Mutex
	entries := make([]BatchEntry, 0, len(work))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i, item := range work {
		filename := fmt.Sprintf("%s_%03d.json", prefix, i)
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			result, err := svc.Process(ctx, item.Request, nil, nil)
			if err != nil {
				return fmt.Errorf("generate %s: %w", filename, err)
			}
			if err := writeJSON(filepath.Join(dir, filename), result.Document, false); err != nil {
				return fmt.Errorf("write %s: %w", filename, err)
			}
			mu.Lock()
			entries = append(entries, BatchEntry{
				File:       filename,
				Request:    item.Request,
				Aircraft:   item.Aircraft,
				CreatedIDs: result.CreatedIDs,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		printError("Batch generation failed: %v", err)
		return
	}

	summary := BatchSummary{
		GeneratedAt: time.Now().UTC(),
		Count:       len(entries),
		Entries:     entries,
	}
	if err := writeJSON(filepath.Join(dir, "batch_summary.json"), summary, false); err != nil {
		printError("Could not write the batch summary: %v", err)
		return
	}
	printSuccess("Generated %d configs, summary at %s", len(entries), filepath.Join(dir, "batch_summary.json"))
}
