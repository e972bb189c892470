// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package knowledge retrieves vertiport regulation passages from Weaviate.
//
// Passages (FAA/EASA vertiport design guidance, chunked at ingest time) live
// in the RegulationPassage class and are retrieved by BM25 keyword search.
// Retrieval is best-effort context for the proposal source; failures degrade
// to an empty context and never fail a chat turn.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lyneai.scene.knowledge")

// RegulationClassName is the Weaviate class holding regulation passages.
const RegulationClassName = "RegulationPassage"

// Passage is one retrieved regulation fragment.
type Passage struct {
	Content string
	Source  string
	Section string
}

// =============================================================================
// Schema
// =============================================================================

// GetRegulationSchema returns the class definition for regulation passages.
// BM25 works over the inverted index; no vectorizer is required.
func GetRegulationSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       RegulationClassName,
		Description: "A chunk of vertiport regulation or design guidance text.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "The passage text.",
				Tokenization: "word",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "Originating document (e.g. FAA EB-105).",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "section",
				DataType:        []string{"text"},
				Description:     "Section identifier within the source document.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

// EnsureSchema creates the RegulationPassage class if it does not exist yet.
func EnsureSchema(ctx context.Context, client *weaviate.Client) error {
	exists, err := client.Schema().ClassExistenceChecker().
		WithClassName(RegulationClassName).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for class %s: %w", RegulationClassName, err)
	}
	if exists {
		return nil
	}
	if err := client.Schema().ClassCreator().
		WithClass(GetRegulationSchema()).
		Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", RegulationClassName, err)
	}
	slog.Info("Created Weaviate class", "class", RegulationClassName)
	return nil
}

// =============================================================================
// Searcher
// =============================================================================

// WeaviateSearcher retrieves regulation passages by BM25 keyword search.
// Safe for concurrent use; the underlying client pools connections.
type WeaviateSearcher struct {
	client *weaviate.Client
}

// NewWeaviateSearcher wraps a connected Weaviate client.
func NewWeaviateSearcher(client *weaviate.Client) *WeaviateSearcher {
	return &WeaviateSearcher{client: client}
}

// Search implements the engine's KnowledgeSearcher: it returns the top
// passages for a query formatted as prompt context, or "" when nothing
// matched.
func (s *WeaviateSearcher) Search(ctx context.Context, query string, limit int) (string, error) {
	passages, err := s.SearchPassages(ctx, query, limit)
	if err != nil {
		return "", err
	}
	return FormatContext(passages), nil
}

// SearchPassages runs the BM25 query and returns structured results.
func (s *WeaviateSearcher) SearchPassages(ctx context.Context, query string, limit int) ([]Passage, error) {
	ctx, span := tracer.Start(ctx, "WeaviateSearcher.SearchPassages",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if limit <= 0 {
		limit = 3
	}
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "section"},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(RegulationClassName).
		WithFields(fields...).
		WithBM25(s.client.GraphQL().Bm25ArgBuilder().WithQuery(query)).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("regulation search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("regulation search error: %s", result.Errors[0].Message)
	}

	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return []Passage{}, nil // No results
	}
	objects, ok := data[RegulationClassName].([]interface{})
	if !ok {
		return []Passage{}, nil // No results
	}

	passages := make([]Passage, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue // skip malformed objects
		}
		passages = append(passages, Passage{
			Content: getString(m, "content"),
			Source:  getString(m, "source"),
			Section: getString(m, "section"),
		})
	}
	slog.Debug("Retrieved regulation passages", "count", len(passages))
	return passages, nil
}

// FormatContext renders passages as a prompt context block.
func FormatContext(passages []Passage) string {
	if len(passages) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if p.Source != "" {
			fmt.Fprintf(&b, "[%s", p.Source)
			if p.Section != "" {
				fmt.Fprintf(&b, " %s", p.Section)
			}
			b.WriteString("] ")
		}
		b.WriteString(p.Content)
	}
	return b.String()
}

// getString safely extracts a string from a map.
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
