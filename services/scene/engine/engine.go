// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

var tracer = otel.Tracer("lyneai.scene.engine")

// =============================================================================
// Scene Chat Service
// =============================================================================

// KnowledgeSearcher retrieves regulatory context for a chat message. May be
// nil; retrieval failures degrade to an empty context, never to a request
// failure.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, limit int) (string, error)
}

// SceneChatService runs one chat turn end to end: normalize the incoming
// document, classify, resolve references, obtain a proposal (or fall back to
// defaults), and merge. It holds no per-request state; the document is
// supplied by and returned to the caller on every call.
type SceneChatService struct {
	classifier *IntentClassifier
	resolver   *ReferenceResolver
	factory    *DefaultLayerFactory
	merger     *SceneMerger
	proposer   ProposalSource
	knowledge  KnowledgeSearcher
}

// NewSceneChatService wires the pipeline. proposer and knowledge may be nil;
// the service then always uses factory defaults and no retrieved context.
func NewSceneChatService(catalog *LayerCatalog, proposer ProposalSource, knowledge KnowledgeSearcher) *SceneChatService {
	return &SceneChatService{
		classifier: NewIntentClassifier(),
		resolver:   NewReferenceResolver(catalog),
		factory:    NewDefaultLayerFactory(catalog),
		merger:     NewSceneMerger(catalog),
		proposer:   proposer,
		knowledge:  knowledge,
	}
}

// Result is the outcome of one processed chat turn.
type Result struct {
	Intent        string
	DetectedTypes []datatypes.LayerType
	Reply         string
	Document      datatypes.SceneDocument
	CreatedIDs    []string
	UpdatedIDs    []string

	// UsedDefaults reports that the proposal source was unavailable or
	// unusable and factory templates answered instead.
	UsedDefaults bool
}

// Process handles one chat message against a raw scene document.
//
// The only errors returned are ErrUnparseableDocument (client input error)
// and UnmatchedReferenceError (the utterance named an instance that does not
// exist). Proposal failures are recovered with factory defaults.
func (s *SceneChatService) Process(ctx context.Context, message string, history []datatypes.Message, rawDoc []byte) (*Result, error) {
	ctx, span := tracer.Start(ctx, "SceneChatService.Process")
	defer span.End()

	doc, err := datatypes.NormalizeDocumentJSON(rawDoc)
	if err != nil {
		return nil, err
	}

	intentRes := s.classifier.Classify(message)
	span.SetAttributes(
		attribute.String("scene.intent", intentRes.Intent),
		attribute.Int("scene.detected_types", len(intentRes.LayerTypes)),
	)

	// Type selection for UNKNOWN follows the CREATE path: the utterance's
	// mentioned types still decide which templates are in play.
	resolveIntent := intentRes.Intent
	if resolveIntent == datatypes.IntentUnknown {
		resolveIntent = datatypes.IntentCreate
	}

	result := &Result{
		Intent:        intentRes.Intent,
		DetectedTypes: intentRes.LayerTypes,
		Document:      doc,
	}

	if len(intentRes.LayerTypes) == 0 {
		result.Reply = "I could not identify a layer type in your request. " +
			"Try mentioning one, for example a landing pad, taxiway, or flight path."
		return result, nil
	}

	relevant, err := s.resolver.Resolve(doc, intentRes.LayerTypes, message, resolveIntent)
	if err != nil {
		return nil, err
	}

	factualText := s.retrieveContext(ctx, message)
	proposal, usedDefaults := s.obtainProposal(ctx, message, history, resolveIntent, intentRes.LayerTypes, relevant, factualText)

	outcome := s.merger.Merge(doc, proposal.Data, resolveIntent)
	result.Document = outcome.Document
	result.CreatedIDs = outcome.CreatedIDs
	result.UpdatedIDs = outcome.UpdatedIDs
	result.UsedDefaults = usedDefaults
	result.Reply = s.buildReply(proposal.Text, outcome, usedDefaults)
	span.SetAttributes(
		attribute.Int("scene.created", len(outcome.CreatedIDs)),
		attribute.Int("scene.updated", len(outcome.UpdatedIDs)),
	)
	return result, nil
}

// retrieveContext queries the knowledge store, degrading to empty on any
// failure.
func (s *SceneChatService) retrieveContext(ctx context.Context, message string) string {
	if s.knowledge == nil {
		return ""
	}
	text, err := s.knowledge.Search(ctx, message, 3)
	if err != nil {
		slog.Warn("Knowledge retrieval failed, continuing without context", "error", err)
		return ""
	}
	return text
}

// obtainProposal asks the proposal source, falling back to defaults when the
// source is missing or fails. The second return reports whether defaults
// were used.
//
// Fallback shape depends on intent: CREATE gets one factory-built instance
// per detected type; UPDATE targets the instances the resolver matched (so a
// failed proposal never turns an update into a duplicate creation) and only
// creates fresh defaults for types with no match.
func (s *SceneChatService) obtainProposal(
	ctx context.Context,
	message string,
	history []datatypes.Message,
	intent string,
	types []datatypes.LayerType,
	relevant map[datatypes.LayerType][]*datatypes.LayerInstance,
	factualText string,
) (*Proposal, bool) {
	if s.proposer != nil {
		proposal, err := s.proposer.Propose(ctx, message, history, relevant, factualText)
		if err == nil && proposal != nil && len(proposal.Data) > 0 {
			return proposal, false
		}
		if err != nil {
			slog.Warn("Proposal source failed, using default layers", "error", err)
		}
	}

	if intent != datatypes.IntentUpdate {
		return &Proposal{Data: s.factory.BuildProposal(types, message)}, true
	}

	data := datatypes.ProposalData{}
	for _, t := range types {
		if len(relevant[t]) > 0 {
			targets := make([]*datatypes.LayerInstance, 0, len(relevant[t]))
			for _, li := range relevant[t] {
				targets = append(targets, &datatypes.LayerInstance{ID: li.ID})
			}
			data[t] = targets
			continue
		}
		data[t] = []*datatypes.LayerInstance{s.factory.Build(t, message)}
	}
	return &Proposal{Data: data}, true
}

func (s *SceneChatService) buildReply(proposalText string, outcome MergeOutcome, usedDefaults bool) string {
	var parts []string
	if proposalText != "" {
		parts = append(parts, proposalText)
	}
	if n := len(outcome.CreatedIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("Created %d layer(s).", n))
	}
	if n := len(outcome.UpdatedIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("Updated %d layer(s).", n))
	}
	if usedDefaults {
		parts = append(parts, "Default dimensions were applied; adjust any value as needed.")
	}
	return strings.Join(parts, " ")
}
