// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/time/rate"

	"github.com/imvino/lyneAiBeta/services/llm"
	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// =============================================================================
// Error Types
// =============================================================================

// ProposalUnavailableError signals that the external proposal source failed
// or returned unusable data. This is always recovered from by falling back
// to the default layer factory; it is never fatal.
type ProposalUnavailableError struct {
	Reason string
	Err    error
}

func (e *ProposalUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("proposal unavailable (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("proposal unavailable: %s", e.Reason)
}

func (e *ProposalUnavailableError) Unwrap() error { return e.Err }

// IsProposalUnavailable checks if an error is a ProposalUnavailableError.
func IsProposalUnavailable(err error) bool {
	_, ok := err.(*ProposalUnavailableError)
	return ok
}

// =============================================================================
// Proposal Source
// =============================================================================

// Proposal is the structured result of an external proposal call: a
// human-readable reply plus a partial document update.
type Proposal struct {
	Text string
	Data datatypes.ProposalData
}

// ProposalSource produces a layer proposal for a user message. history is
// the prior conversation turns; relevant is advisory context (the instances
// the resolver matched); factualText is retrieved regulatory context, empty
// when no knowledge store is wired.
type ProposalSource interface {
	Propose(ctx context.Context, userMessage string, history []datatypes.Message, relevant map[datatypes.LayerType][]*datatypes.LayerInstance, factualText string) (*Proposal, error)
}

// ChatClient is implemented by LLM backends with a native multi-turn chat
// endpoint. Backends without it get the history flattened into the prompt.
type ChatClient interface {
	Chat(ctx context.Context, messages []datatypes.Message, params llm.GenerationParams) (string, error)
}

// =============================================================================
// LLM-backed Proposer
// =============================================================================

// LLMProposer asks an LLM backend for a scene update and extracts the JSON
// payload from its free-text answer.
type LLMProposer struct {
	client  llm.LLMClient
	catalog *LayerCatalog
	limiter *rate.Limiter
}

// NewLLMProposer wraps an LLM client. The limiter bounds upstream call rate
// across concurrent requests; pass nil to disable limiting.
func NewLLMProposer(client llm.LLMClient, catalog *LayerCatalog, limiter *rate.Limiter) *LLMProposer {
	return &LLMProposer{client: client, catalog: catalog, limiter: limiter}
}

// Propose implements ProposalSource. Backends that implement ChatClient
// receive the conversation history as real chat turns; other backends get a
// single flattened prompt.
func (p *LLMProposer) Propose(
	ctx context.Context,
	userMessage string,
	history []datatypes.Message,
	relevant map[datatypes.LayerType][]*datatypes.LayerInstance,
	factualText string,
) (*Proposal, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, &ProposalUnavailableError{Reason: "rate limiter", Err: err}
		}
	}

	var raw string
	var err error
	if chatter, ok := p.client.(ChatClient); ok && len(history) > 0 {
		messages := make([]datatypes.Message, 0, len(history)+2)
		messages = append(messages, datatypes.Message{
			Role:    "system",
			Content: p.buildContext(relevant, factualText),
		})
		messages = append(messages, history...)
		messages = append(messages, datatypes.Message{Role: "user", Content: userMessage})
		raw, err = chatter.Chat(ctx, messages, llm.GenerationParams{})
	} else {
		prompt := p.buildPrompt(userMessage, history, relevant, factualText)
		raw, err = p.client.Generate(ctx, prompt, llm.GenerationParams{})
	}
	if err != nil {
		return nil, &ProposalUnavailableError{Reason: "llm call failed", Err: err}
	}

	data, ok := ExtractProposalJSON(raw)
	if !ok {
		slog.Warn("Could not extract usable JSON from proposal response",
			"response_prefix", truncate(raw, 200))
		return nil, &ProposalUnavailableError{Reason: "no parseable JSON in response"}
	}
	return &Proposal{Text: stripCodeFences(raw), Data: data}, nil
}

// buildContext assembles the instruction block: per-type templates so the
// model knows the legal keys, the matched instances so updates reference
// real state, and any retrieved regulatory text.
func (p *LLMProposer) buildContext(
	relevant map[datatypes.LayerType][]*datatypes.LayerInstance,
	factualText string,
) string {
	var b strings.Builder
	b.WriteString("Produce a JSON object mapping layer type to an array of layer instances ")
	b.WriteString("({\"id\", \"position\": [longitude, latitude], \"isVisible\", \"dimensions\"}). ")
	b.WriteString("Only include layer types the request concerns.\n\n")

	for _, t := range datatypes.LayerTypes {
		instances, ok := relevant[t]
		if !ok {
			continue
		}
		tmpl, _ := p.catalog.TemplateFor(t)
		if encoded, err := json.Marshal(tmpl); err == nil {
			fmt.Fprintf(&b, "Template for %s: %s\n", t, encoded)
		}
		if len(instances) > 0 {
			if encoded, err := json.Marshal(instances); err == nil {
				fmt.Fprintf(&b, "Existing %s instances under discussion: %s\n", t, encoded)
			}
		}
	}

	if factualText != "" {
		b.WriteString("\nRelevant regulatory context:\n")
		b.WriteString(factualText)
		b.WriteString("\n")
	}
	return b.String()
}

// buildPrompt flattens everything, history included, into one completion
// prompt for backends without a chat endpoint.
func (p *LLMProposer) buildPrompt(
	userMessage string,
	history []datatypes.Message,
	relevant map[datatypes.LayerType][]*datatypes.LayerInstance,
	factualText string,
) string {
	var b strings.Builder
	b.WriteString(p.buildContext(relevant, factualText))

	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}

	b.WriteString("\nRequest: ")
	b.WriteString(userMessage)
	return b.String()
}

// =============================================================================
// JSON Extraction
// =============================================================================

var (
	jsonFence    = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	genericFence = regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```")
)

// ExtractProposalJSON pulls a proposal payload out of free-form model
// output. It tries, in order: direct parse of the whole string, a ```json
// fenced block, a generic fenced block, and finally the outermost balanced
// brace span. Returns false when nothing parses into a usable proposal.
func ExtractProposalJSON(s string) (datatypes.ProposalData, bool) {
	candidates := []string{strings.TrimSpace(s)}
	if m := jsonFence.FindStringSubmatch(s); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := genericFence.FindStringSubmatch(s); m != nil {
		candidates = append(candidates, m[1])
	}
	if span := outermostBraces(s); span != "" {
		candidates = append(candidates, span)
	}

	for _, c := range candidates {
		var v map[string]any
		if err := json.Unmarshal([]byte(c), &v); err != nil {
			continue
		}
		if data := proposalFromObject(v); len(data) > 0 {
			return data, true
		}
	}
	return nil, false
}

// proposalFromObject reuses the normalizer's tolerant instance coercion.
// An object with no recognizable instances counts as unusable.
func proposalFromObject(obj map[string]any) datatypes.ProposalData {
	data := datatypes.ProposalData{}
	for key, val := range obj {
		t, known := datatypes.KnownLayerType(key)
		if !known {
			t = datatypes.LayerType(strings.ToUpper(strings.TrimSpace(key)))
		}
		instances := datatypes.CoerceInstances(val)
		if len(instances) > 0 {
			data[t] = instances
		}
	}
	return data
}

// outermostBraces returns the first balanced top-level {...} span, or "".
func outermostBraces(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func stripCodeFences(s string) string {
	s = jsonFence.ReplaceAllString(s, "")
	s = genericFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
