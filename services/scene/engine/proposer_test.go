// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imvino/lyneAiBeta/services/llm"
	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// =============================================================================
// Mock LLM Client
// =============================================================================

// MockLLMClient implements llm.LLMClient for testing purposes.
type MockLLMClient struct {
	// Response is returned by Generate
	Response string
	// Err is returned as error by Generate
	Err error
	// CallCount tracks how many times Generate was called
	CallCount int
	// LastPrompt stores the last prompt passed to Generate
	LastPrompt string
}

// Generate implements the llm.LLMClient interface for testing.
func (m *MockLLMClient) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	m.CallCount++
	m.LastPrompt = prompt
	return m.Response, m.Err
}

// MockChatLLMClient additionally implements engine.ChatClient.
type MockChatLLMClient struct {
	MockLLMClient
	// ChatCallCount tracks how many times Chat was called
	ChatCallCount int
	// LastMessages stores the last message list passed to Chat
	LastMessages []datatypes.Message
}

// Chat implements the ChatClient interface for testing.
func (m *MockChatLLMClient) Chat(ctx context.Context, messages []datatypes.Message, params llm.GenerationParams) (string, error) {
	m.ChatCallCount++
	m.LastMessages = messages
	return m.Response, m.Err
}

// =============================================================================
// JSON Extraction Tests
// =============================================================================

func TestExtractProposalJSON_DirectParse(t *testing.T) {
	data, ok := ExtractProposalJSON(`{"TLOF": [{"position": [0,0], "dimensions": {"width": 30}}]}`)
	require.True(t, ok)
	require.Len(t, data[datatypes.LayerTLOF], 1)
	assert.Equal(t, 30.0, data[datatypes.LayerTLOF][0].Dimensions["width"])
}

func TestExtractProposalJSON_JSONFence(t *testing.T) {
	response := "Here is your configuration:\n```json\n{\"TLOF\": [{\"dimensions\": {\"width\": 25}}]}\n```\nLet me know if you need changes."
	data, ok := ExtractProposalJSON(response)
	require.True(t, ok)
	assert.Equal(t, 25.0, data[datatypes.LayerTLOF][0].Dimensions["width"])
}

func TestExtractProposalJSON_GenericFence(t *testing.T) {
	response := "```\n{\"FATO\": [{\"dimensions\": {\"length\": 40}}]}\n```"
	data, ok := ExtractProposalJSON(response)
	require.True(t, ok)
	assert.Equal(t, 40.0, data[datatypes.LayerFATO][0].Dimensions["length"])
}

func TestExtractProposalJSON_BraceMatching(t *testing.T) {
	response := `Sure! The config is {"TAXIWAY": [{"dimensions": {"width": 50}}]} as requested.`
	data, ok := ExtractProposalJSON(response)
	require.True(t, ok)
	assert.Equal(t, 50.0, data[datatypes.LayerTaxiway][0].Dimensions["width"])
}

func TestExtractProposalJSON_BracesInsideStrings(t *testing.T) {
	response := `{"TLOF": [{"dimensions": {"layerName": "pad {alpha}"}}]}`
	data, ok := ExtractProposalJSON(response)
	require.True(t, ok)
	assert.Equal(t, "pad {alpha}", data[datatypes.LayerTLOF][0].LayerName())
}

func TestExtractProposalJSON_NoJSON(t *testing.T) {
	_, ok := ExtractProposalJSON("I'm sorry, I cannot help with that.")
	assert.False(t, ok)
}

func TestExtractProposalJSON_EmptyObjectUnusable(t *testing.T) {
	_, ok := ExtractProposalJSON(`{}`)
	assert.False(t, ok)
}

func TestExtractProposalJSON_LowercaseTypeKey(t *testing.T) {
	data, ok := ExtractProposalJSON(`{"tlof": [{"dimensions": {"width": 10}}]}`)
	require.True(t, ok)
	assert.Len(t, data[datatypes.LayerTLOF], 1)
}

// =============================================================================
// LLMProposer Tests
// =============================================================================

func TestLLMProposer_SuccessfulProposal(t *testing.T) {
	mock := &MockLLMClient{
		Response: `{"TLOF": [{"dimensions": {"width": 30}}]}`,
	}
	p := NewLLMProposer(mock, NewLayerCatalog(), nil)

	proposal, err := p.Propose(context.Background(), "create a tlof", nil,
		map[datatypes.LayerType][]*datatypes.LayerInstance{datatypes.LayerTLOF: {}}, "")

	require.NoError(t, err)
	require.Len(t, proposal.Data[datatypes.LayerTLOF], 1)
	assert.Equal(t, 1, mock.CallCount)
	assert.Contains(t, mock.LastPrompt, "Template for TLOF")
}

func TestLLMProposer_LLMFailure(t *testing.T) {
	mock := &MockLLMClient{Err: errors.New("connection refused")}
	p := NewLLMProposer(mock, NewLayerCatalog(), nil)

	_, err := p.Propose(context.Background(), "create a tlof", nil, nil, "")

	require.Error(t, err)
	assert.True(t, IsProposalUnavailable(err))
}

func TestLLMProposer_UnparseableResponse(t *testing.T) {
	mock := &MockLLMClient{Response: "no json here at all"}
	p := NewLLMProposer(mock, NewLayerCatalog(), nil)

	_, err := p.Propose(context.Background(), "create a tlof", nil, nil, "")

	require.Error(t, err)
	assert.True(t, IsProposalUnavailable(err))
}

func TestLLMProposer_HistoryUsesChatEndpoint(t *testing.T) {
	mock := &MockChatLLMClient{MockLLMClient: MockLLMClient{
		Response: `{"TLOF": [{"dimensions": {"width": 30}}]}`,
	}}
	p := NewLLMProposer(mock, NewLayerCatalog(), nil)
	history := []datatypes.Message{
		{Role: "user", Content: "create a tlof"},
		{Role: "assistant", Content: "Created a landing surface."},
	}

	proposal, err := p.Propose(context.Background(), "make it wider", history,
		map[datatypes.LayerType][]*datatypes.LayerInstance{datatypes.LayerTLOF: {}}, "")

	require.NoError(t, err)
	require.Len(t, proposal.Data[datatypes.LayerTLOF], 1)
	assert.Equal(t, 1, mock.ChatCallCount)
	assert.Equal(t, 0, mock.CallCount, "chat-capable clients must not be called through Generate")
	require.Len(t, mock.LastMessages, 4)
	assert.Equal(t, "system", mock.LastMessages[0].Role)
	assert.Contains(t, mock.LastMessages[0].Content, "Template for TLOF")
	assert.Equal(t, history, mock.LastMessages[1:3])
	assert.Equal(t, datatypes.Message{Role: "user", Content: "make it wider"}, mock.LastMessages[3])
}

func TestLLMProposer_EmptyHistorySkipsChatEndpoint(t *testing.T) {
	mock := &MockChatLLMClient{MockLLMClient: MockLLMClient{
		Response: `{"TLOF": [{"dimensions": {}}]}`,
	}}
	p := NewLLMProposer(mock, NewLayerCatalog(), nil)

	_, err := p.Propose(context.Background(), "create a tlof", nil,
		map[datatypes.LayerType][]*datatypes.LayerInstance{datatypes.LayerTLOF: {}}, "")

	require.NoError(t, err)
	assert.Equal(t, 0, mock.ChatCallCount)
	assert.Equal(t, 1, mock.CallCount)
}

func TestLLMProposer_HistoryFlattenedForGenerateOnlyClients(t *testing.T) {
	mock := &MockLLMClient{Response: `{"TLOF": [{"dimensions": {}}]}`}
	p := NewLLMProposer(mock, NewLayerCatalog(), nil)
	history := []datatypes.Message{
		{Role: "user", Content: "create a tlof"},
		{Role: "assistant", Content: "Created a landing surface."},
	}

	_, err := p.Propose(context.Background(), "make it wider", history,
		map[datatypes.LayerType][]*datatypes.LayerInstance{datatypes.LayerTLOF: {}}, "")

	require.NoError(t, err)
	assert.Contains(t, mock.LastPrompt, "user: create a tlof")
	assert.Contains(t, mock.LastPrompt, "assistant: Created a landing surface.")
	assert.Contains(t, mock.LastPrompt, "Request: make it wider")
}

func TestLLMProposer_FactualTextInPrompt(t *testing.T) {
	mock := &MockLLMClient{Response: `{"TLOF": [{"dimensions": {}}]}`}
	p := NewLLMProposer(mock, NewLayerCatalog(), nil)

	_, err := p.Propose(context.Background(), "create a tlof", nil,
		map[datatypes.LayerType][]*datatypes.LayerInstance{datatypes.LayerTLOF: {}},
		"FATO dimensions shall be at least 1.5D.")

	require.NoError(t, err)
	assert.Contains(t, mock.LastPrompt, "FATO dimensions shall be at least 1.5D.")
}
