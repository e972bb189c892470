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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// failingProposer always errors, forcing the default-factory fallback.
type failingProposer struct{}

func (f *failingProposer) Propose(ctx context.Context, msg string, history []datatypes.Message, rel map[datatypes.LayerType][]*datatypes.LayerInstance, factual string) (*Proposal, error) {
	return nil, &ProposalUnavailableError{Reason: "test", Err: errors.New("boom")}
}

// staticProposer returns a fixed proposal and records what it was asked.
type staticProposer struct {
	proposal    *Proposal
	lastHistory []datatypes.Message
}

func (s *staticProposer) Propose(ctx context.Context, msg string, history []datatypes.Message, rel map[datatypes.LayerType][]*datatypes.LayerInstance, factual string) (*Proposal, error) {
	s.lastHistory = history
	return s.proposal, nil
}

func newService(p ProposalSource) *SceneChatService {
	return NewSceneChatService(NewLayerCatalog(), p, nil)
}

// =============================================================================
// End-to-end Scenario Tests
// =============================================================================

func TestProcess_CreateIntoEmptyDocument(t *testing.T) {
	svc := newService(nil)

	res, err := svc.Process(context.Background(), "create a tlof", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, datatypes.IntentCreate, res.Intent)
	require.Len(t, res.Document[datatypes.LayerTLOF], 1)
	assert.Equal(t, "LANDING SURFACE (1)", res.Document[datatypes.LayerTLOF][0].LayerName())
	assert.Len(t, res.CreatedIDs, 1)
}

func TestProcess_UpdateHit(t *testing.T) {
	existing := `{"TLOF": [{"id": "TLOF-1", "dimensions": {"layerName": "LANDING SURFACE (1)", "rotation": 0}}]}`
	svc := newService(&staticProposer{proposal: &Proposal{
		Text: "Rotated the pad.",
		Data: datatypes.ProposalData{
			datatypes.LayerTLOF: {{ID: "TLOF-1", Dimensions: datatypes.Dimensions{"rotation": 90.0}}},
		},
	}})

	res, err := svc.Process(context.Background(), "rotate the tlof by 90 degrees", nil, []byte(existing))

	require.NoError(t, err)
	assert.Equal(t, datatypes.IntentUpdate, res.Intent)
	require.Len(t, res.Document[datatypes.LayerTLOF], 1, "update must not add an instance")
	updated := res.Document[datatypes.LayerTLOF][0]
	assert.Equal(t, 90.0, updated.Dimensions["rotation"])
	assert.Equal(t, "LANDING SURFACE (1)", updated.LayerName())
	assert.Contains(t, res.Reply, "Rotated the pad.")
}

func TestProcess_UpdateMissReportsError(t *testing.T) {
	existing := `{"TLOF": [{"id": "TLOF-1", "dimensions": {"layerName": "LANDING SURFACE (1)"}}]}`
	svc := newService(nil)

	_, err := svc.Process(context.Background(), "update LANDING SURFACE (5)", nil, []byte(existing))

	require.Error(t, err)
	assert.True(t, IsUnmatchedReference(err))
	assert.Contains(t, err.Error(), "LANDING SURFACE (1)")
}

func TestProcess_CompoundSynonym(t *testing.T) {
	svc := newService(nil)

	res, err := svc.Process(context.Background(), "add a helipad for JobyS4", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, datatypes.IntentCreate, res.Intent)
	assert.Equal(t,
		[]datatypes.LayerType{datatypes.LayerTLOF, datatypes.LayerFATO},
		res.DetectedTypes)
	assert.Len(t, res.Document[datatypes.LayerTLOF], 1)
	assert.Len(t, res.Document[datatypes.LayerFATO], 1)
}

func TestProcess_HistoryReachesProposer(t *testing.T) {
	p := &staticProposer{proposal: &Proposal{
		Data: datatypes.ProposalData{
			datatypes.LayerTLOF: {{Dimensions: datatypes.Dimensions{"width": 30.0}}},
		},
	}}
	svc := newService(p)
	history := []datatypes.Message{
		{Role: "user", Content: "create a tlof"},
		{Role: "assistant", Content: "Created a landing surface."},
	}

	_, err := svc.Process(context.Background(), "make the tlof wider", history, nil)

	require.NoError(t, err)
	assert.Equal(t, history, p.lastHistory)
}

func TestProcess_ProposalFailureFallsBackToDefaults(t *testing.T) {
	svc := newService(&failingProposer{})

	res, err := svc.Process(context.Background(), "create a taxiway", nil, nil)

	require.NoError(t, err, "proposal failure is never fatal")
	require.Len(t, res.Document[datatypes.LayerTaxiway], 1)
	created := res.Document[datatypes.LayerTaxiway][0]
	assert.Equal(t, 50.0, created.Dimensions["width"])
	assert.Equal(t, 300.0, created.Dimensions["length"])
	assert.NotEmpty(t, created.LayerName())
	assert.Contains(t, res.Reply, "Default dimensions were applied")
}

// =============================================================================
// Edge Cases
// =============================================================================

func TestProcess_UnknownIntentTreatedAsCreateForSelection(t *testing.T) {
	svc := newService(nil)

	res, err := svc.Process(context.Background(), "a landing surface over there", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, datatypes.IntentUnknown, res.Intent)
	assert.Len(t, res.Document[datatypes.LayerTLOF], 1)
}

func TestProcess_NoDetectedTypesReturnsGuidance(t *testing.T) {
	svc := newService(nil)

	res, err := svc.Process(context.Background(), "create something", nil, nil)

	require.NoError(t, err)
	assert.Empty(t, res.CreatedIDs)
	assert.NotEmpty(t, res.Reply)
	for _, lt := range datatypes.LayerTypes {
		assert.Empty(t, res.Document[lt])
	}
}

func TestProcess_MalformedDocumentNormalized(t *testing.T) {
	svc := newService(nil)
	// Array-of-partials input with a garbage instance mixed in.
	raw := `[{"TLOF": [{"id": "a"}]}, {"FATO": "not-a-sequence"}]`

	res, err := svc.Process(context.Background(), "create a taxiway", nil, []byte(raw))

	require.NoError(t, err)
	assert.Len(t, res.Document[datatypes.LayerTLOF], 1)
	assert.Len(t, res.Document[datatypes.LayerTaxiway], 1)
}

func TestProcess_UnparseableDocumentIsClientError(t *testing.T) {
	svc := newService(nil)

	_, err := svc.Process(context.Background(), "create a tlof", nil, []byte(`"just a string"`))

	require.Error(t, err)
	assert.True(t, errors.Is(err, datatypes.ErrUnparseableDocument))
}

func TestProcess_ResultDocumentRoundTrips(t *testing.T) {
	svc := newService(nil)

	res, err := svc.Process(context.Background(), "create a landing pad", nil, nil)
	require.NoError(t, err)

	encoded, err := json.Marshal(res.Document)
	require.NoError(t, err)

	again, err := svc.Process(context.Background(), "rotate LANDING SURFACE (1)", nil, encoded)
	require.NoError(t, err)
	assert.Len(t, again.Document[datatypes.LayerTLOF], 1)
	assert.Len(t, again.UpdatedIDs, 1)
}
