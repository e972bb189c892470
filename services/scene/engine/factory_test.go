// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// =============================================================================
// Default Completeness Tests
// =============================================================================

func TestFactory_EveryTemplateKeyPopulated(t *testing.T) {
	catalog := NewLayerCatalog()
	f := NewDefaultLayerFactory(catalog)

	for _, lt := range datatypes.LayerTypes {
		li := f.Build(lt, "")
		tmpl, ok := catalog.TemplateFor(lt)
		require.True(t, ok, "type %s must have a template", lt)
		for key := range tmpl {
			_, present := li.Dimensions[key]
			assert.True(t, present, "type %s missing template key %q", lt, key)
		}
	}
}

func TestFactory_BuildDefaults(t *testing.T) {
	f := NewDefaultLayerFactory(NewLayerCatalog())
	li := f.Build(datatypes.LayerTaxiway, "")

	assert.Equal(t, 50.0, li.Dimensions["width"])
	assert.Equal(t, 300.0, li.Dimensions["length"])
	assert.True(t, li.Visible())
	require.NotNil(t, li.Position)
	assert.Equal(t, []float64{0, 0}, li.Position.Point)
	assert.NotEmpty(t, li.ID)
}

func TestFactory_UnknownTypeGetsGenericTemplate(t *testing.T) {
	f := NewDefaultLayerFactory(NewLayerCatalog())
	li := f.Build(datatypes.LayerType("MYSTERY"), "")

	assert.NotEmpty(t, li.Dimensions)
	assert.Contains(t, li.Dimensions, "layerName")
	assert.Contains(t, li.Dimensions, "unit")
}

// =============================================================================
// Layer Name Tests
// =============================================================================

func TestFactory_LayerNameFromAircraftHint(t *testing.T) {
	f := NewDefaultLayerFactory(NewLayerCatalog())
	li := f.Build(datatypes.LayerTLOF, "create a landing pad for Volocity")

	assert.Equal(t, "TLOF_VOLOCITY", li.LayerName())
}

func TestFactory_LayerNameFallback(t *testing.T) {
	f := NewDefaultLayerFactory(NewLayerCatalog())
	li := f.Build(datatypes.LayerTLOF, "create a landing pad")

	assert.Equal(t, "TLOF_001", li.LayerName())
}

func TestExtractAircraftName(t *testing.T) {
	tests := []struct {
		utterance string
		want      string
	}{
		{"a pad for JobyS4", "JOBYS4"},
		{"geometry of the EH216", "EH216"},
		{"pad for a Volocity please", "VOLOCITY"},
		{"no hint here", "001"},
		{"for !!!", "001"},
		{"", "001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractAircraftName(tt.utterance), "utterance: %s", tt.utterance)
	}
}

// =============================================================================
// Proposal Assembly Tests
// =============================================================================

func TestFactory_BuildProposalCoversAllTypes(t *testing.T) {
	f := NewDefaultLayerFactory(NewLayerCatalog())
	types := []datatypes.LayerType{datatypes.LayerTLOF, datatypes.LayerFATO}

	proposal := f.BuildProposal(types, "add a helipad")

	require.Len(t, proposal, 2)
	for _, lt := range types {
		require.Len(t, proposal[lt], 1)
		assert.NotEmpty(t, proposal[lt][0].Dimensions)
	}
}

func TestGenerateLayerID_Unique(t *testing.T) {
	a := GenerateLayerID(datatypes.LayerTLOF)
	b := GenerateLayerID(datatypes.LayerTLOF)
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "TLOF-")
}
