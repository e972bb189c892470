// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"fmt"
	"regexp"
	"time"

	"github.com/imvino/lyneAiBeta/pkg/validation"
	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// =============================================================================
// Default Layer Factory
// =============================================================================

// DefaultLayerFactory synthesizes a complete, template-valid layer instance
// when no external proposal is usable. It is the last line of defense: it
// never fails and never omits a template key.
type DefaultLayerFactory struct {
	catalog *LayerCatalog
}

// NewDefaultLayerFactory returns a factory backed by the given catalog.
func NewDefaultLayerFactory(catalog *LayerCatalog) *DefaultLayerFactory {
	return &DefaultLayerFactory{catalog: catalog}
}

// aircraftHint captures "for <name>" or "of <name>" phrases, used to seed
// the generated layer name.
var aircraftHint = regexp.MustCompile(`(?i)\b(?:for|of)\s+(?:(?:a|an|the)\s+)?([A-Za-z0-9][A-Za-z0-9_\-]*)`)

// Build produces one default instance for a layer type. Every key in the
// type's template is populated with its default value; unknown types get the
// generic template. The utterance only influences the generated name.
func (f *DefaultLayerFactory) Build(layerType datatypes.LayerType, utterance string) *datatypes.LayerInstance {
	dims, _ := f.catalog.TemplateFor(layerType)

	name := ExtractAircraftName(utterance)
	dims["layerName"] = fmt.Sprintf("%s_%s", layerType, name)

	return &datatypes.LayerInstance{
		ID:         GenerateLayerID(layerType),
		Position:   datatypes.NewPoint(0, 0),
		IsVisible:  datatypes.BoolPtr(true),
		Dimensions: dims,
	}
}

// BuildProposal assembles a factory-made partial update covering each given
// type, in the order given.
func (f *DefaultLayerFactory) BuildProposal(types []datatypes.LayerType, utterance string) datatypes.ProposalData {
	proposal := make(datatypes.ProposalData, len(types))
	for _, t := range types {
		proposal[t] = []*datatypes.LayerInstance{f.Build(t, utterance)}
	}
	return proposal
}

// ExtractAircraftName pulls an aircraft model hint out of an utterance,
// sanitized for use in names and file paths. Falls back to "001" when the
// utterance carries no usable hint.
func ExtractAircraftName(utterance string) string {
	m := aircraftHint.FindStringSubmatch(utterance)
	if m == nil {
		return "001"
	}
	return validation.SanitizeAircraftModel(m[1])
}

// GenerateLayerID builds a unique id from the type and the current time.
func GenerateLayerID(t datatypes.LayerType) string {
	return fmt.Sprintf("%s-%d", t, time.Now().UnixNano())
}
