// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the scene service.
//
// This file contains the scene document model: the fixed layer-type
// enumeration, layer instances with partial-update semantics, and the
// normalizer that coerces arbitrary caller-supplied JSON into a
// structurally valid document.
package datatypes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Layer Types
// =============================================================================

// LayerType identifies a category of scene element.
type LayerType string

const (
	LayerTLOF          LayerType = "TLOF"
	LayerFATO          LayerType = "FATO"
	LayerTaxiway       LayerType = "TAXIWAY"
	LayerShape         LayerType = "SHAPE"
	LayerModel         LayerType = "MODEL"
	LayerVolume        LayerType = "VOLUME"
	LayerFlightPath    LayerType = "FLIGHTPATH"
	LayerFlightPathVFR LayerType = "FLIGHTPATH_VFR"
)

// LayerTypes is the canonical ordering of the fixed layer-type enumeration.
// Every normalized SceneDocument carries exactly these keys (plus any unknown
// keys the caller supplied, preserved permissively).
var LayerTypes = []LayerType{
	LayerTLOF,
	LayerFATO,
	LayerTaxiway,
	LayerShape,
	LayerModel,
	LayerVolume,
	LayerFlightPath,
	LayerFlightPathVFR,
}

// KnownLayerType resolves a raw string to a member of the fixed enumeration.
// Matching is case-insensitive. Returns false for anything outside the set.
func KnownLayerType(s string) (LayerType, bool) {
	upper := LayerType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range LayerTypes {
		if t == upper {
			return t, true
		}
	}
	return "", false
}

// =============================================================================
// Position
// =============================================================================

// Coordinate range limits for WGS84 [longitude, latitude] pairs.
const (
	MaxLongitude = 180.0
	MaxLatitude  = 90.0
)

// Position is a geographic anchor for a layer instance. Point layers carry a
// single [lng, lat] pair; path-like layers (taxiways, flight paths) carry an
// ordered coordinate sequence. Exactly one of Point or Path is populated.
//
// Components are clamped to their legal WGS84 range whenever a position is
// decoded or constructed; correctness beyond clamping is out of scope.
type Position struct {
	Point []float64
	Path  [][]float64
}

// NewPoint builds a clamped single-coordinate position.
func NewPoint(lng, lat float64) *Position {
	return &Position{Point: []float64{clampLng(lng), clampLat(lat)}}
}

// UnmarshalJSON accepts either a flat [lng, lat] pair or a nested coordinate
// sequence. Anything else (wrong arity, non-numeric entries) is rejected so
// the caller can fall back to a default position.
func (p *Position) UnmarshalJSON(data []byte) error {
	var flat []float64
	if err := json.Unmarshal(data, &flat); err == nil {
		if len(flat) != 2 {
			return fmt.Errorf("position must have 2 components, got %d", len(flat))
		}
		p.Point = []float64{clampLng(flat[0]), clampLat(flat[1])}
		p.Path = nil
		return nil
	}

	var nested [][]float64
	if err := json.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("position is neither a coordinate nor a coordinate sequence: %w", err)
	}
	path := make([][]float64, 0, len(nested))
	for _, pair := range nested {
		if len(pair) != 2 {
			return fmt.Errorf("path coordinate must have 2 components, got %d", len(pair))
		}
		path = append(path, []float64{clampLng(pair[0]), clampLat(pair[1])})
	}
	p.Point = nil
	p.Path = path
	return nil
}

// MarshalJSON emits the populated variant. An empty position marshals as the
// origin pair so the document never carries a null position.
func (p *Position) MarshalJSON() ([]byte, error) {
	if p.Path != nil {
		return json.Marshal(p.Path)
	}
	if p.Point != nil {
		return json.Marshal(p.Point)
	}
	return json.Marshal([]float64{0, 0})
}

// Clone returns a deep copy.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	out := &Position{}
	if p.Point != nil {
		out.Point = append([]float64(nil), p.Point...)
	}
	for _, pair := range p.Path {
		out.Path = append(out.Path, append([]float64(nil), pair...))
	}
	return out
}

func clampLng(v float64) float64 { return clamp(v, -MaxLongitude, MaxLongitude) }
func clampLat(v float64) float64 { return clamp(v, -MaxLatitude, MaxLatitude) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// =============================================================================
// Layer Instances
// =============================================================================

// Dimensions holds the per-type parameter map of a layer instance. Legal keys
// and value ranges are defined by the layer type's template; the map always
// contains "layerName", the display string unique within its type's sequence.
type Dimensions map[string]any

// Clone returns a shallow-value copy (dimension values are scalars or small
// JSON values; nested structures are copied by reference intentionally, as
// merge rules are key-wise).
func (d Dimensions) Clone() Dimensions {
	if d == nil {
		return nil
	}
	out := make(Dimensions, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// LayerInstance is one placed scene element. Optional fields are pointers so
// a decoded proposal distinguishes "absent" from zero values; the merge rules
// are replace-if-present for Position and IsVisible, key-wise shallow merge
// for Dimensions, and retain-or-adopt for ID.
type LayerInstance struct {
	ID         string     `json:"id,omitempty"`
	Position   *Position  `json:"position,omitempty"`
	IsVisible  *bool      `json:"isVisible,omitempty"`
	Dimensions Dimensions `json:"dimensions,omitempty"`
}

// LayerName returns the display name from the dimensions map, or "".
func (li *LayerInstance) LayerName() string {
	if li == nil || li.Dimensions == nil {
		return ""
	}
	if name, ok := li.Dimensions["layerName"].(string); ok {
		return name
	}
	return ""
}

// SetLayerName stores the display name, allocating dimensions if needed.
func (li *LayerInstance) SetLayerName(name string) {
	if li.Dimensions == nil {
		li.Dimensions = Dimensions{}
	}
	li.Dimensions["layerName"] = name
}

// Visible reports effective visibility (default true).
func (li *LayerInstance) Visible() bool {
	if li.IsVisible == nil {
		return true
	}
	return *li.IsVisible
}

// Clone returns a deep copy of the instance.
func (li *LayerInstance) Clone() *LayerInstance {
	if li == nil {
		return nil
	}
	return &LayerInstance{
		ID:         li.ID,
		Position:   li.Position.Clone(),
		IsVisible:  cloneBool(li.IsVisible),
		Dimensions: li.Dimensions.Clone(),
	}
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// BoolPtr is a convenience for building partial updates and tests.
func BoolPtr(b bool) *bool { return &b }

// =============================================================================
// Scene Document
// =============================================================================

// SceneDocument maps each layer type to its ordered instance sequence.
//
// Invariant (maintained by NormalizeDocument and the merger): every member of
// LayerTypes is present and mapped to a non-nil slice. Insertion order within
// a sequence is preserved; it drives deterministic default naming.
type SceneDocument map[LayerType][]*LayerInstance

// NewSceneDocument returns an empty document satisfying the key invariant.
func NewSceneDocument() SceneDocument {
	doc := make(SceneDocument, len(LayerTypes))
	doc.EnsureKeys()
	return doc
}

// EnsureKeys fills in any missing enumeration key with an empty sequence.
func (d SceneDocument) EnsureKeys() {
	for _, t := range LayerTypes {
		if d[t] == nil {
			d[t] = []*LayerInstance{}
		}
	}
}

// Clone returns a deep copy; mutating the copy never touches the original.
func (d SceneDocument) Clone() SceneDocument {
	out := make(SceneDocument, len(d))
	for t, seq := range d {
		cp := make([]*LayerInstance, 0, len(seq))
		for _, li := range seq {
			cp = append(cp, li.Clone())
		}
		out[t] = cp
	}
	out.EnsureKeys()
	return out
}

// ProposalData is a partial scene update keyed by layer type, as produced by
// a proposal source or the default layer factory. It shares the document's
// wire shape but carries sparse instances.
type ProposalData map[LayerType][]*LayerInstance

// =============================================================================
// Normalizer
// =============================================================================

// ErrUnparseableDocument is returned when the supplied document cannot be
// coerced to an object or array at all. This is the only shape failure that
// surfaces to the caller; everything else is absorbed.
var ErrUnparseableDocument = errors.New("scene document is not coercible to an object or array")

// NormalizeDocumentJSON decodes raw JSON and normalizes it. A nil or empty
// payload yields an empty valid document.
func NormalizeDocumentJSON(raw json.RawMessage) (SceneDocument, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return NewSceneDocument(), nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableDocument, err)
	}
	return NormalizeDocument(v)
}

// NormalizeDocument coerces an arbitrary decoded value into a SceneDocument
// satisfying the data-model invariant:
//
//   - an array of partial objects is deep-merged left-to-right (array values
//     concatenate, object values shallow-merge, scalars overwrite)
//   - a bare object mapped to a type key is wrapped as a single-element
//     sequence
//   - every member of the fixed enumeration ends up mapped to a sequence
//
// Unknown top-level keys are preserved (coerced to sequences) rather than
// rejected. Only input that is neither object nor array fails.
func NormalizeDocument(v any) (SceneDocument, error) {
	switch val := v.(type) {
	case nil:
		return NewSceneDocument(), nil
	case map[string]any:
		return documentFromObject(val), nil
	case []any:
		merged := map[string]any{}
		for _, item := range val {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			deepMergeObject(merged, obj)
		}
		return documentFromObject(merged), nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrUnparseableDocument, v)
	}
}

func documentFromObject(obj map[string]any) SceneDocument {
	doc := make(SceneDocument, len(LayerTypes))
	for key, val := range obj {
		t, known := KnownLayerType(key)
		if !known {
			t = LayerType(key)
		}
		doc[t] = CoerceInstances(val)
	}
	doc.EnsureKeys()
	return doc
}

// deepMergeObject merges src into dst: array values concatenate, object
// values shallow-merge (src keys win), scalars overwrite.
func deepMergeObject(dst, src map[string]any) {
	for k, sv := range src {
		dv, exists := dst[k]
		if !exists {
			dst[k] = sv
			continue
		}
		switch svTyped := sv.(type) {
		case []any:
			if dvArr, ok := dv.([]any); ok {
				dst[k] = append(dvArr, svTyped...)
			} else {
				dst[k] = sv
			}
		case map[string]any:
			if dvObj, ok := dv.(map[string]any); ok {
				for sk, ssv := range svTyped {
					dvObj[sk] = ssv
				}
			} else {
				dst[k] = sv
			}
		default:
			dst[k] = sv
		}
	}
}

// CoerceInstances converts an arbitrary value into a layer-instance sequence.
// Objects become single-element sequences; array elements that are not
// objects are dropped; anything else yields an empty sequence. This is the
// tolerance that keeps the rest of the pipeline total.
func CoerceInstances(v any) []*LayerInstance {
	switch val := v.(type) {
	case []any:
		out := make([]*LayerInstance, 0, len(val))
		for _, item := range val {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, instanceFromObject(obj))
			}
		}
		return out
	case map[string]any:
		return []*LayerInstance{instanceFromObject(val)}
	default:
		return []*LayerInstance{}
	}
}

// instanceFromObject decodes fields individually so one malformed field
// (say, a garbage position) never discards the rest of the instance.
func instanceFromObject(obj map[string]any) *LayerInstance {
	li := &LayerInstance{}
	if id, ok := obj["id"].(string); ok {
		li.ID = id
	}
	if rawPos, ok := obj["position"]; ok {
		if encoded, err := json.Marshal(rawPos); err == nil {
			var pos Position
			if err := pos.UnmarshalJSON(encoded); err == nil {
				li.Position = &pos
			}
		}
	}
	if vis, ok := obj["isVisible"].(bool); ok {
		li.IsVisible = &vis
	}
	if dims, ok := obj["dimensions"].(map[string]any); ok {
		li.Dimensions = Dimensions(dims).Clone()
	}
	return li
}
