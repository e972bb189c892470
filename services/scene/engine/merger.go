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
	"sort"
	"strconv"
	"strings"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// =============================================================================
// Scene Merger
// =============================================================================

// MergeOutcome reports what a merge did, for response annotation.
type MergeOutcome struct {
	Document   datatypes.SceneDocument
	CreatedIDs []string
	UpdatedIDs []string
}

// SceneMerger folds a partial proposal into an existing scene document. The
// input document is never mutated; the caller gets a disjoint copy.
type SceneMerger struct {
	catalog *LayerCatalog
}

// NewSceneMerger returns a merger backed by the given catalog.
func NewSceneMerger(catalog *LayerCatalog) *SceneMerger {
	return &SceneMerger{catalog: catalog}
}

// suffixPattern matches a trailing "(N)" numeric suffix on a display name.
var suffixPattern = regexp.MustCompile(`\s*\((\d+)\)\s*$`)

// Merge applies a proposal to a document under the given intent.
//
// Per proposed partial update: UPDATE intent first looks for an existing
// instance matching by id or by normalized layer name and merges in place
// (position and isVisible replaced only when supplied, dimensions shallow
// key-wise merged, id retained or adopted). A miss, or CREATE intent,
// synthesizes a new instance with a fresh "<base> (<N+1>)" display name.
// Types absent from the proposal are left untouched.
//
// Merging an identical UPDATE proposal twice never creates a duplicate:
// the second pass matches the instance the first pass touched.
func (m *SceneMerger) Merge(
	doc datatypes.SceneDocument,
	proposal datatypes.ProposalData,
	intent string,
) MergeOutcome {
	out := doc.Clone()
	outcome := MergeOutcome{Document: out}

	for _, t := range proposalTypesInOrder(proposal) {
		if out[t] == nil {
			out[t] = []*datatypes.LayerInstance{}
		}
		for _, update := range proposal[t] {
			if update == nil {
				continue
			}
			if intent == datatypes.IntentUpdate {
				if existing := findMatch(out[t], update); existing != nil {
					mergeInto(existing, update)
					outcome.UpdatedIDs = append(outcome.UpdatedIDs, existing.ID)
					continue
				}
			}
			created := m.createInstance(out, t, update)
			out[t] = append(out[t], created)
			outcome.CreatedIDs = append(outcome.CreatedIDs, created.ID)
		}
	}
	return outcome
}

// proposalTypesInOrder iterates canonical enumeration order first, then any
// unknown types sorted, so merge results are deterministic.
func proposalTypesInOrder(proposal datatypes.ProposalData) []datatypes.LayerType {
	seen := map[datatypes.LayerType]bool{}
	order := []datatypes.LayerType{}
	for _, t := range datatypes.LayerTypes {
		if _, ok := proposal[t]; ok {
			order = append(order, t)
			seen[t] = true
		}
	}
	extras := []string{}
	for t := range proposal {
		if !seen[t] {
			extras = append(extras, string(t))
		}
	}
	sort.Strings(extras)
	for _, t := range extras {
		order = append(order, datatypes.LayerType(t))
	}
	return order
}

// findMatch locates an existing instance by id equality or by normalized
// display-name equality.
func findMatch(seq []*datatypes.LayerInstance, update *datatypes.LayerInstance) *datatypes.LayerInstance {
	updateName := normalizeName(update.LayerName())
	for _, li := range seq {
		if update.ID != "" && li.ID == update.ID {
			return li
		}
		if updateName != "" && normalizeName(li.LayerName()) == updateName {
			return li
		}
	}
	return nil
}

// mergeInto applies a partial update to an existing instance in place.
func mergeInto(existing, update *datatypes.LayerInstance) {
	if update.Position != nil {
		existing.Position = update.Position.Clone()
	}
	if update.IsVisible != nil {
		existing.IsVisible = datatypes.BoolPtr(*update.IsVisible)
	}
	if len(update.Dimensions) > 0 {
		if existing.Dimensions == nil {
			existing.Dimensions = datatypes.Dimensions{}
		}
		for k, v := range update.Dimensions {
			existing.Dimensions[k] = v
		}
	}
	if existing.ID == "" && update.ID != "" {
		existing.ID = update.ID
	}
}

// createInstance synthesizes a new instance from a partial update, with a
// collision-free generated display name.
func (m *SceneMerger) createInstance(
	doc datatypes.SceneDocument,
	t datatypes.LayerType,
	update *datatypes.LayerInstance,
) *datatypes.LayerInstance {
	li := update.Clone()
	if li.ID == "" {
		li.ID = GenerateLayerID(t)
	}
	if li.Position == nil {
		li.Position = datatypes.NewPoint(0, 0)
	}
	if li.IsVisible == nil {
		li.IsVisible = datatypes.BoolPtr(true)
	}
	if li.Dimensions == nil {
		li.Dimensions = datatypes.Dimensions{}
	}
	li.SetLayerName(m.NextLayerName(doc, t))
	return li
}

// NextLayerName generates a fresh unique display name for a type: the base
// is the first existing instance's name with any trailing "(N)" stripped, or
// the catalog display name when the sequence is empty; the suffix is one
// past the highest existing "(N)" for that base.
func (m *SceneMerger) NextLayerName(doc datatypes.SceneDocument, t datatypes.LayerType) string {
	seq := doc[t]

	base := m.catalog.DisplayNameFor(t)
	for _, li := range seq {
		if name := li.LayerName(); name != "" {
			base = strings.TrimSpace(suffixPattern.ReplaceAllString(name, ""))
			break
		}
	}

	maxSuffix := 0
	normBase := normalizeName(base)
	for _, li := range seq {
		name := li.LayerName()
		matches := suffixPattern.FindStringSubmatch(name)
		if matches == nil {
			continue
		}
		stripped := strings.TrimSpace(suffixPattern.ReplaceAllString(name, ""))
		if normalizeName(stripped) != normBase {
			continue
		}
		if n, err := strconv.Atoi(matches[1]); err == nil && n > maxSuffix {
			maxSuffix = n
		}
	}
	return fmt.Sprintf("%s (%d)", base, maxSuffix+1)
}

// normalizeName uppercases and strips whitespace and underscores so
// "Landing Surface (1)" and "LANDING_SURFACE(1)" compare equal.
func normalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '_':
			return -1
		}
		return r
	}, strings.ToUpper(s))
}
