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
	"strings"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// =============================================================================
// Error Types
// =============================================================================

// UnmatchedReferenceError reports that the utterance referenced a specific
// instance of a type but nothing in the document matched. Surfacing this
// prevents an ambiguous "update" from silently becoming an accidental
// "create".
type UnmatchedReferenceError struct {
	LayerType datatypes.LayerType
	Available []string
}

func (e *UnmatchedReferenceError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no %s layer matches the reference and none exist yet", e.LayerType)
	}
	return fmt.Sprintf("no %s layer matches the reference; available: %s",
		e.LayerType, strings.Join(e.Available, ", "))
}

// IsUnmatchedReference checks if an error is an UnmatchedReferenceError.
func IsUnmatchedReference(err error) bool {
	_, ok := err.(*UnmatchedReferenceError)
	return ok
}

// =============================================================================
// Reference Resolver
// =============================================================================

// ReferenceResolver finds which existing layer instances an utterance refers
// to. The resolved subset is advisory context for the proposal source and is
// never mutated here.
type ReferenceResolver struct {
	catalog *LayerCatalog

	// numbered holds, per type, the precompiled "display name followed by a
	// number" pattern. Display names are fixed for a catalog's lifetime.
	numbered map[datatypes.LayerType]*regexp.Regexp
}

// NewReferenceResolver returns a resolver backed by the given catalog.
func NewReferenceResolver(catalog *LayerCatalog) *ReferenceResolver {
	numbered := make(map[datatypes.LayerType]*regexp.Regexp, len(datatypes.LayerTypes))
	for _, t := range datatypes.LayerTypes {
		numbered[t] = numberedNamePattern(catalog.DisplayNameFor(t))
	}
	return &ReferenceResolver{catalog: catalog, numbered: numbered}
}

func numberedNamePattern(displayName string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(compactUpper(displayName)) + `\(?\d+\)?`)
}

// standaloneID detects an explicit "id" mention, which marks the utterance
// as referencing a specific instance even without a numbered name.
var standaloneID = regexp.MustCompile(`(?i)\bid\b`)

// Resolve returns, per candidate type, the existing instances the utterance
// references.
//
// CREATE intent always resolves to empty subsets: no existing layer is a
// target of a creation. For UPDATE, instances match when their normalized
// display name or raw id appears in the compacted utterance. When the
// utterance clearly names a numbered instance (or says "id") for a type and
// nothing matches, an UnmatchedReferenceError for that type is returned.
func (r *ReferenceResolver) Resolve(
	doc datatypes.SceneDocument,
	candidates []datatypes.LayerType,
	utterance string,
	intent string,
) (map[datatypes.LayerType][]*datatypes.LayerInstance, error) {
	resolved := make(map[datatypes.LayerType][]*datatypes.LayerInstance, len(candidates))

	if intent == datatypes.IntentCreate {
		for _, t := range candidates {
			resolved[t] = []*datatypes.LayerInstance{}
		}
		return resolved, nil
	}

	compact := compactUpper(utterance)

	for _, t := range candidates {
		matches := []*datatypes.LayerInstance{}
		for _, li := range doc[t] {
			if r.instanceReferenced(li, compact, utterance) {
				matches = append(matches, li)
			}
		}
		resolved[t] = matches

		if len(matches) == 0 && r.explicitReference(t, compact, utterance) {
			return nil, &UnmatchedReferenceError{
				LayerType: t,
				Available: instanceNames(doc[t]),
			}
		}
	}
	return resolved, nil
}

// instanceReferenced matches on normalized display name or verbatim id.
func (r *ReferenceResolver) instanceReferenced(li *datatypes.LayerInstance, compact, raw string) bool {
	if name := li.LayerName(); name != "" {
		if strings.Contains(compact, compactUpper(name)) {
			return true
		}
	}
	return li.ID != "" && strings.Contains(raw, li.ID)
}

// explicitReference reports whether the utterance names a specific numbered
// instance of the type (display name followed by a number, parenthesized or
// not) or mentions "id" outright.
func (r *ReferenceResolver) explicitReference(t datatypes.LayerType, compact, raw string) bool {
	if standaloneID.MatchString(raw) {
		return true
	}
	pattern, ok := r.numbered[t]
	if !ok {
		pattern = numberedNamePattern(r.catalog.DisplayNameFor(t))
	}
	return pattern.MatchString(compact)
}

// compactUpper uppercases and strips all whitespace so "landing surface (2)"
// and "LANDINGSURFACE(2)" compare equal.
func compactUpper(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, strings.ToUpper(s))
}

func instanceNames(seq []*datatypes.LayerInstance) []string {
	names := []string{}
	for _, li := range seq {
		if name := li.LayerName(); name != "" {
			names = append(names, name)
		} else if li.ID != "" {
			names = append(names, li.ID)
		}
	}
	return names
}
