// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"regexp"
	"strings"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// =============================================================================
// Intent Classification
// =============================================================================

// IntentResult is the routing output for one utterance: which operation the
// user wants and which layer types they mentioned, in registry order.
type IntentResult struct {
	Intent     string
	LayerTypes []datatypes.LayerType
}

// createVocabulary and updateVocabulary drive keyword-based intent detection.
// The create check runs first; an utterance containing words from both
// vocabularies is classified CREATE.
var (
	createVocabulary = []string{
		"create", "add", "new", "another", "make", "generate", "insert",
	}
	updateVocabulary = []string{
		"update", "change", "modify", "set", "rotate", "move", "resize",
		"shift", "adjust", "position", "park", "give",
	}
)

// typeSynonyms maps each layer type to its keyword and phrase synonyms.
// Phrases are matched whole-word over a whitespace-collapsed utterance.
// Detection order follows layerTypeOrder, not utterance order.
var typeSynonyms = map[datatypes.LayerType][]string{
	datatypes.LayerTLOF: {
		"tlof", "landing surface", "landing area", "touchdown",
		"touchdown and liftoff",
	},
	datatypes.LayerFATO: {
		"fato", "geometry", "final approach", "approach and takeoff",
	},
	datatypes.LayerTaxiway: {
		"taxiway", "taxi way", "taxi route", "taxilane", "taxi lane",
	},
	datatypes.LayerShape: {
		"shape", "polygon", "rectangle", "circle", "marking area",
	},
	datatypes.LayerModel: {
		"model", "3d model", "aircraft model", "mesh",
	},
	datatypes.LayerVolume: {
		"volume", "airspace volume", "obstacle free volume", "ofv",
	},
	datatypes.LayerFlightPath: {
		"flight path", "flightpath", "approach path", "departure path",
	},
	datatypes.LayerFlightPathVFR: {
		"vfr path", "vfr route", "vfr corridor", "vfr flight path",
	},
}

// compoundSynonyms yield more than one layer type at once. A landing pad is
// both the touchdown surface and its approach geometry.
var compoundSynonyms = map[string][]datatypes.LayerType{
	"landing pad": {datatypes.LayerTLOF, datatypes.LayerFATO},
	"helipad":     {datatypes.LayerTLOF, datatypes.LayerFATO},
	"vertiport":   {datatypes.LayerTLOF, datatypes.LayerFATO},
}

var whitespaceRun = regexp.MustCompile(`[\s_]+`)

// IntentClassifier routes utterances by keyword. It deliberately does no
// language understanding: the proposal source supplies the factual payload,
// the classifier only decides which templates to load and which existing
// layers are candidates.
type IntentClassifier struct{}

// NewIntentClassifier returns a classifier over the built-in vocabularies.
func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{}
}

// Classify determines intent and referenced layer types for an utterance.
func (c *IntentClassifier) Classify(utterance string) IntentResult {
	normalized := normalizeUtterance(utterance)
	return IntentResult{
		Intent:     c.classifyIntent(normalized),
		LayerTypes: c.detectLayerTypes(normalized),
	}
}

func (c *IntentClassifier) classifyIntent(normalized string) string {
	words := wordSet(normalized)
	for _, kw := range createVocabulary {
		if words[kw] {
			return datatypes.IntentCreate
		}
	}
	for _, kw := range updateVocabulary {
		if words[kw] {
			return datatypes.IntentUpdate
		}
	}
	return datatypes.IntentUnknown
}

// detectLayerTypes returns the deduplicated set of mentioned types in
// registry order. Compound phrases contribute all of their member types.
func (c *IntentClassifier) detectLayerTypes(normalized string) []datatypes.LayerType {
	detected := map[datatypes.LayerType]bool{}

	for phrase, types := range compoundSynonyms {
		if containsPhrase(normalized, phrase) {
			for _, t := range types {
				detected[t] = true
			}
		}
	}
	for _, t := range datatypes.LayerTypes {
		for _, syn := range typeSynonyms[t] {
			if containsPhrase(normalized, syn) {
				detected[t] = true
				break
			}
		}
	}

	out := []datatypes.LayerType{}
	for _, t := range datatypes.LayerTypes {
		if detected[t] {
			out = append(out, t)
		}
	}
	return out
}

// normalizeUtterance lowercases and collapses whitespace/underscore runs so
// phrase synonyms match regardless of spacing style.
func normalizeUtterance(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(s), " "))
}

func wordSet(normalized string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.FieldsFunc(normalized, func(r rune) bool {
		return !isWordRune(r)
	}) {
		set[w] = true
	}
	return set
}

// containsPhrase reports whether phrase occurs in s on word boundaries.
func containsPhrase(s, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || !isWordRune(rune(s[start-1]))
		afterOK := end == len(s) || !isWordRune(rune(s[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
