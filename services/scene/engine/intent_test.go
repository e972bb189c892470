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

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// =============================================================================
// Intent Detection Tests
// =============================================================================

func TestClassify_CreateKeywords(t *testing.T) {
	c := NewIntentClassifier()
	for _, msg := range []string{
		"create a landing surface",
		"add another taxiway",
		"make a new fato",
		"generate a tlof for Volocity",
		"insert a shape here",
	} {
		res := c.Classify(msg)
		assert.Equal(t, datatypes.IntentCreate, res.Intent, "message: %s", msg)
	}
}

func TestClassify_UpdateKeywords(t *testing.T) {
	c := NewIntentClassifier()
	for _, msg := range []string{
		"rotate the landing surface by 45 degrees",
		"move the taxiway north",
		"set the width to 20",
		"resize the fato",
		"park the aircraft on the tlof",
	} {
		res := c.Classify(msg)
		assert.Equal(t, datatypes.IntentUpdate, res.Intent, "message: %s", msg)
	}
}

func TestClassify_CreateWinsOverUpdate(t *testing.T) {
	c := NewIntentClassifier()
	res := c.Classify("create a tlof and set its rotation to 90")
	assert.Equal(t, datatypes.IntentCreate, res.Intent)
}

func TestClassify_Unknown(t *testing.T) {
	c := NewIntentClassifier()
	res := c.Classify("what is a fato exactly?")
	assert.Equal(t, datatypes.IntentUnknown, res.Intent)
}

func TestClassify_CaseInsensitive(t *testing.T) {
	c := NewIntentClassifier()
	res := c.Classify("CREATE A TLOF")
	assert.Equal(t, datatypes.IntentCreate, res.Intent)
	assert.Equal(t, []datatypes.LayerType{datatypes.LayerTLOF}, res.LayerTypes)
}

// =============================================================================
// Layer Type Detection Tests
// =============================================================================

func TestClassify_SingleType(t *testing.T) {
	c := NewIntentClassifier()
	res := c.Classify("add a taxiway")
	assert.Equal(t, []datatypes.LayerType{datatypes.LayerTaxiway}, res.LayerTypes)
}

func TestClassify_CompoundSynonym_Helipad(t *testing.T) {
	c := NewIntentClassifier()
	res := c.Classify("add a helipad for JobyS4")
	assert.Equal(t, datatypes.IntentCreate, res.Intent)
	assert.Equal(t,
		[]datatypes.LayerType{datatypes.LayerTLOF, datatypes.LayerFATO},
		res.LayerTypes)
}

func TestClassify_CompoundSynonym_LandingPad(t *testing.T) {
	c := NewIntentClassifier()
	res := c.Classify("create a landing pad")
	assert.Equal(t,
		[]datatypes.LayerType{datatypes.LayerTLOF, datatypes.LayerFATO},
		res.LayerTypes)
}

func TestClassify_RegistryOrderNotUtteranceOrder(t *testing.T) {
	c := NewIntentClassifier()
	// Taxiway mentioned first, TLOF second; output follows registry order.
	res := c.Classify("add a taxiway connecting to the tlof")
	assert.Equal(t,
		[]datatypes.LayerType{datatypes.LayerTLOF, datatypes.LayerTaxiway},
		res.LayerTypes)
}

func TestClassify_DuplicateMentionsDeduplicated(t *testing.T) {
	c := NewIntentClassifier()
	res := c.Classify("create a tlof, a landing surface, and a touchdown zone")
	assert.Equal(t, []datatypes.LayerType{datatypes.LayerTLOF}, res.LayerTypes)
}

func TestClassify_UnderscoresTreatedAsSpaces(t *testing.T) {
	c := NewIntentClassifier()
	res := c.Classify("add a landing_surface")
	assert.Contains(t, res.LayerTypes, datatypes.LayerTLOF)
}

func TestClassify_NoTypes(t *testing.T) {
	c := NewIntentClassifier()
	res := c.Classify("create something nice")
	assert.Empty(t, res.LayerTypes)
}

func TestClassify_PhraseRequiresWordBoundary(t *testing.T) {
	c := NewIntentClassifier()
	res := c.Classify("update the fatos")
	assert.NotContains(t, res.LayerTypes, datatypes.LayerFATO)
}
