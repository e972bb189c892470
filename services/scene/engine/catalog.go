// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine implements the intent resolution and layer-merge pipeline:
// classify a chat message, resolve references against the current scene,
// obtain (or synthesize) a partial update, and merge it into the document.
package engine

import (
	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// =============================================================================
// Layer Catalog
// =============================================================================

// LayerCatalog is the static registry of known layer types, their default
// dimension templates, and display-name conventions. It is the merge
// pipeline's own copy of the template data so defaulting works even when the
// file-backed template provider is unavailable.
type LayerCatalog struct {
	templates    map[datatypes.LayerType]datatypes.Dimensions
	displayNames map[datatypes.LayerType]string
}

// NewLayerCatalog returns the built-in catalog covering the full layer-type
// enumeration.
func NewLayerCatalog() *LayerCatalog {
	return &LayerCatalog{
		templates:    builtinTemplates(),
		displayNames: builtinDisplayNames(),
	}
}

// TemplateFor returns a copy of the default dimensions for a type. The second
// return is false when the type is unrecognized; callers treat that as "use
// the generic template", never as a failure.
func (c *LayerCatalog) TemplateFor(t datatypes.LayerType) (datatypes.Dimensions, bool) {
	tmpl, ok := c.templates[t]
	if !ok {
		return genericTemplate(), false
	}
	return tmpl.Clone(), true
}

// DisplayNameFor returns the canonical display-name prefix for a type,
// falling back to the raw type identifier when none is registered.
func (c *LayerCatalog) DisplayNameFor(t datatypes.LayerType) string {
	if name, ok := c.displayNames[t]; ok {
		return name
	}
	return string(t)
}

func builtinDisplayNames() map[datatypes.LayerType]string {
	return map[datatypes.LayerType]string{
		datatypes.LayerTLOF:          "LANDING SURFACE",
		datatypes.LayerFATO:          "FATO",
		datatypes.LayerTaxiway:       "TAXIWAY",
		datatypes.LayerShape:         "SHAPE",
		datatypes.LayerModel:         "MODEL",
		datatypes.LayerVolume:        "VOLUME",
		datatypes.LayerFlightPath:    "FLIGHT PATH",
		datatypes.LayerFlightPathVFR: "VFR PATH",
	}
}

// builtinTemplates defines every legal dimension key per type with its
// default value. The TLOF template is the richest; the factory copies these
// wholesale, so every key listed here is guaranteed present on a default
// instance.
func builtinTemplates() map[datatypes.LayerType]datatypes.Dimensions {
	return map[datatypes.LayerType]datatypes.Dimensions{
		datatypes.LayerTLOF: {
			"layerName":             "",
			"unit":                  "m",
			"aircraftCategory":      false,
			"aircraft":              "",
			"diameter":              0.0,
			"shapeType":             "Rectangle",
			"scaleCategory":         false,
			"textureScaleU":         1.0,
			"textureScaleV":         1.0,
			"safetyNetScaleU":       1.0,
			"safetyNetScaleV":       1.0,
			"sides":                 4.0,
			"width":                 15.0,
			"length":                15.0,
			"height":                0.5,
			"rotation":              0.0,
			"transparency":          0.0,
			"baseHeight":            0.0,
			"markingsCategory":      false,
			"markingType":           "solid",
			"markingColor":          "white",
			"markingThickness":      0.3,
			"dashDistance":          1.0,
			"dashLength":            1.0,
			"landingMarkerCategory": false,
			"landingMarker":         "H",
			"markerScale":           1.0,
			"markerThickness":       0.3,
			"markerRotation":        0.0,
			"markerColor":           "white",
			"letterThickness":       0.3,
			"tdpcCategory":          false,
			"tdpcType":              "circle",
			"tdpcScale":             1.0,
			"tdpcThickness":         0.3,
			"tdpcRotation":          0.0,
			"tdpcExtrusion":         0.0,
			"tdpcColor":             "white",
			"lightCategory":         false,
			"lightColor":            "green",
			"lightScale":            1.0,
			"lightDistance":         2.0,
			"lightRadius":           0.2,
			"lightHeight":           0.3,
			"safetyAreaCategory":    false,
			"safetyAreaType":        "offset",
			"dValue":                0.0,
			"multiplier":            1.5,
			"offsetDistance":        3.0,
			"safetyNetCategory":     false,
			"curveAngle":            45.0,
			"netHeight":             1.5,
			"safetyNetTransparency": 0.5,
			"safetyNetColor":        "#FF0000",
		},
		datatypes.LayerFATO: {
			"layerName":    "",
			"unit":         "m",
			"shapeType":    "Rectangle",
			"width":        30.0,
			"length":       30.0,
			"height":       0.1,
			"rotation":     0.0,
			"transparency": 0.0,
			"baseHeight":   0.0,
			"sides":        4.0,
			"diameter":     0.0,
			"markingColor": "white",
		},
		datatypes.LayerTaxiway: {
			"layerName":     "",
			"unit":          "m",
			"width":         50.0,
			"length":        300.0,
			"rotation":      0.0,
			"baseHeight":    0.0,
			"transparency":  0.0,
			"markingType":   "solid",
			"markingColor":  "yellow",
			"edgeLights":    false,
			"centerlineGap": 1.0,
		},
		datatypes.LayerShape: {
			"layerName":    "",
			"unit":         "m",
			"shapeType":    "Rectangle",
			"sides":        4.0,
			"width":        10.0,
			"length":       10.0,
			"height":       1.0,
			"rotation":     0.0,
			"transparency": 0.0,
			"baseHeight":   0.0,
			"color":        "#FFFFFF",
		},
		datatypes.LayerModel: {
			"layerName":  "",
			"unit":       "m",
			"modelUrl":   "",
			"scale":      1.0,
			"rotation":   0.0,
			"baseHeight": 0.0,
			"aircraft":   "",
		},
		datatypes.LayerVolume: {
			"layerName":    "",
			"unit":         "m",
			"shapeType":    "Rectangle",
			"width":        50.0,
			"length":       50.0,
			"height":       30.0,
			"baseHeight":   0.0,
			"rotation":     0.0,
			"transparency": 0.5,
			"color":        "#00A0FF",
		},
		datatypes.LayerFlightPath: {
			"layerName": "",
			"unit":      "m",
			"altitude":  150.0,
			"width":     10.0,
			"color":     "#00FF00",
			"pathType":  "approach",
		},
		datatypes.LayerFlightPathVFR: {
			"layerName": "",
			"unit":      "m",
			"altitude":  300.0,
			"width":     10.0,
			"color":     "#FFA500",
			"pathType":  "vfr_corridor",
		},
	}
}

// genericTemplate backs unrecognized layer types. Minimal but complete
// enough that downstream naming and merging never special-case it.
func genericTemplate() datatypes.Dimensions {
	return datatypes.Dimensions{
		"layerName":  "",
		"unit":       "m",
		"width":      10.0,
		"length":     10.0,
		"height":     1.0,
		"rotation":   0.0,
		"baseHeight": 0.0,
	}
}
