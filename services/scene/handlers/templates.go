// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
	"github.com/imvino/lyneAiBeta/services/scene/engine"
	"github.com/imvino/lyneAiBeta/services/scene/templates"
)

// TemplateOverride supplies dimension templates from outside the built-in
// catalog. Satisfied by templates.DirProvider. May be nil.
type TemplateOverride interface {
	TemplateFor(t datatypes.LayerType) (datatypes.Dimensions, bool)
}

var _ TemplateOverride = (*templates.DirProvider)(nil)

// HandleListTemplates returns every known layer type with its display name
// and default dimensions, in canonical order.
func HandleListTemplates(catalog *engine.LayerCatalog, override TemplateOverride) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := make([]datatypes.TemplateResponse, 0, len(datatypes.LayerTypes))
		for _, t := range datatypes.LayerTypes {
			out = append(out, datatypes.TemplateResponse{
				Type:        t,
				DisplayName: catalog.DisplayNameFor(t),
				Dimensions:  templateFor(catalog, override, t),
			})
		}
		c.JSON(http.StatusOK, gin.H{"templates": out})
	}
}

// HandleGetTemplate returns the template for a single layer type.
func HandleGetTemplate(catalog *engine.LayerCatalog, override TemplateOverride) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.ToUpper(strings.TrimSpace(c.Param("type")))
		t, ok := datatypes.KnownLayerType(raw)
		if !ok {
			available := make([]string, 0, len(datatypes.LayerTypes))
			for _, lt := range datatypes.LayerTypes {
				available = append(available, string(lt))
			}
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{
				Error:   "unknown layer type: " + raw,
				Details: "available: " + strings.Join(available, ", "),
			})
			return
		}
		c.JSON(http.StatusOK, datatypes.TemplateResponse{
			Type:        t,
			DisplayName: catalog.DisplayNameFor(t),
			Dimensions:  templateFor(catalog, override, t),
		})
	}
}

func templateFor(catalog *engine.LayerCatalog, override TemplateOverride, t datatypes.LayerType) datatypes.Dimensions {
	if override != nil {
		if dims, ok := override.TemplateFor(t); ok {
			return dims
		}
	}
	dims, _ := catalog.TemplateFor(t)
	return dims
}
