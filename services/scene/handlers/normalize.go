// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// HandleNormalize coerces an arbitrary scene payload into the canonical
// document shape without running a chat turn.
func HandleNormalize() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := tracer.Start(c.Request.Context(), "HandleNormalize")
		defer span.End()

		var req datatypes.SceneNormalizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
			return
		}

		doc, err := datatypes.NormalizeDocumentJSON(req.SceneDocument)
		if err != nil {
			if errors.Is(err, datatypes.ErrUnparseableDocument) {
				c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
					Error:   "scene document could not be parsed",
					Details: err.Error(),
				})
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Normalize failed", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"scene_document": doc})
	}
}
