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
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
	"github.com/imvino/lyneAiBeta/services/scene/engine"
	"github.com/imvino/lyneAiBeta/services/scene/observability"
)

var tracer = otel.Tracer("lyneai.scene.handlers")

// HandleSceneChat processes one conversational turn against a scene document.
//
// The response always carries the full normalized document. Unmatched layer
// references map to 404 so clients can distinguish "fix your utterance" from
// "fix your payload".
func HandleSceneChat(svc *engine.SceneChatService, metrics *observability.SceneMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleSceneChat")
		defer span.End()
		start := time.Now()

		var req datatypes.SceneChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the scene chat request", "error", err)
			recordRequest(metrics, datatypes.IntentUnknown, "client_error", start)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
			return
		}
		req.EnsureDefaults()
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			recordRequest(metrics, datatypes.IntentUnknown, "client_error", start)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Error:   "invalid request",
				Details: err.Error(),
			})
			return
		}

		result, err := svc.Process(ctx, req.Message, req.History, req.SceneDocument)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeProcessError(c, metrics, err, start)
			return
		}

		if metrics != nil {
			recordRequest(metrics, result.Intent, "success", start)
			if result.UsedDefaults {
				metrics.ProposalFallbacksTotal.Inc()
			}
			for _, id := range result.CreatedIDs {
				metrics.LayersTotal.WithLabelValues("created", layerTypeFromID(id)).Inc()
			}
			for _, id := range result.UpdatedIDs {
				metrics.LayersTotal.WithLabelValues("updated", layerTypeFromID(id)).Inc()
			}
		}

		resp := datatypes.NewSceneChatResponse(req.SessionID, result.Document)
		resp.Intent = result.Intent
		resp.DetectedTypes = result.DetectedTypes
		resp.Reply = result.Reply
		resp.CreatedIDs = result.CreatedIDs
		resp.UpdatedIDs = result.UpdatedIDs
		c.JSON(http.StatusOK, resp)
	}
}

func writeProcessError(c *gin.Context, metrics *observability.SceneMetrics, err error, start time.Time) {
	switch {
	case errors.Is(err, datatypes.ErrUnparseableDocument):
		recordRequest(metrics, datatypes.IntentUnknown, "client_error", start)
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
			Error:   "scene document could not be parsed",
			Details: err.Error(),
		})
	case engine.IsUnmatchedReference(err):
		var unmatched *engine.UnmatchedReferenceError
		errors.As(err, &unmatched)
		recordRequest(metrics, datatypes.IntentUpdate, "client_error", start)
		c.JSON(http.StatusNotFound, datatypes.ErrorResponse{
			Error:   err.Error(),
			Details: "available: " + strings.Join(unmatched.Available, ", "),
		})
	default:
		slog.Error("Scene chat processing failed", "error", err)
		recordRequest(metrics, datatypes.IntentUnknown, "server_error", start)
		c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
	}
}

// layerTypeFromID recovers the type prefix from a generated layer ID of the
// form TYPE-nanos. Caller-supplied IDs without the suffix label as "other".
func layerTypeFromID(id string) string {
	if i := strings.LastIndex(id, "-"); i > 0 {
		return id[:i]
	}
	return "other"
}

func recordRequest(metrics *observability.SceneMetrics, intent, status string, start time.Time) {
	if metrics == nil {
		return
	}
	metrics.RequestsTotal.WithLabelValues(intent, status).Inc()
	metrics.RequestDurationSeconds.WithLabelValues(intent).Observe(time.Since(start).Seconds())
}
