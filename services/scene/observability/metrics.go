// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the scene service.
//
// Metrics are exposed via the /metrics endpoint. All metric operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

const metricsNamespace = "lyneai"

const sceneSubsystem = "scene"

// SceneMetrics holds all Prometheus metrics for scene chat operations.
// Initialize once at startup via NewSceneMetrics().
type SceneMetrics struct {
	// RequestsTotal counts chat requests by intent and status.
	// Labels: intent (CREATE, UPDATE, UNKNOWN), status (success, client_error, server_error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures end-to-end chat turn duration.
	// Labels: intent
	RequestDurationSeconds *prometheus.HistogramVec

	// LayersTotal counts layer mutations by operation and layer type.
	// Labels: operation (created, updated), layer_type
	LayersTotal *prometheus.CounterVec

	// ProposalFallbacksTotal counts turns where the proposal source was
	// unusable and factory defaults were applied.
	ProposalFallbacksTotal prometheus.Counter

	// ActiveWebsockets gauges currently open scene websocket sessions.
	ActiveWebsockets prometheus.Gauge
}

// NewSceneMetrics creates and registers all scene metrics with the default
// Prometheus registry. Call exactly once at startup; duplicate registration
// panics by promauto design.
func NewSceneMetrics() *SceneMetrics {
	return &SceneMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: sceneSubsystem,
				Name:      "requests_total",
				Help:      "Total scene chat requests by intent and status.",
			},
			[]string{"intent", "status"},
		),
		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: sceneSubsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end scene chat turn duration.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"intent"},
		),
		LayersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: sceneSubsystem,
				Name:      "layers_total",
				Help:      "Layer instances created or updated by the merge engine.",
			},
			[]string{"operation", "layer_type"},
		),
		ProposalFallbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: sceneSubsystem,
				Name:      "proposal_fallbacks_total",
				Help:      "Chat turns served with factory defaults because the proposal source was unusable.",
			},
		),
		ActiveWebsockets: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: sceneSubsystem,
				Name:      "active_websockets",
				Help:      "Currently open scene websocket sessions.",
			},
		),
	}
}
