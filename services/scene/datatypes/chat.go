// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxMessageBytes caps a single chat message payload.
	MaxMessageBytes = 32 * 1024

	// MaxHistoryMessages caps how much conversation history a request may
	// carry. Anything beyond this is a validation error, not a truncation.
	MaxHistoryMessages = 100

	// DefaultSessionIDPrefix namespaces generated session IDs.
	DefaultSessionIDPrefix = "scene"
)

// Intent labels for a classified chat message.
const (
	IntentCreate  = "CREATE"
	IntentUpdate  = "UPDATE"
	IntentUnknown = "UNKNOWN"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// sceneValidate is the validator instance for scene chat datatypes.
// Initialized in init() with custom validators.
var sceneValidate *validator.Validate

func init() {
	sceneValidate = validator.New()

	// Byte-length cap for message content
	_ = sceneValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length (not rune count) so oversized payloads
// are rejected regardless of encoding.
func validateMaxBytes(fl validator.FieldLevel) bool {
	content := fl.Field().String()
	return len(content) <= MaxMessageBytes
}

// =============================================================================
// Request Types
// =============================================================================

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required,maxbytes"`
}

// SceneChatRequest is the body of POST /v1/scene/chat.
//
// SceneDocument is raw JSON on purpose: the normalizer owns shape coercion
// and the handler must not reject documents the normalizer could absorb.
type SceneChatRequest struct {
	SessionID     string          `json:"session_id" validate:"omitempty,max=128"`
	Message       string          `json:"message" validate:"required,maxbytes"`
	History       []Message       `json:"history" validate:"omitempty,dive"`
	SceneDocument json.RawMessage `json:"scene_document"`
}

// EnsureDefaults fills in a session ID when the caller omitted one.
func (r *SceneChatRequest) EnsureDefaults() {
	if r.SessionID == "" {
		r.SessionID = fmt.Sprintf("%s-%s", DefaultSessionIDPrefix, generateUUID())
	}
}

// Validate checks field constraints after JSON binding.
func (r *SceneChatRequest) Validate() error {
	if len(r.History) > MaxHistoryMessages {
		return fmt.Errorf("history exceeds %d messages", MaxHistoryMessages)
	}
	if err := sceneValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid scene chat request: %w", err)
	}
	return nil
}

// SceneNormalizeRequest is the body of POST /v1/scene/normalize.
type SceneNormalizeRequest struct {
	SceneDocument json.RawMessage `json:"scene_document"`
}

// =============================================================================
// Response Types
// =============================================================================

// SceneChatResponse is the result of one scene chat turn. The returned
// document is always a complete, normalized scene regardless of what the
// caller sent.
type SceneChatResponse struct {
	SessionID     string        `json:"session_id"`
	Intent        string        `json:"intent"`
	DetectedTypes []LayerType   `json:"detected_types"`
	Reply         string        `json:"reply"`
	SceneDocument SceneDocument `json:"scene_document"`
	CreatedIDs    []string      `json:"created_ids,omitempty"`
	UpdatedIDs    []string      `json:"updated_ids,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// NewSceneChatResponse constructs a response with the timestamp set and
// nil-safe slices so the JSON shape is stable.
func NewSceneChatResponse(sessionID string, doc SceneDocument) *SceneChatResponse {
	if doc == nil {
		doc = NewSceneDocument()
	}
	return &SceneChatResponse{
		SessionID:     sessionID,
		Intent:        IntentUnknown,
		DetectedTypes: []LayerType{},
		SceneDocument: doc,
		Timestamp:     time.Now().UTC(),
	}
}

// SceneNormalizeResponse is the result of POST /v1/scene/normalize.
type SceneNormalizeResponse struct {
	SceneDocument SceneDocument `json:"scene_document"`
}

// TemplateResponse describes one layer type's default template.
type TemplateResponse struct {
	Type        LayerType  `json:"type"`
	DisplayName string     `json:"display_name"`
	Dimensions  Dimensions `json:"dimensions"`
}

// ErrorResponse is the uniform error body across scene endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func generateUUID() string {
	return uuid.NewString()
}
