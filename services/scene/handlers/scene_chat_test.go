// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// Tests for the scene chat handler

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
	"github.com/imvino/lyneAiBeta/services/scene/engine"
)

func newChatRouter() *gin.Engine {
	svc := engine.NewSceneChatService(engine.NewLayerCatalog(), nil, nil)
	router := gin.New()
	router.POST("/v1/scene/chat", HandleSceneChat(svc, nil))
	return router
}

func postChat(t *testing.T, router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/scene/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHandleSceneChat_CreateLandingPad(t *testing.T) {
	router := newChatRouter()

	w := postChat(t, router, map[string]interface{}{
		"message": "create a landing pad",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.SceneChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, datatypes.IntentCreate, resp.Intent)
	assert.NotEmpty(t, resp.SessionID)
	assert.Len(t, resp.CreatedIDs, 2)
	assert.Len(t, resp.SceneDocument[datatypes.LayerTLOF], 1)
	assert.Len(t, resp.SceneDocument[datatypes.LayerFATO], 1)
	assert.Equal(t, "LANDING SURFACE (1)", resp.SceneDocument[datatypes.LayerTLOF][0].LayerName())
}

func TestHandleSceneChat_InvalidBody(t *testing.T) {
	router := newChatRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/scene/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSceneChat_MissingMessage(t *testing.T) {
	router := newChatRouter()

	w := postChat(t, router, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSceneChat_UnparseableDocument(t *testing.T) {
	router := newChatRouter()

	w := postChat(t, router, map[string]interface{}{
		"message":        "create a taxiway",
		"scene_document": "not a document",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp datatypes.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Error, "parsed")
}

func TestHandleSceneChat_UnmatchedReferenceReturns404(t *testing.T) {
	router := newChatRouter()

	doc := map[string]interface{}{
		"TLOF": []map[string]interface{}{
			{
				"id":         "TLOF-1",
				"dimensions": map[string]interface{}{"layerName": "LANDING SURFACE (1)"},
			},
		},
	}
	w := postChat(t, router, map[string]interface{}{
		"message":        "update the tlof named LANDING SURFACE (7)",
		"scene_document": doc,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var errResp datatypes.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Details, "LANDING SURFACE (1)")
}

func TestHandleSceneChat_NoTypeDetectedStillSucceeds(t *testing.T) {
	router := newChatRouter()

	w := postChat(t, router, map[string]interface{}{
		"message": "hello there",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.SceneChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.CreatedIDs)
	assert.NotEmpty(t, resp.Reply)
	// Full document shape even when nothing was sent.
	for _, lt := range datatypes.LayerTypes {
		_, ok := resp.SceneDocument[lt]
		assert.True(t, ok, "expected key %s in document", lt)
	}
}
