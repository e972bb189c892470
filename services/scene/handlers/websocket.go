package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
	"github.com/imvino/lyneAiBeta/services/scene/engine"
	"github.com/imvino/lyneAiBeta/services/scene/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024 * 1024,
	WriteBufferSize: 1024 * 1024,
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleSceneWebSocket runs an interactive scene editing session. Each
// inbound message is a SceneChatRequest carrying the client's current
// document; the reply is the same SceneChatResponse the REST endpoint
// returns. The session ID is pushed to the client on connect.
func HandleSceneWebSocket(svc *engine.SceneChatService, metrics *observability.SceneMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		if metrics != nil {
			metrics.ActiveWebsockets.Inc()
			defer metrics.ActiveWebsockets.Dec()
		}

		sessionID := uuid.New().String()
		slog.Info("New scene websocket session started", "sessionID", sessionID)

		if err := sendJSON(ws, map[string]interface{}{
			"type":       "session_created",
			"session_id": sessionID,
		}); err != nil {
			return
		}

		ctx := c.Request.Context()
		for {
			var req datatypes.SceneChatRequest
			if err := ws.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Warn("Scene websocket closed unexpectedly", "sessionID", sessionID, "error", err)
				}
				return
			}
			req.SessionID = sessionID
			if err := req.Validate(); err != nil {
				if sendJSON(ws, datatypes.ErrorResponse{Error: "invalid request", Details: err.Error()}) != nil {
					return
				}
				continue
			}

			result, err := svc.Process(ctx, req.Message, req.History, req.SceneDocument)
			if err != nil {
				if sendJSON(ws, wsErrorBody(err)) != nil {
					return
				}
				continue
			}

			resp := datatypes.NewSceneChatResponse(sessionID, result.Document)
			resp.Intent = result.Intent
			resp.DetectedTypes = result.DetectedTypes
			resp.Reply = result.Reply
			resp.CreatedIDs = result.CreatedIDs
			resp.UpdatedIDs = result.UpdatedIDs
			if sendJSON(ws, resp) != nil {
				return
			}
		}
	}
}

func wsErrorBody(err error) datatypes.ErrorResponse {
	if errors.Is(err, datatypes.ErrUnparseableDocument) {
		return datatypes.ErrorResponse{
			Error:   "scene document could not be parsed",
			Details: err.Error(),
		}
	}
	if engine.IsUnmatchedReference(err) {
		return datatypes.ErrorResponse{Error: err.Error()}
	}
	slog.Error("Scene websocket processing failed", "error", err)
	return datatypes.ErrorResponse{Error: "internal error"}
}
