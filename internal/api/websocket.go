package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/roundtable/internal/identity"
	"github.com/coder/websocket"
)

const wsWriteTimeout = 10 * time.Second

// Client -> server frame types.
const (
	wsTypeMessage = "message"
	wsTypePing    = "ping"
)

type wsMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// turnFrame wraps a turn payload for the socket.
type turnFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ChatSocket serves whole turns over a WebSocket. Each "message" frame runs a
// turn and is answered with one "turn" frame (or "turn_error").
func (h *Handler) ChatSocket(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		Error(w, http.StatusForbidden, "origin not allowed")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	sessionID := identity.SessionIDFromContext(r.Context())
	h.conns.Register(sessionID, ws)
	defer func() { h.conns.Unregister(sessionID, ws) }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "session_id", sessionID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "session_id", sessionID)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := writeJSON(ctx, ws, map[string]string{"type": "error", "error": "invalid_json"}); err != nil {
				return
			}
			continue
		}

		switch msg.Type {
		case wsTypeMessage:
			if sid := resolveSessionID(ctx, msg.SessionID); msg.SessionID != "" && sid != sessionID {
				h.conns.Unregister(sessionID, ws)
				sessionID = sid
				h.conns.Register(sessionID, ws)
			}
			status, body := h.runTurn(ctx, msg.Message, sessionID)
			frameType := "turn"
			if status != http.StatusOK {
				frameType = "turn_error"
			}
			if err := writeJSON(ctx, ws, turnFrame{Type: frameType, Data: body}); err != nil {
				slog.Debug("Failed to send turn", "error", err, "session_id", sessionID)
				return
			}
		case wsTypePing:
			if err := writeJSON(ctx, ws, map[string]string{"type": "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
				return
			}
		default:
			if err := writeJSON(ctx, ws, map[string]string{"type": "error", "error": "unknown_type"}); err != nil {
				return
			}
		}
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.cfg.IsDevelopment() {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	slog.Warn("WebSocket origin rejected", "origin", origin)
	return false
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
