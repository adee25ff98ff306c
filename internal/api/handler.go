// Package api provides HTTP and WebSocket handlers for the roundtable API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/roundtable/internal/config"
	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/identity"
	"github.com/ashureev/roundtable/internal/orchestrator"
	"github.com/ashureev/roundtable/internal/store"
	"github.com/go-chi/chi/v5"
)

// maxRequestBody caps chat request bodies.
const maxRequestBody = 64 << 10

// Backend is the generation backend as seen by the API. Backends that also
// implement Healthy() bool are probed by the health endpoint.
type Backend interface {
	Name() string
}

type healthReporter interface {
	Healthy() bool
}

// Handler serves the conversation API.
type Handler struct {
	orch    *orchestrator.Orchestrator
	archive store.Archive
	backend Backend
	conns   *Connections
	cfg     *config.Config
}

// NewHandler creates a Handler. archive may be nil when archiving is disabled.
func NewHandler(orch *orchestrator.Orchestrator, archive store.Archive, backend Backend, cfg *config.Config) *Handler {
	if cfg == nil {
		cfg = &config.Config{AllowedOrigins: []string{"*"}}
	}
	return &Handler{
		orch:    orch,
		archive: archive,
		backend: backend,
		conns:   NewConnections(),
		cfg:     cfg,
	}
}

// Connections exposes the live WebSocket registry.
func (h *Handler) Connections() *Connections {
	return h.conns
}

// RegisterRoutes registers every API route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Get("/personas", h.Personas)
		r.Delete("/sessions/{id}", h.DeleteSession)
		r.Get("/sessions/{id}/turns", h.SessionTurns)
		r.Get("/health", h.Health)
	})
	r.Get("/ws/chat", h.ChatSocket)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// turnError is the error payload of a turn. It still carries a conversation
// so clients can always render something.
type turnError struct {
	Error        string                `json:"error"`
	SessionID    string                `json:"sessionId,omitempty"`
	Conversation []domain.TurnResponse `json:"conversation"`
}

// runTurn runs one turn and maps its outcome to an HTTP status and payload.
func (h *Handler) runTurn(ctx context.Context, message, sessionID string) (int, interface{}) {
	res, err := h.orch.ProcessMessage(ctx, message, sessionID)
	if err == nil {
		return http.StatusOK, res
	}

	status := statusFor(err)
	conv := res.Conversation
	if len(conv) == 0 {
		text := orchestrator.ApologyText
		if errors.Is(err, orchestrator.ErrInvalidInput) {
			text = orchestrator.InvalidInputApology
		}
		conv = []domain.TurnResponse{{Persona: domain.SystemAgent, Text: text}}
	}
	if status >= http.StatusInternalServerError {
		slog.Warn("Turn failed", "session_id", res.SessionID, "error", err)
	}
	return status, turnError{Error: errorCode(err), SessionID: res.SessionID, Conversation: conv}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrTurnTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, orchestrator.ErrTurnTimeout):
		return "turn_timeout"
	default:
		return "internal_error"
	}
}

// resolveSessionID prefers an explicit id from the payload over the one the
// identity middleware put on the request.
func resolveSessionID(ctx context.Context, explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return identity.SanitizeSessionID(explicit)
	}
	return identity.SessionIDFromContext(ctx)
}
