package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/identity"
	"github.com/go-chi/chi/v5"
)

const defaultTurnsLimit = 50

// DeleteSession drops a live session and closes its sockets.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := identity.SanitizeSessionID(chi.URLParam(r, "id"))
	closed := h.conns.CloseSession(id)
	if !h.orch.Sessions().Delete(id) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	slog.Info("Session deleted", "session_id", id, "sockets_closed", closed)
	w.WriteHeader(http.StatusNoContent)
}

// SessionTurns returns archived turns for a session, oldest first.
// GET /api/sessions/{id}/turns?limit=N; limit=0 returns all of them.
func (h *Handler) SessionTurns(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		Error(w, http.StatusServiceUnavailable, "archive disabled")
		return
	}

	id := identity.SanitizeSessionID(chi.URLParam(r, "id"))
	limit := defaultTurnsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	turns, err := h.archive.ListTurns(r.Context(), id, limit)
	if err != nil {
		slog.Error("Failed to list turns", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list turns")
		return
	}
	if turns == nil {
		turns = []domain.TurnRecord{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"sessionId": id, "turns": turns})
}
