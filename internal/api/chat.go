package api

import (
	"encoding/json"
	"net/http"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/orchestrator"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Chat runs one conversation turn.
// POST /api/chat {message, sessionId} -> {conversation: [{agent, message}]}.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		JSON(w, http.StatusBadRequest, turnError{
			Error:        "invalid_request",
			Conversation: []domain.TurnResponse{{Persona: domain.SystemAgent, Text: orchestrator.InvalidInputApology}},
		})
		return
	}

	status, body := h.runTurn(r.Context(), req.Message, resolveSessionID(r.Context(), req.SessionID))
	JSON(w, status, body)
}

type personaView struct {
	ID         string `json:"id"`
	Key        string `json:"key"`
	Archetype  string `json:"archetype"`
	Descriptor string `json:"descriptor"`
	Degraded   bool   `json:"degraded"`
}

// Personas lists the roster in speaking-order priority.
func (h *Handler) Personas(w http.ResponseWriter, _ *http.Request) {
	all := h.orch.Roster().All()
	out := make([]personaView, 0, len(all))
	for _, p := range all {
		out = append(out, personaView{
			ID:         p.ID,
			Key:        p.Key,
			Archetype:  string(p.Archetype),
			Descriptor: p.Descriptor,
			Degraded:   !p.Ready(),
		})
	}
	JSON(w, http.StatusOK, map[string]interface{}{"personas": out})
}
