package domain

import (
	"time"
)

// Role identifies who authored a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// TopicChangeMarker is the synthetic history entry inserted on topic shifts.
const TopicChangeMarker = "--- Topic change ---"

// SystemAgent labels entries authored by the service rather than a persona.
const SystemAgent = "System"

// Message is a single history entry. Entries are never mutated once appended.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Persona   string    `json:"persona,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// TurnResponse is one persona's contribution to a turn.
type TurnResponse struct {
	Persona string `json:"agent"`
	Text    string `json:"message"`
}

// ConversationContext holds the state of one session.
type ConversationContext struct {
	SessionID         string
	Turn              int
	LastAgent         string
	UserMessage       string
	LastUserMessage   string
	DirectlyAddressed bool
	CurrentTopicID    string
	PreviousTopicIDs  []string
	CreatedAt         time.Time
	LastActiveAt      time.Time

	history []Message
}

// NewConversationContext returns an empty context at turn zero.
func NewConversationContext(sessionID string, now time.Time) *ConversationContext {
	return &ConversationContext{
		SessionID:    sessionID,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// AppendMessage adds an entry to the history.
func (c *ConversationContext) AppendMessage(m Message) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	c.history = append(c.history, m)
}

// History returns a copy of the history so callers cannot rewrite it.
func (c *ConversationContext) History() []Message {
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

// HistoryLen returns the number of history entries.
func (c *ConversationContext) HistoryLen() int {
	return len(c.history)
}

// RecentMessages returns up to the last n entries.
func (c *ConversationContext) RecentMessages(n int) []Message {
	if n >= len(c.history) {
		return c.History()
	}
	out := make([]Message, n)
	copy(out, c.history[len(c.history)-n:])
	return out
}

// SpokeRecently reports whether the persona authored any of the last n entries.
func (c *ConversationContext) SpokeRecently(personaID string, n int) bool {
	start := len(c.history) - n
	if start < 0 {
		start = 0
	}
	for _, m := range c.history[start:] {
		if m.Role == RoleAssistant && m.Persona == personaID {
			return true
		}
	}
	return false
}

// BeginTurn advances the turn counter and rotates the user message.
func (c *ConversationContext) BeginTurn(message string, now time.Time) {
	c.Turn++
	c.LastUserMessage = c.UserMessage
	c.UserMessage = message
	c.DirectlyAddressed = false
	c.LastActiveAt = now
}

// SwitchTopic records the current topic as previous and starts a new one.
func (c *ConversationContext) SwitchTopic(newID string) {
	if c.CurrentTopicID != "" && !contains(c.PreviousTopicIDs, c.CurrentTopicID) {
		c.PreviousTopicIDs = append(c.PreviousTopicIDs, c.CurrentTopicID)
	}
	c.CurrentTopicID = newID
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
