package domain

import "time"

// TurnRecord is the archived outcome of one processed turn.
type TurnRecord struct {
	ID           string         `json:"id"`
	SessionID    string         `json:"session_id"`
	Turn         int            `json:"turn"`
	TopicID      string         `json:"topic_id"`
	UserMessage  string         `json:"user_message"`
	Reason       string         `json:"reason"`
	Conversation []TurnResponse `json:"conversation"`
	Duration     time.Duration  `json:"duration"`
	CreatedAt    time.Time      `json:"created_at"`
}
