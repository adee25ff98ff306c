// Package store provides the turn archive interface and its SQLite implementation.
package store

import (
	"context"
	"time"

	"github.com/ashureev/roundtable/internal/domain"
)

// Archive persists completed turns for audit. It is write-mostly and is never
// used to restore live sessions.
type Archive interface {
	// RecordTurn stores one completed turn.
	RecordTurn(ctx context.Context, rec domain.TurnRecord) error

	// ListTurns returns up to limit of the most recent turns for a session,
	// oldest first. A limit <= 0 returns every turn.
	ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error)

	// CleanupOlderThan removes turns recorded more than age ago.
	CleanupOlderThan(ctx context.Context, age time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
