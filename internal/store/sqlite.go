package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/shared"
)

// SQLiteArchive implements Archive using SQLite.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed archive.
func NewSQLite(dbPath string) (Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	archive := &SQLiteArchive{db: db}
	if err := archive.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return archive, nil
}

func (s *SQLiteArchive) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		topic_id TEXT,
		user_message TEXT NOT NULL,
		reason TEXT,
		conversation_json TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, turn);
	CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteArchive) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordTurn stores one completed turn, retrying while the database is busy.
func (s *SQLiteArchive) RecordTurn(ctx context.Context, rec domain.TurnRecord) error {
	conversation, err := json.Marshal(rec.Conversation)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}

	query := `
	INSERT INTO turns (id, session_id, turn, topic_id, user_message, reason, conversation_json, duration_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return shared.RetryOnConflict(ctx, "record turn", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, query,
			rec.ID, rec.SessionID, rec.Turn, rec.TopicID, rec.UserMessage, rec.Reason,
			string(conversation), rec.Duration.Milliseconds(), rec.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		return nil
	})
}

// ListTurns returns the most recent turns of a session, oldest first.
func (s *SQLiteArchive) ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, session_id, turn, topic_id, user_message, reason,
		       conversation_json, duration_ms, created_at
		FROM (
			SELECT * FROM turns WHERE session_id = ?
			ORDER BY created_at DESC, turn DESC LIMIT ?
		) ORDER BY created_at ASC, turn ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close turn rows", "error", closeErr)
		}
	}()

	var records []domain.TurnRecord
	for rows.Next() {
		var (
			rec                 domain.TurnRecord
			topicID, reason     sql.NullString
			conversation        string
			durationMS, created int64
		)
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.Turn, &topicID, &rec.UserMessage, &reason,
			&conversation, &durationMS, &created,
		); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		if err := json.Unmarshal([]byte(conversation), &rec.Conversation); err != nil {
			return nil, fmt.Errorf("decode conversation of turn %s: %w", rec.ID, err)
		}
		rec.TopicID = topicID.String
		rec.Reason = reason.String
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.CreatedAt = time.UnixMilli(created)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return records, nil
}

// CleanupOlderThan removes turns recorded more than age ago.
func (s *SQLiteArchive) CleanupOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	threshold := time.Now().Add(-age).UnixMilli()
	var deleted int64
	err := shared.RetryOnConflict(ctx, "cleanup turns", func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE created_at < ?`, threshold)
		if err != nil {
			return fmt.Errorf("cleanup turns: %w", err)
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}

// Close closes the database connection.
func (s *SQLiteArchive) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
