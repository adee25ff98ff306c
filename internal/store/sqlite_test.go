package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/roundtable/internal/domain"
)

func newTestArchive(t *testing.T) Archive {
	t.Helper()
	a, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func record(session string, turn int, at time.Time) domain.TurnRecord {
	return domain.TurnRecord{
		ID:          fmt.Sprintf("%s-%d", session, turn),
		SessionID:   session,
		Turn:        turn,
		TopicID:     "topic-1",
		UserMessage: "question",
		Reason:      "ranked",
		Conversation: []domain.TurnResponse{
			{Persona: "Analyst Alex", Text: "An answer."},
			{Persona: "Creative Casey", Text: "Another answer."},
		},
		Duration:  1500 * time.Millisecond,
		CreatedAt: at,
	}
}

func TestRecordAndListTurns(t *testing.T) {
	t.Parallel()

	a := newTestArchive(t)
	ctx := context.Background()
	base := time.Now().Truncate(time.Millisecond)

	for i := 1; i <= 3; i++ {
		require.NoError(t, a.RecordTurn(ctx, record("s1", i, base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, a.RecordTurn(ctx, record("s2", 1, base)))

	all, err := a.ListTurns(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 1, all[0].Turn)
	assert.Equal(t, 3, all[2].Turn)

	first := all[0]
	want := record("s1", 1, base.Add(time.Second))
	assert.Equal(t, want.Conversation, first.Conversation)
	assert.Equal(t, want.Duration, first.Duration)
	assert.Equal(t, "topic-1", first.TopicID)
	assert.Equal(t, "ranked", first.Reason)
	assert.True(t, want.CreatedAt.Equal(first.CreatedAt))

	recent, err := a.ListTurns(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 2, recent[0].Turn)
	assert.Equal(t, 3, recent[1].Turn)

	none, err := a.ListTurns(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordTurnRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	a := newTestArchive(t)
	rec := record("s1", 1, time.Now())
	require.NoError(t, a.RecordTurn(context.Background(), rec))
	require.Error(t, a.RecordTurn(context.Background(), rec))
}

func TestCleanupOlderThan(t *testing.T) {
	t.Parallel()

	a := newTestArchive(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, a.RecordTurn(ctx, record("s1", 1, now.Add(-48*time.Hour))))
	require.NoError(t, a.RecordTurn(ctx, record("s1", 2, now.Add(-time.Minute))))

	deleted, err := a.CleanupOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	left, err := a.ListTurns(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, 2, left[0].Turn)
}

func TestRetentionWorkerRemovesOldTurns(t *testing.T) {
	t.Parallel()

	a := newTestArchive(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.RecordTurn(ctx, record("s1", 1, time.Now().Add(-2*time.Hour))))
	StartRetentionWorker(ctx, a, time.Hour, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		left, err := a.ListTurns(ctx, "s1", 0)
		return err == nil && len(left) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPing(t *testing.T) {
	t.Parallel()

	a := newTestArchive(t)
	require.NoError(t, a.Ping(context.Background()))
}
