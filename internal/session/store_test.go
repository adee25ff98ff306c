package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestGetCreatesOnce(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	a := s.Get("abc")
	b := s.Get("abc")
	require.Same(t, a, b)
	assert.Equal(t, 0, a.Turn)
	assert.Zero(t, a.HistoryLen())
	assert.Equal(t, "abc", a.SessionID)
	assert.Equal(t, 1, s.Len())
}

func TestAcquireSerializesSession(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	_, release, err := s.Acquire(context.Background(), "abc")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = s.Acquire(ctx, "abc")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Other sessions are independent.
	_, releaseOther, err := s.Acquire(context.Background(), "xyz")
	require.NoError(t, err)
	releaseOther()

	release()
	release()

	_, release, err = s.Acquire(context.Background(), "abc")
	require.NoError(t, err)
	release()
}

func TestAcquireConcurrentTurnsDoNotInterleave(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, release, err := s.Acquire(context.Background(), "shared")
			if !assert.NoError(t, err) {
				return
			}
			defer release()
			turn := cctx.Turn
			time.Sleep(time.Millisecond)
			cctx.Turn = turn + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, s.Get("shared").Turn)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	var evicted []string
	s := NewStore(Options{
		IdleTTL: time.Minute,
		Now:     clock.Now,
		OnEvict: func(id string) { evicted = append(evicted, id) },
	})

	s.Get("idle")
	_, release, err := s.Acquire(context.Background(), "busy")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	s.Get("fresh")

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, []string{"idle"}, evicted)
	assert.Equal(t, 2, s.Len())

	release()
	clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, s.Sweep())
	assert.Zero(t, s.Len())
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	var evicted []string
	s := NewStore(Options{
		MaxSessions: 2,
		Now:         clock.Now,
		OnEvict:     func(id string) { evicted = append(evicted, id) },
	})

	s.Get("a")
	clock.Advance(time.Second)
	s.Get("b")
	clock.Advance(time.Second)
	s.Get("a")
	clock.Advance(time.Second)
	s.Get("c")

	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, s.Len())
}

func TestCapacityNeverEvictsLockedSessions(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{MaxSessions: 1})
	held, release, err := s.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer release()

	s.Get("b")
	assert.Equal(t, 2, s.Len())
	assert.Same(t, held, s.Get("a"))
}

func TestDelete(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	first := s.Get("abc")
	first.Turn = 3

	assert.True(t, s.Delete("abc"))
	assert.False(t, s.Delete("abc"))
	assert.Equal(t, 0, s.Get("abc").Turn)
}

func TestDeleteBusySessionKeepsOneContextPerID(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	old, release, err := s.Acquire(context.Background(), "abc")
	require.NoError(t, err)
	old.Turn = 3

	require.True(t, s.Delete("abc"))
	assert.Equal(t, 1, s.Len())

	type acquired struct {
		cctx    *domain.ConversationContext
		release func()
	}
	next := make(chan acquired, 1)
	go func() {
		c, rel, err := s.Acquire(context.Background(), "abc")
		if err != nil {
			close(next)
			return
		}
		next <- acquired{c, rel}
	}()

	select {
	case <-next:
		t.Fatal("acquired a deleted session while its turn was still running")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	got, ok := <-next
	require.True(t, ok)
	assert.NotSame(t, old, got.cctx)
	assert.Equal(t, 0, got.cctx.Turn)
	assert.Same(t, got.cctx, s.Get("abc"))
	got.release()
}

func TestDeleteBusySessionDropsEntryOnRelease(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	_, release, err := s.Acquire(context.Background(), "abc")
	require.NoError(t, err)

	require.True(t, s.Delete("abc"))
	release()
	assert.Equal(t, 0, s.Len())
}

func TestStartSweeperStopsWithContext(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := NewStore(Options{IdleTTL: time.Minute, SweepInterval: 5 * time.Millisecond, Now: clock.Now})
	s.Get("idle")
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	s.StartSweeper(ctx)

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
}
