// Package session keeps conversation contexts in memory, one per session id.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ashureev/roundtable/internal/domain"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultIdleTTL       = 30 * time.Minute
	DefaultMaxSessions   = 10000
	DefaultSweepInterval = time.Minute
)

// Options bounds how many sessions stay resident and for how long.
type Options struct {
	IdleTTL       time.Duration
	MaxSessions   int
	SweepInterval time.Duration
	// Now overrides the clock. Tests only.
	Now func() time.Time
	// OnEvict is called after a session is dropped by the sweeper or capacity policy.
	OnEvict func(sessionID string)
}

type entry struct {
	cctx *domain.ConversationContext
	lock *semaphore.Weighted
	// holders counts goroutines holding or waiting for lock. Guarded by Store.mu.
	holders  int
	lastUsed time.Time
	// deleted marks an entry dropped while busy; it leaves the map on the last release.
	deleted bool
}

// Store maps session ids to their conversation context.
type Store struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewStore returns an empty store.
func NewStore(opts Options) *Store {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{opts: opts, sessions: make(map[string]*entry)}
}

// Get returns the context for sessionID, creating it on first use.
// Callers that mutate the context must hold it through Acquire.
func (s *Store) Get(sessionID string) *domain.ConversationContext {
	s.mu.Lock()
	e, evicted := s.getOrCreateLocked(sessionID)
	s.mu.Unlock()
	s.notify(evicted)
	return e.cctx
}

// Acquire locks the session for exclusive use and returns its context.
// The release func must be called exactly once; extra calls are no-ops.
func (s *Store) Acquire(ctx context.Context, sessionID string) (*domain.ConversationContext, func(), error) {
	s.mu.Lock()
	e, evicted := s.getOrCreateLocked(sessionID)
	e.holders++
	s.mu.Unlock()
	s.notify(evicted)

	if err := e.lock.Acquire(ctx, 1); err != nil {
		s.mu.Lock()
		e.holders--
		s.mu.Unlock()
		return nil, nil, err
	}

	s.mu.Lock()
	cctx := e.cctx
	s.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.mu.Lock()
			e.holders--
			e.lastUsed = s.opts.Now()
			if e.deleted && e.holders == 0 && s.sessions[sessionID] == e {
				delete(s.sessions, sessionID)
			}
			s.mu.Unlock()
			e.lock.Release(1)
		})
	}
	return cctx, release, nil
}

// Delete drops a session. A busy session keeps its lock so later turns still
// queue behind the in-flight one, but they start from a fresh context; the
// in-flight turn finishes on the detached one.
func (s *Store) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	if e.holders == 0 {
		delete(s.sessions, sessionID)
		return true
	}
	e.cctx = domain.NewConversationContext(sessionID, s.opts.Now())
	e.deleted = true
	return true
}

// Len returns the number of resident sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many went.
func (s *Store) Sweep() int {
	now := s.opts.Now()
	var evicted []string

	s.mu.Lock()
	for id, e := range s.sessions {
		if e.holders == 0 && now.Sub(e.lastUsed) > s.opts.IdleTTL {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	s.mu.Unlock()

	s.notify(evicted...)
	return len(evicted)
}

// StartSweeper runs Sweep on a ticker until ctx is done.
func (s *Store) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", s.opts.SweepInterval, "ttl", s.opts.IdleTTL)

		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					slog.Info("Session sweeper evicted idle sessions", "count", n, "resident", s.Len())
				}
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (s *Store) getOrCreateLocked(sessionID string) (*entry, string) {
	now := s.opts.Now()
	if e, ok := s.sessions[sessionID]; ok {
		e.lastUsed = now
		e.deleted = false
		return e, ""
	}

	var evicted string
	if len(s.sessions) >= s.opts.MaxSessions {
		evicted = s.evictOldestIdleLocked()
	}
	e := &entry{
		cctx:     domain.NewConversationContext(sessionID, now),
		lock:     semaphore.NewWeighted(1),
		lastUsed: now,
	}
	s.sessions[sessionID] = e
	return e, evicted
}

// evictOldestIdleLocked removes the least recently used unlocked session.
// When every session is busy the store is allowed to grow past its bound.
func (s *Store) evictOldestIdleLocked() string {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range s.sessions {
		if e.holders > 0 {
			continue
		}
		if oldestID == "" || e.lastUsed.Before(oldest) {
			oldestID, oldest = id, e.lastUsed
		}
	}
	if oldestID == "" {
		slog.Warn("Session store over capacity with every session busy", "max", s.opts.MaxSessions)
		return ""
	}
	delete(s.sessions, oldestID)
	slog.Debug("Session evicted for capacity", "session_id", oldestID)
	return oldestID
}

func (s *Store) notify(ids ...string) {
	if s.opts.OnEvict == nil {
		return
	}
	for _, id := range ids {
		if id != "" {
			s.opts.OnEvict(id)
		}
	}
}
