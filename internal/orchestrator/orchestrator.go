// Package orchestrator runs one conversational turn: it updates the session,
// picks the speaking order and generates each persona's reply in sequence.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/normalize"
	"github.com/ashureev/roundtable/internal/persona"
	"github.com/ashureev/roundtable/internal/prompt"
	"github.com/ashureev/roundtable/internal/randx"
	"github.com/ashureev/roundtable/internal/selector"
	"github.com/ashureev/roundtable/internal/session"
)

const (
	// DefaultTurnTimeout bounds a whole turn, lock wait included.
	DefaultTurnTimeout = 45 * time.Second
	// DefaultSessionID is used when the caller sends none.
	DefaultSessionID = "default"

	// ReasonDirectAddress marks orders resolved before the selector ran.
	ReasonDirectAddress = "direct_address"

	archiveTimeout = 5 * time.Second
)

// Archive receives every completed turn. Failures are logged and ignored.
type Archive interface {
	RecordTurn(ctx context.Context, rec domain.TurnRecord) error
}

// Options configures an Orchestrator. Zero values select defaults.
type Options struct {
	TurnTimeout time.Duration
	Retry       RetryPolicy
	Tables      *persona.Tables
	Rand        randx.Source
	Archive     Archive
	// NewTopicID overrides topic id generation. Tests only.
	NewTopicID func() string
}

// Result is the outcome of ProcessMessage.
type Result struct {
	SessionID    string                `json:"sessionId"`
	Turn         int                   `json:"turn"`
	Reason       string                `json:"reason,omitempty"`
	TopicChanged bool                  `json:"topicChanged,omitempty"`
	Conversation []domain.TurnResponse `json:"conversation"`
}

// Orchestrator composes selection, prompting, generation and normalization.
type Orchestrator struct {
	roster     *persona.Roster
	sessions   *session.Store
	tables     persona.Tables
	selector   *selector.Selector
	normalizer *normalize.Normalizer
	retry      RetryPolicy
	timeout    time.Duration
	archive    Archive
	newTopicID func() string
}

// New wires an orchestrator over roster and sessions.
func New(roster *persona.Roster, sessions *session.Store, opts Options) *Orchestrator {
	tables := persona.DefaultTables()
	if opts.Tables != nil {
		tables = *opts.Tables
	}
	rng := opts.Rand
	if rng == nil {
		rng = randx.Default()
	}
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = DefaultTurnTimeout
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.NewTopicID == nil {
		opts.NewTopicID = uuid.NewString
	}
	if degraded := roster.Degraded(); len(degraded) > 0 {
		slog.Warn("Personas without a generator will be skipped", "personas", degraded)
	}

	return &Orchestrator{
		roster:     roster,
		sessions:   sessions,
		tables:     tables,
		selector:   selector.New(tables, rng),
		normalizer: normalize.New(roster.All(), rng),
		retry:      opts.Retry,
		timeout:    opts.TurnTimeout,
		archive:    opts.Archive,
		newTopicID: opts.NewTopicID,
	}
}

// Roster returns the personas this orchestrator speaks with.
func (o *Orchestrator) Roster() *persona.Roster {
	return o.roster
}

// Sessions returns the backing session store.
func (o *Orchestrator) Sessions() *session.Store {
	return o.sessions
}

type outcome struct {
	result Result
	err    error
}

// commitGuard decides once whether the worker or the timed-out caller wins.
// Before that decision the worker may still mutate the session through run.
type commitGuard struct {
	mu        sync.Mutex
	abandoned bool
	finished  bool
}

// run applies fn unless the caller has abandoned the turn.
func (g *commitGuard) run(fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return false
	}
	fn()
	return true
}

// finish applies fn and claims the turn for the worker.
func (g *commitGuard) finish(fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return false
	}
	fn()
	g.finished = true
	return true
}

// abandon claims the turn for the caller. It fails once the worker finished.
func (g *commitGuard) abandon() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finished {
		return false
	}
	g.abandoned = true
	return true
}

// ProcessMessage runs one turn for sessionID. The returned conversation is
// never empty unless err is ErrInvalidInput.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message, sessionID string) (Result, error) {
	message = strings.TrimSpace(message)
	if sessionID = strings.TrimSpace(sessionID); sessionID == "" {
		sessionID = DefaultSessionID
	}
	if message == "" {
		return Result{SessionID: sessionID}, ErrInvalidInput
	}

	turnCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	guard := &commitGuard{}
	done := make(chan outcome, 1)
	go o.runTurn(turnCtx, message, sessionID, guard, done)

	select {
	case out := <-done:
		return out.result, out.err
	case <-turnCtx.Done():
		if !guard.abandon() {
			out := <-done
			return out.result, out.err
		}
		err := ErrTurnTimeout
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ErrTurnTimeout, ctx.Err())
		}
		slog.Warn("Turn abandoned", "session_id", sessionID, "timeout", o.timeout, "error", err)
		return Result{SessionID: sessionID, Conversation: apology(TimeoutApologyText)}, err
	}
}

// runTurn holds the session lock until it returns, even after the caller gave up.
func (o *Orchestrator) runTurn(ctx context.Context, message, sessionID string, guard *commitGuard, done chan<- outcome) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Turn panicked", "session_id", sessionID, "panic", r)
			select {
			case done <- outcome{
				result: Result{SessionID: sessionID, Conversation: apology(ApologyText)},
				err:    fmt.Errorf("%w: %v", ErrUnexpected, r),
			}:
			default:
			}
		}
	}()

	cctx, release, err := o.sessions.Acquire(ctx, sessionID)
	if err != nil {
		// The caller is already returning the timeout apology.
		slog.Debug("Session lock not acquired", "session_id", sessionID, "error", err)
		return
	}
	defer release()

	var (
		res   Result
		order []domain.Persona
	)
	if !guard.run(func() { res, order = o.beginTurn(cctx, message) }) {
		return
	}

	responses := o.speak(ctx, cctx, message, order)
	if ctx.Err() != nil {
		slog.Info("Discarding replies of abandoned turn", "session_id", sessionID, "turn", res.Turn, "replies", len(responses))
		return
	}

	if !guard.finish(func() {
		for _, r := range responses {
			cctx.AppendMessage(domain.Message{Role: domain.RoleAssistant, Content: r.Text, Persona: r.Persona})
		}
		if len(responses) > 0 {
			cctx.LastAgent = responses[len(responses)-1].Persona
		}
	}) {
		return
	}

	if len(responses) == 0 {
		res.Conversation = apology(ApologyText)
		done <- outcome{result: res}
		return
	}
	res.Conversation = responses
	done <- outcome{result: res}

	o.record(ctx, cctx, res, message, time.Since(started))
}

// beginTurn applies the user message to the context and resolves the order.
func (o *Orchestrator) beginTurn(cctx *domain.ConversationContext, message string) (Result, []domain.Persona) {
	now := time.Now()
	cctx.BeginTurn(message, now)

	res := Result{SessionID: cctx.SessionID, Turn: cctx.Turn}
	switch {
	case cctx.CurrentTopicID == "":
		cctx.SwitchTopic(o.newTopicID())
	case TopicChanged(cctx.LastUserMessage, message):
		cctx.AppendMessage(domain.Message{Role: domain.RoleSystem, Content: domain.TopicChangeMarker, Timestamp: now})
		cctx.SwitchTopic(o.newTopicID())
		res.TopicChanged = true
	}
	cctx.AppendMessage(domain.Message{Role: domain.RoleUser, Content: message, Timestamp: now})

	all := o.roster.All()
	order := Addressed(message, all)
	if len(order) > 0 {
		cctx.DirectlyAddressed = true
		res.Reason = ReasonDirectAddress
	} else {
		sel := o.selector.Select(message, all, cctx)
		order = sel.Personas
		res.Reason = string(sel.Reason)
	}
	cctx.LastAgent = ""

	slog.Debug("Turn order resolved",
		"session_id", cctx.SessionID,
		"turn", cctx.Turn,
		"reason", res.Reason,
		"order", personaIDs(order))
	return res, order
}

// speak generates each persona's reply in order. Each prompt sees the
// replies produced before it in the same turn.
func (o *Orchestrator) speak(ctx context.Context, cctx *domain.ConversationContext, message string, order []domain.Persona) []domain.TurnResponse {
	all := o.roster.All()
	sig := normalize.Signals{Turn: cctx.Turn, DirectlyAddressed: cctx.DirectlyAddressed, UserMessage: message}

	var responses []domain.TurnResponse
	for _, p := range order {
		if ctx.Err() != nil {
			break
		}
		if !p.Ready() {
			slog.Warn("Skipping persona without generator", "session_id", cctx.SessionID, "persona", p.ID)
			continue
		}

		text := o.generate(ctx, cctx, p, prompt.Build(prompt.Input{
			Message: message,
			Persona: p,
			Roster:  all,
			Prior:   responses,
		}, o.tables.Directives))
		if text != "" {
			text = o.normalizer.Normalize(text, p, sig)
		}
		if text == "" {
			text = FallbackText
		}
		responses = append(responses, domain.TurnResponse{Persona: p.ID, Text: text})
	}
	return responses
}

// generate returns raw text, or "" once the retry policy gives up.
func (o *Orchestrator) generate(ctx context.Context, cctx *domain.ConversationContext, p domain.Persona, promptText string) string {
	text, attempts, err := o.retry.Run(ctx, func(ctx context.Context) (string, error) {
		return p.Generator.Generate(ctx, promptText, p.Options)
	})
	if err != nil {
		slog.Warn("Generation failed, using fallback",
			"session_id", cctx.SessionID,
			"persona", p.ID,
			"turn", cctx.Turn,
			"attempt", attempts,
			"error", err)
		return ""
	}
	return text
}

func (o *Orchestrator) record(ctx context.Context, cctx *domain.ConversationContext, res Result, message string, took time.Duration) {
	if o.archive == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	rec := domain.TurnRecord{
		ID:           uuid.NewString(),
		SessionID:    res.SessionID,
		Turn:         res.Turn,
		TopicID:      cctx.CurrentTopicID,
		UserMessage:  message,
		Reason:       res.Reason,
		Conversation: res.Conversation,
		Duration:     took,
		CreatedAt:    time.Now(),
	}
	if err := o.archive.RecordTurn(actx, rec); err != nil {
		slog.Warn("Failed to archive turn", "session_id", res.SessionID, "turn", res.Turn, "error", err)
	}
}

func apology(text string) []domain.TurnResponse {
	return []domain.TurnResponse{{Persona: domain.SystemAgent, Text: text}}
}

func personaIDs(ps []domain.Persona) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
