// Package selector decides which personas speak in a turn and in what order.
package selector

import (
	"sort"
	"strings"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/persona"
	"github.com/ashureev/roundtable/internal/randx"
)

// Reason explains which rule produced a selection.
type Reason string

const (
	ReasonTopicalOverride Reason = "topical_override"
	ReasonMention         Reason = "explicit_mention"
	ReasonRanked          Reason = "ranked"
	ReasonNone            Reason = "none"
)

// Scoring constants for relevance ranking.
const (
	LastSpeakerPenalty = 2.5
	QuietBonus         = 1.5
	QuietWindow        = 6
	JitterSpread       = 0.3
	ReorderChance      = 0.4
)

// ComprehensiveCues ask for every persona to weigh in.
var ComprehensiveCues = []string{"everyone", "all", "each", "debate", "discuss", "perspectives"}

// FocusedCues ask for a single voice.
var FocusedCues = []string{"briefly", "quick", "short", "simple", "just one"}

// Result is the ordered speaking list plus how it was decided.
type Result struct {
	Personas []domain.Persona
	Reason   Reason
}

// Selector applies the selection policy. It holds no conversation state.
type Selector struct {
	tables persona.Tables
	rng    randx.Source
}

// New creates a selector. A nil rng uses the default entropy source.
func New(tables persona.Tables, rng randx.Source) *Selector {
	if rng == nil {
		rng = randx.Default()
	}
	return &Selector{tables: tables, rng: rng}
}

// Select returns the personas that should speak, in speaking order.
func (s *Selector) Select(message string, available []domain.Persona, cctx *domain.ConversationContext) Result {
	if len(available) == 0 {
		return Result{Reason: ReasonNone}
	}

	if s.tables.Domain.Matches(message) {
		if i := indexOfKey(available, s.tables.Domain.Expert); i >= 0 {
			out := make([]domain.Persona, 0, len(available))
			out = append(out, available[i])
			for j, p := range available {
				if j != i {
					out = append(out, p)
				}
			}
			return Result{Personas: out, Reason: ReasonTopicalOverride}
		}
	}

	if mentioned := Mentioned(message, available); len(mentioned) > 0 {
		return Result{Personas: mentioned, Reason: ReasonMention}
	}

	n := s.ResponseCount(message, cctx.Turn, len(available))
	ranked := s.Rank(message, available, cctx)
	selected := ranked[:n]
	s.reorder(selected, available, cctx)
	return Result{Personas: selected, Reason: ReasonRanked}
}

// ResponseCount decides how many personas speak this turn.
func (s *Selector) ResponseCount(message string, turn, available int) int {
	if turn <= 2 {
		return available
	}
	lower := strings.ToLower(message)
	if hasAnyCue(lower, ComprehensiveCues) {
		return available
	}
	if hasAnyCue(lower, FocusedCues) {
		return min(1, available)
	}

	t := float64(turn)
	if s.rng.Float64() < min(0.4, 0.15+0.05*t) {
		return min(1, available)
	}
	if s.rng.Float64() < min(0.5, 0.2+0.03*t) {
		return min(2, available)
	}
	return available
}

// Rank orders every available persona by relevance, best first.
func (s *Selector) Rank(message string, available []domain.Persona, cctx *domain.ConversationContext) []domain.Persona {
	type scored struct {
		p     domain.Persona
		score float64
	}
	lower := strings.ToLower(message)
	list := make([]scored, len(available))
	for i, p := range available {
		list[i] = scored{p: p, score: s.Score(lower, p, cctx)}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })

	out := make([]domain.Persona, len(list))
	for i, sc := range list {
		out[i] = sc.p
	}
	return out
}

// Score computes a persona's relevance for an already lowercased message.
func (s *Selector) Score(lower string, p domain.Persona, cctx *domain.ConversationContext) float64 {
	score := KeywordScore(lower, p.Keywords)
	if cctx.LastAgent != "" && cctx.LastAgent == p.ID {
		score -= LastSpeakerPenalty
	}
	if !cctx.SpokeRecently(p.ID, QuietWindow) {
		score += QuietBonus
	}
	score += (s.rng.Float64()*2 - 1) * JitterSpread
	return score
}

// KeywordScore sums keyword weights, favoring matches near the start.
func KeywordScore(lower string, keywords []domain.KeywordWeight) float64 {
	if lower == "" {
		return 0
	}
	window := float64(min(100, len(lower)))
	var total float64
	for _, kw := range keywords {
		idx := strings.Index(lower, strings.ToLower(kw.Term))
		if idx < 0 {
			continue
		}
		total += kw.Weight * max(0.5, 1-float64(idx)/window)
	}
	return total
}

func (s *Selector) reorder(selected, available []domain.Persona, cctx *domain.ConversationContext) {
	if cctx.Turn < 2 || cctx.LastAgent == "" || len(selected) < 2 {
		return
	}
	if s.rng.Float64() >= ReorderChance {
		return
	}
	follower := s.tables.Transitions.Follower(keyFor(cctx.LastAgent, available), s.rng)
	if follower == "" {
		return
	}
	i := indexOfKey(selected, follower)
	if i <= 0 {
		return
	}
	p := selected[i]
	copy(selected[1:i+1], selected[:i])
	selected[0] = p
}

func hasAnyCue(lower string, cues []string) bool {
	for _, c := range cues {
		if persona.ContainsWord(lower, c) {
			return true
		}
	}
	return false
}

func indexOfKey(list []domain.Persona, key string) int {
	key = strings.ToLower(key)
	for i, p := range list {
		if strings.ToLower(p.Key) == key {
			return i
		}
	}
	return -1
}

func keyFor(id string, available []domain.Persona) string {
	for _, p := range available {
		if p.ID == id {
			return p.Key
		}
	}
	return strings.ToLower(id)
}
