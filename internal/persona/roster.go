// Package persona holds the roster of conversational personas and the named
// heuristic tables that drive selection, prompting and reordering.
package persona

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/roundtable/internal/domain"
)

// ErrInvalidPersona is returned when a persona descriptor is incomplete.
var ErrInvalidPersona = errors.New("invalid persona")

// Roster is the validated, ordered set of personas available to a service.
type Roster struct {
	personas []domain.Persona
	index    map[string]int
}

// NewRoster validates every persona once and returns the roster.
// Personas without a generator are accepted but reported by Degraded.
func NewRoster(personas ...domain.Persona) (*Roster, error) {
	r := &Roster{index: make(map[string]int, len(personas)*2)}
	var errs []error
	for _, p := range personas {
		if err := validate(p); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, name := range p.Names() {
			if _, dup := r.index[name]; dup {
				errs = append(errs, fmt.Errorf("%w: duplicate name %q", ErrInvalidPersona, name))
				continue
			}
			r.index[name] = len(r.personas)
		}
		r.personas = append(r.personas, p)
	}
	if len(r.personas) == 0 && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("%w: roster is empty", ErrInvalidPersona))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

func validate(p domain.Persona) error {
	var errs []error
	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, fmt.Errorf("%w: missing id", ErrInvalidPersona))
	}
	if strings.TrimSpace(p.Key) == "" {
		errs = append(errs, fmt.Errorf("%w %q: missing key", ErrInvalidPersona, p.ID))
	}
	if strings.ContainsAny(p.Key, " \t\n") {
		errs = append(errs, fmt.Errorf("%w %q: key must be a single word", ErrInvalidPersona, p.ID))
	}
	if !p.Archetype.Valid() {
		errs = append(errs, fmt.Errorf("%w %q: unknown archetype %q", ErrInvalidPersona, p.ID, p.Archetype))
	}
	if p.Length.Base <= 0 {
		errs = append(errs, fmt.Errorf("%w %q: length budget must be > 0", ErrInvalidPersona, p.ID))
	}
	for _, kw := range p.Keywords {
		if strings.TrimSpace(kw.Term) == "" {
			errs = append(errs, fmt.Errorf("%w %q: empty keyword", ErrInvalidPersona, p.ID))
			break
		}
	}
	return errors.Join(errs...)
}

// All returns the personas in roster order.
func (r *Roster) All() []domain.Persona {
	out := make([]domain.Persona, len(r.personas))
	copy(out, r.personas)
	return out
}

// Len returns the number of personas.
func (r *Roster) Len() int {
	return len(r.personas)
}

// Get looks a persona up by id or key, case-insensitively.
func (r *Roster) Get(name string) (domain.Persona, bool) {
	i, ok := r.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.Persona{}, false
	}
	return r.personas[i], true
}

// Degraded lists the ids of personas that cannot generate.
func (r *Roster) Degraded() []string {
	var out []string
	for _, p := range r.personas {
		if !p.Ready() {
			out = append(out, p.ID)
		}
	}
	return out
}

// BindGenerator returns a copy of the roster where every persona without a
// generator uses g.
func (r *Roster) BindGenerator(g domain.Generator) *Roster {
	out := &Roster{
		personas: make([]domain.Persona, len(r.personas)),
		index:    r.index,
	}
	for i, p := range r.personas {
		if p.Generator == nil {
			p.Generator = g
		}
		out.personas[i] = p
	}
	return out
}
