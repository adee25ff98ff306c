package orchestrator

import (
	"strings"

	"github.com/ashureev/roundtable/internal/domain"
)

// Addressed returns the personas the message speaks to directly, in roster order.
// A persona is addressed when the message starts with one of its names or
// contains "name," or "name:" anywhere.
//
// A non-empty result is the whole speaking order for the turn, so a message
// that names a persona this way never reaches the selector's own mention or
// topical rules.
func Addressed(message string, roster []domain.Persona) []domain.Persona {
	lower := strings.ToLower(strings.TrimSpace(message))
	var out []domain.Persona
	for _, p := range roster {
		for _, name := range p.Names() {
			if strings.HasPrefix(lower, name) ||
				strings.Contains(lower, name+",") ||
				strings.Contains(lower, name+":") {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
