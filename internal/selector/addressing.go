package selector

import (
	"strings"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/persona"
)

// MentionForm is one way a user may address a persona by name.
type MentionForm struct {
	// Format contains a single %s replaced by the lowercased name.
	Format string
	// Prefix forms only count at the very start of the message.
	Prefix bool
}

// MentionForms lists the explicit addressing patterns, checked in order.
var MentionForms = []MentionForm{
	{Format: "%s,", Prefix: true},
	{Format: "%s:", Prefix: true},
	{Format: "%s, "},
	{Format: "%s: "},
	{Format: "ask %s"},
	{Format: "%s please"},
	{Format: "hey %s"},
	{Format: "what does %s think"},
}

func (f MentionForm) matches(lower, name string) bool {
	needle := strings.Replace(f.Format, "%s", name, 1)
	if f.Prefix {
		return strings.HasPrefix(lower, needle)
	}
	return strings.Contains(lower, needle)
}

// Mentioned returns the personas the message explicitly mentions, in roster order.
// A bare mention counts only when the message is also a question.
func Mentioned(message string, available []domain.Persona) []domain.Persona {
	lower := strings.ToLower(strings.TrimSpace(message))
	question := strings.Contains(lower, "?")

	var out []domain.Persona
	for _, p := range available {
		if mentions(lower, p, question) {
			out = append(out, p)
		}
	}
	return out
}

func mentions(lower string, p domain.Persona, question bool) bool {
	for _, name := range p.Names() {
		for _, form := range MentionForms {
			if form.matches(lower, name) {
				return true
			}
		}
		if question && persona.ContainsWord(lower, name) {
			return true
		}
	}
	return false
}
