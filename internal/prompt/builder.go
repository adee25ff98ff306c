// Package prompt renders the per-persona generation prompt for a turn.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/persona"
)

// Input is everything needed to build one persona's prompt.
type Input struct {
	Message string
	Persona domain.Persona
	Roster  []domain.Persona
	// Prior holds the responses already produced earlier in this turn.
	Prior []domain.TurnResponse
}

// archetypeOpeners open the persona-specific instruction block.
var archetypeOpeners = map[domain.Archetype]string{
	domain.ArchetypeAnalytical: "Open with a direct answer in your first sentence, then support it.",
	domain.ArchetypeCreative:   "Open with a direct answer in your first sentence, then explore.",
	domain.ArchetypePractical:  "Open with a direct answer in your first sentence, then get concrete.",
}

// archetypeStyles are used when a persona brings no style bullets of its own.
var archetypeStyles = map[domain.Archetype][]string{
	domain.ArchetypeAnalytical: {
		"Ground claims in data, evidence or base rates",
		"Be skeptical of hype and say what would change your mind",
		"Quantify uncertainty instead of hedging vaguely",
		"Point out the weakest assumption in the discussion",
	},
	domain.ArchetypeCreative: {
		"Offer unexpected angles and fresh framings",
		"Use a short analogy when it clarifies",
		"Ask \"what if\" to open new possibilities",
		"Build on ideas rather than repeating them",
		"Stay playful but relevant",
	},
	domain.ArchetypePractical: {
		"Recommend a clear course of action",
		"Break work into ordered next steps",
		"Weigh cost, time and effort honestly",
		"Cut anything that does not change the decision",
	},
}

// styleOf returns the persona's own style bullets, or its archetype's.
func styleOf(p domain.Persona) []string {
	if len(p.Style) > 0 {
		return p.Style
	}
	return archetypeStyles[p.Archetype]
}

const formatRules = `FORMAT RULES:
- Never write stage directions or actions in parentheses or asterisks.
- Never refer to yourself in the third person or by your own name.
- Never invent lines, questions or replies for the other participants.
- Write in the first person as natural conversational prose.`

const guidance = `GUIDANCE:
- Answer the question first, then elaborate only if it adds value.
- Vary your length: short when the question is simple, longer when it is not.
- You may respectfully disagree with the others.
- Prioritize new information over repeating what was already said.`

// Build returns the prompt for in.Persona.
func Build(in Input, directives persona.Directives) string {
	p := in.Persona
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, one of several participants in a group conversation. %s\n\n", p.ID, p.Directive)

	if opener, ok := archetypeOpeners[p.Archetype]; ok {
		b.WriteString(opener)
		b.WriteString("\nYour style:")
		for _, s := range styleOf(p) {
			b.WriteString("\n- ")
			b.WriteString(s)
		}
		b.WriteString("\n\n")
	}

	if others := otherParticipants(p, in.Roster); others != "" {
		fmt.Fprintf(&b, "Other participants: %s.\n\n", others)
	}

	b.WriteString(formatRules)
	b.WriteString("\n\n")
	b.WriteString(guidance)
	b.WriteString("\n\n")

	if n := len(in.Prior); n > 0 {
		preceding := in.Prior[n-1].Persona
		if d, ok := directives.For(p.Key, keyOf(preceding, in.Roster)); ok {
			b.WriteString(d)
			b.WriteString("\n\n")
		}

		fmt.Fprintf(&b, "The user said: %q\n\nSo far in this conversation:\n", in.Message)
		for _, r := range in.Prior {
			fmt.Fprintf(&b, "%s: %s\n", shortNameOf(r.Persona, in.Roster), r.Text)
		}
		fmt.Fprintf(&b, "\nNow respond as %s, adding your own perspective.", p.ShortName())
		return b.String()
	}

	fmt.Fprintf(&b, "Respond to the user's message: %q", in.Message)
	return b.String()
}

func otherParticipants(self domain.Persona, roster []domain.Persona) string {
	var parts []string
	for _, p := range roster {
		if p.ID == self.ID {
			continue
		}
		if p.Descriptor != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", p.ID, p.Descriptor))
		} else {
			parts = append(parts, p.ID)
		}
	}
	return strings.Join(parts, ", ")
}

func keyOf(id string, roster []domain.Persona) string {
	for _, p := range roster {
		if p.ID == id {
			return p.Key
		}
	}
	return strings.ToLower(id)
}

func shortNameOf(id string, roster []domain.Persona) string {
	for _, p := range roster {
		if p.ID == id {
			return p.ShortName()
		}
	}
	return id
}
