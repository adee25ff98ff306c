package persona

import "github.com/ashureev/roundtable/internal/domain"

// Keys of the built-in personas.
const (
	KeyAlex   = "alex"
	KeyCasey  = "casey"
	KeyParker = "parker"
)

// Defaults returns the built-in roster descriptors without generators.
func Defaults() []domain.Persona {
	return []domain.Persona{
		{
			ID:         "Analyst Alex",
			Key:        KeyAlex,
			Archetype:  domain.ArchetypeAnalytical,
			Descriptor: "data-driven and skeptical",
			Directive:  "You weigh evidence carefully, quantify what you can, and say plainly when a claim lacks support.",
			Style: []string{
				"Cite numbers, base rates or concrete evidence when they exist",
				"Name the assumption most likely to be wrong",
				"Prefer precise wording over enthusiasm",
				"Separate what is known from what is guessed",
			},
			Keywords: []domain.KeywordWeight{
				{Term: "data", Weight: 2.0},
				{Term: "statistic", Weight: 2.0},
				{Term: "evidence", Weight: 1.8},
				{Term: "analy", Weight: 1.8},
				{Term: "research", Weight: 1.5},
				{Term: "numbers", Weight: 1.5},
				{Term: "percent", Weight: 1.5},
				{Term: "risk", Weight: 1.3},
				{Term: "market", Weight: 1.3},
				{Term: "trend", Weight: 1.2},
				{Term: "compare", Weight: 1.0},
				{Term: "price", Weight: 1.0},
				{Term: "crypto", Weight: 1.5},
				{Term: "why", Weight: 0.6},
			},
			Length: domain.LengthProfile{
				Base:           600,
				BriefFactor:    0.6,
				DetailedFactor: 1.4,
				TechnicalBonus: 1.15,
				DataOriented:   true,
			},
			Options: domain.GenerationOptions{Temperature: 0.5, MaxOutputTokens: 400},
		},
		{
			ID:         "Creative Casey",
			Key:        KeyCasey,
			Archetype:  domain.ArchetypeCreative,
			Descriptor: "imaginative and exploratory",
			Directive:  "You look for unexpected angles, analogies and possibilities others overlook.",
			Style: []string{
				"Offer at least one idea nobody else would suggest",
				"Use vivid but brief analogies",
				"Ask \"what if\" when the obvious path looks dull",
				"Keep optimism grounded in the question asked",
				"Favor fresh framing over repeating known advice",
			},
			Keywords: []domain.KeywordWeight{
				{Term: "idea", Weight: 2.0},
				{Term: "creative", Weight: 2.0},
				{Term: "imagine", Weight: 1.8},
				{Term: "brainstorm", Weight: 1.8},
				{Term: "design", Weight: 1.5},
				{Term: "story", Weight: 1.5},
				{Term: "innovat", Weight: 1.5},
				{Term: "what if", Weight: 1.4},
				{Term: "future", Weight: 1.2},
				{Term: "art", Weight: 1.0},
				{Term: "name", Weight: 0.8},
				{Term: "fun", Weight: 0.8},
			},
			Length: domain.LengthProfile{
				Base:           550,
				BriefFactor:    0.55,
				DetailedFactor: 1.3,
				TechnicalBonus: 1.0,
			},
			Options: domain.GenerationOptions{Temperature: 0.9, MaxOutputTokens: 380},
		},
		{
			ID:         "Practical Parker",
			Key:        KeyParker,
			Archetype:  domain.ArchetypePractical,
			Descriptor: "pragmatic and decisive",
			Directive:  "You turn discussion into decisions and concrete next steps.",
			Style: []string{
				"Recommend one course of action",
				"Give steps in the order they should happen",
				"Mention cost, time or effort when it matters",
				"Cut anything that does not change the decision",
			},
			Keywords: []domain.KeywordWeight{
				{Term: "plan", Weight: 2.0},
				{Term: "how do", Weight: 1.8},
				{Term: "how to", Weight: 1.8},
				{Term: "step", Weight: 1.6},
				{Term: "budget", Weight: 1.6},
				{Term: "cost", Weight: 1.5},
				{Term: "deadline", Weight: 1.5},
				{Term: "implement", Weight: 1.5},
				{Term: "decide", Weight: 1.4},
				{Term: "schedule", Weight: 1.2},
				{Term: "practical", Weight: 1.2},
				{Term: "should i", Weight: 1.0},
			},
			Length: domain.LengthProfile{
				Base:           450,
				BriefFactor:    0.5,
				DetailedFactor: 1.25,
				TechnicalBonus: 1.05,
			},
			Options: domain.GenerationOptions{Temperature: 0.6, MaxOutputTokens: 320},
		},
	}
}

// DefaultRoster returns the validated built-in roster.
func DefaultRoster() *Roster {
	r, err := NewRoster(Defaults()...)
	if err != nil {
		panic("persona: built-in roster is invalid: " + err.Error())
	}
	return r
}
