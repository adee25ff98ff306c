package persona

import (
	"regexp"
	"strings"

	"github.com/ashureev/roundtable/internal/randx"
)

// Transition is the likelihood that To naturally speaks after a given persona.
type Transition struct {
	To          string  `yaml:"to"`
	Probability float64 `yaml:"probability"`
}

// Transitions maps a persona key to its likely followers.
type Transitions map[string][]Transition

// Follower draws a follower of key from the table. It returns "" when the
// table has no entry or the draw falls outside the listed probabilities.
func (t Transitions) Follower(key string, rng randx.Source) string {
	options := t[strings.ToLower(key)]
	if len(options) == 0 {
		return ""
	}
	roll := rng.Float64()
	var acc float64
	for _, opt := range options {
		acc += opt.Probability
		if roll < acc {
			return opt.To
		}
	}
	return ""
}

// DirectiveKey pairs the persona being prompted with the preceding speaker.
type DirectiveKey struct {
	Speaker   string
	Preceding string
}

// Directives holds the one-line relationship instruction per speaker pair.
type Directives map[DirectiveKey]string

// For returns the directive for speaker following preceding, if any.
func (d Directives) For(speaker, preceding string) (string, bool) {
	s, ok := d[DirectiveKey{Speaker: strings.ToLower(speaker), Preceding: strings.ToLower(preceding)}]
	return s, ok
}

// DomainRule routes specialized-domain questions to an expert persona first.
type DomainRule struct {
	Expert   string
	Patterns []*regexp.Regexp
	Keywords []string
}

// Matches reports whether message looks like a question for the expert.
func (r DomainRule) Matches(message string) bool {
	if r.Expert == "" {
		return false
	}
	for _, p := range r.Patterns {
		if p.MatchString(message) {
			return true
		}
	}
	lower := strings.ToLower(message)
	for _, kw := range r.Keywords {
		if ContainsWord(lower, kw) {
			return true
		}
	}
	return false
}

// Tables groups the heuristic tables consumed by selection and prompting.
type Tables struct {
	Transitions Transitions
	Directives  Directives
	Domain      DomainRule
}

var (
	evmAddressPattern     = regexp.MustCompile(`\b0x[0-9a-fA-F]{40}\b`)
	bitcoinAddressPattern = regexp.MustCompile(`\b(?:bc1[02-9ac-hj-np-z]{25,59}|[13][1-9A-HJ-NP-Za-km-z]{25,34})\b`)
)

// DefaultTables returns the tables for the built-in roster.
func DefaultTables() Tables {
	return Tables{
		Transitions: Transitions{
			KeyAlex: {
				{To: KeyCasey, Probability: 0.55},
				{To: KeyParker, Probability: 0.45},
			},
			KeyCasey: {
				{To: KeyAlex, Probability: 0.6},
				{To: KeyParker, Probability: 0.3},
			},
			KeyParker: {
				{To: KeyCasey, Probability: 0.5},
				{To: KeyAlex, Probability: 0.35},
			},
		},
		Directives: Directives{
			{Speaker: KeyAlex, Preceding: KeyCasey}:   "Challenge Casey's preceding point: test it against evidence and say where it holds or breaks.",
			{Speaker: KeyAlex, Preceding: KeyParker}:  "Check Parker's plan against the numbers before anyone commits to it.",
			{Speaker: KeyCasey, Preceding: KeyAlex}:   "Build on Alex's analysis with a possibility the data alone would not suggest.",
			{Speaker: KeyCasey, Preceding: KeyParker}: "Push Parker's plan one step bolder without losing its practicality.",
			{Speaker: KeyParker, Preceding: KeyAlex}:  "Turn Alex's analysis into a concrete next step.",
			{Speaker: KeyParker, Preceding: KeyCasey}: "Ground Casey's preceding idea practically: what would it take to actually do it?",
		},
		Domain: DomainRule{
			Expert:   KeyAlex,
			Patterns: []*regexp.Regexp{evmAddressPattern, bitcoinAddressPattern},
			Keywords: []string{
				"crypto", "cryptocurrency", "blockchain", "bitcoin", "btc", "ethereum", "eth",
				"wallet", "token", "defi", "nft", "smart contract", "gas fee", "staking",
				"on-chain", "onchain", "ledger", "altcoin", "stablecoin",
			},
		},
	}
}

// ContainsWord reports whether word appears in s delimited by non-letters.
func ContainsWord(s, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		from = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
