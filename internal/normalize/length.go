package normalize

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ashureev/roundtable/internal/domain"
)

// Length adjustment factors shared by every persona.
const (
	DirectAddressFactor = 1.2
	EarlyTurnFactor     = 1.1
	DataTechnicalBoost  = 1.2
	JitterSpread        = 0.15

	defaultBriefFactor    = 0.55
	defaultDetailedFactor = 1.3
)

var (
	briefCueRe    = regexp.MustCompile(`(?i)\b(?:brief|briefly|quick|quickly|short|concise|simple|tl;?dr|in a nutshell|one sentence|just one)\b`)
	detailedCueRe = regexp.MustCompile(`(?i)\b(?:detail|detailed|details|explain|elaborate|in[- ]depth|thorough|thoroughly|comprehensive|deep dive|complex|complicated|nuanced|analy[sz]e|step by step)\b`)
	digitsRe      = regexp.MustCompile(`[0-9%]`)
	analyticRe    = regexp.MustCompile(`(?i)\b(?:data|statistic\w*|percent\w*|analysis|analy[sz]\w*|metric\w*|trend\w*|correlat\w*|probabilit\w*|evidence|median|average|variance|sample)\b`)
)

// IsTechnical reports whether text reads as quantitative or analytic.
func IsTechnical(text string) bool {
	return digitsRe.MatchString(text) || analyticRe.MatchString(text)
}

// Budget computes the character budget for text from persona p this turn.
func (n *Normalizer) Budget(text string, p domain.Persona, sig Signals) int {
	return budgetFor(text, p, sig, n.jitter())
}

// jitter draws the multiplicative noise applied to a budget.
func (n *Normalizer) jitter() float64 {
	return 1 + (n.rng.Float64()*2-1)*JitterSpread
}

func budgetFor(text string, p domain.Persona, sig Signals, jitter float64) int {
	lp := p.Length
	budget := float64(lp.Base)
	technical := IsTechnical(text)

	if briefCueRe.MatchString(sig.UserMessage) {
		budget *= factorOr(lp.BriefFactor, defaultBriefFactor)
	}
	if detailedCueRe.MatchString(sig.UserMessage) {
		budget *= factorOr(lp.DetailedFactor, defaultDetailedFactor)
		if technical && lp.DataOriented {
			budget *= DataTechnicalBoost
		}
	}
	if sig.DirectlyAddressed {
		budget *= DirectAddressFactor
	}
	if sig.Turn <= 2 {
		budget *= EarlyTurnFactor
	}
	if technical && lp.TechnicalBonus > 0 {
		budget *= lp.TechnicalBonus
	}
	budget *= jitter
	return int(math.Round(budget))
}

func factorOr(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}

// governLength truncates text until it fits the budget computed for the
// truncated text itself. A cut can drop the content that made text technical,
// which lowers the budget, so one pass is not always a fixpoint.
func governLength(text string, p domain.Persona, sig Signals, jitter float64) string {
	for {
		budget := budgetFor(text, p, sig, jitter)
		if budget <= 0 || utf8.RuneCountInString(text) <= budget {
			return text
		}
		next := Truncate(text, budget)
		if next == text {
			return text
		}
		text = next
	}
}

// Truncate bounds text to budget characters, preferring whole sentences.
// Texts at or under budget are returned unchanged.
func Truncate(text string, budget int) string {
	runes := []rune(text)
	if budget <= 0 || len(runes) <= budget {
		return text
	}

	if cut := lastSentenceEnd(runes, budget); cut >= budget/2 {
		return strings.TrimSpace(string(runes[:cut]))
	}
	return rebuildParagraphs(text, budget)
}

// lastSentenceEnd returns the length of the longest prefix of r, no longer
// than limit, that ends on a sentence terminator. Zero means none.
func lastSentenceEnd(r []rune, limit int) int {
	if limit > len(r) {
		limit = len(r)
	}
	for i := limit - 1; i >= 0; i-- {
		if !isTerminator(r[i]) {
			continue
		}
		if i+1 == len(r) || unicode.IsSpace(r[i+1]) {
			return i + 1
		}
	}
	return 0
}

func rebuildParagraphs(text string, budget int) string {
	var kept []string
	used := 0
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sep := 0
		if len(kept) > 0 {
			sep = 2
		}
		pr := []rune(para)
		if used+sep+len(pr) <= budget {
			kept = append(kept, para)
			used += sep + len(pr)
			continue
		}
		if room := budget - used - sep; room > 0 {
			if cut := lastSentenceEnd(pr, room); cut > 0 {
				kept = append(kept, strings.TrimSpace(string(pr[:cut])))
			}
		}
		break
	}
	if len(kept) == 0 {
		return hardCut(text, budget)
	}
	return strings.Join(kept, "\n\n")
}

// hardCut is the last resort when not even one sentence fits.
func hardCut(text string, budget int) string {
	r := []rune(strings.TrimSpace(text))
	if budget < 2 {
		return ""
	}
	cut := budget - 1
	if cut > len(r) {
		cut = len(r)
	}
	for i := cut; i > cut/2; i-- {
		if unicode.IsSpace(r[i]) {
			cut = i
			break
		}
	}
	out := strings.TrimRightFunc(string(r[:cut]), func(c rune) bool {
		return unicode.IsSpace(c) || unicode.IsPunct(c)
	})
	return out + "."
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
