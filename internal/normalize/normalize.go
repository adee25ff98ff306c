// Package normalize cleans raw generated text and bounds its length.
package normalize

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/randx"
)

// Signals carries the turn-scoped facts that influence normalization.
type Signals struct {
	Turn              int
	DirectlyAddressed bool
	UserMessage       string
}

// maxCleanPasses bounds the fixpoint loop over the cleanup pipeline.
const maxCleanPasses = 4

// DisclaimerPrefixes open an AI-disclaimer preamble that is stripped.
var DisclaimerPrefixes = []string{
	"as an ai assistant",
	"as an ai language model",
	"as an ai model",
	"as an artificial intelligence",
	"as a language model",
	"as an ai",
	"i am an ai",
	"i'm an ai",
	"i am just an ai",
	"i'm just an ai",
}

// ThirdPersonVerbs are rewritten to first person when preceded by the persona's own name.
var ThirdPersonVerbs = []string{
	"thinks", "believes", "says", "feels", "suggests", "argues", "notes",
	"recommends", "agrees", "disagrees", "wonders", "would say", "would argue",
}

// ActionVerbs describe physical or body-language stage business.
var ActionVerbs = []string{
	"leans", "leaning", "leaned", "sits", "sitting", "sat", "stands", "standing", "stood",
	"nods", "nodding", "nodded", "smiles", "smiling", "smiled", "grins", "grinning",
	"laughs", "laughing", "laughed", "chuckles", "chuckling", "smirks", "smirking", "smirked",
	"winks", "winking", "winked", "gestures", "gesturing", "gestured", "shrugs", "shrugging",
}

var actionModifiers = []string{
	"back", "forward", "in", "up", "down", "slightly", "thoughtfully", "warmly", "knowingly",
	"softly", "wryly", "politely", "approvingly", "again", "broadly",
}

var (
	sentenceEndRe   = regexp.MustCompile(`[.!?](?:\s|$)`)
	parentheticalRe = regexp.MustCompile(`[ \t]*\([^()]*\)`)
	genericLabelRe  = regexp.MustCompile(`(?i)^\s*(?:assistant|ai)\s*:\s*`)
	actionRe        = regexp.MustCompile(`(?m)(^|[.!?][ \t]+)\*?(?i:` + strings.Join(ActionVerbs, "|") +
		`)\b(?:[ \t]+(?i:` + strings.Join(actionModifiers, "|") + `)\b)*(?:[ \t]+(?i:in (?:his|her|their|my) chair))?\*?[ \t]*(?:[,.][ \t]*|$)`)
	starredRe      = regexp.MustCompile(`\*(?i:` + strings.Join(ActionVerbs, "|") + `)\b[^*\n]*\*[ \t]*`)
	chairRe        = regexp.MustCompile(`(?i)[ \t]*\bin (?:his|her|their) chair\b`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]{2,}`)
	trailingWSRe   = regexp.MustCompile(`[ \t]+\n`)
	spaceBeforeRe  = regexp.MustCompile(`[ \t]+([,.!?;:])`)
	blankLinesRe   = regexp.MustCompile(`\n{3,}`)
	missingSpaceRe = regexp.MustCompile(`([.!?])([A-Z])`)
	conjunctionRe  = regexp.MustCompile(`(?m)^([ \t]*)(?:And|But|So|Because|However|Therefore|Thus)\b,?[ \t]+(\pL)`)
)

// Normalizer cleans and length-governs persona output.
type Normalizer struct {
	roster []domain.Persona
	rng    randx.Source

	mu       sync.Mutex
	patterns map[string]*personaPatterns
}

type personaPatterns struct {
	thirdPerson  *regexp.Regexp
	roleLabel    *regexp.Regexp
	selfTidy     *regexp.Regexp
	attributions []*regexp.Regexp
}

// New creates a normalizer for roster. A nil rng uses the default entropy source.
func New(roster []domain.Persona, rng randx.Source) *Normalizer {
	if rng == nil {
		rng = randx.Default()
	}
	n := &Normalizer{roster: roster, rng: rng, patterns: make(map[string]*personaPatterns)}
	for _, p := range roster {
		n.patterns[p.ID] = compilePatterns(p, roster)
	}
	return n
}

// Normalize cleans raw and trims it to the persona's budget for this turn.
func (n *Normalizer) Normalize(raw string, p domain.Persona, sig Signals) string {
	return governLength(n.Clean(raw, p), p, sig, n.jitter())
}

// Clean runs the cleanup pipeline until the text stops changing.
func (n *Normalizer) Clean(raw string, p domain.Persona) string {
	pp := n.patternsFor(p)
	text := raw
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanOnce(text, pp)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func (n *Normalizer) patternsFor(p domain.Persona) *personaPatterns {
	n.mu.Lock()
	defer n.mu.Unlock()
	if pp, ok := n.patterns[p.ID]; ok {
		return pp
	}
	pp := compilePatterns(p, n.roster)
	n.patterns[p.ID] = pp
	return pp
}

func cleanOnce(text string, pp *personaPatterns) string {
	text = stripDisclaimer(text)
	text = removeParentheticals(text)
	for _, re := range pp.attributions {
		text = re.ReplaceAllString(text, "")
	}
	text = pp.thirdPerson.ReplaceAllStringFunc(text, func(m string) string {
		sub := pp.thirdPerson.FindStringSubmatch(m)
		return "I " + firstPersonVerb(sub[1])
	})
	text = stripRoleLabel(text, pp)
	text = starredRe.ReplaceAllString(text, "")
	text = actionRe.ReplaceAllString(text, "${1}")
	text = chairRe.ReplaceAllString(text, "")
	text = repairWhitespace(text)
	text = pp.selfTidy.ReplaceAllString(text, "I ")
	return text
}

func stripDisclaimer(text string) string {
	t := strings.TrimSpace(text)
	lower := strings.ToLower(t)
	for _, prefix := range DisclaimerPrefixes {
		if !strings.HasPrefix(lower, prefix) || !wordBoundaryAt(lower, len(prefix)) {
			continue
		}
		if i := strings.Index(t, "\n\n"); i >= 0 {
			return t[i+2:]
		}
		if loc := sentenceEndRe.FindStringIndex(t); loc != nil {
			return t[loc[1]:]
		}
		return text
	}
	return text
}

// wordBoundaryAt reports whether s has no word character at byte offset i.
func wordBoundaryAt(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

func removeParentheticals(text string) string {
	for {
		next := parentheticalRe.ReplaceAllString(text, "")
		if next == text {
			return text
		}
		text = next
	}
}

func stripRoleLabel(text string, pp *personaPatterns) string {
	trimmed := strings.TrimLeft(text, " \t\n")
	if loc := pp.roleLabel.FindStringIndex(trimmed); loc != nil {
		return trimmed[loc[1]:]
	}
	if loc := genericLabelRe.FindStringIndex(trimmed); loc != nil {
		return trimmed[loc[1]:]
	}
	return text
}

func repairWhitespace(text string) string {
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = trailingWSRe.ReplaceAllString(text, "\n")
	text = spaceBeforeRe.ReplaceAllString(text, "$1")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = missingSpaceRe.ReplaceAllString(text, "$1 $2")
	text = conjunctionRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := conjunctionRe.FindStringSubmatch(m)
		return sub[1] + strings.ToUpper(sub[2])
	})
	text = strings.TrimSpace(text)
	return capitalizeFirst(text)
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func firstPersonVerb(v string) string {
	v = strings.ToLower(strings.Join(strings.Fields(v), " "))
	if strings.HasPrefix(v, "would ") {
		return v
	}
	return strings.TrimSuffix(v, "s")
}

func compilePatterns(p domain.Persona, roster []domain.Persona) *personaPatterns {
	self := nameAlternation(p)
	verbs := make([]string, len(ThirdPersonVerbs))
	for i, v := range ThirdPersonVerbs {
		verbs[i] = strings.ReplaceAll(regexp.QuoteMeta(v), " ", `\s+`)
	}

	pp := &personaPatterns{
		thirdPerson: regexp.MustCompile(`(?i)\b(?:` + self + `)\s+(` + strings.Join(verbs, "|") + `)\b`),
		roleLabel:   regexp.MustCompile(`(?i)^(?:` + self + `)\s*:\s*`),
		selfTidy:    regexp.MustCompile(`(?i)\bI,\s*(?:` + self + `),\s*`),
	}
	for _, other := range roster {
		if other.ID == p.ID {
			continue
		}
		names := nameAlternation(other)
		pp.attributions = append(pp.attributions,
			regexp.MustCompile(`(?i)[ \t]*\b(?:`+names+`)(?:\s+asks|'s\s+question)\s*:[^\n]*`),
			regexp.MustCompile(`(?i)[ \t]*\(question from (?:`+names+`)\)`),
		)
	}
	return pp
}

// nameAlternation lists the persona's names longest first so the full name wins.
func nameAlternation(p domain.Persona) string {
	var parts []string
	for _, name := range []string{p.ID, p.Key} {
		if name == "" {
			continue
		}
		q := regexp.QuoteMeta(name)
		if len(parts) == 0 || !strings.EqualFold(parts[0], q) {
			parts = append(parts, q)
		}
	}
	return strings.Join(parts, "|")
}
