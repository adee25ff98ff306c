package orchestrator

import (
	"strings"
	"unicode"
)

// TopicSimilarityThreshold is the Jaccard overlap below which consecutive user
// messages count as a topic change.
const TopicSimilarityThreshold = 0.2

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "your": {},
	"all": {}, "any": {}, "can": {}, "has": {}, "have": {}, "had": {}, "was": {}, "were": {},
	"what": {}, "whats": {}, "what's": {}, "when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "how": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "with": {}, "from": {}, "about": {},
	"into": {}, "then": {}, "than": {}, "there": {}, "their": {}, "they": {}, "them": {},
	"our": {}, "out": {}, "its": {}, "it's": {}, "let": {}, "lets": {}, "let's": {}, "should": {},
	"would": {}, "could": {}, "will": {}, "just": {}, "some": {}, "more": {}, "most": {},
	"does": {}, "did": {}, "doing": {}, "think": {}, "tell": {}, "also": {}, "been": {},
	"being": {}, "very": {}, "really": {}, "like": {}, "get": {}, "got": {}, "one": {},
}

// Tokens returns the distinct content words of s.
func Tokens(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, "'")
		if len([]rune(w)) < 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// Similarity is the Jaccard index of the content words of a and b.
// Two messages without content words are treated as identical.
func Similarity(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	shared := 0
	for w := range ta {
		if _, ok := tb[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

// TopicChanged reports whether current moves away from previous.
// There is no change without a previous message.
func TopicChanged(previous, current string) bool {
	if strings.TrimSpace(previous) == "" {
		return false
	}
	return Similarity(previous, current) < TopicSimilarityThreshold
}
