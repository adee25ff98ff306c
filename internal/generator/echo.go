package generator

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ashureev/roundtable/internal/domain"
)

var userMessageRe = regexp.MustCompile(`(?:Respond to the user's message|The user said): ("(?:[^"\\]|\\.)*")`)

// Echo is a model-free backend for local runs. It restates the user's message.
type Echo struct{}

var _ domain.Generator = Echo{}

// Generate fails only when ctx is done.
func (Echo) Generate(ctx context.Context, prompt string, _ domain.GenerationOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "I heard you say " + strconv.Quote(UserMessage(prompt)) + ".", nil
}

// UserMessage extracts the quoted user message from a rendered prompt.
func UserMessage(prompt string) string {
	m := userMessageRe.FindStringSubmatch(prompt)
	if m == nil {
		return ""
	}
	s, err := strconv.Unquote(m[1])
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// Name identifies the backend in health output.
func (Echo) Name() string {
	return "echo"
}
