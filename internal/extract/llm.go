package extract

import (
	"context"
	"strings"
	"time"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/llm"
)

// Chatter is the slice of the LLM router this package needs.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error)
}

const extractTimeout = 10 * time.Second

const extractPrompt = `You identify which company a user question is about.
Reply with only the company name, nothing else. If no company is mentioned,
reply with exactly NONE.`

// LLM resolves ambiguous input with a model call after the rule-based pass
// comes up empty. A model failure degrades to the rule-based result, so this
// extractor never blocks a turn on provider availability.
type LLM struct {
	chatter  Chatter
	fallback Extractor
}

// NewLLM wraps fallback with a model-backed second pass.
func NewLLM(chatter Chatter, fallback Extractor) *LLM {
	return &LLM{chatter: chatter, fallback: fallback}
}

// Company tries the rule-based extractor first; the model only sees input the
// rules could not place.
func (l *LLM) Company(ctx context.Context, input string) string {
	if c := l.fallback.Company(ctx, input); c != "" {
		return c
	}
	if l.chatter == nil || strings.TrimSpace(input) == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	resp, err := l.chatter.Chat(ctx, []llm.Message{
		llm.SystemMessage(extractPrompt),
		llm.UserMessage(input),
	}, &llm.ChatOptions{Temperature: 0, MaxTokens: 16})
	if err != nil {
		return ""
	}
	return cleanModelAnswer(resp.Content)
}

// cleanModelAnswer guards against models that ignore the reply format.
func cleanModelAnswer(s string) string {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'.`))
	if s == "" || strings.EqualFold(s, "none") {
		return ""
	}
	if len(s) > 64 || strings.Count(s, " ") > 5 || strings.ContainsAny(s, "\n:") {
		return ""
	}
	return s
}
