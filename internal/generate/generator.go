// Package generate turns scored news bundles into conversational responses.
package generate

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/llm"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
)

// Chatter is the slice of the LLM layer the generator needs. The llm.Router
// satisfies it.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error)
}

// Generator renders a result bundle into response text in the session's
// style. When the model call fails after the router's retries, it falls back
// to a deterministic template so the user still gets the headlines.
type Generator struct {
	chatter Chatter
	cfg     config.LLMConfig
	logger  *log.Logger
}

// NewGenerator creates a generator backed by the given chat router.
func NewGenerator(chatter Chatter, cfg config.LLMConfig) *Generator {
	return &Generator{
		chatter: chatter,
		cfg:     cfg,
		logger:  log.New(os.Stderr, "[generate] ", log.LstdFlags),
	}
}

// Style instructions keyed by preference value.
var stylePrompts = map[string]string{
	"professional": "Respond in a polished, professional tone suitable for a business briefing.",
	"formal":       "Respond formally and precisely, avoiding colloquialisms.",
	"casual":       "Respond in a relaxed, conversational tone, like chatting with a colleague.",
	"bullets":      "Respond as a concise bulleted list, one headline per bullet with a one-line takeaway.",
	"executive":    "Respond as a tight executive summary: lead with the single most important development, three sentences maximum before any detail.",
	"technical":    "Respond with analytical depth: include figures, categories, and impact scores where relevant.",
}

const systemPrompt = "You are a company-news analyst. Summarize the provided headlines " +
	"for the user, accurately and without inventing facts. Only use the articles given. " +
	"Mention the most impactful items first."

// Respond produces the response text for a bundle. Model failure degrades to
// the template rendering rather than erroring, so generation never sinks an
// otherwise successful pipeline run.
func (g *Generator) Respond(ctx context.Context, company string, bundle *models.ResultBundle, sess *models.Session) string {
	if bundle.Empty() {
		return g.noNews(company, bundle)
	}

	messages := g.buildMessages(company, bundle, sess)
	resp, err := g.chatter.Chat(ctx, messages, &llm.ChatOptions{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		g.logger.Printf("model generation failed, using template: %v", err)
		return g.template(company, bundle, sess.Preferences.Style)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return g.template(company, bundle, sess.Preferences.Style)
	}
	return text + g.footer(bundle)
}

// Clarification asks the user which company they mean.
func Clarification() string {
	return "Which company would you like news about? You can name it directly, " +
		"or use a ticker like AAPL or TSLA."
}

// buildMessages assembles the chat prompt: system role, style instruction,
// recent conversation for follow-up context, then the bundle itself.
func (g *Generator) buildMessages(company string, bundle *models.ResultBundle, sess *models.Session) []llm.Message {
	style := stylePrompts[sess.Preferences.Style]
	if style == "" {
		style = stylePrompts["professional"]
	}

	messages := []llm.Message{llm.SystemMessage(systemPrompt + " " + style)}

	// Last two exchanges give the model enough context for follow-ups
	// without flooding the prompt.
	history := sess.History
	if len(history) > 4 {
		history = history[len(history)-4:]
	}
	for _, turn := range history {
		role := llm.RoleUser
		if turn.Role == models.TurnAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "News items for %s (window: %s):\n\n", company, bundle.WindowApplied)
	for i, item := range bundle.Items {
		fmt.Fprintf(&b, "%d. [%s] %s (impact %.1f)\n", i+1, item.Category, item.Title, item.ImpactScore)
		if item.ContentSummary != "" {
			fmt.Fprintf(&b, "   %s\n", item.ContentSummary)
		}
		fmt.Fprintf(&b, "   %s\n", item.URL)
	}
	if bundle.Degraded {
		b.WriteString("\nNote for the summary: coverage was partial, mention that results may be incomplete.\n")
	}
	messages = append(messages, llm.UserMessage(b.String()))

	return messages
}

// template renders the bundle without a model, honoring the bullets style
// and otherwise producing short prose.
func (g *Generator) template(company string, bundle *models.ResultBundle, style string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are the latest headlines for %s:\n\n", company)
	for i, item := range bundle.Items {
		if style == "bullets" {
			fmt.Fprintf(&b, "- %s [%s, impact %.1f]\n", item.Title, item.Category, item.ImpactScore)
		} else {
			fmt.Fprintf(&b, "%d. %s (%s, impact %.1f)\n", i+1, item.Title, item.Category, item.ImpactScore)
		}
	}
	if bundle.Degraded {
		b.WriteString("\nSome sources were unavailable, so this may not be the full picture.")
	}
	return b.String() + g.footer(bundle)
}

// noNews explains an empty bundle, distinguishing source trouble from a
// genuinely quiet window.
func (g *Generator) noNews(company string, bundle *models.ResultBundle) string {
	if bundle.Degraded && len(bundle.FailedSources) > 0 {
		return fmt.Sprintf("I couldn't retrieve news for %s right now: %s unavailable. Please try again shortly.",
			company, pluralSources(bundle.FailedSources))
	}
	if bundle.FilteredBelow > 0 {
		return fmt.Sprintf("No high-impact news for %s in the last %s. %d lower-impact items were filtered out; lower the impact threshold to see them.",
			company, bundle.WindowApplied, bundle.FilteredBelow)
	}
	return fmt.Sprintf("No news found for %s in the last %s.", company, bundle.WindowApplied)
}

// footer lists the article links once, after the summary body.
func (g *Generator) footer(bundle *models.ResultBundle) string {
	if len(bundle.Items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nSources:\n")
	for _, item := range bundle.Items {
		fmt.Fprintf(&b, "- %s\n", item.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func pluralSources(ids []string) string {
	if len(ids) == 1 {
		return "source " + ids[0] + " was"
	}
	return fmt.Sprintf("%d sources were", len(ids))
}
