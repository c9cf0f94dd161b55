package advisor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/consultai/internal/model"
)

const relaySystemPrompt = "You are a senior management consultant. Answer every question in " +
	"exactly three clear bullet points using a professional and factual tone. Highlight " +
	"assumptions only when material to the recommendation."

// Ask relays a free-text question to the language model, falling back to
// the deterministic keyword-routed answer on any failure.
func (g *Generator) Ask(ctx context.Context, question string, contextData map[string]any) model.AdvisorExchange {
	exchange := model.AdvisorExchange{Question: question, Context: contextData}

	prompt := buildRelayPrompt(question, contextData)
	text, err := g.complete(ctx, relaySystemPrompt, prompt)
	if err != nil {
		zap.L().Warn("advisor: relay falling back", zap.Error(err))
		exchange.Answer = FallbackAnswer(question, contextData)
		exchange.Source = model.SourceFallback
		exchange.Warning = warningFor(err)
		return exchange
	}

	exchange.Answer = text
	exchange.Source = model.SourceModel
	return exchange
}

func buildRelayPrompt(question string, contextData map[string]any) string {
	cleaned := strings.TrimSpace(question)
	if cleaned == "" {
		cleaned = "What should our next strategic move be?"
	}
	return fmt.Sprintf("Question: %s\nContext: %s", cleaned, formatContext(contextData))
}

// formatContext flattens the optional context object into
// "Label: detail; ..." with keys sorted for reproducible output.
func formatContext(contextData map[string]any) string {
	if len(contextData) == 0 {
		return "key assumptions are not yet documented."
	}

	keys := make([]string, 0, len(contextData))
	for k := range contextData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fragments := make([]string, 0, len(keys))
	for _, key := range keys {
		label := strings.TrimSpace(strings.ReplaceAll(key, "_", " "))
		if label != "" {
			label = strings.ToUpper(label[:1]) + label[1:]
		}
		fragments = append(fragments, fmt.Sprintf("%s: %s", label, formatContextValue(contextData[key])))
	}
	return strings.Join(fragments, "; ")
}

func formatContextValue(value any) string {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, v[k]))
		}
		return strings.Join(parts, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Topic templates for the keyword-routed fallback.
var fallbackTopics = []struct {
	keywords []string
	bullets  func(question, contextText string) []string
}{
	{
		keywords: []string{"expand", "expansion", "market", "region", "country", "enter"},
		bullets: func(question, contextText string) []string {
			return []string{
				fmt.Sprintf("Frame %q as a market-entry decision: shortlist 2-3 candidate markets and agree the weighting of growth, digital readiness, scale, and risk before comparing them.", question),
				fmt.Sprintf("Pressure-test the shortlist against the available evidence (%s), focusing on regulatory friction, cost to serve, and realistic share capture in year one.", contextText),
				"Sequence entry as a pilot in the leading market with explicit go/no-go metrics, then scale or redirect capital within two quarters.",
			}
		},
	},
	{
		keywords: []string{"margin", "profit", "cost", "price", "pricing", "discount"},
		bullets: func(question, contextText string) []string {
			return []string{
				fmt.Sprintf("Decompose %q into price, volume, mix, and cost drivers so the margin conversation starts from arithmetic rather than anecdote.", question),
				fmt.Sprintf("Use the evidence at hand (%s) to rank the lowest-margin segments and quantify how much of the gap is discounting versus cost to serve.", contextText),
				"Commit to the two highest-impact corrective actions, assign owners, and review realized margin lift in the next monthly close.",
			}
		},
	},
}

// FallbackAnswer deterministically composes a three-bullet heuristic
// answer. Keyword matches against the question pick a topical template;
// anything else gets the generic clarify/evidence/plan structure. Pure:
// same inputs, same text.
func FallbackAnswer(question string, contextData map[string]any) string {
	contextText := formatContext(contextData)
	cleaned := strings.TrimSpace(question)
	if cleaned == "" {
		cleaned = "the strategic question"
	}

	lowered := strings.ToLower(cleaned)
	bullets := genericBullets(cleaned, contextText)
	for _, topic := range fallbackTopics {
		if containsAnyKeyword(lowered, topic.keywords) {
			bullets = topic.bullets(cleaned, contextText)
			break
		}
	}

	lines := make([]string, len(bullets))
	for i, b := range bullets {
		lines[i] = "- " + b
	}
	return strings.Join(lines, "\n")
}

func genericBullets(question, contextText string) []string {
	return []string{
		fmt.Sprintf("Clarify the intent behind %q, align on time horizon, and define measurable success metrics before debating options.", question),
		fmt.Sprintf("Review available evidence (%s) to size the opportunity, test sensitivities, and surface the 2-3 critical assumptions that could change the answer.", contextText),
		"Translate the findings into a sequenced action plan covering deeper analysis, stakeholder alignment, and next executive touchpoints over the next 2-4 weeks.",
	}
}

func containsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
