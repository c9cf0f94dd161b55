package advisor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/consultai/internal/insights"
	"github.com/sells-group/consultai/internal/model"
)

const explainSystemPrompt = "You are an explainable AI assistant for strategy consultants. " +
	"Be plain-language, concise, and educational."

// metricLabels are the human-readable names used in prompts and
// fallback narratives.
var metricLabels = map[model.Metric]string{
	model.MetricGDPGrowth:       "growth",
	model.MetricInternet:        "digital reach",
	model.MetricPopulation:      "market scale",
	model.MetricPurchasingPower: "consumer spending power",
	model.MetricInflation:       "price stability",
	model.MetricCorruption:      "governance risk",
	model.MetricCostIndex:       "operating cost",
}

// ExplainScores produces the explainable summary for a market ranking:
// model text when the collaborator answers in time, otherwise the
// deterministic template.
func (g *Generator) ExplainScores(ctx context.Context, profile model.BusinessProfile, ranking *model.MarketRanking, leaders []string) (string, model.AnswerSource, string) {
	breakdown := ranking.Ranked
	if len(breakdown) > 3 {
		breakdown = breakdown[:3]
	}

	prompt := buildExplainPrompt(profile, ranking.Weights, leaders, breakdown)
	text, err := g.complete(ctx, explainSystemPrompt, prompt)
	if err != nil {
		zap.L().Warn("advisor: explanation falling back", zap.Error(err))
		return FallbackExplanation(ranking.Weights, leaders, breakdown), model.SourceFallback, warningFor(err)
	}
	return text, model.SourceModel, ""
}

// FallbackExplanation deterministically composes the scoring rationale
// from the weights and top contributions. Pure: no I/O, no clock, no
// randomness.
func FallbackExplanation(weights model.WeightVector, leaders []string, breakdown []model.ScoredCountry) string {
	leaderText := "the highlighted countries"
	if len(leaders) > 0 {
		leaderText = strings.Join(leaders, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b,
		"We ranked %s by blending %s. Price stability, governance risk, and operating cost are inverted, so lower raw values improve scores.",
		leaderText, weightMix(weights),
	)
	if lines := breakdownLines(breakdown); lines != "" {
		b.WriteString("\nKey highlights:\n")
		b.WriteString(lines)
	}
	if rec := recommendation("", breakdown); rec != "" {
		b.WriteString("\nRecommendation: ")
		b.WriteString(rec)
	}
	return b.String()
}

func buildExplainPrompt(profile model.BusinessProfile, weights model.WeightVector, leaders []string, breakdown []model.ScoredCountry) string {
	leadersText := "the shortlisted markets"
	if len(leaders) > 0 {
		if len(leaders) > 3 {
			leaders = leaders[:3]
		}
		leadersText = strings.Join(leaders, ", ")
	}

	var b strings.Builder
	b.WriteString("Describe in 4 short sentences why certain markets scored highest. ")
	b.WriteString("Cite what each metric means, mention how the weights interact, ")
	b.WriteString("and reference the strongest metric for each highlighted country.\n")
	fmt.Fprintf(&b, "Top markets: %s.\nEmphasis mix: %s.\n", leadersText, weightMix(weights))
	if lines := breakdownLines(breakdown); lines != "" {
		b.WriteString(lines)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b,
		"Business profile: Industry: %s, Business model: %s, Presence: %s, Customer type: %s, Risk appetite: %s, Capital: %.0f.",
		profile.Industry, profile.BusinessModel, profile.PresenceMode, profile.CustomerType, profile.RiskProfile, profile.Capital,
	)
	return b.String()
}

// weightMix renders the top five positive weights as
// "label (~NN%), ...", descending, ties broken by canonical metric
// order for determinism.
func weightMix(weights model.WeightVector) string {
	ordered := make([]model.Metric, 0, len(model.ScoringMetrics))
	for _, m := range model.ScoringMetrics {
		if weights[m] > 0 {
			ordered = append(ordered, m)
		}
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return weights[ordered[a]] > weights[ordered[b]]
	})
	if len(ordered) > 5 {
		ordered = ordered[:5]
	}

	phrases := make([]string, 0, len(ordered))
	for _, m := range ordered {
		phrases = append(phrases, fmt.Sprintf("%s (~%.0f%%)", metricLabels[m], weights[m]*100))
	}
	return strings.Join(phrases, ", ")
}

// breakdownLines renders one bullet per country with its three largest
// contributions and display-formatted raw values.
func breakdownLines(breakdown []model.ScoredCountry) string {
	lines := make([]string, 0, len(breakdown))
	for _, entry := range breakdown {
		top := topMetrics(entry, 3)
		fragments := make([]string, 0, len(top))
		for _, m := range top {
			fragments = append(fragments, fmt.Sprintf("%s: %s", metricLabels[m], formatRaw(m, entry.Metrics[m].Raw)))
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", entry.Country, strings.Join(fragments, "; ")))
	}
	return strings.Join(lines, "\n")
}

// recommendation names the leader's two strongest metrics with a
// high/low qualifier matching their polarity.
func recommendation(customerType string, breakdown []model.ScoredCountry) string {
	if len(breakdown) == 0 {
		return ""
	}
	leader := breakdown[0]

	phrases := make([]string, 0, 2)
	for _, m := range topMetrics(leader, 2) {
		qualifier := "high"
		if model.NegativeMetrics[m] {
			qualifier = "low"
		}
		phrases = append(phrases, qualifier+" "+metricLabels[m])
	}

	who := "your"
	if customerType != "" {
		who = customerType
	}
	return fmt.Sprintf("For a %s profile, %s stands out thanks to %s.", who, leader.Country, strings.Join(phrases, ", "))
}

// topMetrics returns the n metrics with the largest contributions,
// canonical order breaking ties.
func topMetrics(entry model.ScoredCountry, n int) []model.Metric {
	ordered := append([]model.Metric(nil), model.ScoringMetrics...)
	sort.SliceStable(ordered, func(a, b int) bool {
		return entry.Metrics[ordered[a]].Contribution > entry.Metrics[ordered[b]].Contribution
	})
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}

// formatRaw renders a raw metric value for display.
func formatRaw(m model.Metric, raw float64) string {
	switch m {
	case model.MetricPopulation:
		return fmt.Sprintf("%.0fM people", raw)
	case model.MetricInternet:
		return fmt.Sprintf("%.0f%% online", raw)
	case model.MetricGDPGrowth:
		return fmt.Sprintf("%.1f%% growth", raw)
	case model.MetricInflation:
		return fmt.Sprintf("%.1f%% inflation", raw)
	case model.MetricCorruption:
		return fmt.Sprintf("score %.0f", raw)
	case model.MetricPurchasingPower, model.MetricCostIndex:
		return fmt.Sprintf("index %.1f", raw)
	default:
		return fmt.Sprintf("%.2f", raw)
	}
}

const summarizeSystemPrompt = "You are a business analyst. Rewrite the findings as 3 crisp " +
	"sentences for an executive audience. Keep every number accurate."

// SummarizeInsights produces the narrative for a KPI analysis: a model
// rewrite of the deterministic findings, or the findings themselves on
// any failure.
func (g *Generator) SummarizeInsights(ctx context.Context, result *model.InsightsResult) (string, model.AnswerSource, string) {
	base := insights.Summary(result)

	text, err := g.complete(ctx, summarizeSystemPrompt, "Findings: "+base)
	if err != nil {
		zap.L().Warn("advisor: insights summary falling back", zap.Error(err))
		return base, model.SourceFallback, warningFor(err)
	}
	return text, model.SourceModel, ""
}
