package main

import (
	"go.uber.org/zap"

	"github.com/sells-group/consultai/internal/advisor"
	"github.com/sells-group/consultai/internal/insights"
	"github.com/sells-group/consultai/internal/market"
	"github.com/sells-group/consultai/pkg/anthropic"
)

// buildScorer loads the country table and rule table and assembles the
// market scorer.
func buildScorer() (*market.Scorer, error) {
	table, err := market.LoadDataset(cfg.Market.DataPath)
	if err != nil {
		return nil, err
	}

	rules, err := market.LoadRuleTable()
	if err != nil {
		return nil, err
	}

	return market.NewScorer(table, market.NewWeightDeriver(rules), cfg.Market.TopN)
}

// buildGenerator assembles the LLM generator. Without a configured key
// the client stays nil and every call takes its deterministic fallback.
func buildGenerator() *advisor.Generator {
	var client anthropic.Client
	if cfg.Anthropic.Key != "" {
		client = anthropic.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Info("no Anthropic key configured, LLM paths will use fallbacks")
	}
	return advisor.New(client, cfg.Anthropic)
}

func buildAnalyzer() *insights.Analyzer {
	return insights.NewAnalyzer(cfg.Insights)
}
