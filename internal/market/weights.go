package market

import (
	_ "embed"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/consultai/internal/model"
)

//go:embed data/weight_rules.yaml
var embeddedRules []byte

// BaseWeights is the starting weight distribution before any
// profile-driven adjustment.
var BaseWeights = model.WeightVector{
	model.MetricGDPGrowth:       0.22,
	model.MetricInflation:       0.12,
	model.MetricInternet:        0.18,
	model.MetricPopulation:      0.18,
	model.MetricPurchasingPower: 0.12,
	model.MetricCorruption:      0.09,
	model.MetricCostIndex:       0.09,
}

// Capital thresholds for the rough availability heuristic.
const (
	capitalLarge = 50_000_000
	capitalSmall = 5_000_000
)

// AdjustmentRule applies its deltas when the submitted answer for a
// profile field is one of Values.
type AdjustmentRule struct {
	Values []string                 `yaml:"values"`
	Deltas map[model.Metric]float64 `yaml:"deltas"`
}

// RuleTable maps each categorical profile field to its adjustment rules.
type RuleTable map[string][]AdjustmentRule

// LoadRuleTable parses the embedded weight-adjustment table and verifies
// that every delta references a known scoring metric.
func LoadRuleTable() (RuleTable, error) {
	var table RuleTable
	if err := yaml.Unmarshal(embeddedRules, &table); err != nil {
		return nil, eris.Wrap(err, "market: parse weight rules")
	}

	known := make(map[model.Metric]bool, len(model.ScoringMetrics))
	for _, m := range model.ScoringMetrics {
		known[m] = true
	}
	for field, rules := range table {
		for _, rule := range rules {
			for metric := range rule.Deltas {
				if !known[metric] {
					return nil, eris.Errorf("market: rule table field %q references unknown metric %q", field, metric)
				}
			}
		}
	}

	return table, nil
}

// WeightDeriver maps a business profile to a normalized weight vector.
type WeightDeriver struct {
	rules RuleTable
}

// NewWeightDeriver builds a deriver from the given rule table.
func NewWeightDeriver(rules RuleTable) *WeightDeriver {
	return &WeightDeriver{rules: rules}
}

// Derive returns the weight vector for a profile. Weights are
// non-negative and sum to 1.0; an all-unrecognized profile degenerating
// to a zero sum falls back to the base distribution.
func (d *WeightDeriver) Derive(profile model.BusinessProfile) model.WeightVector {
	weights := make(model.WeightVector, len(BaseWeights))
	for m, w := range BaseWeights {
		weights[m] = w
	}

	d.applyField(weights, "industry", profile.Industry)
	d.applyField(weights, "business_model", profile.BusinessModel)
	d.applyField(weights, "presence_mode", profile.PresenceMode)
	d.applyField(weights, "target_market", profile.TargetMarket)
	d.applyField(weights, "risk_profile", profile.RiskProfile)
	d.applyField(weights, "customer_type", profile.CustomerType)

	// Capital availability heuristic.
	switch {
	case profile.Capital >= capitalLarge:
		adjust(weights, model.MetricPopulation, 0.05)
		adjust(weights, model.MetricGDPGrowth, 0.025)
	case profile.Capital > 0 && profile.Capital < capitalSmall:
		adjust(weights, model.MetricInflation, 0.025)
		adjust(weights, model.MetricInternet, 0.025)
	}

	return normalize(weights)
}

func (d *WeightDeriver) applyField(weights model.WeightVector, field, answer string) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return
	}
	for _, rule := range d.rules[field] {
		for _, v := range rule.Values {
			if v == answer {
				for metric, delta := range rule.Deltas {
					adjust(weights, metric, delta)
				}
				return
			}
		}
	}
}

// adjust applies a delta and clips the result at zero.
func adjust(weights model.WeightVector, metric model.Metric, delta float64) {
	weights[metric] = math.Max(0, weights[metric]+delta)
}

// normalize rescales weights to sum to 1.0, rounding each to 3 decimals.
// The rounding residual lands on the largest weight so the vector still
// sums to exactly 1.0. A zero total returns a copy of the base
// distribution.
func normalize(weights model.WeightVector) model.WeightVector {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		out := make(model.WeightVector, len(BaseWeights))
		for m, w := range BaseWeights {
			out[m] = w
		}
		return out
	}

	out := make(model.WeightVector, len(weights))
	var largest model.Metric
	var sum float64
	for _, m := range model.ScoringMetrics {
		w := weights[m]
		out[m] = math.Round(w/total*1000) / 1000
		sum += out[m]
		if largest == "" || out[m] > out[largest] {
			largest = m
		}
	}
	out[largest] = math.Round((out[largest]+1.0-sum)*1000000) / 1000000
	return out
}
