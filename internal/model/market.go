// Package model holds the shared domain types passed between the scoring,
// analytics, and advisor packages.
package model

// Metric identifies one column of the country indicator table.
type Metric string

const (
	MetricGDPGrowth       Metric = "GDP_Growth"
	MetricInflation       Metric = "Inflation"
	MetricInternet        Metric = "Internet_Penetration"
	MetricPopulation      Metric = "Population_Millions"
	MetricPurchasingPower Metric = "purchasing_power_index_cost_of_living"
	MetricCorruption      Metric = "corruption_index_corruption"
	MetricCostIndex       Metric = "cost_index_cost_of_living"
)

// ScoringMetrics lists every metric that participates in the composite
// score, in canonical order.
var ScoringMetrics = []Metric{
	MetricGDPGrowth,
	MetricInflation,
	MetricInternet,
	MetricPopulation,
	MetricCorruption,
	MetricCostIndex,
	MetricPurchasingPower,
}

// NegativeMetrics are the "lower is better" metrics whose normalized
// values are inverted before weighting.
var NegativeMetrics = map[Metric]bool{
	MetricInflation:  true,
	MetricCorruption: true,
	MetricCostIndex:  true,
}

// CountryMetrics is one row of the macroeconomic reference table.
// Immutable after load; shared read-only across requests.
type CountryMetrics struct {
	Country string
	Region  string
	Values  map[Metric]float64
}

// BusinessProfile is the per-request expansion profile submitted by the
// caller. Categorical fields are free text matched against the rule table.
type BusinessProfile struct {
	Industry      string   `json:"industry"`
	BusinessModel string   `json:"business_model"`
	PresenceMode  string   `json:"presence_mode"`
	TargetMarket  string   `json:"target_market"`
	RiskProfile   string   `json:"risk_profile"`
	CustomerType  string   `json:"customer_type"`
	Capital       float64  `json:"capital"`
	Regions       []string `json:"regions"`
}

// WeightVector maps each metric to a non-negative weight. Invariant:
// values sum to 1.0 within floating tolerance.
type WeightVector map[Metric]float64

// MetricDetail carries one metric's inputs to a country's score.
type MetricDetail struct {
	Raw          float64 `json:"raw"`
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// ScoredCountry is one ranked row of the scorer output.
type ScoredCountry struct {
	Country string                  `json:"country"`
	Score   float64                 `json:"score"`
	Metrics map[Metric]MetricDetail `json:"metrics"`
}

// MarketRanking is the full result of one scoring request.
type MarketRanking struct {
	Ranked              []ScoredCountry `json:"ranked"`
	Weights             WeightVector    `json:"weights"`
	RegionFilterIgnored bool            `json:"region_filter_ignored,omitempty"`
}
