package market

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/consultai/internal/model"
)

// neutralNormalized is assigned to every row of a zero-variance metric
// column so the column neither rewards nor penalizes any country.
const neutralNormalized = 0.5

// Scorer ranks candidate markets for a business profile. The country
// table is read-only and safe for concurrent use.
type Scorer struct {
	table   []model.CountryMetrics
	deriver *WeightDeriver
	topN    int
}

// NewScorer builds a scorer over the loaded country table.
func NewScorer(table []model.CountryMetrics, deriver *WeightDeriver, topN int) (*Scorer, error) {
	if len(table) == 0 {
		return nil, eris.New("market: empty country table")
	}
	if topN <= 0 {
		topN = 10
	}
	return &Scorer{table: table, deriver: deriver, topN: topN}, nil
}

// Score derives weights for the profile, scores every country in scope,
// and returns the ranked top-N with per-metric contributions.
func (s *Scorer) Score(profile model.BusinessProfile) *model.MarketRanking {
	rows, filterIgnored := s.filterByRegions(profile.Regions)
	weights := s.deriver.Derive(profile)

	lo, hi := columnRanges(rows)

	ranked := make([]model.ScoredCountry, 0, len(rows))
	for _, row := range rows {
		sc := model.ScoredCountry{
			Country: row.Country,
			Metrics: make(map[model.Metric]model.MetricDetail, len(model.ScoringMetrics)),
		}
		var score float64
		for _, m := range model.ScoringMetrics {
			raw := row.Values[m]
			normalized := minMax(raw, lo[m], hi[m])
			adjusted := normalized
			if model.NegativeMetrics[m] {
				adjusted = 1 - normalized
			}
			contribution := weights[m] * adjusted
			score += contribution
			sc.Metrics[m] = model.MetricDetail{
				Raw:          raw,
				Normalized:   round4(normalized),
				Weight:       weights[m],
				Contribution: round4(contribution),
			}
		}
		sc.Score = round4(score)
		ranked = append(ranked, sc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Country < ranked[j].Country
	})
	if len(ranked) > s.topN {
		ranked = ranked[:s.topN]
	}

	zap.L().Info("market: scoring complete",
		zap.Int("countries_scored", len(rows)),
		zap.Int("countries_returned", len(ranked)),
		zap.Bool("region_filter_ignored", filterIgnored),
	)

	return &model.MarketRanking{
		Ranked:              ranked,
		Weights:             weights,
		RegionFilterIgnored: filterIgnored,
	}
}

// filterByRegions restricts the table to the requested regions. A filter
// matching nothing falls back to the full table and reports it was
// ignored rather than returning an empty ranking.
func (s *Scorer) filterByRegions(regions []string) ([]model.CountryMetrics, bool) {
	wanted := make(map[string]bool, len(regions))
	for _, r := range regions {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			wanted[r] = true
		}
	}
	if len(wanted) == 0 {
		return s.table, false
	}

	var filtered []model.CountryMetrics
	for _, row := range s.table {
		if wanted[strings.ToLower(strings.TrimSpace(row.Region))] {
			filtered = append(filtered, row)
		}
	}
	if len(filtered) == 0 {
		return s.table, true
	}
	return filtered, false
}

// columnRanges computes per-metric min and max over the given rows.
func columnRanges(rows []model.CountryMetrics) (lo, hi map[model.Metric]float64) {
	lo = make(map[model.Metric]float64, len(model.ScoringMetrics))
	hi = make(map[model.Metric]float64, len(model.ScoringMetrics))
	for _, m := range model.ScoringMetrics {
		lo[m] = math.Inf(1)
		hi[m] = math.Inf(-1)
	}
	for _, row := range rows {
		for _, m := range model.ScoringMetrics {
			v := row.Values[m]
			if v < lo[m] {
				lo[m] = v
			}
			if v > hi[m] {
				hi[m] = v
			}
		}
	}
	return lo, hi
}

// minMax scales v into [0,1] over [lo,hi]. A zero-variance column maps
// every row to the neutral constant.
func minMax(v, lo, hi float64) float64 {
	if hi == lo {
		return neutralNormalized
	}
	return (v - lo) / (hi - lo)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Summary composes the deterministic one-line recommendation shown above
// the ranking.
func Summary(profile model.BusinessProfile, leaders []string) string {
	switch len(leaders) {
	case 0:
		return "No markets met the criteria. Adjust your profile inputs and retry."
	case 1:
		return fmt.Sprintf(
			"Consider prioritizing %s for a %s %s expansion given the selected %s risk profile.",
			leaders[0], profile.CustomerType, strings.ToLower(profile.Industry), strings.ToLower(profile.RiskProfile),
		)
	default:
		return fmt.Sprintf(
			"For a %s %s company operating a %s model with a %s presence and %s risk appetite, consider %s and %s as leading expansion markets.",
			profile.CustomerType, profile.Industry, profile.BusinessModel,
			strings.ToLower(profile.PresenceMode), strings.ToLower(profile.RiskProfile),
			strings.Join(leaders[:len(leaders)-1], ", "), leaders[len(leaders)-1],
		)
	}
}
