package insights

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/consultai/internal/config"
	"github.com/sells-group/consultai/internal/model"
)

// Analyzer runs the KPI analytics pipeline over an uploaded frame.
type Analyzer struct {
	cfg config.InsightsConfig
}

// NewAnalyzer builds an analyzer with the given thresholds.
func NewAnalyzer(cfg config.InsightsConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Options are the per-request knobs of one analysis.
type Options struct {
	IncludeForecast bool
	// MarginThreshold overrides the configured low-margin alert
	// threshold when positive.
	MarginThreshold float64
}

// Analyze cleans the frame, resolves the KPI series, and computes
// clusters, charts, forecast, and alerts. A frame without at least two
// numeric columns fails; missing optional columns only omit their
// dependent outputs.
func (a *Analyzer) Analyze(f *Frame, opts Options) (*model.InsightsResult, error) {
	numericCols, cache := identifyNumericColumns(f)
	if len(numericCols) < 2 {
		return nil, eris.New("insights: not enough numeric columns for analysis")
	}

	f, cache = dropNonNumericRows(f, numericCols, cache)
	if len(f.Rows) == 0 {
		return nil, eris.New("insights: no rows with numeric data remain after cleaning")
	}

	mapping := detectColumns(f)
	detected, err := resolveSeries(f, mapping, numericCols, cache)
	if err != nil {
		return nil, err
	}

	clusters, scatter, err := buildClusters(detected)
	if err != nil {
		return nil, err
	}

	trend := buildTrend(f, mapping[roleDate], detected)

	threshold := a.cfg.LowMarginThreshold
	if opts.MarginThreshold > 0 {
		threshold = opts.MarginThreshold
	}
	alerts := buildAlerts(f, mapping, detected, cache, trend, alertRules{
		lowMargin:   threshold,
		discount:    a.cfg.DiscountThreshold,
		maxAlerts:   a.cfg.MaxAlerts,
		trailingWin: 3,
	})

	result := &model.InsightsResult{
		KpiSummary: buildKpiSummary(f, detected),
		Clusters:   clusters,
		ChartData: model.ChartData{
			ClusterScatter:    scatter,
			TrendData:         trend,
			SegmentBreakdown:  buildBreakdown(f, mapping[roleSegment], detected),
			CategoryBreakdown: buildBreakdown(f, mapping[roleCategory], detected),
			RegionBreakdown:   buildBreakdown(f, mapping[roleRegion], detected),
			ProductLeaders:    buildProductLeaders(f, mapping[roleProduct], detected),
		},
		Alerts: alerts,
	}
	if opts.IncludeForecast {
		result.ForecastData = buildForecast(trend, detected.Revenue, a.cfg.ForecastPeriods)
	}

	zap.L().Info("insights: analysis complete",
		zap.Int("rows", len(f.Rows)),
		zap.Int("numeric_columns", len(numericCols)),
		zap.Int("clusters", len(clusters)),
		zap.Int("alerts", len(alerts)),
	)

	return result, nil
}

// dropNonNumericRows removes rows where every numeric column failed to
// coerce and rebuilds the coercion cache over the survivors.
func dropNonNumericRows(f *Frame, numericCols []string, cache map[string]numericColumn) (*Frame, map[string]numericColumn) {
	keep := make([]bool, len(f.Rows))
	kept := 0
	for i := range f.Rows {
		for _, col := range numericCols {
			if cache[col].valid[i] {
				keep[i] = true
				kept++
				break
			}
		}
	}
	if kept == len(f.Rows) {
		return f, cache
	}

	rows := make([][]string, 0, kept)
	for i, row := range f.Rows {
		if keep[i] {
			rows = append(rows, row)
		}
	}
	filtered := &Frame{Columns: f.Columns, Rows: rows}

	rebuilt := make(map[string]numericColumn, len(cache))
	for name := range cache {
		rebuilt[name] = coerceColumn(filtered.Column(name))
	}
	return filtered, rebuilt
}

// Summary composes the deterministic narrative used when the language
// model is unavailable (and as the prompt seed when it is not).
func Summary(result *model.InsightsResult) string {
	p := message.NewPrinter(language.English)
	var parts []string

	if len(result.ChartData.SegmentBreakdown) > 0 {
		parts = append(parts, p.Sprintf("%s leads revenue contribution.", result.ChartData.SegmentBreakdown[0].Label))
	}
	if len(result.ChartData.RegionBreakdown) > 0 {
		parts = append(parts, p.Sprintf("Strongest geographic performance observed in %s.", result.ChartData.RegionBreakdown[0].Label))
	}
	parts = append(parts, p.Sprintf(
		"Total revenue of %.2f across %d companies at an average margin of %.1f%%. Higher-margin clusters show strong sales performance.",
		result.KpiSummary.TotalRevenue, result.KpiSummary.NumCompanies, result.KpiSummary.AvgProfitMargin*100,
	))
	if len(result.Alerts) > 0 {
		parts = append(parts, "Review the flagged discounts and low-margin items for corrective actions.")
	}

	return strings.Join(parts, " ")
}
