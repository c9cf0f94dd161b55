package insights

import (
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/consultai/internal/model"
)

const (
	maxClusters     = 3
	kMeansMaxIter   = 100
	trendTailMonths = 12
	breakdownTopN   = 5
)

// buildClusters groups rows by similarity over scaled
// {revenue, margin, profit} and returns per-cluster aggregates plus the
// scatter series. Every row receives exactly one cluster id.
func buildClusters(d *Detected) ([]model.Cluster, []model.ScatterPoint, error) {
	n := len(d.Revenue)
	if n < 3 {
		return nil, nil, eris.New("insights: not enough valid data points for clustering")
	}

	points := make([][]float64, n)
	for i := 0; i < n; i++ {
		points[i] = []float64{d.Revenue[i], d.Margin[i], d.Profit[i]}
	}
	scaled := scaleMinMax(points)

	k := maxClusters
	if n < k {
		k = n
	}
	labels := kMeans(scaled, k)

	scatter := make([]model.ScatterPoint, n)
	sums := make([]struct {
		profit, margin float64
		count          int
	}, k)
	for i := 0; i < n; i++ {
		c := labels[i]
		scatter[i] = model.ScatterPoint{X: d.Margin[i], Y: d.Revenue[i], Cluster: c}
		sums[c].profit += d.Profit[i]
		sums[c].margin += d.Margin[i]
		sums[c].count++
	}

	clusters := make([]model.Cluster, 0, k)
	for c := 0; c < k; c++ {
		if sums[c].count == 0 {
			continue
		}
		clusters = append(clusters, model.Cluster{
			Cluster:         c,
			AvgProfit:       round2(sums[c].profit / float64(sums[c].count)),
			AvgProfitMargin: round4(sums[c].margin / float64(sums[c].count)),
			Count:           sums[c].count,
		})
	}

	return clusters, scatter, nil
}

// scaleMinMax rescales each feature column into [0,1]; zero-variance
// columns collapse to 0.
func scaleMinMax(points [][]float64) [][]float64 {
	if len(points) == 0 {
		return nil
	}
	dims := len(points[0])
	lo := make([]float64, dims)
	hi := make([]float64, dims)
	for j := 0; j < dims; j++ {
		lo[j] = math.Inf(1)
		hi[j] = math.Inf(-1)
	}
	for _, p := range points {
		for j, v := range p {
			if v < lo[j] {
				lo[j] = v
			}
			if v > hi[j] {
				hi[j] = v
			}
		}
	}

	scaled := make([][]float64, len(points))
	for i, p := range points {
		s := make([]float64, dims)
		for j, v := range p {
			if hi[j] > lo[j] {
				s[j] = (v - lo[j]) / (hi[j] - lo[j])
			}
		}
		scaled[i] = s
	}
	return scaled
}

// kMeans assigns each point to one of k clusters with Lloyd's algorithm.
// Initial centroids are picked deterministically: points are ordered by
// their first feature and k evenly spaced rows seed the centroids, so
// identical input always yields identical assignments.
func kMeans(points [][]float64, k int) []int {
	n := len(points)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return points[order[a]][0] < points[order[b]][0]
	})

	dims := len(points[0])
	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		seed := order[c*(n-1)/max(k-1, 1)]
		centroids[c] = append([]float64(nil), points[seed]...)
	}

	labels := make([]int, n)
	for iter := 0; iter < kMeansMaxIter; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				var dist float64
				for j := 0; j < dims; j++ {
					diff := p[j] - centroid[j]
					dist += diff * diff
				}
				if dist < bestDist {
					best, bestDist = c, dist
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for j, v := range p {
				next[c][j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue // empty cluster keeps its centroid
			}
			for j := 0; j < dims; j++ {
				next[c][j] /= float64(counts[c])
			}
			centroids[c] = next[c]
		}
	}

	return labels
}

// buildKpiSummary computes the headline KPI block.
func buildKpiSummary(f *Frame, d *Detected) model.KpiSummary {
	var totalRevenue, marginSum float64
	for i := range d.Revenue {
		totalRevenue += d.Revenue[i]
		marginSum += d.Margin[i]
	}

	summary := model.KpiSummary{
		TotalRevenue: round2(totalRevenue),
		NumCompanies: len(f.Rows),
	}
	if len(d.Margin) > 0 {
		summary.AvgProfitMargin = round4(marginSum / float64(len(d.Margin)))
	}

	if d.CompanyColumn != "" {
		if values := f.Column(d.CompanyColumn); values != nil {
			distinct := make(map[string]bool, len(values))
			for _, v := range values {
				distinct[v] = true
			}
			summary.NumCompanies = len(distinct)
		}
	}

	if len(d.Churn) > 0 {
		var churnSum float64
		for _, v := range d.Churn {
			churnSum += v
		}
		avg := round4(churnSum / float64(len(d.Churn)))
		summary.AvgChurn = &avg
	}

	return summary
}

// buildBreakdown aggregates revenue, profit, and margin per value of the
// given dimension column, descending by revenue, top 5.
func buildBreakdown(f *Frame, column string, d *Detected) []model.Breakdown {
	if column == "" {
		return nil
	}
	labels := f.Column(column)
	if labels == nil {
		return nil
	}

	revenue := make(map[string]float64)
	profit := make(map[string]float64)
	var order []string
	for i, label := range labels {
		if label == "" {
			continue
		}
		if _, seen := revenue[label]; !seen {
			order = append(order, label)
		}
		revenue[label] += d.Revenue[i]
		profit[label] += d.Profit[i]
	}

	sort.SliceStable(order, func(a, b int) bool {
		if revenue[order[a]] != revenue[order[b]] {
			return revenue[order[a]] > revenue[order[b]]
		}
		return order[a] < order[b]
	})
	if len(order) > breakdownTopN {
		order = order[:breakdownTopN]
	}

	out := make([]model.Breakdown, 0, len(order))
	for _, label := range order {
		rev, prof := revenue[label], profit[label]
		var margin float64
		if rev != 0 {
			margin = prof / rev
		}
		out = append(out, model.Breakdown{
			Label:        label,
			Revenue:      round2(rev),
			Profit:       round2(prof),
			ProfitMargin: round4(margin),
		})
	}
	return out
}

// buildProductLeaders returns the top 5 products by revenue.
func buildProductLeaders(f *Frame, column string, d *Detected) []model.ProductLeader {
	breakdown := buildBreakdown(f, column, d)
	out := make([]model.ProductLeader, 0, len(breakdown))
	for _, b := range breakdown {
		out = append(out, model.ProductLeader{
			Product: b.Label,
			Revenue: b.Revenue,
			Profit:  b.Profit,
		})
	}
	return out
}

// dateLayouts accepted for the detected date column, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// buildTrend aggregates revenue and profit by calendar month over the
// detected date column, returning the trailing 12 periods. No parsable
// dates means no trend.
func buildTrend(f *Frame, dateColumn string, d *Detected) []model.TrendPoint {
	if dateColumn == "" {
		return nil
	}
	raw := f.Column(dateColumn)
	if raw == nil {
		return nil
	}

	revenue := make(map[string]float64)
	profit := make(map[string]float64)
	for i, cell := range raw {
		t, ok := parseDate(cell)
		if !ok {
			continue
		}
		key := t.Format("2006-01")
		revenue[key] += d.Revenue[i]
		profit[key] += d.Profit[i]
	}
	if len(revenue) == 0 {
		return nil
	}

	periods := make([]string, 0, len(revenue))
	for key := range revenue {
		periods = append(periods, key)
	}
	sort.Strings(periods)
	if len(periods) > trendTailMonths {
		periods = periods[len(periods)-trendTailMonths:]
	}

	out := make([]model.TrendPoint, 0, len(periods))
	for _, period := range periods {
		out = append(out, model.TrendPoint{
			Period:  period,
			Revenue: round2(revenue[period]),
			Profit:  round2(profit[period]),
		})
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
