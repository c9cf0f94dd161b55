package insights

import (
	"fmt"
	"sort"

	"github.com/sells-group/consultai/internal/model"
)

// alertRules carries the thresholds for the rule-based alert scan.
type alertRules struct {
	lowMargin   float64
	discount    float64
	maxAlerts   int
	trailingWin int
}

// buildAlerts scans the dataset for rule-based findings, in priority
// order: deep discounts sold at a loss, segments running at a total
// loss, lowest-margin items under the threshold, and a declining profit
// trend over the trailing window. Capped at maxAlerts.
func buildAlerts(f *Frame, mapping map[string]string, d *Detected, cache map[string]numericColumn, trend []model.TrendPoint, rules alertRules) []model.Alert {
	var alerts []model.Alert

	alerts = append(alerts, discountAlerts(f, mapping, d, cache, rules)...)
	alerts = append(alerts, segmentLossAlerts(f, mapping[roleSegment], d)...)
	alerts = append(alerts, lowMarginAlerts(f, mapping, d, rules.lowMargin)...)
	alerts = append(alerts, trendAlerts(trend, rules.trailingWin)...)

	if rules.maxAlerts > 0 && len(alerts) > rules.maxAlerts {
		alerts = alerts[:rules.maxAlerts]
	}
	return alerts
}

// discountAlerts flags rows discounted past the threshold that still
// lost money, deepest discounts first, at most five.
func discountAlerts(f *Frame, mapping map[string]string, d *Detected, cache map[string]numericColumn, rules alertRules) []model.Alert {
	discountCol := mapping[roleDiscount]
	if discountCol == "" {
		return nil
	}
	discounts, ok := cache[discountCol]
	if !ok {
		discounts = coerceColumn(f.Column(discountCol))
	}

	labels := rowLabels(f, mapping)

	type hit struct {
		label            string
		discount, profit float64
	}
	var hits []hit
	for i := range d.Profit {
		if !discounts.valid[i] {
			continue
		}
		if d.Profit[i] < 0 && discounts.values[i] > rules.discount {
			label := "High discount loss"
			if labels != nil && labels[i] != "" {
				label = labels[i]
			}
			hits = append(hits, hit{label: label, discount: discounts.values[i], profit: d.Profit[i]})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].discount > hits[b].discount })
	if len(hits) > 5 {
		hits = hits[:5]
	}

	alerts := make([]model.Alert, 0, len(hits))
	for _, h := range hits {
		discount, profit := round2(h.discount), round2(h.profit)
		alerts = append(alerts, model.Alert{
			Title:       h.label,
			Description: "High discount with negative profit",
			Discount:    &discount,
			Profit:      &profit,
		})
	}
	return alerts
}

// segmentLossAlerts flags every segment whose total profit is negative.
func segmentLossAlerts(f *Frame, segmentCol string, d *Detected) []model.Alert {
	if segmentCol == "" {
		return nil
	}
	labels := f.Column(segmentCol)
	if labels == nil {
		return nil
	}

	totals := make(map[string]float64)
	var order []string
	for i, label := range labels {
		if label == "" {
			continue
		}
		if _, seen := totals[label]; !seen {
			order = append(order, label)
		}
		totals[label] += d.Profit[i]
	}

	sort.SliceStable(order, func(a, b int) bool { return totals[order[a]] < totals[order[b]] })

	var alerts []model.Alert
	for _, label := range order {
		if totals[label] >= 0 {
			continue
		}
		profit := round2(totals[label])
		alerts = append(alerts, model.Alert{
			Title:       label,
			Description: "Segment running at a total loss",
			Profit:      &profit,
		})
	}
	return alerts
}

// lowMarginAlerts flags the five thinnest margins at or below the
// threshold.
func lowMarginAlerts(f *Frame, mapping map[string]string, d *Detected, threshold float64) []model.Alert {
	labels := rowLabels(f, mapping)

	indexes := make([]int, len(d.Margin))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool { return d.Margin[indexes[a]] < d.Margin[indexes[b]] })
	if len(indexes) > 5 {
		indexes = indexes[:5]
	}

	var alerts []model.Alert
	for _, i := range indexes {
		if d.Margin[i] > threshold {
			continue
		}
		label := "Low margin item"
		if labels != nil && labels[i] != "" {
			label = labels[i]
		}
		margin, profit := round4(d.Margin[i]), round2(d.Profit[i])
		alerts = append(alerts, model.Alert{
			Title:        label,
			Description:  fmt.Sprintf("Profit margin below %.0f%%", threshold*100),
			ProfitMargin: &margin,
			Profit:       &profit,
		})
	}
	return alerts
}

// trendAlerts flags a strictly declining profit trend over the trailing
// window of monthly periods.
func trendAlerts(trend []model.TrendPoint, window int) []model.Alert {
	if window < 2 || len(trend) < window+1 {
		return nil
	}
	tail := trend[len(trend)-window-1:]
	for i := 1; i < len(tail); i++ {
		if tail[i].Profit >= tail[i-1].Profit {
			return nil
		}
	}

	profit := round2(tail[len(tail)-1].Profit)
	return []model.Alert{{
		Title:       "Declining profit trend",
		Description: fmt.Sprintf("Profit fell for %d consecutive months", window),
		Profit:      &profit,
	}}
}

// rowLabels picks the best per-row display label: product, then segment,
// then category.
func rowLabels(f *Frame, mapping map[string]string) []string {
	for _, role := range []string{roleProduct, roleSegment, roleCategory} {
		if col := mapping[role]; col != "" {
			if values := f.Column(col); values != nil {
				return values
			}
		}
	}
	return nil
}
