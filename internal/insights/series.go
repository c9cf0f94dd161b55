package insights

import (
	"github.com/rotisserie/eris"
)

// Detected holds the resolved per-row KPI series. Revenue, Profit, and
// Margin always have one entry per frame row; Churn is nil when no churn
// column exists.
type Detected struct {
	Revenue       []float64
	Profit        []float64
	Margin        []float64
	Churn         []float64
	CompanyColumn string
}

// resolveSeries derives the core numeric series from the detected
// columns. Missing values fill as zero. Profit falls back to
// revenue - cost, then to the next numeric column, then to revenue
// itself. Margin is profit/revenue with zero-revenue rows pinned to 0.
func resolveSeries(f *Frame, mapping map[string]string, numericCols []string, cache map[string]numericColumn) (*Detected, error) {
	revenueCol := mapping[roleRevenue]
	if revenueCol == "" && len(numericCols) > 0 {
		revenueCol = numericCols[0]
	}
	if revenueCol == "" {
		return nil, eris.New("insights: unable to identify a revenue or sales column")
	}

	revenue := filled(cache[revenueCol])

	var profit []float64
	switch {
	case mapping[roleProfit] != "":
		profit = filled(cache[mapping[roleProfit]])
	case mapping[roleCost] != "":
		cost := filled(cache[mapping[roleCost]])
		profit = make([]float64, len(revenue))
		for i := range revenue {
			profit[i] = revenue[i] - cost[i]
		}
	default:
		fallback := ""
		for _, col := range numericCols {
			if col != revenueCol {
				fallback = col
				break
			}
		}
		if fallback != "" {
			profit = filled(cache[fallback])
		} else {
			profit = append([]float64(nil), revenue...)
		}
	}

	margin := make([]float64, len(revenue))
	for i := range revenue {
		if revenue[i] != 0 {
			margin[i] = profit[i] / revenue[i]
		}
	}

	var churn []float64
	if mapping[roleChurn] != "" {
		churn = filled(cache[mapping[roleChurn]])
	}

	return &Detected{
		Revenue:       revenue,
		Profit:        profit,
		Margin:        margin,
		Churn:         churn,
		CompanyColumn: mapping[roleCompany],
	}, nil
}

// filled returns the column values with invalid cells as zero.
func filled(col numericColumn) []float64 {
	out := make([]float64, len(col.values))
	for i, v := range col.values {
		if col.valid[i] {
			out[i] = v
		}
	}
	return out
}
