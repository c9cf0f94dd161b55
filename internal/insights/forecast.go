package insights

import (
	"time"

	"github.com/sells-group/consultai/internal/model"
)

const fallbackDriftPerPeriod = 0.01

// monthStart pins a timestamp to the first day of its month so AddDate
// steps land on consecutive calendar months.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// buildForecast projects revenue forward one point per future period.
//
// With at least two monthly trend points, a least-squares linear trend is
// fitted over the observed months and extended past the last one. With a
// thinner history, the projection falls back to the flat mean of the
// trailing 12 raw revenue values with a 1% per-period drift, dated from
// the current month. Either way the output has exactly `periods` entries
// with strictly increasing month labels, and projections never go
// negative.
func buildForecast(trend []model.TrendPoint, revenue []float64, periods int) *model.Forecast {
	if periods <= 0 {
		periods = 12
	}

	if len(trend) >= 2 {
		return trendForecast(trend, periods)
	}
	return driftForecast(revenue, periods, time.Now())
}

// trendForecast fits y = intercept + slope*x over the monthly series and
// projects the next `periods` months.
func trendForecast(trend []model.TrendPoint, periods int) *model.Forecast {
	n := float64(len(trend))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range trend {
		x := float64(i)
		sumX += x
		sumY += p.Revenue
		sumXY += x * p.Revenue
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	var slope float64
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n

	last, ok := parseDate(trend[len(trend)-1].Period)
	if !ok {
		last = time.Now()
	}
	last = monthStart(last)

	forecast := &model.Forecast{
		Dates:           make([]string, 0, periods),
		RevenueForecast: make([]float64, 0, periods),
	}
	for i := 1; i <= periods; i++ {
		month := last.AddDate(0, i, 0)
		projected := intercept + slope*float64(len(trend)-1+i)
		if projected < 0 {
			projected = 0
		}
		forecast.Dates = append(forecast.Dates, month.Format("2006-01"))
		forecast.RevenueForecast = append(forecast.RevenueForecast, round2(projected))
	}
	return forecast
}

// driftForecast extends the trailing mean of the raw revenue series with
// a fixed per-period drift, starting at the given month.
func driftForecast(revenue []float64, periods int, start time.Time) *model.Forecast {
	tail := revenue
	if len(tail) > 12 {
		tail = tail[len(tail)-12:]
	}
	var base float64
	if len(tail) > 0 {
		for _, v := range tail {
			base += v
		}
		base /= float64(len(tail))
	}
	if base < 0 {
		base = 0
	}

	start = monthStart(start)
	forecast := &model.Forecast{
		Dates:           make([]string, 0, periods),
		RevenueForecast: make([]float64, 0, periods),
	}
	for i := 0; i < periods; i++ {
		month := start.AddDate(0, i, 0)
		forecast.Dates = append(forecast.Dates, month.Format("2006-01"))
		forecast.RevenueForecast = append(forecast.RevenueForecast, round2(base*(1+fallbackDriftPerPeriod*float64(i))))
	}
	return forecast
}
