package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/consultai/internal/model"
)

func defaultRules() alertRules {
	return alertRules{lowMargin: 0.15, discount: 0.3, maxAlerts: 5, trailingWin: 3}
}

func TestDiscountAlerts(t *testing.T) {
	t.Parallel()

	frame := &Frame{
		Columns: []string{"Product", "Discount", "Profit"},
		Rows: [][]string{
			{"Widget", "0.5", "-20"},
			{"Gadget", "0.1", "-5"},
			{"Sprocket", "0.4", "10"},
			{"Cog", "0.6", "-1"},
		},
	}
	mapping := map[string]string{roleProduct: "Product", roleDiscount: "Discount"}
	d := &Detected{
		Revenue: []float64{100, 100, 100, 100},
		Profit:  []float64{-20, -5, 10, -1},
		Margin:  []float64{-0.2, -0.05, 0.1, -0.01},
	}
	_, cache := identifyNumericColumns(frame)

	alerts := discountAlerts(frame, mapping, d, cache, defaultRules())
	require.Len(t, alerts, 2, "only discounted loss-makers qualify")

	assert.Equal(t, "Cog", alerts[0].Title, "deepest discount first")
	assert.Equal(t, "High discount with negative profit", alerts[0].Description)
	require.NotNil(t, alerts[0].Discount)
	assert.InDelta(t, 0.6, *alerts[0].Discount, 1e-9)
	require.NotNil(t, alerts[0].Profit)
	assert.InDelta(t, -1, *alerts[0].Profit, 1e-9)
	assert.Equal(t, "Widget", alerts[1].Title)
}

func TestDiscountAlertsNoColumn(t *testing.T) {
	t.Parallel()

	frame := &Frame{Columns: []string{"Revenue"}, Rows: [][]string{{"100"}}}
	d := &Detected{Revenue: []float64{100}, Profit: []float64{-1}, Margin: []float64{-0.01}}

	assert.Nil(t, discountAlerts(frame, map[string]string{}, d, nil, defaultRules()))
}

func TestSegmentLossAlerts(t *testing.T) {
	t.Parallel()

	frame := &Frame{
		Columns: []string{"Segment"},
		Rows: [][]string{
			{"A"}, {"A"}, {"A"}, {"B"}, {"B"},
			{"C"}, {"C"}, {"A"}, {"B"}, {"C"},
		},
	}
	d := &Detected{
		Revenue: []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
		Profit:  []float64{-50, -30, -40, 20, 30, 5, 10, -10, 25, 15},
		Margin:  make([]float64, 10),
	}

	alerts := segmentLossAlerts(frame, "Segment", d)
	require.Len(t, alerts, 1)
	assert.Equal(t, "A", alerts[0].Title)
	assert.Equal(t, "Segment running at a total loss", alerts[0].Description)
	require.NotNil(t, alerts[0].Profit)
	assert.InDelta(t, -130, *alerts[0].Profit, 1e-9)
}

func TestSegmentLossAlertsWorstFirst(t *testing.T) {
	t.Parallel()

	frame := &Frame{
		Columns: []string{"Segment"},
		Rows:    [][]string{{"Mild"}, {"Severe"}},
	}
	d := &Detected{
		Revenue: []float64{100, 100},
		Profit:  []float64{-5, -500},
		Margin:  make([]float64, 2),
	}

	alerts := segmentLossAlerts(frame, "Segment", d)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Severe", alerts[0].Title)
}

func TestLowMarginAlerts(t *testing.T) {
	t.Parallel()

	frame := &Frame{
		Columns: []string{"Product"},
		Rows:    [][]string{{"Thin"}, {"Healthy"}, {"Border"}},
	}
	mapping := map[string]string{roleProduct: "Product"}
	d := &Detected{
		Revenue: []float64{100, 100, 100},
		Profit:  []float64{5, 40, 15},
		Margin:  []float64{0.05, 0.40, 0.15},
	}

	alerts := lowMarginAlerts(frame, mapping, d, 0.15)
	require.Len(t, alerts, 2, "threshold is inclusive")
	assert.Equal(t, "Thin", alerts[0].Title)
	require.NotNil(t, alerts[0].ProfitMargin)
	assert.InDelta(t, 0.05, *alerts[0].ProfitMargin, 1e-9)
	assert.Equal(t, "Border", alerts[1].Title)
}

func TestTrendAlerts(t *testing.T) {
	t.Parallel()

	declining := []model.TrendPoint{
		{Period: "2024-01", Profit: 100},
		{Period: "2024-02", Profit: 80},
		{Period: "2024-03", Profit: 60},
		{Period: "2024-04", Profit: 40},
	}

	alerts := trendAlerts(declining, 3)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Declining profit trend", alerts[0].Title)
	require.NotNil(t, alerts[0].Profit)
	assert.InDelta(t, 40, *alerts[0].Profit, 1e-9)

	flat := []model.TrendPoint{
		{Period: "2024-01", Profit: 100},
		{Period: "2024-02", Profit: 100},
		{Period: "2024-03", Profit: 90},
		{Period: "2024-04", Profit: 80},
	}
	assert.Nil(t, trendAlerts(flat, 3), "a flat month breaks the streak")
	assert.Nil(t, trendAlerts(declining[:3], 3), "history shorter than window")
}

func TestBuildAlertsCap(t *testing.T) {
	t.Parallel()

	// Six loss-making segments would produce six alerts without the cap.
	rows := make([][]string, 0, 6)
	profit := make([]float64, 0, 6)
	for _, label := range []string{"A", "B", "C", "D", "E", "F"} {
		rows = append(rows, []string{label})
		profit = append(profit, -10)
	}
	frame := &Frame{Columns: []string{"Segment"}, Rows: rows}
	mapping := map[string]string{roleSegment: "Segment"}
	d := &Detected{
		Revenue: []float64{100, 100, 100, 100, 100, 100},
		Profit:  profit,
		Margin:  []float64{-0.1, -0.1, -0.1, -0.1, -0.1, -0.1},
	}

	alerts := buildAlerts(frame, mapping, d, nil, nil, defaultRules())
	assert.Len(t, alerts, 5)
}
