package model

// KpiSummary is the headline block of a KPI analysis.
type KpiSummary struct {
	TotalRevenue    float64  `json:"total_revenue"`
	AvgProfitMargin float64  `json:"avg_profit_margin"`
	NumCompanies    int      `json:"num_companies"`
	AvgChurn        *float64 `json:"avg_churn"`
}

// Cluster aggregates one k-means group of KPI rows.
type Cluster struct {
	Cluster         int     `json:"cluster"`
	AvgProfit       float64 `json:"avg_profit"`
	AvgProfitMargin float64 `json:"avg_profit_margin"`
	Count           int     `json:"count"`
}

// ScatterPoint is one row plotted as margin (x) vs revenue (y).
type ScatterPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Cluster int     `json:"cluster"`
}

// TrendPoint is one monthly revenue/profit aggregate.
type TrendPoint struct {
	Period  string  `json:"period"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// Breakdown is one dimension bucket (segment, category, or region).
type Breakdown struct {
	Label        string  `json:"label"`
	Revenue      float64 `json:"revenue"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profit_margin"`
}

// ProductLeader is one top-revenue product.
type ProductLeader struct {
	Product string  `json:"product"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// Forecast is the short-horizon revenue projection. Dates and
// RevenueForecast are parallel, one entry per future period.
type Forecast struct {
	Dates           []string  `json:"dates"`
	RevenueForecast []float64 `json:"revenue_forecast"`
}

// Alert is one rule-based finding over the uploaded KPI data. The numeric
// pointers carry only the values that triggered the rule.
type Alert struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Discount     *float64 `json:"discount,omitempty"`
	Profit       *float64 `json:"profit,omitempty"`
	ProfitMargin *float64 `json:"profit_margin,omitempty"`
}

// ChartData groups the chart-ready series of a KPI analysis.
type ChartData struct {
	ClusterScatter    []ScatterPoint  `json:"cluster_scatter"`
	TrendData         []TrendPoint    `json:"trend_data"`
	SegmentBreakdown  []Breakdown     `json:"segment_breakdown"`
	CategoryBreakdown []Breakdown     `json:"category_breakdown"`
	RegionBreakdown   []Breakdown     `json:"region_breakdown"`
	ProductLeaders    []ProductLeader `json:"product_leaders"`
}

// InsightsResult is the full output of the KPI analytics pipeline.
type InsightsResult struct {
	KpiSummary   KpiSummary `json:"kpi_summary"`
	Clusters     []Cluster  `json:"clusters"`
	ChartData    ChartData  `json:"chart_data"`
	ForecastData *Forecast  `json:"forecast_data,omitempty"`
	Alerts       []Alert    `json:"alerts"`
}
