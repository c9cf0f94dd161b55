package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/consultai/internal/insights"
	"github.com/sells-group/consultai/internal/market"
	"github.com/sells-group/consultai/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Status: "ok", Message: "ConsultAI backend running"})
}

// marketEntryRequest mirrors the market-entry payload.
type marketEntryRequest struct {
	Industry      string   `json:"industry"`
	BusinessModel string   `json:"business_model"`
	PresenceMode  string   `json:"presence_mode"`
	TargetMarket  string   `json:"target_market"`
	RiskProfile   string   `json:"risk_profile"`
	CustomerType  string   `json:"customer_type"`
	Capital       float64  `json:"capital"`
	Regions       []string `json:"regions"`
}

// topMarket is one row of the abbreviated ranking. Field names are
// capitalized on the wire for the charting frontend.
type topMarket struct {
	Country string  `json:"Country"`
	Score   float64 `json:"Score"`
}

type marketEntryData struct {
	TopMarkets                []topMarket           `json:"top_markets"`
	WeightsUsed               model.WeightVector    `json:"weights_used"`
	Summary                   string                `json:"summary"`
	ChartData                 marketChartData       `json:"chart_data"`
	MetricBreakdown           []model.ScoredCountry `json:"metric_breakdown"`
	ExplainableSummary        string                `json:"explainable_summary"`
	ExplainableSummarySource  model.AnswerSource    `json:"explainable_summary_source"`
	ExplainableSummaryWarning string                `json:"explainable_summary_warning,omitempty"`
	RegionFilterIgnored       bool                  `json:"region_filter_ignored,omitempty"`
}

type marketChartData struct {
	Countries []string  `json:"countries"`
	Scores    []float64 `json:"scores"`
}

func (s *Server) handleMarketEntry(w http.ResponseWriter, r *http.Request) {
	var req marketEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	if missing := missingProfileFields(req); len(missing) > 0 {
		respondError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	profile := model.BusinessProfile{
		Industry:      req.Industry,
		BusinessModel: req.BusinessModel,
		PresenceMode:  req.PresenceMode,
		TargetMarket:  req.TargetMarket,
		RiskProfile:   req.RiskProfile,
		CustomerType:  req.CustomerType,
		Capital:       req.Capital,
		Regions:       req.Regions,
	}
	if profile.TargetMarket == "" {
		profile.TargetMarket = "Mass Market"
	}

	ranking := s.scorer.Score(profile)

	top := ranking.Ranked
	if len(top) > 5 {
		top = top[:5]
	}
	topMarkets := make([]topMarket, 0, len(top))
	leaders := make([]string, 0, len(top))
	for _, sc := range top {
		topMarkets = append(topMarkets, topMarket{Country: sc.Country, Score: sc.Score})
		leaders = append(leaders, sc.Country)
	}

	chart := marketChartData{}
	for _, sc := range ranking.Ranked {
		chart.Countries = append(chart.Countries, sc.Country)
		chart.Scores = append(chart.Scores, sc.Score)
	}

	explanation, source, warning := s.generator.ExplainScores(r.Context(), profile, ranking, leaders)

	respondSuccess(w, marketEntryData{
		TopMarkets:                topMarkets,
		WeightsUsed:               ranking.Weights,
		Summary:                   market.Summary(profile, leaders),
		ChartData:                 chart,
		MetricBreakdown:           top,
		ExplainableSummary:        explanation,
		ExplainableSummarySource:  source,
		ExplainableSummaryWarning: warning,
		RegionFilterIgnored:       ranking.RegionFilterIgnored,
	}, "Market ranking generated.", "")
}

func missingProfileFields(req marketEntryRequest) []string {
	required := []struct {
		name  string
		value string
	}{
		{"industry", req.Industry},
		{"business_model", req.BusinessModel},
		{"presence_mode", req.PresenceMode},
		{"risk_profile", req.RiskProfile},
		{"customer_type", req.CustomerType},
	}
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

type businessInsightsData struct {
	KpiSummary        model.KpiSummary   `json:"kpi_summary"`
	Clusters          []model.Cluster    `json:"clusters"`
	ChartData         model.ChartData    `json:"chart_data"`
	ForecastData      *model.Forecast    `json:"forecast_data,omitempty"`
	Alerts            []model.Alert      `json:"alerts"`
	GptSummary        string             `json:"gpt_summary"`
	GptSummarySource  model.AnswerSource `json:"gpt_summary_source"`
	GptSummaryWarning string             `json:"gpt_summary_warning,omitempty"`
}

func (s *Server) handleBusinessInsights(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		respondError(w, http.StatusBadRequest, "Content-Type must be multipart/form-data.")
		return
	}

	maxBytes := s.cfg.Server.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			respondError(w, http.StatusRequestEntityTooLarge, "uploaded file is too large")
			return
		}
		respondError(w, http.StatusBadRequest, "unable to parse multipart form")
		return
	}

	file, header, err := r.FormFile("kpi_file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded. Please attach a CSV file.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to read uploaded file")
		return
	}

	frame, err := insights.LoadUpload(header.Filename, data)
	if err != nil {
		respondError(w, http.StatusBadRequest, eris.Cause(err).Error())
		return
	}

	opts := insights.Options{IncludeForecast: true}
	if v := r.FormValue("include_forecast"); v != "" {
		if include, err := strconv.ParseBool(v); err == nil {
			opts.IncludeForecast = include
		}
	}
	if v := r.FormValue("anomaly_threshold"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil || threshold <= 0 || threshold >= 1 {
			respondError(w, http.StatusBadRequest, "anomaly_threshold must be a number between 0 and 1")
			return
		}
		opts.MarginThreshold = threshold
	}

	result, err := s.analyzer.Analyze(frame, opts)
	if err != nil {
		zap.L().Warn("server: business insights failed",
			zap.Error(err),
			zap.String("request_id", RequestIDFrom(r.Context())),
		)
		respondError(w, http.StatusBadRequest, eris.Cause(err).Error())
		return
	}

	summary, source, warning := s.generator.SummarizeInsights(r.Context(), result)

	respondSuccess(w, businessInsightsData{
		KpiSummary:        result.KpiSummary,
		Clusters:          result.Clusters,
		ChartData:         result.ChartData,
		ForecastData:      result.ForecastData,
		Alerts:            result.Alerts,
		GptSummary:        summary,
		GptSummarySource:  source,
		GptSummaryWarning: warning,
	}, "KPI analysis complete.", "")
}

type advisorRequest struct {
	Question string         `json:"question"`
	Context  map[string]any `json:"context"`
}

type advisorData struct {
	Answer string             `json:"answer"`
	Source model.AnswerSource `json:"source"`
}

func (s *Server) handleAdvisor(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		respondError(w, http.StatusTooManyRequests, "advisor is receiving too many requests, retry shortly")
		return
	}

	var req advisorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusBadRequest, "Field 'question' is required.")
		return
	}

	exchange := s.generator.Ask(r.Context(), req.Question, req.Context)

	respondSuccess(w,
		advisorData{Answer: exchange.Answer, Source: exchange.Source},
		"Consulting recommendation generated.",
		exchange.Warning,
	)
}
