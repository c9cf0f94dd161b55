package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/consultai/internal/advisor"
	"github.com/sells-group/consultai/internal/config"
	"github.com/sells-group/consultai/internal/insights"
	"github.com/sells-group/consultai/internal/market"
	"github.com/sells-group/consultai/internal/model"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 0, MaxUploadMB: 10},
		Insights: config.InsightsConfig{
			ForecastPeriods:    12,
			LowMarginThreshold: 0.15,
			DiscountThreshold:  0.3,
			MaxAlerts:          5,
		},
		Advisor: config.AdvisorConfig{RateLimitRPS: 100, RateLimitBurst: 100},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	table, err := market.LoadDataset("")
	require.NoError(t, err)
	rules, err := market.LoadRuleTable()
	require.NoError(t, err)
	scorer, err := market.NewScorer(table, market.NewWeightDeriver(rules), 10)
	require.NoError(t, err)

	cfg := testConfig()
	return New(cfg,
		scorer,
		insights.NewAnalyzer(cfg.Insights),
		advisor.New(nil, cfg.Anthropic),
	)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMarketEntry(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	payload := `{
		"industry": "Technology",
		"business_model": "Online",
		"presence_mode": "Digital",
		"risk_profile": "Medium",
		"customer_type": "B2C",
		"capital": 2000000
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/market-entry", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "success", body["status"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)

	top, ok := data["top_markets"].([]any)
	require.True(t, ok)
	assert.Len(t, top, 5)
	first, ok := top[0].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, first["Country"])
	assert.NotZero(t, first["Score"])

	weights, ok := data["weights_used"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, weights, len(model.ScoringMetrics))

	assert.NotEmpty(t, data["summary"])
	assert.NotEmpty(t, data["explainable_summary"])
	assert.Equal(t, string(model.SourceFallback), data["explainable_summary_source"])
	assert.NotEmpty(t, data["explainable_summary_warning"])

	chart, ok := data["chart_data"].(map[string]any)
	require.True(t, ok)
	countries, ok := chart["countries"].([]any)
	require.True(t, ok)
	assert.Len(t, countries, 10)
}

func TestMarketEntryMissingFields(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/market-entry",
		strings.NewReader(`{"industry": "Technology"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "error", body["status"])
	msg, _ := body["message"].(string)
	assert.Contains(t, msg, "Missing required fields:")
	assert.Contains(t, msg, "business_model")
	assert.NotContains(t, msg, "industry,")
}

func TestMarketEntryInvalidJSON(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/market-entry", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarketEntryUnknownRegionFallsBack(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	payload := `{
		"industry": "Retail",
		"business_model": "Franchise",
		"presence_mode": "Physical",
		"risk_profile": "Low",
		"customer_type": "B2B",
		"regions": ["Atlantis"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/market-entry", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, true, data["region_filter_ignored"])
}

func multipartUpload(t *testing.T, field, filename, content string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range extra {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

const kpiCSV = `Order Date,Product,Segment,Sales,Profit,Discount
2024-01-05,Widget,Consumer,1000,200,0.0
2024-01-18,Gadget,Corporate,2000,600,0.1
2024-02-02,Widget,Consumer,1500,300,0.0
2024-02-20,Cog,Home Office,800,-120,0.5
2024-03-03,Gadget,Corporate,2200,700,0.0
2024-03-15,Sprocket,Consumer,600,30,0.2
`

func TestBusinessInsights(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	buf, contentType := multipartUpload(t, "kpi_file", "kpis.csv", kpiCSV, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/business-insights", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]any)
	kpi, ok := data["kpi_summary"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 8100, kpi["total_revenue"].(float64), 1e-9)
	assert.NotEmpty(t, data["clusters"])
	assert.NotNil(t, data["forecast_data"])
	assert.NotEmpty(t, data["gpt_summary"])
	assert.Equal(t, string(model.SourceFallback), data["gpt_summary_source"])
}

func TestBusinessInsightsForecastToggle(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	buf, contentType := multipartUpload(t, "kpi_file", "kpis.csv", kpiCSV,
		map[string]string{"include_forecast": "false"})
	req := httptest.NewRequest(http.MethodPost, "/api/business-insights", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	_, present := data["forecast_data"]
	assert.False(t, present)
}

func TestBusinessInsightsBadThreshold(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	for _, threshold := range []string{"0", "1", "-0.5", "abc"} {
		buf, contentType := multipartUpload(t, "kpi_file", "kpis.csv", kpiCSV,
			map[string]string{"anomaly_threshold": threshold})
		req := httptest.NewRequest(http.MethodPost, "/api/business-insights", buf)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "threshold %q", threshold)
	}
}

func TestBusinessInsightsNoFile(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("include_forecast", "true"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/business-insights", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Contains(t, body["message"], "No file uploaded")
}

func TestBusinessInsightsWrongContentType(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/business-insights", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBusinessInsightsUnusableData(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	buf, contentType := multipartUpload(t, "kpi_file", "notes.csv",
		"Note,Author\nhello,me\nworld,you\nagain,them\nmore,us\n", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/business-insights", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Contains(t, body["message"], "numeric columns")
}

func TestAdvisor(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	payload := `{"question": "Should we expand into Asia?", "context": {"capital": 500000}}`
	req := httptest.NewRequest(http.MethodPost, "/api/advisor", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["warning"], "fallback path surfaces a warning")

	data := body["data"].(map[string]any)
	assert.Equal(t, string(model.SourceFallback), data["source"])
	answer, _ := data["answer"].(string)
	assert.Contains(t, answer, "market-entry decision")
}

func TestAdvisorMissingQuestion(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/advisor", strings.NewReader(`{"question": "  "}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Field 'question' is required.", body["message"])
}

func TestAdvisorRateLimited(t *testing.T) {
	t.Parallel()

	table, err := market.LoadDataset("")
	require.NoError(t, err)
	rules, err := market.LoadRuleTable()
	require.NoError(t, err)
	scorer, err := market.NewScorer(table, market.NewWeightDeriver(rules), 10)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Advisor = config.AdvisorConfig{RateLimitRPS: 0.001, RateLimitBurst: 1}
	srv := New(cfg, scorer, insights.NewAnalyzer(cfg.Insights), advisor.New(nil, cfg.Anthropic))
	router := srv.Router()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/advisor",
			strings.NewReader(`{"question": "hello"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if i == 0 {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}
