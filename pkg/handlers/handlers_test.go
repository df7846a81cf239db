package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"superstore-dashboard-api/pkg/dataset"
	"superstore-dashboard-api/pkg/gemini"
	"superstore-dashboard-api/pkg/models"
	"superstore-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureRecords() []models.SalesRecord {
	return []models.SalesRecord{
		{
			OrderID:   "US-001",
			OrderDate: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC),
			Region:    "West",
			Segment:   "Consumer",
			Category:  "Technology",
			Sales:     500,
			Profit:    100,
			Quantity:  2,
		},
		{
			OrderID:   "US-002",
			OrderDate: time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC),
			Region:    "East",
			Segment:   "Corporate",
			Category:  "Furniture",
			Sales:     300,
			Profit:    -20,
			Quantity:  1,
		},
	}
}

// newTestRouter wires the full route table the way cmd/server does, backed
// by fixture data and an optional AI service.
func newTestRouter(dashboardService *services.DashboardService, aiService *services.AIService) (*gin.Engine, *services.SessionService) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	sessionService := services.NewSessionService()
	dashboardHandler := NewDashboardHandler(dashboardService, sessionService)
	aiHandler := NewAIHandler(aiService, dashboardService, sessionService)

	router.GET("/health", HealthCheck)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/dashboard/filters", dashboardHandler.GetFilterOptions)
		v1.GET("/dashboard/summary", dashboardHandler.GetSummary)
		v1.GET("/dashboard/charts", dashboardHandler.GetCharts)
		v1.PUT("/session/filters", dashboardHandler.UpdateSessionFilters)
		v1.GET("/session/filters", dashboardHandler.GetSessionFilters)
		v1.POST("/ai/chat", aiHandler.Chat)
		v1.POST("/ai/chart", aiHandler.CreateChart)
		v1.GET("/ai/history", aiHandler.GetHistory)
	}
	return router, sessionService
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), nil)

	w := doRequest(t, router, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestGetFilterOptions(t *testing.T) {
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), nil)

	w := doRequest(t, router, "GET", "/api/v1/dashboard/filters", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "West")
	assert.Contains(t, w.Body.String(), "Furniture")
	assert.Contains(t, w.Body.String(), "all_option")
}

func TestGetSummaryFiltered(t *testing.T) {
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), nil)

	w := doRequest(t, router, "GET", "/api/v1/dashboard/summary?region=West", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	summary := body["summary"].(map[string]interface{})
	assert.InDelta(t, 500.0, summary["total_sales"].(float64), 0.001)
	assert.InDelta(t, 100.0, summary["total_profit"].(float64), 0.001)
	assert.Equal(t, float64(1), summary["row_count"])
	assert.Equal(t, false, summary["no_data"])
}

// Query binding accepts unknown parameters without failing the request.
func TestGetSummaryIgnoresUnknownParams(t *testing.T) {
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), nil)

	w := doRequest(t, router, "GET", "/api/v1/dashboard/summary?region=West&bogus=1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	summary := decodeBody(t, w)["summary"].(map[string]interface{})
	assert.InDelta(t, 500.0, summary["total_sales"].(float64), 0.001)
}

func TestGetSummaryNoData(t *testing.T) {
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), nil)

	w := doRequest(t, router, "GET", "/api/v1/dashboard/summary?region=South", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, true, summary["no_data"])
	assert.Contains(t, w.Body.String(), "No data matches the current filters.")
}

func TestDashboardUnavailableAfterLoadError(t *testing.T) {
	loadErr := &dataset.LoadError{Path: "missing.xlsx", Reason: "file not found"}
	router, _ := newTestRouter(services.NewDashboardService(nil, loadErr), nil)

	for _, path := range []string{
		"/api/v1/dashboard/filters",
		"/api/v1/dashboard/summary",
		"/api/v1/dashboard/charts",
	} {
		w := doRequest(t, router, "GET", path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Contains(t, w.Body.String(), "dataset could not be loaded")
	}
}

func TestSessionFiltersRoundTrip(t *testing.T) {
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), nil)

	w := doRequest(t, router, "PUT", "/api/v1/session/filters", map[string]interface{}{
		"filters": map[string]string{"region": "East"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := decodeBody(t, w)["session_id"].(string)
	require.NotEmpty(t, sessionID)

	// The stored selection drives the summary when no explicit filters are
	// given.
	w = doRequest(t, router, "GET", "/api/v1/dashboard/summary?session_id="+sessionID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	summary := decodeBody(t, w)["summary"].(map[string]interface{})
	assert.InDelta(t, 300.0, summary["total_sales"].(float64), 0.001)

	w = doRequest(t, router, "GET", "/api/v1/session/filters?session_id="+sessionID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "East")
}

func TestGetCharts(t *testing.T) {
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), nil)

	w := doRequest(t, router, "GET", "/api/v1/dashboard/charts", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	charts := body["charts"].(map[string]interface{})
	assert.Contains(t, charts, "sales_by_category")
	assert.Contains(t, charts, "monthly_sales")
	assert.Contains(t, charts, "sales_by_region")
	assert.Equal(t, false, body["no_data"])
}

func TestChatWithoutAPIKey(t *testing.T) {
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), nil)

	w := doRequest(t, router, "POST", "/api/v1/ai/chat", models.ChatRequest{Message: "hi"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
}

func stubAIService(t *testing.T, responseText string, status int) *services.AIService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"code":500,"message":"boom"}}`))
			return
		}
		payload := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": responseText}}}},
			},
		}
		json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(server.Close)

	client := gemini.NewClient(server.URL, "test-key", "test-model", 2*time.Second)
	return services.NewAIService(client, 200)
}

func TestChatFlow(t *testing.T) {
	aiService := stubAIService(t, "West leads with 500 in sales.", http.StatusOK)
	router, sessionService := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), aiService)

	w := doRequest(t, router, "POST", "/api/v1/ai/chat", models.ChatRequest{
		Message: "Which region leads?",
		Filters: &models.FilterSelection{Region: "West"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "West leads with 500 in sales.", body["answer"])

	sessionID := body["session_id"].(string)
	history := sessionService.History(sessionID)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)

	// Transcript is also served over the API.
	w = doRequest(t, router, "GET", "/api/v1/ai/history?session_id="+sessionID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Which region leads?")
}

func TestChatAIUnavailable(t *testing.T) {
	aiService := stubAIService(t, "", http.StatusInternalServerError)
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), aiService)

	w := doRequest(t, router, "POST", "/api/v1/ai/chat", models.ChatRequest{Message: "hi"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "AI unavailable, try again.")

	// Dashboard endpoints are unaffected by the AI failure.
	w = doRequest(t, router, "GET", "/api/v1/dashboard/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateChartFromAISpec(t *testing.T) {
	aiService := stubAIService(t, `{"chart_type":"bar","x":"Region","y":"Sales","aggregate":"sum"}`, http.StatusOK)
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), aiService)

	w := doRequest(t, router, "POST", "/api/v1/ai/chart", models.ChartRequest{Request: "sales by region"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	spec := body["spec"].(map[string]interface{})
	assert.Equal(t, "bar", spec["chart_type"])
	chart := body["chart"].(map[string]interface{})
	assert.Equal(t, "Region", chart["x_axis"])
}

func TestCreateChartUnusableResponse(t *testing.T) {
	aiService := stubAIService(t, "no JSON here", http.StatusOK)
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), aiService)

	w := doRequest(t, router, "POST", "/api/v1/ai/chart", models.ChartRequest{Request: "sales by region"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "unusable response")
}

func TestChatValidation(t *testing.T) {
	aiService := stubAIService(t, "unused", http.StatusOK)
	router, _ := newTestRouter(services.NewDashboardService(fixtureRecords(), nil), aiService)

	w := doRequest(t, router, "POST", "/api/v1/ai/chat", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
