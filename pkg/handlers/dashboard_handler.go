package handlers

import (
	"log"
	"net/http"

	"superstore-dashboard-api/pkg/models"
	"superstore-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the filter/metrics/chart pipeline.
type DashboardHandler struct {
	dashboardService *services.DashboardService
	sessionService   *services.SessionService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboardService *services.DashboardService, sessionService *services.SessionService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		sessionService:   sessionService,
	}
}

// HealthCheck is the unauthenticated liveness endpoint.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Superstore Dashboard API",
	})
}

// datasetUnavailable reports the fatal startup load error. The process keeps
// serving so the frontend can render a static error state.
func (h *DashboardHandler) datasetUnavailable(c *gin.Context) bool {
	if err := h.dashboardService.Err(); err != nil {
		log.Printf("❌ Dashboard request rejected, dataset failed to load: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "The sales dataset could not be loaded. The dashboard is unavailable.",
		})
		return true
	}
	return false
}

// GetFilterOptions returns the distinct values per dimension for the
// dashboard's selector controls. Each selector also offers "all".
func (h *DashboardHandler) GetFilterOptions(c *gin.Context) {
	if h.datasetUnavailable(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"options":    h.dashboardService.FilterOptions(),
		"all_option": "all",
	})
}

// GetSummary computes the KPI tiles and grouped breakdowns for the current
// filtered view. Filters come from query parameters, or from the session
// when a session_id is given without explicit filters.
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	if h.datasetUnavailable(c) {
		return
	}

	sel, ok := h.resolveFilters(c)
	if !ok {
		return
	}
	summary := h.dashboardService.Summary(sel)

	response := gin.H{
		"success": true,
		"filters": sel,
		"summary": summary,
	}
	if summary.NoData {
		response["message"] = "No data matches the current filters."
	}
	c.JSON(http.StatusOK, response)
}

// GetCharts renders the three static charts over the current filtered view.
func (h *DashboardHandler) GetCharts(c *gin.Context) {
	if h.datasetUnavailable(c) {
		return
	}

	sel, ok := h.resolveFilters(c)
	if !ok {
		return
	}
	charts := h.dashboardService.StaticCharts(sel)

	noData := true
	for _, chart := range charts {
		if chart != nil {
			noData = false
			break
		}
	}

	response := gin.H{
		"success": true,
		"filters": sel,
		"charts":  charts,
		"no_data": noData,
	}
	if noData {
		response["message"] = "No data matches the current filters."
	}
	c.JSON(http.StatusOK, response)
}

// UpdateSessionFilters stores a new filter selection on the session.
func (h *DashboardHandler) UpdateSessionFilters(c *gin.Context) {
	if h.datasetUnavailable(c) {
		return
	}

	var req struct {
		SessionID string                 `json:"session_id"`
		Filters   models.FilterSelection `json:"filters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body: " + err.Error()})
		return
	}

	session := h.sessionService.UpdateFilters(req.SessionID, req.Filters)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": session.ID,
		"filters":    session.Filters,
	})
}

// GetSessionFilters returns the session's current filter selection.
func (h *DashboardHandler) GetSessionFilters(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "session_id is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sessionID,
		"filters":    h.sessionService.Filters(sessionID),
	})
}

// resolveFilters builds the filter selection for a request. Explicit query
// parameters win; otherwise the session's stored selection applies. A false
// return means the binding error response was already written.
func (h *DashboardHandler) resolveFilters(c *gin.Context) (models.FilterSelection, bool) {
	var sel models.FilterSelection
	if err := c.ShouldBindQuery(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid filter parameters: " + err.Error()})
		return sel, false
	}

	if sel == (models.FilterSelection{}) {
		if sessionID := c.Query("session_id"); sessionID != "" {
			return h.sessionService.Filters(sessionID), true
		}
	}
	return sel, true
}
