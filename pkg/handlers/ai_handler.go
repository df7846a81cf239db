package handlers

import (
	"errors"
	"log"
	"net/http"

	"superstore-dashboard-api/pkg/engine"
	"superstore-dashboard-api/pkg/models"
	"superstore-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// AIHandler serves the AI bridge endpoints: chat about the current filtered
// view and AI-described custom charts.
type AIHandler struct {
	aiService        *services.AIService
	dashboardService *services.DashboardService
	sessionService   *services.SessionService
}

// NewAIHandler creates a new AI handler. aiService may be nil when the
// Gemini API key is not configured; the AI endpoints then report a static
// configuration message while the rest of the dashboard stays usable.
func NewAIHandler(aiService *services.AIService, dashboardService *services.DashboardService, sessionService *services.SessionService) *AIHandler {
	return &AIHandler{
		aiService:        aiService,
		dashboardService: dashboardService,
		sessionService:   sessionService,
	}
}

func (h *AIHandler) aiUnconfigured(c *gin.Context) bool {
	if h.aiService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "The AI assistant is not configured. Set GEMINI_API_KEY to enable it.",
		})
		return true
	}
	return false
}

// Chat answers a free-text question about the current filtered view. The
// question and the answer are appended to the session transcript.
func (h *AIHandler) Chat(c *gin.Context) {
	if h.aiUnconfigured(c) {
		return
	}
	if err := h.dashboardService.Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "The sales dataset could not be loaded."})
		return
	}

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body: " + err.Error()})
		return
	}

	session := h.sessionService.GetOrCreate(req.SessionID)
	sel := session.Filters
	if req.Filters != nil {
		sel = *req.Filters
		h.sessionService.UpdateFilters(session.ID, sel)
	}

	view := h.dashboardService.FilteredView(sel)
	summary := engine.Summarize(view)

	h.sessionService.AppendMessage(session.ID, "user", req.Message)

	answer, err := h.aiService.AnswerQuestion(c.Request.Context(), req.Message, view, summary)
	if err != nil {
		h.renderAIError(c, session.ID, err)
		return
	}

	h.sessionService.AppendMessage(session.ID, "assistant", answer)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": session.ID,
		"answer":     answer,
		"row_count":  summary.RowCount,
	})
}

// CreateChart turns a free-text chart request into a validated chart spec
// and renders it over the current filtered view. Unrecognized chart
// descriptions fall back to the default chart rather than failing.
func (h *AIHandler) CreateChart(c *gin.Context) {
	if h.aiUnconfigured(c) {
		return
	}
	if err := h.dashboardService.Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "The sales dataset could not be loaded."})
		return
	}

	var req models.ChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body: " + err.Error()})
		return
	}

	session := h.sessionService.GetOrCreate(req.SessionID)
	sel := session.Filters
	if req.Filters != nil {
		sel = *req.Filters
		h.sessionService.UpdateFilters(session.ID, sel)
	}

	spec, err := h.aiService.GenerateChartSpec(c.Request.Context(), req.Request)
	if err != nil {
		h.renderAIError(c, session.ID, err)
		return
	}

	view := h.dashboardService.FilteredView(sel)
	chart := engine.BuildChart(view, spec, req.Request)

	response := gin.H{
		"success":    true,
		"session_id": session.ID,
		"spec":       spec,
		"chart":      chart,
	}
	if chart == nil {
		response["message"] = "No data matches the current filters."
	}
	c.JSON(http.StatusOK, response)
}

// GetHistory returns the session's chat transcript.
func (h *AIHandler) GetHistory(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "session_id is required"})
		return
	}
	history := h.sessionService.History(sessionID)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sessionID,
		"history":    history,
	})
}

// renderAIError maps AI bridge errors onto inline, non-fatal responses.
// Nothing is retried; the user re-triggers the action to retry.
func (h *AIHandler) renderAIError(c *gin.Context, sessionID string, err error) {
	log.Printf("⚠️ AI bridge error (session %s): %v", sessionID, err)

	switch {
	case errors.Is(err, services.ErrAIUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success":    false,
			"session_id": sessionID,
			"error":      "AI unavailable, try again.",
		})
	case errors.Is(err, services.ErrAIResponse):
		c.JSON(http.StatusBadGateway, gin.H{
			"success":    false,
			"session_id": sessionID,
			"error":      "The AI returned an unusable response, try again.",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"session_id": sessionID,
			"error":      "AI request failed: " + err.Error(),
		})
	}
}
