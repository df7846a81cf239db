package handlers

import (
	"net/http"
	"strconv"
	"time"

	"superstore-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler exposes the in-memory request log.
type MonitoringHandler struct {
	monitoringService *services.MonitoringService
}

// NewMonitoringHandler creates a new monitoring handler.
func NewMonitoringHandler(monitoringService *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{monitoringService: monitoringService}
}

// GetStats returns aggregated request statistics for the trailing period
// (default 24 hours, ?hours=N to override).
func (h *MonitoringHandler) GetStats(c *gin.Context) {
	hours := 24
	if v := c.Query("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"period":  hours,
		"stats":   h.monitoringService.GetStats(time.Duration(hours) * time.Hour),
	})
}
