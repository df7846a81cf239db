package services

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LogEntry records a single handled request.
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService keeps an in-memory log of handled requests.
type MonitoringService struct {
	logs []LogEntry
	mu   sync.RWMutex
}

// NewMonitoringService creates an empty request log.
func NewMonitoringService() *MonitoringService {
	return &MonitoringService{
		logs: make([]LogEntry, 0),
	}
}

// LogRequest records one request.
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
}

// LoggingMiddleware records request information for every handled request,
// except for the monitoring endpoints themselves.
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/monitoring") {
			return
		}

		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: time.Since(start),
		})
	}
}

// RequestStats is the aggregated view of the request log.
type RequestStats struct {
	TotalRequests    int              `json:"total_requests"`
	Endpoints        map[string]int   `json:"endpoints"`
	StatusClasses    map[string]int   `json:"status_classes"`
	AvgResponseTimes map[string]int64 `json:"avg_response_times_ms"`
	RecentErrors     []LogEntry       `json:"recent_errors"`
}

// GetStats aggregates the log over the given trailing period.
func (s *MonitoringService) GetStats(period time.Duration) RequestStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since := time.Now().Add(-period)

	stats := RequestStats{
		Endpoints:        make(map[string]int),
		StatusClasses:    map[string]int{"2xx": 0, "4xx": 0, "5xx": 0},
		AvgResponseTimes: make(map[string]int64),
		RecentErrors:     make([]LogEntry, 0),
	}

	responseTimeSum := make(map[string]time.Duration)
	for _, entry := range s.logs {
		if entry.Timestamp.Before(since) {
			continue
		}
		stats.TotalRequests++
		stats.Endpoints[entry.Path]++
		responseTimeSum[entry.Path] += entry.ResponseTime

		switch {
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			stats.StatusClasses["2xx"]++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			stats.StatusClasses["4xx"]++
		case entry.StatusCode >= 500:
			stats.StatusClasses["5xx"]++
		}
	}

	for path, total := range responseTimeSum {
		stats.AvgResponseTimes[path] = total.Milliseconds() / int64(stats.Endpoints[path])
	}

	// Most recent server errors first, capped at 10.
	for i := len(s.logs) - 1; i >= 0 && len(stats.RecentErrors) < 10; i-- {
		if s.logs[i].StatusCode >= 500 && !s.logs[i].Timestamp.Before(since) {
			stats.RecentErrors = append(stats.RecentErrors, s.logs[i])
		}
	}

	return stats
}
