package services

import (
	"superstore-dashboard-api/pkg/engine"
	"superstore-dashboard-api/pkg/models"
)

// DashboardService owns the dataset loaded at startup and runs the
// filter → aggregate → chart pipeline for each interaction. The records are
// read-only after construction, so concurrent requests need no locking.
type DashboardService struct {
	records []models.SalesRecord
	loadErr error
	options map[string][]string
}

// NewDashboardService wraps the loaded dataset. When loading failed, pass
// the error instead: the service then reports an error state for every
// dashboard operation while the rest of the process keeps serving.
func NewDashboardService(records []models.SalesRecord, loadErr error) *DashboardService {
	s := &DashboardService{
		records: records,
		loadErr: loadErr,
	}
	if loadErr == nil {
		s.options = engine.DistinctValues(records)
	}
	return s
}

// Err returns the startup load error, if any.
func (s *DashboardService) Err() error { return s.loadErr }

// Records returns the full, unfiltered dataset.
func (s *DashboardService) Records() []models.SalesRecord { return s.records }

// FilterOptions returns the distinct values per filterable dimension,
// computed once at startup.
func (s *DashboardService) FilterOptions() map[string][]string { return s.options }

// FilteredView applies the selection to the full dataset.
func (s *DashboardService) FilteredView(sel models.FilterSelection) []models.SalesRecord {
	return engine.Apply(s.records, sel)
}

// Summary computes the metric summary over the current filtered view.
func (s *DashboardService) Summary(sel models.FilterSelection) models.MetricSummary {
	return engine.Summarize(s.FilteredView(sel))
}

// StaticCharts renders the dashboard's three fixed charts over the current
// filtered view. On an empty view all entries are nil, which the handler
// reports as a no-data state.
func (s *DashboardService) StaticCharts(sel models.FilterSelection) map[string]*models.ChartConfig {
	view := s.FilteredView(sel)
	return map[string]*models.ChartConfig{
		"sales_by_category": engine.SalesByCategoryChart(view),
		"monthly_sales":     engine.MonthlySalesChart(view),
		"sales_by_region":   engine.SalesByRegionChart(view),
	}
}
