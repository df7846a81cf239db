package engine

import (
	"sort"

	"superstore-dashboard-api/pkg/models"
)

// Summarize computes the KPI scalars and grouped breakdowns for a filtered
// view. It is a pure function of its input: an empty view produces zero
// scalars and empty groupings, never an error.
func Summarize(view []models.SalesRecord) models.MetricSummary {
	summary := models.MetricSummary{
		RowCount: len(view),
		NoData:   len(view) == 0,
	}
	if len(view) == 0 {
		return summary
	}

	orders := make(map[string]bool)
	for _, rec := range view {
		summary.TotalSales += rec.Sales
		summary.TotalProfit += rec.Profit
		summary.TotalQuantity += rec.Quantity
		if rec.OrderID != "" {
			orders[rec.OrderID] = true
		}
	}

	// Distinct order count needs the optional Order ID column; without it
	// every row counts as its own order.
	summary.OrderCount = len(orders)
	if summary.OrderCount == 0 {
		summary.OrderCount = len(view)
	}

	summary.SalesByRegion = GroupSum(view, byRegion, sales)
	summary.SalesByCategory = GroupSum(view, byCategory, sales)
	summary.ProfitByCategory = GroupSum(view, byCategory, profit)
	summary.SalesByMonth = GroupSumChronological(view, byMonth, sales)

	return summary
}

// Key and value extractors for grouping.
func byRegion(rec models.SalesRecord) string   { return rec.Region }
func byCategory(rec models.SalesRecord) string { return rec.Category }
func byMonth(rec models.SalesRecord) string    { return rec.OrderDate.Format("2006-01") }
func bySegment(rec models.SalesRecord) string  { return rec.Segment }

func sales(rec models.SalesRecord) float64    { return rec.Sales }
func profit(rec models.SalesRecord) float64   { return rec.Profit }
func quantity(rec models.SalesRecord) float64 { return float64(rec.Quantity) }

// GroupSum groups a view by key and sums a measure per group, sorted by
// descending value.
func GroupSum(view []models.SalesRecord, key func(models.SalesRecord) string, measure func(models.SalesRecord) float64) []models.GroupTotal {
	groups := groupTotals(view, key, measure)
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Value != groups[j].Value {
			return groups[i].Value > groups[j].Value
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// GroupSumChronological is GroupSum ordered by group key instead of value.
// Month keys are "2006-01" strings, so lexical order is chronological.
func GroupSumChronological(view []models.SalesRecord, key func(models.SalesRecord) string, measure func(models.SalesRecord) float64) []models.GroupTotal {
	groups := groupTotals(view, key, measure)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

func groupTotals(view []models.SalesRecord, key func(models.SalesRecord) string, measure func(models.SalesRecord) float64) []models.GroupTotal {
	if len(view) == 0 {
		return nil
	}

	totals := make(map[string]*models.GroupTotal)
	order := make([]string, 0)
	for _, rec := range view {
		k := key(rec)
		if k == "" {
			k = "(unknown)"
		}
		g, ok := totals[k]
		if !ok {
			g = &models.GroupTotal{Key: k}
			totals[k] = g
			order = append(order, k)
		}
		g.Value += measure(rec)
		g.Count++
	}

	groups := make([]models.GroupTotal, 0, len(order))
	for _, k := range order {
		groups = append(groups, *totals[k])
	}
	return groups
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
