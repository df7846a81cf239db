package engine

import (
	"sort"

	"superstore-dashboard-api/pkg/models"
)

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart renders a validated ChartSpec over a filtered view into a
// declarative ChartConfig. Returns nil on an empty view so callers can emit
// a no-data state instead of an empty chart.
func BuildChart(view []models.SalesRecord, spec models.ChartSpec, title string) *models.ChartConfig {
	if len(view) == 0 {
		return nil
	}
	spec = NormalizeChartSpec(spec)

	config := &models.ChartConfig{
		ChartType:  spec.ChartType,
		Title:      title,
		XAxis:      spec.X,
		YAxis:      axisLabel(spec),
		ShowLegend: spec.Color != "",
	}

	if spec.Color != "" && spec.Color != spec.X {
		config.Series = buildColorSeries(view, spec)
	} else {
		config.Series = []models.ChartSeries{{
			Name: axisLabel(spec),
			Data: bucketPoints(view, spec),
		}}
	}

	config.Colors = assignColors(len(config.Series))
	for i := range config.Series {
		config.Series[i].Color = config.Colors[i]
	}
	return config
}

// SalesByCategoryChart, MonthlySalesChart and SalesByRegionChart are the
// dashboard's three static charts.
func SalesByCategoryChart(view []models.SalesRecord) *models.ChartConfig {
	return BuildChart(view, models.ChartSpec{ChartType: "bar", X: "Category", Y: "Sales", Aggregate: "sum"}, "Sales by Category")
}

func MonthlySalesChart(view []models.SalesRecord) *models.ChartConfig {
	return BuildChart(view, models.ChartSpec{ChartType: "line", X: "Order Date", Y: "Sales", Aggregate: "sum"}, "Monthly Sales Trend")
}

func SalesByRegionChart(view []models.SalesRecord) *models.ChartConfig {
	return BuildChart(view, models.ChartSpec{ChartType: "bar", X: "Region", Y: "Sales", Aggregate: "sum"}, "Sales by Region")
}

// bucketPoints groups the view along the x dimension and aggregates the y
// measure per bucket. A scatter without an aggregate plots the raw rows.
func bucketPoints(view []models.SalesRecord, spec models.ChartSpec) []models.ChartPoint {
	key := dimensionKey(spec.X)
	measure := measureValue(spec.Y)

	if spec.ChartType == "scatter" && spec.Aggregate == "" {
		return rawPoints(view, key, measure, spec.X)
	}

	var groups []models.GroupTotal
	if spec.X == "Order Date" {
		groups = GroupSumChronological(view, key, measure)
	} else {
		groups = GroupSum(view, key, measure)
	}

	points := make([]models.ChartPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, models.ChartPoint{Label: g.Key, Value: aggregated(g, spec.Aggregate)})
	}
	return points
}

// rawPoints emits one point per record, in view order. Dates keep their full
// day resolution instead of the monthly grouping key.
func rawPoints(view []models.SalesRecord, key func(models.SalesRecord) string, measure func(models.SalesRecord) float64, x string) []models.ChartPoint {
	points := make([]models.ChartPoint, 0, len(view))
	for _, rec := range view {
		label := key(rec)
		if x == "Order Date" {
			label = rec.OrderDate.Format("2006-01-02")
		}
		points = append(points, models.ChartPoint{Label: label, Value: measure(rec)})
	}
	return points
}

// buildColorSeries produces one series per distinct value of the color
// dimension, each bucketed along the x dimension.
func buildColorSeries(view []models.SalesRecord, spec models.ChartSpec) []models.ChartSeries {
	colorKey := dimensionKey(spec.Color)

	byColor := make(map[string][]models.SalesRecord)
	colorOrder := make([]string, 0)
	for _, rec := range view {
		k := colorKey(rec)
		if k == "" {
			k = "(unknown)"
		}
		if _, ok := byColor[k]; !ok {
			colorOrder = append(colorOrder, k)
		}
		byColor[k] = append(byColor[k], rec)
	}
	sort.Strings(colorOrder)

	series := make([]models.ChartSeries, 0, len(colorOrder))
	for _, k := range colorOrder {
		series = append(series, models.ChartSeries{
			Name: k,
			Data: bucketPoints(byColor[k], spec),
		})
	}
	return series
}

func aggregated(g models.GroupTotal, aggregate string) float64 {
	switch aggregate {
	case "count":
		return float64(g.Count)
	case "mean":
		if g.Count == 0 {
			return 0
		}
		return g.Value / float64(g.Count)
	default: // sum
		return g.Value
	}
}

func dimensionKey(column string) func(models.SalesRecord) string {
	switch column {
	case "Region":
		return byRegion
	case "Segment":
		return bySegment
	case "Order Date":
		return byMonth
	default:
		return byCategory
	}
}

func measureValue(column string) func(models.SalesRecord) float64 {
	switch column {
	case "Profit":
		return profit
	case "Quantity":
		return quantity
	default:
		return sales
	}
}

func axisLabel(spec models.ChartSpec) string {
	switch spec.Aggregate {
	case "count":
		return "Count"
	case "mean":
		return "Average " + spec.Y
	default:
		return spec.Y
	}
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
