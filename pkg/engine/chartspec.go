package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"superstore-dashboard-api/pkg/models"
)

// Supported chart vocabulary. Anything outside these sets is replaced by the
// default rather than trusted.
var (
	supportedChartTypes = map[string]bool{"bar": true, "line": true, "scatter": true}

	categoricalColumns = map[string]string{
		"region":     "Region",
		"segment":    "Segment",
		"category":   "Category",
		"order date": "Order Date",
		"order_date": "Order Date",
		"month":      "Order Date",
		"date":       "Order Date",
	}

	numericColumns = map[string]string{
		"sales":    "Sales",
		"profit":   "Profit",
		"quantity": "Quantity",
	}

	supportedAggregates = map[string]bool{"sum": true, "mean": true, "count": true}
)

// DefaultChartSpec is the fallback when a chart description cannot be parsed
// or names unknown fields: bar chart of sum of Sales by Category.
func DefaultChartSpec() models.ChartSpec {
	return models.ChartSpec{
		ChartType: "bar",
		X:         "Category",
		Y:         "Sales",
		Aggregate: "sum",
	}
}

// ParseChartSpec extracts a ChartSpec from raw AI response text. The model
// is asked for a bare JSON object but routinely wraps it in markdown fences
// or prose, so the parser keeps only the content between the first "{" and
// the last "}". A response with no JSON object at all is an error; a spec
// with unrecognized fields is normalized to supported values instead.
func ParseChartSpec(raw string) (models.ChartSpec, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return models.ChartSpec{}, fmt.Errorf("empty chart response")
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return models.ChartSpec{}, fmt.Errorf("no JSON object found in chart response")
	}

	var spec models.ChartSpec
	if err := json.Unmarshal([]byte(raw[start:end+1]), &spec); err != nil {
		return models.ChartSpec{}, fmt.Errorf("failed to parse chart spec: %w", err)
	}

	return NormalizeChartSpec(spec), nil
}

// NormalizeChartSpec clamps a spec to the supported vocabulary, falling back
// to defaults for unrecognized entries.
func NormalizeChartSpec(spec models.ChartSpec) models.ChartSpec {
	def := DefaultChartSpec()

	spec.ChartType = strings.ToLower(strings.TrimSpace(spec.ChartType))
	if !supportedChartTypes[spec.ChartType] {
		spec.ChartType = def.ChartType
	}

	if canonical, ok := categoricalColumns[strings.ToLower(strings.TrimSpace(spec.X))]; ok {
		spec.X = canonical
	} else {
		spec.X = def.X
	}

	if canonical, ok := numericColumns[strings.ToLower(strings.TrimSpace(spec.Y))]; ok {
		spec.Y = canonical
	} else {
		spec.Y = def.Y
	}

	if canonical, ok := categoricalColumns[strings.ToLower(strings.TrimSpace(spec.Color))]; ok {
		spec.Color = canonical
	} else {
		spec.Color = ""
	}

	spec.Aggregate = strings.ToLower(strings.TrimSpace(spec.Aggregate))
	if !supportedAggregates[spec.Aggregate] {
		// Scatter plots raw rows unless an aggregate is asked for.
		if spec.ChartType == "scatter" {
			spec.Aggregate = ""
		} else {
			spec.Aggregate = def.Aggregate
		}
	}

	return spec
}
