package models

import "time"

// SalesRecord is one transactional row from the Superstore dataset.
// Records are immutable once loaded.
type SalesRecord struct {
	OrderID   string    `json:"order_id"`
	OrderDate time.Time `json:"order_date"`
	Region    string    `json:"region"`
	Segment   string    `json:"segment"`
	Category  string    `json:"category"`
	Sales     float64   `json:"sales"`
	Profit    float64   `json:"profit"`
	Quantity  int       `json:"quantity"`
}

// FilterSelection is the user's current choice of dimension constraints.
// An empty value or "all" leaves that dimension unconstrained.
type FilterSelection struct {
	Region   string `json:"region" form:"region"`
	Segment  string `json:"segment" form:"segment"`
	Category string `json:"category" form:"category"`
	Year     string `json:"year" form:"year"`
	Month    string `json:"month" form:"month"`
}

// GroupTotal is one bucket of a grouped breakdown.
type GroupTotal struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// MetricSummary holds the KPI scalars and grouped breakdowns computed over a
// filtered view. All values are zero and all groupings empty when the view
// has no rows.
type MetricSummary struct {
	RowCount      int     `json:"row_count"`
	OrderCount    int     `json:"order_count"`
	TotalSales    float64 `json:"total_sales"`
	TotalProfit   float64 `json:"total_profit"`
	TotalQuantity int     `json:"total_quantity"`
	NoData        bool    `json:"no_data"`

	SalesByRegion    []GroupTotal `json:"sales_by_region"`
	SalesByCategory  []GroupTotal `json:"sales_by_category"`
	ProfitByCategory []GroupTotal `json:"profit_by_category"`
	SalesByMonth     []GroupTotal `json:"sales_by_month"`
}

// ChartSpec is the closed, validated form of a chart description. It is what
// the AI assistant is asked to produce and the only shape the renderer trusts.
type ChartSpec struct {
	ChartType string `json:"chart_type"`
	X         string `json:"x"`
	Y         string `json:"y"`
	Color     string `json:"color,omitempty"`
	Aggregate string `json:"aggregate,omitempty"`
}

// ChartConfig is the declarative, render-ready chart description returned to
// the frontend.
type ChartConfig struct {
	ChartType  string        `json:"chart_type"`
	Title      string        `json:"title"`
	XAxis      string        `json:"x_axis"`
	YAxis      string        `json:"y_axis"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"show_legend"`
}

// ChartSeries is a single data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Color string       `json:"color,omitempty"`
	Data  []ChartPoint `json:"data"`
}

// ChartPoint is a single labelled value.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChatMessage is one entry in a session's chat transcript.
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the request body for the chat endpoint.
type ChatRequest struct {
	SessionID string           `json:"session_id"`
	Message   string           `json:"message" binding:"required"`
	Filters   *FilterSelection `json:"filters,omitempty"`
}

// ChartRequest is the request body for the AI chart endpoint.
type ChartRequest struct {
	SessionID string           `json:"session_id"`
	Request   string           `json:"request" binding:"required"`
	Filters   *FilterSelection `json:"filters,omitempty"`
}
