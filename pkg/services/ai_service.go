package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"superstore-dashboard-api/pkg/engine"
	"superstore-dashboard-api/pkg/gemini"
	"superstore-dashboard-api/pkg/models"
)

// Sentinel errors for the AI bridge. Both are per-request and non-fatal:
// handlers surface them as inline messages and the rest of the dashboard
// stays interactive.
var (
	// ErrAIUnavailable covers network failures, timeouts and upstream
	// API errors. The user is told to try again.
	ErrAIUnavailable = errors.New("AI assistant is unavailable")
	// ErrAIResponse covers empty or malformed model output.
	ErrAIResponse = errors.New("AI assistant returned an invalid response")
)

// chartSystemPrompt asks the model for a bare JSON chart spec over the
// supported column vocabulary.
const chartSystemPrompt = `You are a data visualization assistant.
The user will ask for a chart based on the Superstore sales data.

You must respond ONLY with a small JSON object, no extra words.
Structure:

{
  "chart_type": "bar" | "line" | "scatter",
  "x": "<column_name>",
  "y": "<column_name>",
  "color": "<column_name or null>",
  "aggregate": "sum" | "mean" | "count" | null
}

Constraints:
- Valid numeric columns: "Sales", "Profit", "Quantity".
- Valid categorical columns: "Region", "Segment", "Category", "Order Date".
- If the user mentions time or date, use "Order Date" as x with chart_type "line" and aggregate "sum" on Sales.
- If unsure, default to bar chart of sum of Sales by Category.`

const chatSystemPrompt = `You are a helpful data analyst working on Superstore sales data. ` +
	`You are given aggregate metrics and a sample of the currently filtered dataset as CSV. ` +
	`Use only this data to answer. Be concise and mention numbers.`

// AIService is the bridge between the dashboard and the external language
// model. Every call is a single synchronous attempt with no caching; each
// one consumes externally billed API quota.
type AIService struct {
	client        *gemini.Client
	maxSampleRows int
}

// NewAIService creates the AI bridge. maxSampleRows bounds the CSV sample
// embedded in chat prompts.
func NewAIService(client *gemini.Client, maxSampleRows int) *AIService {
	if maxSampleRows <= 0 {
		maxSampleRows = 200
	}
	return &AIService{
		client:        client,
		maxSampleRows: maxSampleRows,
	}
}

// AnswerQuestion sends the user's question together with a bounded digest of
// the current filtered view and returns the model's answer.
func (s *AIService) AnswerQuestion(ctx context.Context, question string, view []models.SalesRecord, summary models.MetricSummary) (string, error) {
	prompt := chatSystemPrompt + "\n\nHere is the data:\n" +
		s.BuildDataDigest(view, summary) +
		"\nUser question: " + question

	start := time.Now()
	answer, err := s.client.GenerateContent(ctx, prompt, gemini.GenerationConfig{
		MaxOutputTokens: 400,
		Temperature:     0.3,
	})
	if err != nil {
		return "", classify(err)
	}
	log.Printf("🤖 AI chat answered in %v (%d chars)", time.Since(start), len(answer))

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", ErrAIResponse)
	}
	return answer, nil
}

// GenerateChartSpec asks the model to translate a free-text chart request
// into a validated ChartSpec. Unrecognized chart kinds inside an otherwise
// valid response fall back to the default spec; a response with no JSON at
// all is an ErrAIResponse.
func (s *AIService) GenerateChartSpec(ctx context.Context, request string) (models.ChartSpec, error) {
	prompt := chartSystemPrompt + "\nUser request: " + request

	raw, err := s.client.GenerateContent(ctx, prompt, gemini.GenerationConfig{
		MaxOutputTokens: 200,
		Temperature:     0.2,
	})
	if err != nil {
		return models.ChartSpec{}, classify(err)
	}

	spec, err := engine.ParseChartSpec(raw)
	if err != nil {
		return models.ChartSpec{}, fmt.Errorf("%w: %v", ErrAIResponse, err)
	}

	log.Printf("🤖 AI chart spec: type=%s x=%s y=%s", spec.ChartType, spec.X, spec.Y)
	return spec, nil
}

// BuildDataDigest serializes a bounded textual description of the filtered
// view: row counts, aggregate values and a capped CSV sample. The full
// dataset is never sent.
func (s *AIService) BuildDataDigest(view []models.SalesRecord, summary models.MetricSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Rows in current view: %d\n", summary.RowCount))
	b.WriteString(fmt.Sprintf("Total sales: %.2f\nTotal profit: %.2f\nOrder count: %d\nTotal quantity: %d\n",
		summary.TotalSales, summary.TotalProfit, summary.OrderCount, summary.TotalQuantity))

	writeGroups := func(name string, groups []models.GroupTotal) {
		if len(groups) == 0 {
			return
		}
		b.WriteString(name + ":\n")
		for _, g := range groups {
			b.WriteString(fmt.Sprintf("- %s: %.2f\n", g.Key, g.Value))
		}
	}
	writeGroups("Sales by region", summary.SalesByRegion)
	writeGroups("Sales by category", summary.SalesByCategory)
	writeGroups("Profit by category", summary.ProfitByCategory)

	sample := view
	if len(sample) > s.maxSampleRows {
		sample = sample[:s.maxSampleRows]
	}
	if len(sample) > 0 {
		b.WriteString(fmt.Sprintf("\nData sample (%d of %d rows) as CSV:\n", len(sample), len(view)))
		b.WriteString("Order Date,Region,Segment,Category,Sales,Profit,Quantity\n")
		for _, rec := range sample {
			b.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.2f,%.2f,%d\n",
				rec.OrderDate.Format("2006-01-02"), rec.Region, rec.Segment, rec.Category,
				rec.Sales, rec.Profit, rec.Quantity))
		}
	}

	return b.String()
}

// classify maps a Gemini client error onto the bridge's error taxonomy.
func classify(err error) error {
	if errors.Is(err, gemini.ErrEmptyResponse) {
		return fmt.Errorf("%w: %v", ErrAIResponse, err)
	}
	return fmt.Errorf("%w: %v", ErrAIUnavailable, err)
}
