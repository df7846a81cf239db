package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"superstore-dashboard-api/pkg/engine"
	"superstore-dashboard-api/pkg/gemini"
	"superstore-dashboard-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiStub(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *gemini.Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := gemini.NewClient(server.URL, "test-key", "test-model", 2*time.Second)
	return server, client
}

func candidateResponse(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}]}`
}

func jsonString(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + replacer.Replace(s) + `"`
}

func jsonDecode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func sampleView() []models.SalesRecord {
	return []models.SalesRecord{
		{
			OrderID:   "US-001",
			OrderDate: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC),
			Region:    "West",
			Segment:   "Consumer",
			Category:  "Technology",
			Sales:     500,
			Profit:    100,
			Quantity:  2,
		},
	}
}

func TestAnswerQuestion(t *testing.T) {
	var gotPrompt string
	_, client := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, jsonDecode(r, &req))
		gotPrompt = req.Contents[0].Parts[0].Text
		w.Write([]byte(candidateResponse("Technology leads with 500 in sales.")))
	})

	svc := NewAIService(client, 200)
	view := sampleView()
	answer, err := svc.AnswerQuestion(context.Background(), "Which category sells best?", view, engine.Summarize(view))

	require.NoError(t, err)
	assert.Equal(t, "Technology leads with 500 in sales.", answer)
	// The prompt embeds the digest and the question, never the raw table.
	assert.Contains(t, gotPrompt, "Total sales: 500.00")
	assert.Contains(t, gotPrompt, "User question: Which category sells best?")
}

func TestAnswerQuestionTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(candidateResponse("too late")))
	}))
	defer server.Close()
	client := gemini.NewClient(server.URL, "test-key", "test-model", 50*time.Millisecond)

	svc := NewAIService(client, 200)
	view := sampleView()

	start := time.Now()
	_, err := svc.AnswerQuestion(context.Background(), "hello?", view, engine.Summarize(view))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Less(t, time.Since(start), 250*time.Millisecond, "error must surface within the timeout bound")
}

func TestAnswerQuestionEmptyResponse(t *testing.T) {
	_, client := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	svc := NewAIService(client, 200)
	view := sampleView()
	_, err := svc.AnswerQuestion(context.Background(), "hello?", view, engine.Summarize(view))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAIResponse)
}

func TestAnswerQuestionUpstreamError(t *testing.T) {
	_, client := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	})

	svc := NewAIService(client, 200)
	view := sampleView()
	_, err := svc.AnswerQuestion(context.Background(), "hello?", view, engine.Summarize(view))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestGenerateChartSpec(t *testing.T) {
	_, client := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateResponse("```json\n{\"chart_type\":\"line\",\"x\":\"Order Date\",\"y\":\"Sales\",\"aggregate\":\"sum\"}\n```")))
	})

	svc := NewAIService(client, 200)
	spec, err := svc.GenerateChartSpec(context.Background(), "monthly sales trend")

	require.NoError(t, err)
	assert.Equal(t, "line", spec.ChartType)
	assert.Equal(t, "Order Date", spec.X)
}

func TestGenerateChartSpecMalformed(t *testing.T) {
	_, client := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateResponse("sorry, I can't help with that")))
	})

	svc := NewAIService(client, 200)
	_, err := svc.GenerateChartSpec(context.Background(), "monthly sales trend")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAIResponse)
}

func TestBuildDataDigestBounded(t *testing.T) {
	view := make([]models.SalesRecord, 500)
	for i := range view {
		view[i] = sampleView()[0]
	}

	svc := NewAIService(nil, 10)
	digest := svc.BuildDataDigest(view, engine.Summarize(view))

	assert.Contains(t, digest, "Rows in current view: 500")
	assert.Contains(t, digest, "Data sample (10 of 500 rows)")
	// Header + 10 sample lines.
	assert.Equal(t, 11, strings.Count(digest[strings.Index(digest, "Order Date,"):], "\n"))
}

func TestBuildDataDigestEmptyView(t *testing.T) {
	svc := NewAIService(nil, 10)
	digest := svc.BuildDataDigest(nil, engine.Summarize(nil))

	assert.Contains(t, digest, "Rows in current view: 0")
	assert.NotContains(t, digest, "Data sample")
}
