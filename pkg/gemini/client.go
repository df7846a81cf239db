package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyResponse is returned when the API call succeeds but the model
// produces no usable text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Client manages requests to the Google Gemini generateContent REST API.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a Gemini API client. The timeout bounds every request;
// callers may impose a shorter bound through the context.
func NewClient(endpoint, apiKey, model string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- Request/response types ---

// GenerationConfig tunes a single generation request.
type GenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float32 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateContent sends a single prompt and returns the model's text reply.
// One attempt, no retries; a cancelled or expired context aborts the call.
func (c *Client) GenerateContent(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("Gemini API key is not configured")
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimSuffix(c.endpoint, "/"), c.model, c.apiKey)

	request := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &cfg,
	}

	var response generateResponse
	if err := c.doRequest(ctx, url, request, &response); err != nil {
		return "", err
	}

	if response.Error != nil {
		return "", fmt.Errorf("Gemini API error %d: %s", response.Error.Code, response.Error.Message)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	return response.Candidates[0].Content.Parts[0].Text, nil
}

// doRequest executes the HTTP call and handles the shared response plumbing.
func (c *Client) doRequest(ctx context.Context, url string, requestData interface{}, responseData interface{}) error {
	requestBody, err := json.Marshal(requestData)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp generateResponse
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error != nil {
			return fmt.Errorf("Gemini API error (status %d): %s", resp.StatusCode, errorResp.Error.Message)
		}
		return fmt.Errorf("Gemini API error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, responseData); err != nil {
		return fmt.Errorf("failed to parse response JSON: %w", err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
