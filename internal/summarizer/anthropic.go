package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAnthropicBaseURL = "https://api.anthropic.com"

// AnthropicSummarizer uses the Anthropic Messages API to summarize pages.
type AnthropicSummarizer struct {
	apiKey        string
	model         string
	baseURL       string
	maxTokens     int
	maxInputChars int
	client        *http.Client
}

func NewAnthropicSummarizer(apiKey, model, baseURL string, maxTokens, maxInputChars int) *AnthropicSummarizer {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &AnthropicSummarizer{
		apiKey:        apiKey,
		model:         model,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		maxTokens:     maxTokens,
		maxInputChars: maxInputChars,
		client:        &http.Client{Timeout: 120 * time.Second},
	}
}

// Anthropic API request/response types

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, page Page) (Summary, error) {
	reqBody := anthropicRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System:    SystemInstruction,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt(page, s.maxInputChars)},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Summary{}, fmt.Errorf("anthropic: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return Summary{}, fmt.Errorf("anthropic: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("anthropic: failed to read response: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return Summary{}, fmt.Errorf("anthropic: failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if apiResp.Error != nil {
		return Summary{}, fmt.Errorf("anthropic: API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("anthropic: unexpected status %d", resp.StatusCode)
	}

	var sb strings.Builder
	for _, c := range apiResp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Summary{}, fmt.Errorf("anthropic: %w for page %s", ErrEmptySummary, page.Change.ID)
	}

	return newSummary(page, text), nil
}
