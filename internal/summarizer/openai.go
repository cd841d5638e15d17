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

const defaultOpenAIBaseURL = "https://api.openai.com"

// OpenAISummarizer calls the Chat Completions API.
type OpenAISummarizer struct {
	apiKey        string
	model         string
	baseURL       string
	maxTokens     int
	maxInputChars int
	client        *http.Client
}

func NewOpenAISummarizer(apiKey, model, baseURL string, maxTokens, maxInputChars int) *OpenAISummarizer {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAISummarizer{
		apiKey:        apiKey,
		model:         model,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		maxTokens:     maxTokens,
		maxInputChars: maxInputChars,
		client:        &http.Client{Timeout: 120 * time.Second},
	}
}

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, page Page) (Summary, error) {
	reqBody := openAIRequest{
		Model: s.model,
		Messages: []openAIMessage{
			{Role: "system", Content: SystemInstruction},
			{Role: "user", Content: userPrompt(page, s.maxInputChars)},
		},
		MaxTokens: s.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Summary{}, fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return Summary{}, fmt.Errorf("openai: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("openai: failed to read response: %w", err)
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return Summary{}, fmt.Errorf("openai: failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if apiResp.Error != nil {
		return Summary{}, fmt.Errorf("openai: API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("openai: unexpected status %d", resp.StatusCode)
	}
	if len(apiResp.Choices) == 0 {
		return Summary{}, fmt.Errorf("openai: %w for page %s", ErrEmptySummary, page.Change.ID)
	}

	text := strings.TrimSpace(apiResp.Choices[0].Message.Content)
	if text == "" {
		return Summary{}, fmt.Errorf("openai: %w for page %s", ErrEmptySummary, page.Change.ID)
	}
	return newSummary(page, text), nil
}
