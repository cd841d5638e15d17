package summarizer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"
)

// CohereSummarizer uses the Cohere chat endpoint through the official SDK.
type CohereSummarizer struct {
	client        *cohereclient.Client
	model         string
	maxTokens     int
	maxInputChars int
}

func NewCohereSummarizer(apiKey, model, baseURL string, maxTokens, maxInputChars int) *CohereSummarizer {
	httpClient := &http.Client{Timeout: 120 * time.Second}
	opts := []option.RequestOption{
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	}
	if baseURL != "" {
		opts = append(opts, cohereclient.WithBaseURL(strings.TrimSuffix(baseURL, "/")))
	}
	return &CohereSummarizer{
		client:        cohereclient.NewClient(opts...),
		model:         model,
		maxTokens:     maxTokens,
		maxInputChars: maxInputChars,
	}
}

func (s *CohereSummarizer) Summarize(ctx context.Context, page Page) (Summary, error) {
	preamble := SystemInstruction
	req := &cohere.ChatRequest{
		Message:  userPrompt(page, s.maxInputChars),
		Preamble: &preamble,
	}
	if s.model != "" {
		model := s.model
		req.Model = &model
	}
	if s.maxTokens > 0 {
		maxTokens := s.maxTokens
		req.MaxTokens = &maxTokens
	}

	resp, err := s.client.Chat(ctx, req)
	if err != nil {
		return Summary{}, fmt.Errorf("cohere: chat failed: %w", err)
	}
	if resp == nil {
		return Summary{}, fmt.Errorf("cohere: %w for page %s", ErrEmptySummary, page.Change.ID)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return Summary{}, fmt.Errorf("cohere: %w for page %s", ErrEmptySummary, page.Change.ID)
	}
	return newSummary(page, text), nil
}
