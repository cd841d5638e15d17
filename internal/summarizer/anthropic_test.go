package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicSummarize(t *testing.T) {
	var got anthropicRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test_api_key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"content":[{"type":"text","text":"Roadmap summary."}]}`))
	}))
	defer ts.Close()

	s := NewAnthropicSummarizer("test_api_key", "claude-sonnet-4-20250514", ts.URL, 150, 10)
	sum, err := s.Summarize(context.Background(), testPage())
	require.NoError(t, err)
	assert.Equal(t, "Roadmap summary.", sum.Text)
	assert.Equal(t, "A", sum.Title)

	assert.Equal(t, SystemInstruction, got.System)
	assert.Equal(t, 150, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Title: A\n\nLots of te", got.Messages[0].Content)
}

func TestAnthropicAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer ts.Close()

	_, err := NewAnthropicSummarizer("bad", "m", ts.URL, 150, 0).Summarize(context.Background(), testPage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication_error - invalid x-api-key")
}

func TestAnthropicEmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer ts.Close()

	_, err := NewAnthropicSummarizer("k", "m", ts.URL, 150, 0).Summarize(context.Background(), testPage())
	assert.True(t, errors.Is(err, ErrEmptySummary))
}
