package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCohereSummarize(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat"), "unexpected path %s", r.URL.Path)
		assert.Equal(t, "Bearer co-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"Cohere summary.","generation_id":"g1","finish_reason":"COMPLETE"}`))
	}))
	defer ts.Close()

	s := NewCohereSummarizer("co-key", "command-r", ts.URL, 150, 12000)
	sum, err := s.Summarize(context.Background(), testPage())
	require.NoError(t, err)
	assert.Equal(t, "Cohere summary.", sum.Text)
	assert.Equal(t, "1", sum.ChangeID)

	assert.Equal(t, SystemInstruction, got["preamble"])
	assert.Equal(t, "command-r", got["model"])
	assert.EqualValues(t, 150, got["max_tokens"])
	assert.Contains(t, got["message"], "Lots of text about the roadmap.")
}

func TestCohereServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid request"}`))
	}))
	defer ts.Close()

	_, err := NewCohereSummarizer("co-key", "command-r", ts.URL, 150, 0).Summarize(context.Background(), testPage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cohere: chat failed")
}
