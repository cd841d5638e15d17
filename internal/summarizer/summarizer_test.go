package summarizer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryosukesatoh/note-digest/internal/config"
	"github.com/ryosukesatoh/note-digest/internal/poller"
)

func TestNewSummarizer(t *testing.T) {
	tests := []struct {
		typ  string
		want any
	}{
		{"openai", &OpenAISummarizer{}},
		{"anthropic", &AnthropicSummarizer{}},
		{"cohere", &CohereSummarizer{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			cfg := &config.Config{Summarizer: config.SummarizerConfig{Type: tt.typ, APIKey: "k", Model: "m", MaxTokens: 150}}
			s, err := New(cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestNewSummarizerUnsupported(t *testing.T) {
	_, err := New(&config.Config{Summarizer: config.SummarizerConfig{Type: "gpt2-local"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedSummarizerType))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 0))
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel", truncate("hello", 3))
	assert.Equal(t, "日本", truncate("日本語", 2))
}

func TestDigestBodyKeepsPollOrder(t *testing.T) {
	d := &Digest{
		Date: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Summaries: []Summary{
			{ChangeID: "1", Title: "A", Text: "sA", LastModified: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)},
			{ChangeID: "2", Title: "B", Text: "sB"},
		},
	}

	body := d.Body()
	assert.Contains(t, body, "A (modified 2026-10-18 09:30 UTC)\nsA\n")
	iA, iSA := strings.Index(body, "A"), strings.Index(body, "sA")
	iB, iSB := strings.Index(body, "B"), strings.Index(body, "sB")
	assert.True(t, iA < iSA && iSA < iB && iB < iSB, "unexpected order in %q", body)

	assert.Equal(t, "Note digest: 2 updated pages (2026-10-18 12:00)", d.Subject())
}

func TestDigestUntitledAndSingular(t *testing.T) {
	d := &Digest{Date: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC), Summaries: []Summary{{Text: " x "}}}
	assert.Equal(t, "(untitled)\nx\n", d.Body())
	assert.Contains(t, d.Subject(), "1 updated page ")
}

func TestUserPromptTruncatesContent(t *testing.T) {
	page := Page{Change: poller.Change{Title: "T"}, Content: strings.Repeat("x", 50)}
	assert.Equal(t, "Title: T\n\n"+strings.Repeat("x", 10), userPrompt(page, 10))
}
