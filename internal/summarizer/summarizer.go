package summarizer

import (
	"errors"
	"fmt"

	"github.com/ryosukesatoh/note-digest/internal/config"
)

// SystemInstruction is sent with every summarization request.
const SystemInstruction = "You are a helpful assistant that summarizes notes concisely."

// ErrUnsupportedSummarizerType is returned when an unsupported summarizer type is specified.
var ErrUnsupportedSummarizerType = errors.New("unsupported summarizer type")

// ErrEmptySummary is returned when the model answers with no text.
var ErrEmptySummary = errors.New("empty summary")

// New creates a summarizer based on the configuration.
func New(cfg *config.Config) (Summarizer, error) {
	sc := cfg.Summarizer
	switch sc.Type {
	case "openai":
		return NewOpenAISummarizer(sc.APIKey, sc.Model, sc.BaseURL, sc.MaxTokens, sc.MaxInputChars), nil
	case "anthropic":
		return NewAnthropicSummarizer(sc.APIKey, sc.Model, sc.BaseURL, sc.MaxTokens, sc.MaxInputChars), nil
	case "cohere":
		return NewCohereSummarizer(sc.APIKey, sc.Model, sc.BaseURL, sc.MaxTokens, sc.MaxInputChars), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSummarizerType, sc.Type)
	}
}

// truncate cuts s to at most max runes. max <= 0 disables the limit.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func userPrompt(page Page, maxChars int) string {
	return fmt.Sprintf("Title: %s\n\n%s", page.Change.Title, truncate(page.Content, maxChars))
}

func newSummary(page Page, text string) Summary {
	return Summary{
		ChangeID:     page.Change.ID,
		Title:        page.Change.Title,
		LastModified: page.Change.LastModified,
		Text:         text,
	}
}
