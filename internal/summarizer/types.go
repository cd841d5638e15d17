package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ryosukesatoh/note-digest/internal/poller"
)

// Page is a changed note together with its extracted text.
type Page struct {
	Change  poller.Change
	Content string
}

// Summary is the model's summary of one changed page.
type Summary struct {
	ChangeID     string    `json:"change_id"`
	Title        string    `json:"title"`
	LastModified time.Time `json:"last_modified"`
	Text         string    `json:"text"`
}

// Digest collects the summaries of one cycle in poll order.
type Digest struct {
	Date      time.Time `json:"date"`
	Summaries []Summary `json:"summaries"`
}

// Summarizer produces a short summary of a single page.
type Summarizer interface {
	Summarize(ctx context.Context, page Page) (Summary, error)
}

func (d *Digest) Subject() string {
	noun := "pages"
	if len(d.Summaries) == 1 {
		noun = "page"
	}
	return fmt.Sprintf("Note digest: %d updated %s (%s)", len(d.Summaries), noun, d.Date.Format("2006-01-02 15:04"))
}

// Body renders the digest as plain text.
func (d *Digest) Body() string {
	var sb strings.Builder
	for i, s := range d.Summaries {
		if i > 0 {
			sb.WriteString("\n")
		}
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		sb.WriteString(title)
		if !s.LastModified.IsZero() {
			sb.WriteString(fmt.Sprintf(" (modified %s)", s.LastModified.UTC().Format("2006-01-02 15:04 UTC")))
		}
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(s.Text))
		sb.WriteString("\n")
	}
	return sb.String()
}
