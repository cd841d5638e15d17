package publisher

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ryosukesatoh/note-digest/internal/summarizer"
)

// StdoutPublisher prints the digest to stdout, or to w when set.
type StdoutPublisher struct {
	w io.Writer
}

func NewStdoutPublisher(w io.Writer) *StdoutPublisher {
	return &StdoutPublisher{w: w}
}

func (p *StdoutPublisher) Publish(_ context.Context, digest *summarizer.Digest) error {
	w := p.w
	if w == nil {
		w = os.Stdout
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat("=", 72) + "\n")
	sb.WriteString(digest.Subject() + "\n")
	sb.WriteString(strings.Repeat("=", 72) + "\n\n")
	sb.WriteString(digest.Body())
	sb.WriteString(strings.Repeat("=", 72) + "\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("stdout: failed to write digest: %w", err)
	}
	return nil
}
