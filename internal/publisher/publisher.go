package publisher

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/ryosukesatoh/note-digest/internal/summarizer"
)

// Publisher publishes a digest to some output destination.
type Publisher interface {
	Publish(ctx context.Context, digest *summarizer.Digest) error
}

// plainTextMessage builds a minimal RFC 5322 message with a UTF-8 plain text
// body. from may be empty when the transport fills it in.
func plainTextMessage(from string, to []string, subject, body string) []byte {
	var sb strings.Builder
	if from != "" {
		fmt.Fprintf(&sb, "From: %s\r\n", from)
	}
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(sb.String())
}
