package publisher

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/ryosukesatoh/note-digest/internal/logging"
	"github.com/ryosukesatoh/note-digest/internal/summarizer"
)

// GmailPublisher sends the digest from the consenting account through the
// Gmail API. Each Publish makes exactly one send call; a failed send is
// left to the next cycle.
type GmailPublisher struct {
	svc    *gmail.UsersService
	to     []string
	logger *slog.Logger
}

func NewGmailPublisher(svc *gmail.Service, to []string, logger *slog.Logger) *GmailPublisher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &GmailPublisher{
		svc:    svc.Users,
		to:     to,
		logger: logging.WithComponent(logger, "gmail"),
	}
}

func (p *GmailPublisher) Publish(ctx context.Context, digest *summarizer.Digest) error {
	raw := plainTextMessage("", p.to, digest.Subject(), digest.Body())
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}

	sent, err := p.svc.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail: failed to send: %w", err)
	}

	p.logger.Info("digest sent",
		logging.Count(len(digest.Summaries)),
		slog.String("message_id", sent.Id))
	for _, to := range p.to {
		p.logger.Debug("digest addressed", logging.Recipient(to), slog.String("message_id", sent.Id))
	}
	return nil
}
