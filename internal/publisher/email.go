package publisher

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/ryosukesatoh/note-digest/internal/summarizer"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailPublisher sends the digest as a plain text email via SMTP.
type EmailPublisher struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	sendMail sendMailFunc
}

func NewEmailPublisher(host string, port int, username, password, from string, to []string) *EmailPublisher {
	return &EmailPublisher{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		sendMail: smtp.SendMail,
	}
}

func (p *EmailPublisher) Publish(_ context.Context, digest *summarizer.Digest) error {
	msg := plainTextMessage(p.from, p.to, digest.Subject(), digest.Body())

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	if err := p.sendMail(addr, auth, p.from, p.to, msg); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}
