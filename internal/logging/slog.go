package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Common log attribute keys.
const (
	KeyComponent = "component"
	KeyPage      = "page"
	KeyCount     = "count"
	KeyDuration  = "duration"
	KeyWait      = "wait"
	KeyRecipient = "recipient"
	KeyError     = "error"
)

// New builds a logger writing to w. level is one of debug, info, warn or
// error; format is text or json.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("logging: invalid format %q", format)
	}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithComponent returns a logger with the component attribute set.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String(KeyComponent, component))
}

// Page returns a slog attribute identifying a note page by title.
func Page(title string) slog.Attr {
	return slog.String(KeyPage, title)
}

func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Wait returns a slog attribute for a scheduled sleep.
func Wait(d time.Duration) slog.Attr {
	return slog.Duration(KeyWait, d)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that slog omits, so
// Err(maybeNilErr) is always safe.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email so log lines
// can be correlated without exposing the address.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// Recipient returns a slog attribute with the anonymized recipient address.
func Recipient(email string) slog.Attr {
	return slog.String(KeyRecipient, AnonymizeEmail(email))
}
