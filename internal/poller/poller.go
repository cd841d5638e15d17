package poller

import (
	"context"
	"time"
)

// Change describes one modified note page.
type Change struct {
	ID           string
	Title        string
	LastModified time.Time
	// ContentURL is an opaque reference the same Poller resolves in Content.
	ContentURL string
}

// Poller lists changed pages on a notebook service and fetches their content.
type Poller interface {
	ListChanges(ctx context.Context) ([]Change, error)
	Content(ctx context.Context, c Change) (string, error)
}
