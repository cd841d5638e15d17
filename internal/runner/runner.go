package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ryosukesatoh/note-digest/internal/logging"
	"github.com/ryosukesatoh/note-digest/internal/poller"
	"github.com/ryosukesatoh/note-digest/internal/publisher"
	"github.com/ryosukesatoh/note-digest/internal/summarizer"
)

// Result describes one finished cycle.
type Result struct {
	Changes   int
	Published int
	Digest    *summarizer.Digest
}

// Runner orchestrates the poll -> summarize -> publish pipeline.
type Runner struct {
	poller     poller.Poller
	summarizer summarizer.Summarizer
	publishers []publisher.Publisher
	auxiliary  []publisher.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Runner)

// WithAuxiliary adds publishers that receive every digest but whose
// failures are only logged, such as the archive and the status page.
func WithAuxiliary(pubs ...publisher.Publisher) Option {
	return func(r *Runner) { r.auxiliary = append(r.auxiliary, pubs...) }
}

func New(p poller.Poller, s summarizer.Summarizer, pubs []publisher.Publisher, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Runner{
		poller:     p,
		summarizer: s,
		publishers: pubs,
		logger:     logging.WithComponent(logger, "runner"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one cycle. A cycle without changes neither summarizes nor
// publishes. Any poll or summarize error aborts the cycle; publishing fails
// the cycle only when every publisher fails.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	r.logger.Debug("polling for changed pages")
	changes, err := r.poller.ListChanges(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("runner: poll failed: %w", err)
	}
	if len(changes) == 0 {
		r.logger.Info("no changed pages")
		return Result{}, nil
	}
	r.logger.Info("found changed pages", logging.Count(len(changes)))

	digest := &summarizer.Digest{
		Date:      r.now(),
		Summaries: make([]summarizer.Summary, 0, len(changes)),
	}
	for _, c := range changes {
		content, err := r.poller.Content(ctx, c)
		if err != nil {
			return Result{Changes: len(changes)}, fmt.Errorf("runner: fetch content of %q failed: %w", c.Title, err)
		}
		sum, err := r.summarizer.Summarize(ctx, summarizer.Page{Change: c, Content: content})
		if err != nil {
			return Result{Changes: len(changes)}, fmt.Errorf("runner: summarize %q failed: %w", c.Title, err)
		}
		r.logger.Debug("summarized page", logging.Page(c.Title))
		digest.Summaries = append(digest.Summaries, sum)
	}

	res := Result{Changes: len(changes), Digest: digest}

	// Continue with other publishers even if one fails.
	var publishErrors []error
	for _, pub := range r.publishers {
		if err := pub.Publish(ctx, digest); err != nil {
			publishErrors = append(publishErrors, fmt.Errorf("publish via %T failed: %w", pub, err))
			r.logger.Warn("publisher failed", slog.String("publisher", fmt.Sprintf("%T", pub)), logging.Err(err))
			continue
		}
		res.Published++
	}

	if len(publishErrors) == len(r.publishers) && len(r.publishers) > 0 {
		return res, fmt.Errorf("runner: all publishers failed: %w", errors.Join(publishErrors...))
	}

	// The archive and status page only record digests that were delivered.
	for _, pub := range r.auxiliary {
		if err := pub.Publish(ctx, digest); err != nil {
			r.logger.Warn("auxiliary publisher failed", slog.String("publisher", fmt.Sprintf("%T", pub)), logging.Err(err))
		}
	}
	if len(publishErrors) > 0 {
		r.logger.Warn("cycle completed with publisher failures",
			slog.Int("failed", len(publishErrors)), slog.Int("publishers", len(r.publishers)))
	} else {
		r.logger.Info("cycle completed", logging.Count(len(digest.Summaries)))
	}
	return res, nil
}
