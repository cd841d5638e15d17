package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryosukesatoh/note-digest/internal/config"
	"github.com/ryosukesatoh/note-digest/internal/logging"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll, summarize and notify until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
}

func newOnceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single cycle and exit",
		Long:  "Run a single poll cycle. The exit status is non-zero when the cycle fails.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
}

func setup(opts *rootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runLoop(ctx context.Context, opts *rootOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, out)
	if err != nil {
		return err
	}

	if a.status != nil {
		if err := a.status.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.status.Shutdown(shutdownCtx); err != nil {
				logger.Warn("status server shutdown", logging.Err(err))
			}
		}()
	}

	logger.Info("starting note-digest",
		slog.String("version", version),
		slog.String("source", cfg.Source.Type),
		slog.String("summarizer", cfg.Summarizer.Type),
		slog.String("publisher", cfg.Publisher.Type),
		slog.String("interval", cfg.Interval))

	err = a.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutdown complete")
		return nil
	}
	return err
}

func runOnce(ctx context.Context, opts *rootOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, out)
	if err != nil {
		return err
	}

	res, err := a.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}
	logger.Info("done", slog.Int("changes", res.Changes), slog.Int("published", res.Published))
	return nil
}
