package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	drive "google.golang.org/api/drive/v3"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ryosukesatoh/note-digest/internal/auth"
	"github.com/ryosukesatoh/note-digest/internal/config"
	"github.com/ryosukesatoh/note-digest/internal/google"
	"github.com/ryosukesatoh/note-digest/internal/metrics"
	"github.com/ryosukesatoh/note-digest/internal/poller"
	"github.com/ryosukesatoh/note-digest/internal/publisher"
	"github.com/ryosukesatoh/note-digest/internal/runner"
	"github.com/ryosukesatoh/note-digest/internal/scheduler"
	"github.com/ryosukesatoh/note-digest/internal/summarizer"
)

// app holds the collaborators built from one configuration.
type app struct {
	runner *runner.Runner
	loop   *scheduler.Loop
	status *publisher.StatusServer
}

// newApp wires every component. ctx must outlive the app: token sources
// refresh with it.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	schedule, err := scheduler.ParseInterval(cfg.Interval)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	p, err := buildPoller(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s, err := summarizer.New(cfg)
	if err != nil {
		return nil, err
	}

	pubs, err := buildPublishers(ctx, cfg, logger, out)
	if err != nil {
		return nil, err
	}

	aux, err := buildAuxiliary(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{}
	if cfg.Status.Addr != "" {
		a.status = publisher.NewStatusServer(cfg.Status.Addr, reg, logger)
		aux = append(aux, a.status)
	}

	a.runner = runner.New(p, s, pubs, logger, runner.WithAuxiliary(aux...))
	a.loop = scheduler.New(a.runner, schedule, cfg.RetryInterval,
		scheduler.WithLogger(logger),
		scheduler.WithMetrics(m),
	)
	return a, nil
}

func googleCredentials(cfg *config.Config) google.Credentials {
	return google.Credentials{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		TokenFile:    cfg.Google.TokenFile,
	}
}

func buildPoller(ctx context.Context, cfg *config.Config) (poller.Poller, error) {
	switch cfg.Source.Type {
	case "onenote":
		on := cfg.Source.OneNote
		cc, err := auth.NewClientCredentials(ctx, auth.Config{
			TenantID:     on.TenantID,
			ClientID:     on.ClientID,
			ClientSecret: on.ClientSecret,
			TokenURL:     on.TokenURL,
		})
		if err != nil {
			return nil, err
		}
		return poller.NewOneNotePoller(cc.HTTPClient(30*time.Second), on.BaseURL, on.User, on.Top, on.ModifiedWithin), nil
	case "gdrive":
		client, err := googleCredentials(cfg).HTTPClient(ctx)
		if err != nil {
			return nil, err
		}
		svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("gdrive: failed to create service: %w", err)
		}
		return poller.NewDrivePoller(svc, cfg.Source.GDrive.Top, cfg.Source.GDrive.ModifiedWithin), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Source.Type)
	}
}

func buildPublishers(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) ([]publisher.Publisher, error) {
	var pubs []publisher.Publisher

	switch cfg.Publisher.Type {
	case "gmail":
		client, err := googleCredentials(cfg).HTTPClient(ctx)
		if err != nil {
			return nil, err
		}
		svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("gmail: failed to create service: %w", err)
		}
		pubs = append(pubs, publisher.NewGmailPublisher(svc, cfg.Publisher.Gmail.To, logger))
	case "email":
		e := cfg.Publisher.Email
		pubs = append(pubs, publisher.NewEmailPublisher(e.SMTPHost, e.SMTPPort, e.Username, e.Password, e.From, e.To))
	case "discord":
		pubs = append(pubs, publisher.NewDiscordPublisher(cfg.Publisher.Discord.WebhookURL))
	case "stdout":
		pubs = append(pubs, publisher.NewStdoutPublisher(out))
	default:
		return nil, fmt.Errorf("unknown publisher type: %s", cfg.Publisher.Type)
	}
	return pubs, nil
}

func buildAuxiliary(ctx context.Context, cfg *config.Config) ([]publisher.Publisher, error) {
	var aux []publisher.Publisher
	if cfg.Archive.S3.Bucket != "" {
		archive, err := publisher.NewS3Archive(ctx, cfg.Archive.S3)
		if err != nil {
			return nil, err
		}
		aux = append(aux, archive)
	}
	return aux, nil
}
