package publisher

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryosukesatoh/note-digest/internal/logging"
	"github.com/ryosukesatoh/note-digest/internal/summarizer"
)

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>note-digest</title></head>
<body>
{{- if . }}
<h1>{{ .Subject }}</h1>
{{- range .Summaries }}
<h2>{{ if .Title }}{{ .Title }}{{ else }}(untitled){{ end }}</h2>
{{- if not .LastModified.IsZero }}<p><em>Modified {{ .LastModified.UTC.Format "2006-01-02 15:04 UTC" }}</em></p>{{ end }}
<p>{{ .Text }}</p>
{{- end }}
{{- else }}
<h1>note-digest</h1>
<p>No digest sent yet.</p>
{{- end }}
</body></html>
`))

// StatusServer serves the most recently published digest, a health check
// and Prometheus metrics. It is registered as a publisher so every cycle
// with changes refreshes the page.
type StatusServer struct {
	addr   string
	server *http.Server
	logger *slog.Logger
	mu     sync.RWMutex
	latest *summarizer.Digest
}

func NewStatusServer(addr string, gatherer prometheus.Gatherer, logger *slog.Logger) *StatusServer {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &StatusServer{addr: addr, logger: logging.WithComponent(logger, "status")}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins serving HTTP in the background. Call Shutdown to stop.
func (s *StatusServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("status: failed to listen on %s: %w", s.addr, err)
	}
	go func() {
		s.logger.Info("status server listening", slog.String("addr", ln.Addr().String()))
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("status server stopped", logging.Err(err))
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *StatusServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *StatusServer) Publish(_ context.Context, digest *summarizer.Digest) error {
	s.mu.Lock()
	s.latest = digest
	s.mu.Unlock()
	s.logger.Debug("status page updated", logging.Count(len(digest.Summaries)))
	return nil
}

func (s *StatusServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	digest := s.latest
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusPage.Execute(w, digest); err != nil {
		s.logger.Error("render status page", logging.Err(err))
	}
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}
