// Package metrics holds the Prometheus collectors updated by the polling
// loop. Collectors are registered on a caller-supplied registry so tests
// and the process each get their own.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "note_digest"

// Cycle results.
const (
	ResultSuccess = "success"
	ResultEmpty   = "empty"
	ResultFailure = "failure"
)

type Metrics struct {
	cycles        *prometheus.CounterVec
	pages         prometheus.Counter
	notifications prometheus.Counter
	cycleDuration prometheus.Histogram
	lastSuccess   prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Poll cycles by result.",
		}, []string{"result"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_summarized_total",
			Help:      "Changed pages summarized.",
		}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Digests delivered.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one poll cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that did not fail.",
		}),
	}

	for _, c := range []prometheus.Collector{m.cycles, m.pages, m.notifications, m.cycleDuration, m.lastSuccess} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	// Pre-create the result series so they export as zero.
	for _, r := range []string{ResultSuccess, ResultEmpty, ResultFailure} {
		m.cycles.WithLabelValues(r)
	}
	return m, nil
}

// ObserveCycle records one finished cycle. A nil receiver is a no-op.
func (m *Metrics) ObserveCycle(result string, pages, notifications int, d time.Duration, now time.Time) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(d.Seconds())
	if result == ResultFailure {
		return
	}
	m.pages.Add(float64(pages))
	m.notifications.Add(float64(notifications))
	m.lastSuccess.Set(float64(now.Unix()))
}
