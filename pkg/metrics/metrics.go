// Package metrics holds the Prometheus collectors exported by the contact cleaner.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

type Metrics struct {
	uploads         *prometheus.CounterVec
	cleanRuns       *prometheus.CounterVec
	stagesApplied   *prometheus.CounterVec
	rowsRemoved     prometheus.Counter
	cleanDuration   prometheus.Histogram
	downloads       *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return fmt.Errorf("register collector: %w", err)
	}
	return nil
}

// New creates the collectors and registers them with reg under namespace.
func New(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if reg == nil {
		return nil, errors.New("prometheus registerer is nil")
	}

	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "uploads_total",
			Help: "Contact file uploads by result",
		}, []string{"result"}),

		cleanRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "clean_runs_total",
			Help: "Cleaning pipeline runs by result",
		}, []string{"result"}),

		stagesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stages_applied_total",
			Help: "Cleaning stages applied by stage id",
		}, []string{"stage"}),

		rowsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_removed_total",
			Help: "Rows removed by cleaning runs",
		}),

		cleanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "clean_duration_seconds",
			Help:    "Duration of cleaning pipeline runs",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),

		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "downloads_total",
			Help: "Cleaned file downloads by format",
		}, []string{"format"}),

		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_published_total",
			Help: "Published cleaning events by result",
		}, []string{"result"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency by method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	for _, c := range []prometheus.Collector{
		m.uploads, m.cleanRuns, m.stagesApplied, m.rowsRemoved, m.cleanDuration,
		m.downloads, m.eventsPublished, m.httpRequests, m.httpDuration,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// NewRegistry returns a registry that already carries the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	_ = registerCollector(reg, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	_ = registerCollector(reg, collectors.NewGoCollector())
	return reg
}

// RegisterGauge exposes a value computed on every scrape, such as the number of live uploads.
func RegisterGauge(reg prometheus.Registerer, namespace, name, help string, fn func() float64) error {
	return registerCollector(reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: name, Help: help,
	}, fn))
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func (m *Metrics) ObserveUpload(result string) {
	m.uploads.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCleanRun(stages []string, rowsRemoved int, duration time.Duration) {
	m.cleanRuns.WithLabelValues(ResultSuccess).Inc()
	for _, st := range stages {
		m.stagesApplied.WithLabelValues(st).Inc()
	}
	if rowsRemoved > 0 {
		m.rowsRemoved.Add(float64(rowsRemoved))
	}
	m.cleanDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveCleanFailure() {
	m.cleanRuns.WithLabelValues(ResultFailure).Inc()
}

func (m *Metrics) ObserveDownload(format string) {
	m.downloads.WithLabelValues(format).Inc()
}

func (m *Metrics) ObserveEventPublish(err error) {
	if err != nil {
		m.eventsPublished.WithLabelValues(ResultFailure).Inc()
		return
	}
	m.eventsPublished.WithLabelValues(ResultSuccess).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, fmt.Sprint(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(duration.Seconds())
}
