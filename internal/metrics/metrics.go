// Package metrics provides Prometheus metrics for ingestion runs.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cricgraph"

// Record outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Metrics holds the ingestion metrics on a private registry.
type Metrics struct {
	RecordsTotal  *prometheus.CounterVec
	StepFailures  *prometheus.CounterVec
	ApplyDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates and registers the metrics.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Input records processed, by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: "match", "delivery"
	)
	m.StepFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Failed write steps, by record kind and step",
		},
		[]string{"kind", "step"},
	)
	m.ApplyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "apply_seconds",
			Help:      "Time to apply one record to the graph store",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"kind"},
	)

	m.registry.MustRegister(m.RecordsTotal, m.StepFailures, m.ApplyDuration)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordOutcome counts one processed record.
func (m *Metrics) RecordOutcome(kind string, ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSucceeded
	if !ok {
		outcome = OutcomeFailed
	}
	m.RecordsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordStepFailure counts one failed write step.
func (m *Metrics) RecordStepFailure(kind, step string) {
	if m == nil {
		return
	}
	m.StepFailures.WithLabelValues(kind, step).Inc()
}

// ObserveApply records how long one record took to apply.
func (m *Metrics) ObserveApply(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.ApplyDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Handler returns an HTTP handler for metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
