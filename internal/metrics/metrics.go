// Package metrics instruments the host engine with Prometheus collectors and
// writes them to a node-exporter textfile after each run.
package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mediafx/internal/host"
)

// Outcome labels for mediafx_host_operations_total.
const (
	OutcomeFinished = "finished"
	OutcomeRejected = "rejected"
	OutcomeOK       = "ok"
	OutcomeError    = "error"
)

// Collector holds the mediafx collectors.
type Collector struct {
	operations     *prometheus.CounterVec
	entriesAdded   *prometheus.CounterVec
	renderDuration prometheus.Histogram
	lastRender     prometheus.Gauge
}

// New registers the mediafx collectors on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediafx_host_operations_total",
				Help: "Host engine calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		entriesAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediafx_entries_added_total",
				Help: "Timeline entries created on the host by kind",
			},
			[]string{"kind"},
		),
		renderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mediafx_render_duration_seconds",
				Help:    "Wall time of host render calls",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
		),
		lastRender: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mediafx_last_render_success_timestamp_seconds",
				Help: "Unix time of the last render that finished",
			},
		),
	}
	for _, col := range []prometheus.Collector{c.operations, c.entriesAdded, c.renderDuration, c.lastRender} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// Instrument wraps engine so every call is counted.
func (c *Collector) Instrument(engine host.Engine) host.Engine {
	return &instrumented{next: engine, c: c, now: time.Now}
}

func (c *Collector) observe(operation string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.operations.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) observeResult(operation string, result host.Result, err error) {
	switch {
	case err != nil:
		c.operations.WithLabelValues(operation, OutcomeError).Inc()
	case result.IsFinished():
		c.operations.WithLabelValues(operation, OutcomeFinished).Inc()
	default:
		c.operations.WithLabelValues(operation, OutcomeRejected).Inc()
	}
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format. The file name must end in .prom for node-exporter to
// pick it up.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return errors.New("metrics textfile path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
