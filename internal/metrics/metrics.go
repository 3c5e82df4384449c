package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
)

// Metrics holds the pipeline counters. A nil *Metrics records nothing.
//
// Metrics:
//   - receipts_documents_processed_total{kind,status}
//   - receipts_recovery_outcomes_total{kind,outcome}
//   - receipts_price_changes_total{classification}
//   - receipts_processing_duration_seconds{kind}
type Metrics struct {
	DocumentsProcessed *prometheus.CounterVec
	RecoveryOutcomes   *prometheus.CounterVec
	PriceChanges       *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the counters on reg and gathers from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsProcessed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipts_documents_processed_total",
				Help: "Documents processed by kind and final status",
			},
			[]string{"kind", "status"},
		),
		RecoveryOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipts_recovery_outcomes_total",
				Help: "Recovered records by kind and recovery outcome",
			},
			[]string{"kind", "outcome"},
		),
		PriceChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipts_price_changes_total",
				Help: "Price history updates by classification",
			},
			[]string{"classification"},
		),
		ProcessingDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "receipts_processing_duration_seconds",
				Help:    "Wall time spent on one document",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"kind"},
		),
		gatherer: g,
	}
}

// RecordDocument counts one finished document.
func (m *Metrics) RecordDocument(kind, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.WithLabelValues(kind, status).Inc()
	m.ProcessingDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordRecovery counts one recovery outcome.
func (m *Metrics) RecordRecovery(kind, outcome string) {
	if m == nil {
		return
	}
	m.RecoveryOutcomes.WithLabelValues(kind, outcome).Inc()
}

// RecordPriceChange counts one price history update.
func (m *Metrics) RecordPriceChange(classification string) {
	if m == nil {
		return
	}
	m.PriceChanges.WithLabelValues(classification).Inc()
}

// WriteToTextfile dumps the registry in the node-exporter textfile format.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil || m.gatherer == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return eris.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
