// Package metrics counts inventory mutations with Prometheus collectors.
package metrics

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/vinv-group/vinv-go/pkg/types"
)

// Outcome label values.
const (
	OutcomeOK                 = "ok"
	OutcomeMissingVersion     = "missing_version"
	OutcomeUnsupportedVersion = "unsupported_version"
	OutcomeInvalidDocument    = "invalid_document"
	OutcomeInvalidRecord      = "invalid_record"
	OutcomeDuplicateID        = "duplicate_id"
	OutcomeUninitialized      = "uninitialized"
	OutcomeError              = "error"
)

// Metrics holds the collectors of one inventory. Each Metrics owns its
// registry, so several inventories in one process do not collide.
type Metrics struct {
	registry   *prometheus.Registry
	initialize *prometheus.CounterVec
	add        *prometheus.CounterVec
	recheck    prometheus.Counter
	records    prometheus.Gauge
}

// New registers the inventory collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		initialize: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vinv_initialize_total",
			Help: "Initialize calls by outcome.",
		}, []string{"outcome"}),
		add: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vinv_record_add_total",
			Help: "AddRecord calls by outcome.",
		}, []string{"outcome"}),
		recheck: f.NewCounter(prometheus.CounterOpts{
			Name: "vinv_document_recheck_failures_total",
			Help: "Whole-document rechecks that failed after a record was added.",
		}),
		records: f.NewGauge(prometheus.GaugeOpts{
			Name: "vinv_records",
			Help: "Records in the active document.",
		}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveInitialize counts one Initialize call ending with err.
func (m *Metrics) ObserveInitialize(err error) {
	if m == nil {
		return
	}
	m.initialize.WithLabelValues(Outcome(err)).Inc()
}

// ObserveAdd counts one AddRecord call ending with err.
func (m *Metrics) ObserveAdd(err error) {
	if m == nil {
		return
	}
	m.add.WithLabelValues(Outcome(err)).Inc()
}

// ObserveRecheckFailure counts a failed whole-document recheck.
func (m *Metrics) ObserveRecheckFailure() {
	if m == nil {
		return
	}
	m.recheck.Inc()
}

// SetRecords sets the record gauge.
func (m *Metrics) SetRecords(n int) {
	if m == nil {
		return
	}
	m.records.Set(float64(n))
}

// WriteText writes every collector in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

// Outcome maps an operation error to its label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, types.ErrMissingVersion):
		return OutcomeMissingVersion
	case errors.Is(err, types.ErrUnsupportedVersion):
		return OutcomeUnsupportedVersion
	case errors.Is(err, types.ErrInvalidDocument):
		return OutcomeInvalidDocument
	case errors.Is(err, types.ErrInvalidRecord):
		return OutcomeInvalidRecord
	case errors.Is(err, types.ErrDuplicateID):
		return OutcomeDuplicateID
	case errors.Is(err, types.ErrUninitialized):
		return OutcomeUninitialized
	default:
		return OutcomeError
	}
}
