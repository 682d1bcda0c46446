// Package metrics exposes Prometheus instrumentation for declaration parsing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vk/neodes/internal/fault"
)

// Metrics provides observability for parse runs. A nil *Metrics records
// nothing.
type Metrics struct {
	// Files parsed by result: "ok" or "error"
	Files *prometheus.CounterVec

	// Faults by kind, such as "hierarchy" or "sequence"
	Faults *prometheus.CounterVec

	// Field lines read and lines skipped as undeclared
	Fields       prometheus.Counter
	SkippedLines prometheus.Counter

	// Completed blocks, counted as they close
	BlocksClosed prometheus.Counter

	// Wall time of one file parse
	ParseDuration prometheus.Histogram
}

// New creates a Metrics instance registered with reg. A nil reg registers
// with the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Files: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neodes_files_parsed_total",
			Help: "Total declaration files parsed by result",
		}, []string{"result"}),

		Faults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neodes_faults_total",
			Help: "Total parse faults by kind",
		}, []string{"kind"}),

		Fields: f.NewCounter(prometheus.CounterOpts{
			Name: "neodes_fields_read_total",
			Help: "Total non-blank field lines read",
		}),

		SkippedLines: f.NewCounter(prometheus.CounterOpts{
			Name: "neodes_skipped_lines_total",
			Help: "Total lines skipped because their block does not declare the field",
		}),

		BlocksClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "neodes_blocks_closed_total",
			Help: "Total block instances completed",
		}),

		ParseDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "neodes_parse_duration_seconds",
			Help:    "Duration of a full file parse",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveFile records the outcome of one file parse.
func (m *Metrics) ObserveFile(d time.Duration, fields, skipped int, err error) {
	if m == nil {
		return
	}
	m.ParseDuration.Observe(d.Seconds())
	m.Fields.Add(float64(fields))
	m.SkippedLines.Add(float64(skipped))
	if err == nil {
		m.Files.WithLabelValues("ok").Inc()
		return
	}
	m.Files.WithLabelValues("error").Inc()
	kind := "other"
	if k, ok := fault.KindOf(err); ok {
		kind = k.String()
	}
	m.Faults.WithLabelValues(kind).Inc()
}

// BlockClosed counts one completed block.
func (m *Metrics) BlockClosed() {
	if m != nil {
		m.BlocksClosed.Inc()
	}
}
