package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/neodes/internal/fault"
)

func value(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var out dto.Metric
	require.NoError(t, (<-ch).Write(&out))
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return float64(out.Histogram.GetSampleCount())
}

func TestObserveFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveFile(10*time.Millisecond, 30, 1, nil)
	m.ObserveFile(time.Millisecond, 5, 0, fmt.Errorf("parsing a.dsn: %w", fault.Hierarchy("too deep")))
	m.ObserveFile(time.Millisecond, 0, 0, errors.New("disk on fire"))
	m.BlockClosed()
	m.BlockClosed()

	assert.Equal(t, 1.0, value(t, m.Files.WithLabelValues("ok")))
	assert.Equal(t, 2.0, value(t, m.Files.WithLabelValues("error")))
	assert.Equal(t, 1.0, value(t, m.Faults.WithLabelValues("hierarchy")))
	assert.Equal(t, 1.0, value(t, m.Faults.WithLabelValues("other")))
	assert.Equal(t, 35.0, value(t, m.Fields))
	assert.Equal(t, 1.0, value(t, m.SkippedLines))
	assert.Equal(t, 2.0, value(t, m.BlocksClosed))
	assert.Equal(t, 3.0, value(t, m.ParseDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "neodes_parse_duration_seconds")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFile(time.Second, 1, 1, nil)
		m.BlockClosed()
	})
}
