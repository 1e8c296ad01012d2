package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/stevemurr/words-log/metrics"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveMutation("add", true)
		m.SetWords(3)
		m.ObserveFlush(10, time.Millisecond, nil)
		m.ObserveLookup("found", time.Millisecond)
		m.ObserveRequest("GET", "/words", 200, time.Millisecond)
	})
}

func TestMetricsRecord(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveMutation("add", true)
	m.ObserveMutation("add", true)
	m.ObserveMutation("add", false)
	m.SetWords(2)
	m.ObserveFlush(128, time.Millisecond, nil)
	m.ObserveFlush(0, 0, errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add", "miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.WordsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Flushes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Flushes.WithLabelValues("error")))
}
