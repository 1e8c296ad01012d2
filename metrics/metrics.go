// Package metrics holds the Prometheus collectors for the words-log service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wordslog"

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, so components can run without a registry.
type Metrics struct {
	// Word store
	WordsTotal    prometheus.Gauge
	Mutations     *prometheus.CounterVec
	Flushes       *prometheus.CounterVec
	FlushDuration prometheus.Histogram
	FlushBytes    prometheus.Histogram

	// Dictionary lookups
	Lookups        *prometheus.CounterVec
	LookupDuration prometheus.Histogram

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		WordsTotal: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "words",
			Help:      "Number of words currently held by the store",
		}),
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Store operations by kind and outcome",
		}, []string{"op", "result"}),
		Flushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "flushes_total",
			Help:      "Writes of the persisted blob by outcome",
		}, []string{"result"}),
		FlushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "flush_duration_seconds",
			Help:      "Time spent writing the persisted blob",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		FlushBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "flush_bytes",
			Help:      "Size of the persisted blob",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		}),
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dictionary",
			Name:      "lookups_total",
			Help:      "Dictionary lookups by outcome",
		}, []string{"result"}),
		LookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dictionary",
			Name:      "lookup_duration_seconds",
			Help:      "Dictionary lookup latency",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "miss"
}

// ObserveMutation counts one store operation.
func (m *Metrics) ObserveMutation(op string, ok bool) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, result(ok)).Inc()
}

// SetWords records the current number of entries.
func (m *Metrics) SetWords(n int) {
	if m == nil {
		return
	}
	m.WordsTotal.Set(float64(n))
}

// ObserveFlush records one write of the persisted blob.
func (m *Metrics) ObserveFlush(size int, d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Flushes.WithLabelValues("error").Inc()
		return
	}
	m.Flushes.WithLabelValues("ok").Inc()
	m.FlushDuration.Observe(d.Seconds())
	m.FlushBytes.Observe(float64(size))
}

// ObserveLookup records one dictionary lookup. outcome is one of
// "found", "not_found" or "error".
func (m *Metrics) ObserveLookup(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
	m.LookupDuration.Observe(d.Seconds())
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
