package observability

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type hostMetrics struct {
	calls    *prometheus.CounterVec
	aborts   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

type moduleMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	hostMetricsOnce sync.Once
	hostRegistry    *hostMetrics

	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics
)

// HostMetrics returns the lazily-initialised registry recording contract
// invocations executed by the host.
func HostMetrics() *hostMetrics {
	hostMetricsOnce.Do(func() {
		hostRegistry = &hostMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "assetledger",
				Subsystem: "host",
				Name:      "calls_total",
				Help:      "Total contract calls segmented by contract, entrypoint, and outcome.",
			}, []string{"contract", "entrypoint", "outcome"}),
			aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "assetledger",
				Subsystem: "host",
				Name:      "aborts_total",
				Help:      "Aborted contract calls segmented by error kind.",
			}, []string{"contract", "entrypoint", "kind"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "assetledger",
				Subsystem: "host",
				Name:      "call_duration_seconds",
				Help:      "Latency distribution of contract calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"contract", "entrypoint"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "assetledger",
				Subsystem: "host",
				Name:      "events_total",
				Help:      "Committed contract events segmented by type.",
			}, []string{"contract", "type"}),
		}
		prometheus.MustRegister(
			hostRegistry.calls,
			hostRegistry.aborts,
			hostRegistry.duration,
			hostRegistry.events,
		)
	})
	return hostRegistry
}

func label(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

// ObserveCall records the outcome and latency of one top-level call.
func (m *hostMetrics) ObserveCall(contract, entrypoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(label(contract), label(entrypoint), label(outcome)).Inc()
	m.duration.WithLabelValues(label(contract), label(entrypoint)).Observe(d.Seconds())
}

// ObserveAbort counts an aborted call by error kind.
func (m *hostMetrics) ObserveAbort(contract, entrypoint, kind string) {
	if m == nil {
		return
	}
	m.aborts.WithLabelValues(label(contract), label(entrypoint), label(kind)).Inc()
}

// ObserveEvent counts a committed event.
func (m *hostMetrics) ObserveEvent(contract, eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(label(contract), label(eventType)).Inc()
}

// ModuleMetrics returns the lazily-initialised registry used to record
// JSON-RPC method activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "assetledger",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and status code.",
			}, []string{"method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "assetledger",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(moduleRegistry.requests, moduleRegistry.latency)
	})
	return moduleRegistry
}

// Observe records the outcome of one JSON-RPC request. status is the
// JSON-RPC error code, zero on success.
func (m *moduleMetrics) Observe(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(label(method), strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(label(method)).Observe(d.Seconds())
}
