/*
metrics holds the Prometheus collectors for the gateway: tool calls by name
and outcome, chat streams by outcome with their cost and round count, and
HTTP requests by route and status.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	// Packages
	prometheus "github.com/prometheus/client_golang/prometheus"
	collectors "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Metrics struct {
	registry        *prometheus.Registry
	toolCalls       *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	streams         *prometheus.CounterVec
	streamCost      prometheus.Histogram
	streamRounds    prometheus.Histogram
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const namespace = "debtstack"

// Tool call outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates the collectors and registers them, together with the Go and
// process collectors, on a new registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_streams_total",
			Help:      "Total number of chat streams by terminal event.",
		}, []string{"outcome"}),
		streamCost: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_session_cost_usd",
			Help:      "Total tool cost of a chat stream in USD.",
			Buckets:   []float64{0, 0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1, 2},
		}),
		streamRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_rounds",
			Help:      "Number of model rounds in a chat stream.",
			Buckets:   []float64{1, 2, 3, 4, 5, 10},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.toolCalls, m.toolDuration,
		m.streams, m.streamCost, m.streamRounds,
		m.requests, m.requestDuration,
	)

	return m
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ObserveToolCall records a dispatched tool call
func (m *Metrics) ObserveToolCall(name string, _ float64, failed bool, duration time.Duration) {
	outcome := OutcomeSuccess
	if failed {
		outcome = OutcomeFailure
	}
	m.toolCalls.WithLabelValues(name, outcome).Inc()
	m.toolDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// ObserveStream records the end of a chat stream
func (m *Metrics) ObserveStream(outcome string, cost float64, rounds int) {
	m.streams.WithLabelValues(outcome).Inc()
	m.streamCost.Observe(cost)
	m.streamRounds.Observe(float64(rounds))
}

// ObserveRequest records a completed HTTP request. The path should be the
// route pattern rather than the request path, to bound the label values.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns the Prometheus exposition handler for the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
	})
}

// Registry returns the registry, so other collectors can be added
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
