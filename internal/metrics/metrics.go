package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── Source adapter metrics ─────────────────────────────────────────────

var (
	SourceFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yieldscope",
		Subsystem: "source",
		Name:      "fetch_total",
		Help:      "Upstream fetches per source, chain and outcome.",
	}, []string{"source", "chain", "status"})

	SourceFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "yieldscope",
		Subsystem: "source",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of an upstream fetch per source in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	SourceRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "yieldscope",
		Subsystem: "source",
		Name:      "records",
		Help:      "Intermediate records produced by the last fetch per source and chain.",
	}, []string{"source", "chain"})
)

// ── Reconciliation metrics ─────────────────────────────────────────────

var (
	MatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yieldscope",
		Subsystem: "match",
		Name:      "total",
		Help:      "Matcher outcomes per source (found, none, ambiguous, override).",
	}, []string{"source", "outcome"})

	PoolsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yieldscope",
		Subsystem: "pool",
		Name:      "total",
		Help:      "Pools processed per chain and status.",
	}, []string{"chain", "status"})
)

// ── HTTP request metrics (serve mode) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yieldscope",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "yieldscope",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// WriteTextfile dumps the default registry in the node_exporter textfile
// format, for one-shot CLI runs.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
