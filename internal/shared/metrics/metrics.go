package metrics

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clinical"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	WorkersBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "host_workers_busy", Help: "Worker slots currently serving a request."},
	)
	WorkersCapacity = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "host_workers_capacity", Help: "Size of the worker pool."},
	)
	Answers = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "answers_total", Help: "Answers produced by source and outcome."},
		[]string{"source", "outcome"},
	)
	GuidelinesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "guidelines_ingested_total", Help: "Guideline texts ingested."},
	)
	CorpusFiles = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "corpus_files", Help: "Files currently held in the assistant corpus."},
	)
	SearchQueries = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "search_queries_total", Help: "Search index queries served."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

var (
	registryOnce sync.Once
	registry     *prometheus.Registry
)

// RegisterCollectors registers the application collectors on reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequests,
		HTTPDuration,
		WorkersBusy,
		WorkersCapacity,
		Answers,
		GuidelinesIngested,
		CorpusFiles,
		SearchQueries,
		RateLimitAllowed,
		RateLimitRejected,
	)
}

// Registry returns the process registry, creating it on first use.
func Registry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		RegisterCollectors(registry)
	})
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
