package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// --- Inbound (server) metrics ---
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "code"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_errors_total",
			Help: "Total number of HTTP requests resulting in client or server errors.",
		},
		[]string{"method", "route", "code"},
	)

	// --- Outbound (probe) metrics ---
	HTTPClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_client_requests_total",
			Help: "Total number of outbound HTTP requests, redirect hops included.",
		},
		[]string{"method", "code"},
	)
	HTTPClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_client_request_duration_seconds",
			Help:    "Latency of outbound HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "code"},
	)
	HTTPClientInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_client_requests_in_flight",
			Help: "Outbound HTTP requests currently in flight.",
		},
	)

	// --- Audit metrics ---
	ProbeRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "link_audit_probe_retries_total",
			Help: "Number of probe attempts repeated after a transient failure.",
		},
	)
	ProbeOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_audit_probe_outcomes_total",
			Help: "Probe outcomes by classification.",
		},
		[]string{"outcome"},
	)
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_audit_cache_lookups_total",
			Help: "Result cache lookups by result (hit or miss).",
		},
		[]string{"result"},
	)
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "link_audit_batch_duration_seconds",
			Help:    "Wall time of a probe batch.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// --- Runtime metrics ---
	CPUCount = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "process_cpu_count",
			Help: "Number of CPU cores available.",
		},
		func() float64 { return float64(runtime.NumCPU()) },
	)
)

// MetricsRegister builds the registry served on the metrics host.
func MetricsRegister() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestErrorsTotal,
		HTTPClientRequestsTotal,
		HTTPClientRequestDuration,
		HTTPClientInFlight,
		ProbeRetriesTotal,
		ProbeOutcomesTotal,
		CacheLookupsTotal,
		BatchDuration,
		CPUCount,
	)

	return reg
}
