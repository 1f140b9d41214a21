package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProxyRequestsTotal counts forwarded requests by listen port and outcome.
	ProxyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roost_proxy_requests_total",
			Help: "Total number of proxied requests by listen port and outcome",
		},
		[]string{"listen_port", "outcome"},
	)

	// ProxyRequestDuration tracks forwarding latency by listen port.
	ProxyRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roost_proxy_request_duration_seconds",
			Help:    "Proxied request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"listen_port"},
	)

	// ProxyBackendErrorsTotal counts 502s by reason (no_mapping, unreachable, bad_target).
	ProxyBackendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roost_proxy_backend_errors_total",
			Help: "Total number of backend errors by reason",
		},
		[]string{"reason"},
	)

	// ProxyBindFailuresTotal counts listener bind failures per configured port.
	ProxyBindFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roost_proxy_bind_failures_total",
			Help: "Total number of listener bind failures by port",
		},
		[]string{"port"},
	)

	// ProxyListenersActive reports the number of ports currently bound.
	ProxyListenersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "roost_proxy_listeners_active",
			Help: "Number of listen ports currently bound",
		},
	)

	// CertRenewalsTotal counts leaf certificate renewals performed by the engine.
	CertRenewalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roost_cert_renewals_total",
			Help: "Total number of leaf certificate renewals by outcome",
		},
		[]string{"outcome"},
	)

	// CertResolverCacheHits tracks SNI resolver cache hits vs misses.
	CertResolverCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roost_cert_resolver_cache_total",
			Help: "Total number of cert resolver lookups by result",
		},
		[]string{"result"},
	)

	// ReloadDuration is a histogram for config/cert reload time. It is
	// registered but not observed by any reload path.
	ReloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roost_reload_duration_seconds",
			Help:    "Time taken to apply a reload in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(ProxyRequestsTotal)
	prometheus.MustRegister(ProxyRequestDuration)
	prometheus.MustRegister(ProxyBackendErrorsTotal)
	prometheus.MustRegister(ProxyBindFailuresTotal)
	prometheus.MustRegister(ProxyListenersActive)
	prometheus.MustRegister(CertRenewalsTotal)
	prometheus.MustRegister(CertResolverCacheHits)
	prometheus.MustRegister(ReloadDuration)
}

// Handler returns the Prometheus HTTP handler, served on the daemon's local-only metrics port.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
