package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Outbound HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Provider metrics
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	providerErrors   *prometheus.CounterVec
	pagesFetched     *prometheus.CounterVec
	cacheLoads       *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cointools_http_requests_total",
				Help: "Total number of outbound HTTP requests",
			},
			[]string{"host", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cointools_http_request_duration_seconds",
				Help:    "Outbound HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"host"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cointools_http_requests_in_flight",
				Help: "Number of outbound HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.providerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cointools_provider_requests_total",
			Help: "Total number of provider API requests by response class",
		},
		[]string{"provider", "class"},
	)
	r.providerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cointools_provider_request_duration_seconds",
			Help:    "Provider API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)
	r.providerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cointools_provider_errors_total",
			Help: "Total number of typed errors returned by providers",
		},
		[]string{"provider", "kind"},
	)
	r.pagesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cointools_pages_fetched_total",
			Help: "Total number of listing pages fetched during bulk downloads",
		},
		[]string{"provider"},
	)
	r.cacheLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cointools_cache_loads_total",
			Help: "Total number of memoized list (re)loads",
		},
		[]string{"provider", "cache"},
	)

	reg.MustRegister(r.providerRequests)
	reg.MustRegister(r.providerDuration)
	reg.MustRegister(r.providerErrors)
	reg.MustRegister(r.pagesFetched)
	reg.MustRegister(r.cacheLoads)

	return r
}

// RecordRequest records metrics for an outbound HTTP request.
func (r *Registry) RecordRequest(host string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(host, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(host).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordProviderRequest records a completed provider request. class is the
// response class ("success", "not_found", "client_error", "server_error")
// or "transport_error".
func (r *Registry) RecordProviderRequest(provider, class string, duration float64) {
	r.providerRequests.WithLabelValues(provider, class).Inc()
	r.providerDuration.WithLabelValues(provider).Observe(duration)
}

// RecordProviderError records a typed error surfaced by a provider.
func (r *Registry) RecordProviderError(provider, kind string) {
	r.providerErrors.WithLabelValues(provider, kind).Inc()
}

// RecordPage records one fetched page of a paginated download.
func (r *Registry) RecordPage(provider string) {
	r.pagesFetched.WithLabelValues(provider).Inc()
}

// RecordCacheLoad records a memoized list being (re)loaded.
func (r *Registry) RecordCacheLoad(provider, cache string) {
	r.cacheLoads.WithLabelValues(provider, cache).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status == 0:
		return "error"
	default:
		return "1xx"
	}
}
