package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Cache effectiveness per tier. Hit rate = hits/(hits+misses).
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Upstream weather provider failures per endpoint. Watch for: sustained
	// nonzero rate = degraded weather grounding, users still get answers.
	ProviderErrorsTotal *prometheus.CounterVec

	// Relay outcomes: completed, cancelled, failed.
	RelayStreamsTotal *prometheus.CounterVec

	// Tokens forwarded to clients. Watch for: rate() as generation throughput.
	RelayTokensTotal prometheus.Counter

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherCacheHitsTotal",
			Help: "Total weather cache hits per tier",
		},
		[]string{"tier"},
	)

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherCacheMissesTotal",
			Help: "Total weather cache misses per tier",
		},
		[]string{"tier"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherProviderErrorsTotal",
			Help: "Total upstream weather provider failures per endpoint",
		},
		[]string{"endpoint"},
	)

	RelayStreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayStreamsTotal",
			Help: "Total relayed model streams per outcome",
		},
		[]string{"outcome"},
	)

	RelayTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relayTokensTotal",
			Help: "Total tokens relayed to clients",
		},
	)

	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total requests denied by rate limiting",
		},
	)

	registry.MustRegister(
		CacheHitsTotal,
		CacheMissesTotal,
		ProviderErrorsTotal,
		RelayStreamsTotal,
		RelayTokensTotal,
		RateLimitDeniedTotal,
	)
}

// Handler returns the /metrics HTTP handler for the private registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
