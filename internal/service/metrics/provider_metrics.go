package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quantpull",
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Latency of upstream data-provider calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "endpoint"},
	)

	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quantpull",
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Errors by provider and endpoint",
		},
		[]string{"provider", "endpoint"},
	)

	ProviderThrottled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quantpull",
			Subsystem: "provider",
			Name:      "throttled_total",
			Help:      "Calls delayed by the local rate limiter",
		},
		[]string{"provider"},
	)

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quantpull",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of query endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quantpull",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by query endpoint",
		},
		[]string{"endpoint"},
	)

	APICacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quantpull",
			Subsystem: "api",
			Name:      "cache_hits_total",
			Help:      "Query responses served from the response cache",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ProviderLatency, ProviderErrors, ProviderThrottled,
			APILatency, APIErrors, APICacheHits,
		)
	})
}
