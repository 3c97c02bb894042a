package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	hits     *prometheus.CounterVec
	misses   *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "palmdash_cache_hits_total",
			Help: "Pipeline loads served from the cache",
		}, []string{"pipeline"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "palmdash_cache_misses_total",
			Help: "Pipeline loads that had to build",
		}, []string{"pipeline"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "palmdash_cache_build_failures_total",
			Help: "Pipeline loads that failed",
		}, []string{"pipeline"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "palmdash_cache_build_duration_seconds",
			Help:    "Time spent building pipeline outputs",
			Buckets: prometheus.DefBuckets,
		}, []string{"pipeline"}),
	}
}
