package upstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_cache_hits_total",
			Help: "Total number of provider result cache hits",
		},
		[]string{"source"},
	)

	cacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_cache_misses_total",
			Help: "Total number of provider result cache misses",
		},
		[]string{"source"},
	)
)
