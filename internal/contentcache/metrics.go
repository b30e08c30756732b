package contentcache

import "github.com/prometheus/client_golang/prometheus"

var lookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "trip_cache_lookups_total",
		Help: "Content cache lookups by operation and result.",
	},
	[]string{"operation", "result"},
)

func init() {
	prometheus.MustRegister(lookups)
}
