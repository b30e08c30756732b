package quota

import "github.com/prometheus/client_golang/prometheus"

var (
	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_quota_calls_total",
			Help: "Paid external calls admitted, by service.",
		},
		[]string{"service"},
	)

	deniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_quota_denied_total",
			Help: "Paid external calls refused because the daily limit was reached.",
		},
		[]string{"service"},
	)

	backendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_quota_backend_errors_total",
			Help: "Quota backend failures, by operation.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(callsTotal, deniedTotal, backendErrors)
}
