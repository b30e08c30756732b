package services

import "github.com/prometheus/client_golang/prometheus"

var (
	llmAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_llm_attempts_total",
			Help: "LLM completion attempts by outcome.",
		},
		[]string{"outcome"},
	)
	generationFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_generation_fallbacks_total",
			Help: "Itineraries produced by the template generator, by reason.",
		},
		[]string{"reason"},
	)
	generationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_generation_runs_total",
			Help: "Finished generation runs by result.",
		},
		[]string{"result"},
	)
	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trip_generation_duration_seconds",
			Help:    "Wall time of a generation run.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
	generationInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trip_generation_inflight",
			Help: "Generation runs currently executing.",
		},
	)
	enrichmentLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_enrichment_lookups_total",
			Help: "Place resolutions by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(llmAttempts, generationFallbacks, generationRuns, generationDuration, generationInflight, enrichmentLookups)
}
