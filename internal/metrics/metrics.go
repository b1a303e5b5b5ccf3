// Package metrics exposes Prometheus instrumentation for the
// recommendation pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RecommendDuration tracks latency of the recommend endpoint.
	RecommendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cardwise_recommend_latency_seconds",
		Help:    "Latency of the recommend endpoint",
		Buckets: prometheus.DefBuckets,
	})

	// RecommendTotal counts recommendations served, by spending category.
	RecommendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cardwise_recommend_total",
		Help: "Total recommendations served by spending category",
	}, []string{"category"})

	// ScoreTotal counts single-card score requests.
	ScoreTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardwise_score_total",
		Help: "Total single card score requests",
	})

	// CardsScored tracks how many cards each ranking pass evaluated.
	CardsScored = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cardwise_cards_scored",
		Help:    "Cards evaluated per ranking pass",
		Buckets: []float64{1, 2, 4, 8, 16, 32},
	})

	// RulesFiltered counts cards excluded by eligibility rules.
	RulesFiltered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardwise_rules_filtered_total",
		Help: "Cards excluded from ranking by eligibility rules",
	})

	// ProfileRefreshes counts background profile aggregations.
	ProfileRefreshes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardwise_profile_refreshes_total",
		Help: "Background profile refreshes completed",
	})
)

// Init registers all collectors with the default registry. Call once at
// startup.
func Init() {
	prometheus.MustRegister(
		RecommendDuration,
		RecommendTotal,
		ScoreTotal,
		CardsScored,
		RulesFiltered,
		ProfileRefreshes,
	)
}
