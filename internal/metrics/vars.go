package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RoundsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arb_rounds_total",
		Help: "Number of collection rounds started",
	})

	RoundQuotes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arb_round_quotes",
		Help: "Quotes collected in the most recent round",
	})

	VenueErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_venue_errors_total",
		Help: "Number of venue fetch failures",
	}, []string{"venue"})

	VenueFetchSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_venue_fetch_seconds",
		Help:    "Time to fetch one venue quote",
		Buckets: prometheus.DefBuckets,
	})

	OpportunitiesFound = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_opportunities_total",
		Help: "Opportunities that passed a policy threshold",
	}, []string{"policy"})
)

func init() {
	prometheus.MustRegister(
		RoundsTotal,
		RoundQuotes,
		VenueErrors,
		VenueFetchSeconds,
		OpportunitiesFound,
	)
}
