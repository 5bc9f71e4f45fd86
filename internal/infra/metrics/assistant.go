package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(assistantQueriesTotal, assistantMatches) }

var (
	assistantQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_queries_total",
			Help: "Assistant queries by channel (chat/voice/telegram) and outcome (matched/empty/greeting).",
		},
		[]string{"channel", "outcome"},
	)

	assistantMatches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_matches",
			Help:    "Number of listings returned per assistant query.",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)
)

func ObserveAssistantQuery(channel, outcome string, matches int) {
	assistantQueriesTotal.WithLabelValues(norm(channel), norm(outcome)).Inc()
	assistantMatches.Observe(float64(matches))
}
