package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connector_query_duration_seconds",
			Help:    "Query pipeline duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"source"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_query_total",
			Help: "Total number of queries processed",
		},
		[]string{"source", "status"},
	)

	RecordsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connector_records_returned",
			Help:    "Records returned per response after capping",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
		[]string{"source"},
	)

	VoiceModeQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_voice_mode_queries_total",
			Help: "Total queries served under the voice-mode cap",
		},
	)

	AggregatedResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_aggregated_responses_total",
			Help: "Total responses collapsed into an aggregate summary",
		},
	)

	UnknownFunctionCalls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_unknown_function_calls_total",
			Help: "Total dispatch attempts against unknown function names",
		},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(RecordsReturned)
	prometheus.MustRegister(VoiceModeQueries)
	prometheus.MustRegister(AggregatedResponses)
	prometheus.MustRegister(UnknownFunctionCalls)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
