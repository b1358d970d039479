package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM provider and cache Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinerag",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cinerag",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinerag",
			Name:      "completion_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cinerag",
			Name:      "completion_request_duration_seconds",
			Help:      "Chat completion request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinerag",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinerag",
			Name:      "cache_total",
			Help:      "Result cache lookups by outcome",
		},
		[]string{"result"}, // "hit" / "miss" / "unavailable"
	)
)

var llmMetricsRegistered bool

// RegisterMetrics registers the LLM and cache metrics. Must be called once from main.
func RegisterMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(CompletionRequestsTotal)
	prometheus.MustRegister(CompletionRequestDuration)
	prometheus.MustRegister(TokensTotal)
	prometheus.MustRegister(CacheTotal)
	llmMetricsRegistered = true
}
