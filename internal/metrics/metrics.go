package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finchat",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finchat",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finchat",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finchat",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// Chat loop metrics.
var (
	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finchat",
			Name:      "tool_calls_total",
			Help:      "Tool dispatches per tool name and outcome",
		},
		[]string{"tool", "status"}, // status: ok / error / fallback
	)

	BlockedRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "finchat",
			Name:      "blocked_requests_total",
			Help:      "User turns rejected by the request guard",
		},
	)

	TurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "finchat",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end duration of one chat turn",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// Ingest metrics.
var (
	IngestedDocsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finchat",
			Name:      "ingested_docs_total",
			Help:      "Documents written to the vector index",
		},
		[]string{"collection"},
	)

	IngestBatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finchat",
			Name:      "ingest_batch_duration_seconds",
			Help:      "Embed+upsert duration per ingest batch",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"collection"},
	)
)

var registered bool

// Register registers all finchat metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(BlockedRequestsTotal)
	prometheus.MustRegister(TurnDuration)
	prometheus.MustRegister(IngestedDocsTotal)
	prometheus.MustRegister(IngestBatchDuration)
	registered = true
}
