package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paperfix"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// LLMRequests counts provider calls by operation (generate|edit), mode (blocking|stream) and outcome.
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "llm_requests_total", Help: "LLM provider requests by operation, mode and outcome."},
		[]string{"operation", "mode", "outcome"},
	)
	LLMDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "llm_request_duration_seconds", Help: "Time until the provider answered (blocking) or the stream opened.", Buckets: prometheus.ExponentialBuckets(0.25, 2, 9)},
		[]string{"operation", "mode"},
	)
	LLMStreamChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "llm_stream_chunks_total", Help: "Text deltas relayed to clients."},
		[]string{"operation"},
	)
	LLMChunkParseErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "llm_chunk_parse_errors_total", Help: "Provider stream lines that could not be parsed and were skipped."},
	)

	DocumentOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "document_operations_total", Help: "Document repository operations by name and outcome."},
		[]string{"op", "outcome"},
	)

	Exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "exports_total", Help: "Document exports by kind (pdf|email|archive) and outcome."},
		[]string{"kind", "outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(LLMRequests)
	reg.MustRegister(LLMDuration)
	reg.MustRegister(LLMStreamChunks)
	reg.MustRegister(LLMChunkParseErrors)
	reg.MustRegister(DocumentOps)
	reg.MustRegister(Exports)
}

// Outcome maps an error to the "outcome" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
