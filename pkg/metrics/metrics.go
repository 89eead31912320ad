package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnswersTotal counts answers by audience and selector outcome.
	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faq_answers_total",
			Help: "Total number of FAQ answers by outcome",
		},
		[]string{"audience", "outcome"},
	)

	// AnswerDuration tracks end-to-end answer latency.
	AnswerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "faq_answer_duration_seconds",
			Help:    "Duration of FAQ answer selection in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"audience"},
	)

	// IndexBuilds counts index builds by result.
	IndexBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faq_index_builds_total",
			Help: "Total number of FAQ index builds",
		},
		[]string{"audience", "result"},
	)

	// IndexBuildDuration tracks how long embedding a dataset takes.
	IndexBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "faq_index_build_duration_seconds",
			Help:    "Duration of FAQ index builds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"audience"},
	)

	// EmbeddingRequests counts embedding calls by result.
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faq_embedding_requests_total",
			Help: "Total number of embedding service calls",
		},
		[]string{"result"},
	)

	// EmbeddingDuration tracks embedding call latency, retries included.
	EmbeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faq_embedding_duration_seconds",
			Help:    "Duration of embedding service calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ConversationLogFailures counts dropped conversation log events.
	ConversationLogFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_log_failures_total",
			Help: "Total number of conversation log events that failed to persist",
		},
		[]string{"event"},
	)
)

// ObserveAnswer records a completed answer.
func ObserveAnswer(audience, outcome string, elapsed time.Duration) {
	AnswersTotal.WithLabelValues(audience, outcome).Inc()
	AnswerDuration.WithLabelValues(audience).Observe(elapsed.Seconds())
}

// ObserveIndexBuild records an index build attempt.
func ObserveIndexBuild(audience string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	IndexBuilds.WithLabelValues(audience, result).Inc()
	IndexBuildDuration.WithLabelValues(audience).Observe(elapsed.Seconds())
}

// ObserveEmbedding records an embedding call.
func ObserveEmbedding(elapsed time.Duration, err error) {
	EmbeddingDuration.Observe(elapsed.Seconds())
	if err != nil {
		EmbeddingRequests.WithLabelValues("error").Inc()
		return
	}
	EmbeddingRequests.WithLabelValues("ok").Inc()
}

// ObserveLogFailure records a conversation log event that could not be persisted.
func ObserveLogFailure(event string) {
	ConversationLogFailures.WithLabelValues(event).Inc()
}
