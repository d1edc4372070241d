package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ScreeningsTotal counts screened content items by resulting status.
	ScreeningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_screenings_total",
		Help: "Total number of screened content items by verdict status",
	}, []string{"status", "content_type"})

	// RuleTriggers counts rule hits by rule category.
	RuleTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_rule_triggers_total",
		Help: "Total number of moderation rule triggers by category",
	}, []string{"category", "rule_type"})

	// ScreeningFailures counts screenings that fell back to the fail-safe verdict.
	ScreeningFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_screening_failures_total",
		Help: "Total number of screenings that degraded to the fail-safe pending_review verdict",
	})

	// QueueDepth is the gauge of queue items by status.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gatekeeper_queue_depth",
		Help: "Number of moderation queue items by status",
	}, []string{"status"})

	// ReviewLatency records time from enqueue to completed review.
	ReviewLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gatekeeper_review_latency_seconds",
		Help:    "Time from queue item creation to completed review",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	// ReportsTotal counts user reports by reason.
	ReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_reports_total",
		Help: "Total number of user reports by reason",
	}, []string{"reason"})

	// ModerationEventsTotal counts published moderation events by type.
	ModerationEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_moderation_events_total",
		Help: "Total number of published moderation events by type",
	}, []string{"event_type"})
)

// ObserveReviewLatency records the latency of a completed review.
func ObserveReviewLatency(createdAt, reviewedAt time.Time) {
	if reviewedAt.After(createdAt) {
		ReviewLatency.Observe(reviewedAt.Sub(createdAt).Seconds())
	}
}
