package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citelens",
		Subsystem: "verify",
		Name:      "sessions_total",
		Help:      "Verification sessions recorded, by outcome.",
	}, []string{"outcome"})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "citelens",
		Subsystem: "verify",
		Name:      "session_duration_seconds",
		Help:      "End-to-end verification session duration.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	citationsFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "citelens",
		Subsystem: "verify",
		Name:      "citations_per_session",
		Help:      "Citations found per verification session.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})

	citationQuality = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "citelens",
		Subsystem: "verify",
		Name:      "citation_quality_score",
		Help:      "Per-citation overall score, by audience segment.",
		Buckets:   prometheus.LinearBuckets(0, 1, 11),
	}, []string{"segment"})

	apiCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "citelens",
		Subsystem: "gateway",
		Name:      "api_call_duration_seconds",
		Help:      "External API call duration, by provider.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"api"})

	apiCallErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citelens",
		Subsystem: "gateway",
		Name:      "api_call_errors_total",
		Help:      "Failed external API calls, by provider.",
	}, []string{"api"})

	cacheHitRate = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "citelens",
		Subsystem: "cache",
		Name:      "hit_rate",
		Help:      "Most recently reported cache hit rate.",
	})

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "citelens",
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Current cache entry count.",
	})

	alertsTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citelens",
		Subsystem: "monitor",
		Name:      "alerts_total",
		Help:      "Threshold alerts raised, by alert type.",
	}, []string{"type"})
)
