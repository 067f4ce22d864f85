// Package monitor aggregates verification pipeline metrics: session and
// API-call tracking with threshold alerting, cache performance, and a
// rolling health status derived from recent activity.
package monitor

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/model"
)

const (
	healthWindow    = 5 * time.Minute
	bufferRetention = 24 * time.Hour
	bufferPurgeSize = 1000
)

// AlertType identifies a threshold alert
type AlertType string

const (
	AlertLowVerificationRate      AlertType = "LowVerificationRate"
	AlertSlowVerificationResponse AlertType = "SlowVerificationResponse"
	AlertSlowAPIResponse          AlertType = "SlowApiResponse"
	AlertHighErrorRate            AlertType = "HighErrorRate"
	AlertLowCacheHitRate          AlertType = "LowCacheHitRate"
)

// Alert is one threshold breach observed while recording metrics
type Alert struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionMetrics is what one verification session reports
type SessionMetrics struct {
	Duration       time.Duration `json:"duration"`
	CitationsFound int           `json:"citations_found"`
	Successes      int           `json:"successes"`
	Failures       int           `json:"failures"`
	CacheHitRate   float64       `json:"cache_hit_rate"`
	OverallScore   float64       `json:"overall_score"`
}

// SuccessRate is successes over total outcomes; a session with no outcomes
// counts as fully successful.
func (m SessionMetrics) SuccessRate() float64 {
	total := m.Successes + m.Failures
	if total == 0 {
		return 1
	}
	return float64(m.Successes) / float64(total)
}

// APICallMetrics is what one external provider call reports
type APICallMetrics struct {
	Duration time.Duration `json:"duration"`
	Success  bool          `json:"success"`
}

// CacheMetrics is the cache snapshot handed to the monitor
type CacheMetrics struct {
	HitRate   float64 `json:"hit_rate"`
	Entries   int     `json:"entries"`
	TotalHits int64   `json:"total_hits"`
}

// HealthState is the coarse service condition
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// HealthReport summarizes the last five minutes of sessions
type HealthReport struct {
	State           HealthState   `json:"state"`
	SuccessRate     float64       `json:"success_rate"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	WindowSessions  int           `json:"window_sessions"`
	Timestamp       time.Time     `json:"timestamp"`
}

// AnalyticsReport aggregates everything recorded inside one time range
type AnalyticsReport struct {
	TimeRange       time.Duration         `json:"time_range"`
	Sessions        int                   `json:"sessions"`
	SuccessRate     float64               `json:"success_rate"`
	AvgDuration     time.Duration         `json:"avg_duration"`
	TotalCitations  int                   `json:"total_citations"`
	AvgScore        float64               `json:"avg_score"`
	AvgCacheHitRate float64               `json:"avg_cache_hit_rate"`
	APICalls        map[string]APISummary `json:"api_calls"`
	AlertCounts     map[AlertType]int     `json:"alert_counts"`
	GeneratedAt     time.Time             `json:"generated_at"`
}

// APISummary is the per-provider rollup inside an analytics report
type APISummary struct {
	Calls       int           `json:"calls"`
	Errors      int           `json:"errors"`
	AvgDuration time.Duration `json:"avg_duration"`
}

type sessionRecord struct {
	id      string
	metrics SessionMetrics
	at      time.Time
}

type apiRecord struct {
	api     string
	metrics APICallMetrics
	at      time.Time
}

type alertRecord struct {
	alert Alert
	at    time.Time
}

// Monitor records pipeline metrics and raises threshold alerts. Safe for
// concurrent use. All recorded data lives in process memory only.
type Monitor struct {
	mu       sync.Mutex
	sessions map[string]sessionRecord
	apiCalls []apiRecord
	alerts   []alertRecord

	thresholds model.AlertConfig
	logger     *zap.Logger
	handler    func(Alert)

	now func() time.Time // injectable for tests
}

// New creates a Monitor with the given alert thresholds
func New(thresholds model.AlertConfig, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		sessions:   make(map[string]sessionRecord),
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// TrackVerificationSession records one session, evaluates the session-level
// alert rules, and returns any alerts raised.
func (m *Monitor) TrackVerificationSession(sessionID string, metrics SessionMetrics) []Alert {
	now := m.now()

	outcome := "success"
	if metrics.SuccessRate() < 1 {
		outcome = "partial"
	}
	sessionsTotal.WithLabelValues(outcome).Inc()
	sessionDuration.Observe(metrics.Duration.Seconds())
	citationsFound.Observe(float64(metrics.CitationsFound))

	var alerts []Alert
	if rate := metrics.SuccessRate(); rate < m.thresholds.LowVerificationRate {
		alerts = append(alerts, Alert{
			Type:      AlertLowVerificationRate,
			Message:   fmt.Sprintf("verification success rate %.2f below threshold %.2f", rate, m.thresholds.LowVerificationRate),
			Value:     rate,
			Threshold: m.thresholds.LowVerificationRate,
			SessionID: sessionID,
			Timestamp: now,
		})
	}
	if m.thresholds.SlowResponse > 0 && metrics.Duration > m.thresholds.SlowResponse {
		alerts = append(alerts, Alert{
			Type:      AlertSlowVerificationResponse,
			Message:   fmt.Sprintf("verification took %s, threshold %s", metrics.Duration, m.thresholds.SlowResponse),
			Value:     metrics.Duration.Seconds(),
			Threshold: m.thresholds.SlowResponse.Seconds(),
			SessionID: sessionID,
			Timestamp: now,
		})
	}

	m.mu.Lock()
	m.sessions[sessionID] = sessionRecord{id: sessionID, metrics: metrics, at: now}
	m.recordAlertsLocked(alerts, now)
	m.purgeLocked(now)
	m.mu.Unlock()

	m.raise(alerts)
	return alerts
}

// TrackAPICall records one external provider call and evaluates the
// call-level alert rules: slow response, and the provider's rolling error
// rate against the high-error-rate threshold.
func (m *Monitor) TrackAPICall(apiName string, metrics APICallMetrics) []Alert {
	now := m.now()

	apiCallDuration.WithLabelValues(apiName).Observe(metrics.Duration.Seconds())
	if !metrics.Success {
		apiCallErrors.WithLabelValues(apiName).Inc()
	}

	var alerts []Alert
	if m.thresholds.SlowResponse > 0 && metrics.Duration > m.thresholds.SlowResponse {
		alerts = append(alerts, Alert{
			Type:      AlertSlowAPIResponse,
			Message:   fmt.Sprintf("%s call took %s, threshold %s", apiName, metrics.Duration, m.thresholds.SlowResponse),
			Value:     metrics.Duration.Seconds(),
			Threshold: m.thresholds.SlowResponse.Seconds(),
			Timestamp: now,
		})
	}

	m.mu.Lock()
	m.apiCalls = append(m.apiCalls, apiRecord{api: apiName, metrics: metrics, at: now})

	if m.thresholds.HighErrorRate > 0 {
		calls, errors := 0, 0
		for _, rec := range m.apiCalls {
			if rec.api != apiName {
				continue
			}
			calls++
			if !rec.metrics.Success {
				errors++
			}
		}
		if calls > 0 {
			if rate := float64(errors) / float64(calls); rate > m.thresholds.HighErrorRate {
				alerts = append(alerts, Alert{
					Type:      AlertHighErrorRate,
					Message:   fmt.Sprintf("%s error rate %.2f above threshold %.2f", apiName, rate, m.thresholds.HighErrorRate),
					Value:     rate,
					Threshold: m.thresholds.HighErrorRate,
					Timestamp: now,
				})
			}
		}
	}

	m.recordAlertsLocked(alerts, now)
	m.mu.Unlock()

	m.raise(alerts)
	return alerts
}

// TrackCitationQuality records per-citation score observations for a segment
func (m *Monitor) TrackCitationQuality(results []model.VerificationResult, segment model.Segment) {
	for _, r := range results {
		citationQuality.WithLabelValues(string(segment)).Observe(r.OverallScore)
	}
}

// TrackCachePerformance records a cache snapshot and alerts on a low hit
// rate.
func (m *Monitor) TrackCachePerformance(metrics CacheMetrics) []Alert {
	now := m.now()

	cacheHitRate.Set(metrics.HitRate)
	cacheEntries.Set(float64(metrics.Entries))

	var alerts []Alert
	if metrics.HitRate < m.thresholds.LowCacheHitRate {
		alerts = append(alerts, Alert{
			Type:      AlertLowCacheHitRate,
			Message:   fmt.Sprintf("cache hit rate %.2f below threshold %.2f", metrics.HitRate, m.thresholds.LowCacheHitRate),
			Value:     metrics.HitRate,
			Threshold: m.thresholds.LowCacheHitRate,
			Timestamp: now,
		})
	}

	m.mu.Lock()
	m.recordAlertsLocked(alerts, now)
	m.mu.Unlock()

	m.raise(alerts)
	return alerts
}

// GenerateAnalyticsReport aggregates everything recorded inside the given
// trailing time range.
func (m *Monitor) GenerateAnalyticsReport(timeRange time.Duration) AnalyticsReport {
	now := m.now()
	cutoff := now.Add(-timeRange)

	m.mu.Lock()
	defer m.mu.Unlock()

	report := AnalyticsReport{
		TimeRange:   timeRange,
		APICalls:    make(map[string]APISummary),
		AlertCounts: make(map[AlertType]int),
		GeneratedAt: now,
	}

	var successSum, scoreSum, hitRateSum float64
	var durationSum time.Duration
	for _, rec := range m.sessions {
		if rec.at.Before(cutoff) {
			continue
		}
		report.Sessions++
		report.TotalCitations += rec.metrics.CitationsFound
		successSum += rec.metrics.SuccessRate()
		scoreSum += rec.metrics.OverallScore
		hitRateSum += rec.metrics.CacheHitRate
		durationSum += rec.metrics.Duration
	}
	if report.Sessions > 0 {
		n := float64(report.Sessions)
		report.SuccessRate = successSum / n
		report.AvgScore = scoreSum / n
		report.AvgCacheHitRate = hitRateSum / n
		report.AvgDuration = durationSum / time.Duration(report.Sessions)
	}

	durations := make(map[string]time.Duration)
	for _, rec := range m.apiCalls {
		if rec.at.Before(cutoff) {
			continue
		}
		summary := report.APICalls[rec.api]
		summary.Calls++
		if !rec.metrics.Success {
			summary.Errors++
		}
		durations[rec.api] += rec.metrics.Duration
		report.APICalls[rec.api] = summary
	}
	for api, summary := range report.APICalls {
		summary.AvgDuration = durations[api] / time.Duration(summary.Calls)
		report.APICalls[api] = summary
	}

	for _, rec := range m.alerts {
		if rec.at.Before(cutoff) {
			continue
		}
		report.AlertCounts[rec.alert.Type]++
	}

	return report
}

// HealthStatus derives the service condition from the last five minutes of
// sessions. With no recent sessions the service is considered healthy.
func (m *Monitor) HealthStatus() HealthReport {
	now := m.now()
	cutoff := now.Add(-healthWindow)

	m.mu.Lock()
	defer m.mu.Unlock()

	var successSum float64
	var durationSum time.Duration
	count := 0
	for _, rec := range m.sessions {
		if rec.at.Before(cutoff) {
			continue
		}
		count++
		successSum += rec.metrics.SuccessRate()
		durationSum += rec.metrics.Duration
	}

	report := HealthReport{
		State:          HealthHealthy,
		SuccessRate:    1,
		WindowSessions: count,
		Timestamp:      now,
	}
	if count == 0 {
		return report
	}

	report.SuccessRate = successSum / float64(count)
	report.AvgResponseTime = durationSum / time.Duration(count)

	slow := m.thresholds.SlowResponse
	switch {
	case report.SuccessRate < 0.8 || (slow > 0 && report.AvgResponseTime > slow):
		report.State = HealthUnhealthy
	case report.SuccessRate < 0.95 || (slow > 0 && report.AvgResponseTime > time.Duration(float64(slow)*0.7)):
		report.State = HealthDegraded
	}

	return report
}

// Alerts returns a copy of all alerts raised so far
func (m *Monitor) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Alert, len(m.alerts))
	for i, rec := range m.alerts {
		out[i] = rec.alert
	}
	return out
}

// Clear drops all recorded state. For tests.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]sessionRecord)
	m.apiCalls = nil
	m.alerts = nil
}

func (m *Monitor) recordAlertsLocked(alerts []Alert, at time.Time) {
	for _, a := range alerts {
		m.alerts = append(m.alerts, alertRecord{alert: a, at: at})
	}
}

// purgeLocked drops records older than the retention window once the
// session buffer exceeds its size limit
func (m *Monitor) purgeLocked(now time.Time) {
	if len(m.sessions) <= bufferPurgeSize {
		return
	}

	cutoff := now.Add(-bufferRetention)
	for id, rec := range m.sessions {
		if rec.at.Before(cutoff) {
			delete(m.sessions, id)
		}
	}

	kept := m.apiCalls[:0]
	for _, rec := range m.apiCalls {
		if !rec.at.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	m.apiCalls = kept

	keptAlerts := m.alerts[:0]
	for _, rec := range m.alerts {
		if !rec.at.Before(cutoff) {
			keptAlerts = append(keptAlerts, rec)
		}
	}
	m.alerts = keptAlerts
}

// SetAlertHandler registers a callback invoked for every raised alert in
// addition to the log entry and the prometheus counter
func (m *Monitor) SetAlertHandler(handler func(Alert)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

func (m *Monitor) raise(alerts []Alert) {
	m.mu.Lock()
	handler := m.handler
	m.mu.Unlock()

	for _, a := range alerts {
		alertsTriggered.WithLabelValues(string(a.Type)).Inc()
		m.logger.Warn("alert raised",
			zap.String("type", string(a.Type)),
			zap.String("message", a.Message),
			zap.Float64("value", a.Value),
			zap.Float64("threshold", a.Threshold))
		if handler != nil {
			handler(a)
		}
	}
}
