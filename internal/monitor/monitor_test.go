package monitor

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citelens/citelens/internal/model"
)

func testMonitor() *Monitor {
	return New(model.DefaultConfig().Alerts, nil)
}

func TestTrackVerificationSession_LowSuccessRateAlert(t *testing.T) {
	m := testMonitor()

	// Success rate 0.4, below the default 0.5 threshold
	alerts := m.TrackVerificationSession("session-1", SessionMetrics{
		Duration:       time.Second,
		CitationsFound: 5,
		Successes:      2,
		Failures:       3,
	})

	require.Len(t, alerts, 1, "expected exactly one alert")
	assert.Equal(t, AlertLowVerificationRate, alerts[0].Type)
	assert.InDelta(t, 0.4, alerts[0].Value, 1e-9)
	assert.Equal(t, "session-1", alerts[0].SessionID)
}

func TestTrackVerificationSession_HealthySessionNoAlerts(t *testing.T) {
	m := testMonitor()

	alerts := m.TrackVerificationSession("session-1", SessionMetrics{
		Duration:       time.Second,
		CitationsFound: 3,
		Successes:      3,
	})

	assert.Empty(t, alerts)
}

func TestTrackVerificationSession_SlowResponseAlert(t *testing.T) {
	m := testMonitor()

	alerts := m.TrackVerificationSession("session-1", SessionMetrics{
		Duration:  11 * time.Second,
		Successes: 1,
	})

	require.Len(t, alerts, 1)
	assert.Equal(t, AlertSlowVerificationResponse, alerts[0].Type)
}

func TestTrackAPICall_SlowAndErrorRateAlerts(t *testing.T) {
	m := testMonitor()

	alerts := m.TrackAPICall("moz", APICallMetrics{Duration: 12 * time.Second, Success: true})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertSlowAPIResponse, alerts[0].Type)

	// Second call fails: 1 error in 2 calls is above the 0.1 threshold
	alerts = m.TrackAPICall("moz", APICallMetrics{Duration: time.Second, Success: false})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertHighErrorRate, alerts[0].Type)
}

func TestTrackCachePerformance_LowHitRateAlert(t *testing.T) {
	m := testMonitor()

	alerts := m.TrackCachePerformance(CacheMetrics{HitRate: 0.2, Entries: 10})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLowCacheHitRate, alerts[0].Type)

	alerts = m.TrackCachePerformance(CacheMetrics{HitRate: 0.9, Entries: 10})
	assert.Empty(t, alerts)
}

func TestSetAlertHandler(t *testing.T) {
	m := testMonitor()

	var received []Alert
	m.SetAlertHandler(func(a Alert) { received = append(received, a) })

	m.TrackVerificationSession("session-1", SessionMetrics{
		Duration: time.Second, Successes: 1, Failures: 4,
	})

	require.Len(t, received, 1)
	assert.Equal(t, AlertLowVerificationRate, received[0].Type)
}

func TestHealthStatus_Transitions(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		metrics SessionMetrics
		want    HealthState
	}{
		{"healthy", SessionMetrics{Duration: time.Second, Successes: 20}, HealthHealthy},
		{"degraded success rate", SessionMetrics{Duration: time.Second, Successes: 9, Failures: 1}, HealthDegraded},
		{"degraded response time", SessionMetrics{Duration: 8 * time.Second, Successes: 10}, HealthDegraded},
		{"unhealthy success rate", SessionMetrics{Duration: time.Second, Successes: 7, Failures: 3}, HealthUnhealthy},
		{"unhealthy response time", SessionMetrics{Duration: 11 * time.Second, Successes: 10}, HealthUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMonitor()
			m.now = func() time.Time { return base }

			m.TrackVerificationSession("session-1", tt.metrics)

			report := m.HealthStatus()
			assert.Equal(t, tt.want, report.State)
			assert.Equal(t, 1, report.WindowSessions)
		})
	}
}

func TestHealthStatus_IgnoresSessionsOutsideWindow(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m := testMonitor()
	m.now = func() time.Time { return base }

	// An unhealthy session, but recorded 10 minutes ago
	m.TrackVerificationSession("old", SessionMetrics{Duration: time.Second, Failures: 10})

	m.now = func() time.Time { return base.Add(10 * time.Minute) }
	report := m.HealthStatus()

	assert.Equal(t, HealthHealthy, report.State)
	assert.Equal(t, 0, report.WindowSessions)
}

func TestGenerateAnalyticsReport(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m := testMonitor()
	m.now = func() time.Time { return base }

	m.TrackVerificationSession("s1", SessionMetrics{
		Duration: 2 * time.Second, CitationsFound: 4, Successes: 4, CacheHitRate: 0.5, OverallScore: 7,
	})
	m.TrackVerificationSession("s2", SessionMetrics{
		Duration: 4 * time.Second, CitationsFound: 2, Successes: 1, Failures: 1, CacheHitRate: 0.3, OverallScore: 5,
	})
	m.TrackAPICall("moz", APICallMetrics{Duration: time.Second, Success: true})
	m.TrackAPICall("moz", APICallMetrics{Duration: 3 * time.Second, Success: false})

	report := m.GenerateAnalyticsReport(time.Hour)

	assert.Equal(t, 2, report.Sessions)
	assert.Equal(t, 6, report.TotalCitations)
	assert.InDelta(t, 0.75, report.SuccessRate, 1e-9)
	assert.InDelta(t, 6.0, report.AvgScore, 1e-9)
	assert.InDelta(t, 0.4, report.AvgCacheHitRate, 1e-9)
	assert.Equal(t, 3*time.Second, report.AvgDuration)

	moz := report.APICalls["moz"]
	assert.Equal(t, 2, moz.Calls)
	assert.Equal(t, 1, moz.Errors)
	assert.Equal(t, 2*time.Second, moz.AvgDuration)

	// The moz error rate breach above is counted
	assert.Equal(t, 1, report.AlertCounts[AlertHighErrorRate])
}

func TestGenerateAnalyticsReport_RespectsTimeRange(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m := testMonitor()

	m.now = func() time.Time { return base.Add(-2 * time.Hour) }
	m.TrackVerificationSession("old", SessionMetrics{Duration: time.Second, Successes: 1})

	m.now = func() time.Time { return base }
	m.TrackVerificationSession("recent", SessionMetrics{Duration: time.Second, Successes: 1})

	report := m.GenerateAnalyticsReport(time.Hour)
	assert.Equal(t, 1, report.Sessions)
}

func TestBufferPurge(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m := testMonitor()

	// Fill past the purge threshold with stale sessions
	m.now = func() time.Time { return base.Add(-25 * time.Hour) }
	for i := 0; i < bufferPurgeSize; i++ {
		m.TrackVerificationSession(fmt.Sprintf("stale-%d", i), SessionMetrics{Duration: time.Second, Successes: 1})
	}

	m.now = func() time.Time { return base }
	m.TrackVerificationSession("fresh", SessionMetrics{Duration: time.Second, Successes: 1})

	m.mu.Lock()
	remaining := len(m.sessions)
	m.mu.Unlock()

	assert.Equal(t, 1, remaining, "stale sessions should be purged once the buffer overflows")
}
