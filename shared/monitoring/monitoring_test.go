package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neurowind/shared/logging"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	m := NewMonitorWithClock(logging.Discard(), clock)

	assert.True(t, m.IsHealthy())
	assert.Equal(t, "No runs yet", m.GetStatusSummary())

	m.RecordSuccess("5 cities checked", time.Second)
	assert.True(t, m.IsHealthy())
	assert.Equal(t, "Last run: Mar 14 09:30 (5 cities checked)", m.GetStatusSummary())

	m.RecordPartialFailure(errors.New("one city failed"), time.Second)
	assert.True(t, m.IsHealthy())

	clock.Advance(time.Hour)
	m.RecordCriticalFailure(errors.New("forecast source down"), time.Second)
	assert.False(t, m.IsHealthy())
	assert.Equal(t, "Last run failed: Mar 14 10:30 (forecast source down)", m.GetStatusSummary())
}

func TestHealthServer_Handler(t *testing.T) {
	m := NewMonitor(logging.Discard())
	h := NewHealthServer(m, 0, logging.Discard()).Handler()

	tests := []struct {
		name       string
		path       string
		setup      func()
		wantStatus int
		wantBody   string
	}{
		{"healthy before runs", "/health", func() {}, http.StatusOK, "OK - No runs yet"},
		{"status", "/status", func() {}, http.StatusOK, "No runs yet"},
		{"unhealthy after failure", "/health", func() {
			m.RecordCriticalFailure(errors.New("boom"), 0)
		}, http.StatusServiceUnavailable, "Service unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestMetricsForTesting(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()
	require.NotSame(t, a, b)

	a.Cycles.WithLabelValues("Abidjan", "ok").Inc()
	a.FetchCache.WithLabelValues("hit").Add(2)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Cycles.WithLabelValues("Abidjan", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.FetchCache.WithLabelValues("hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FetchCache.WithLabelValues("hit")))
}
