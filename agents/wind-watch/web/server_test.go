package web

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	windwatch "neurowind/agents/wind-watch"
	"neurowind/internal/models"
	"neurowind/internal/neuro"
	"neurowind/shared/config"
	"neurowind/shared/email"
	"neurowind/shared/logging"
	"neurowind/shared/monitoring"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	wind []float64
	err  error
}

func (s *stubSource) GetHourlyWind(ctx context.Context, city models.City) (*models.HourlyWind, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.HourlyWind{Latitude: city.Latitude, Longitude: city.Longitude, SpeedsKmh: s.wind}, nil
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (n *stubNotifier) Name() string { return "stub" }

func (n *stubNotifier) Send(ctx context.Context, msg email.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func ramp() []float64 {
	w := make([]float64, neuro.HoursPerCycle)
	for i := range w {
		w[i] = float64(10 * (i + 1))
	}
	return w
}

type testServer struct {
	*Server
	source   *stubSource
	notifier *stubNotifier
	monitor  *monitoring.Monitor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Cities:   config.DefaultCities(),
		Pipeline: config.PipelineConfig{DefaultCity: "Abidjan", Threshold: 0.3, Window: 3},
		Alert:    config.AlertConfig{Recipient: "ops@example.com"},
	}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))
	metrics := monitoring.NewMetricsForTesting()

	ts := &testServer{
		source:   &stubSource{wind: ramp()},
		notifier: &stubNotifier{},
		monitor:  monitoring.NewMonitorWithClock(logging.Discard(), clock),
	}
	cycle := windwatch.NewCycle(cfg.Cities, ts.source, metrics, clock, logging.Discard())
	dispatcher := windwatch.NewDispatcher(ts.notifier, nil, metrics, clock, logging.Discard())
	ts.Server = NewServer(cfg, cycle, dispatcher, ts.monitor, logging.Discard())
	return ts
}

func (ts *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func TestHandleCities(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/cities")
	require.Equal(t, http.StatusOK, rec.Code)

	var cities []models.City
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cities))
	require.Len(t, cities, 5)
	assert.Equal(t, "Abidjan", cities[0].Name)
}

func TestHandleCycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/cycle?city=Korhogo&threshold=0.3&window=3&armed=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var model models.RenderModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
	assert.Equal(t, "Korhogo", model.City.Name)
	assert.Equal(t, 17, model.Summary.SpikeCount)
	assert.True(t, model.Alert.Trigger)
	require.Len(t, model.Rows, neuro.HoursPerCycle)
	require.NotNil(t, model.Rows[0].PredictedWind)
	assert.InDelta(t, 20.0, *model.Rows[0].PredictedWind, 1e-9)
	assert.Nil(t, model.Rows[23].PredictedWind)

	assert.True(t, ts.monitor.IsHealthy())
	assert.Contains(t, ts.monitor.GetStatusSummary(), "Korhogo")
}

func TestHandleCycle_OffGridThreshold(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/cycle?threshold=0.33")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var model models.RenderModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
	assert.Equal(t, 0.33, model.Params.Threshold)
	assert.Equal(t, 16, model.Summary.SpikeCount)
}

func TestHandleCycle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		fetchErr   error
		wantStatus int
		wantCode   string
		healthy    bool
	}{
		{"threshold below range", "threshold=0.05", nil, http.StatusBadRequest, "invalid_params", true},
		{"threshold not a number", "threshold=high", nil, http.StatusBadRequest, "invalid_params", true},
		{"window out of range", "window=7", nil, http.StatusBadRequest, "invalid_params", true},
		{"unknown city", "city=Lagos", nil, http.StatusBadRequest, "invalid_params", true},
		{"bad armed flag", "armed=maybe", nil, http.StatusBadRequest, "invalid_params", true},
		{"fetch failure", "", &neuro.FetchError{Op: "GET open-meteo", StatusCode: 503, Err: errors.New("unavailable")}, http.StatusBadGateway, "fetch_failed", false},
		{"short forecast", "", &neuro.InsufficientDataError{Got: 3, Want: 24}, http.StatusBadGateway, "fetch_failed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.source.err = tt.fetchErr

			rec := ts.do(t, http.MethodGet, "/api/cycle?"+tt.query)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Error)
			assert.NotEmpty(t, resp.RequestID)
			assert.Equal(t, tt.healthy, ts.monitor.IsHealthy())
		})
	}
}

func TestHandleExport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/export.csv?window=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=neurometeo.csv", rec.Header().Get("Content-Disposition"))

	rows, err := windwatch.ReadCSV(rec.Body)
	require.NoError(t, err)
	require.Len(t, rows, neuro.HoursPerCycle)
	require.NotNil(t, rows[23].PredictedWind)
	assert.Equal(t, 240.0, *rows[23].PredictedWind)
}

func TestHandleChart(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/chart.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestHandleAlert(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		notifyErr   error
		wantSent    bool
		wantTrigger bool
		wantError   string
	}{
		{"armed and strong wind", "armed=true", nil, true, true, ""},
		{"disarmed", "armed=false", nil, false, false, "alert disarmed"},
		{"delivery failure", "armed=true", &email.NotificationError{Provider: "stub", Recipient: "ops@example.com", Reason: email.ReasonAuth, Err: errors.New("535")}, false, true, "stub delivery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.notifier.err = tt.notifyErr

			rec := ts.do(t, http.MethodPost, "/api/alert?"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp AlertResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Abidjan", resp.City)
			assert.Equal(t, 240.0, resp.MaxWind)
			assert.Equal(t, tt.wantTrigger, resp.Triggered)
			assert.Equal(t, tt.wantSent, resp.Sent)
			if tt.wantError != "" {
				assert.Contains(t, resp.Error, tt.wantError)
			} else {
				assert.Empty(t, resp.Error)
			}
			assert.NotContains(t, resp.Error, "ops@example.com")
		})
	}
}

func TestServer_EmailProviderUnavailable(t *testing.T) {
	cfg := &config.Config{
		Cities:   config.DefaultCities(),
		Pipeline: config.PipelineConfig{DefaultCity: "Abidjan", Threshold: 0.3, Window: 3},
		Alert:    config.AlertConfig{Recipient: "ops@example.com"},
	}
	metrics := monitoring.NewMetricsForTesting()
	cycle := windwatch.NewCycle(cfg.Cities, &stubSource{wind: ramp()}, metrics, nil, logging.Discard())
	notifier := email.NewUnavailableSender("gmail", errors.New("no usable Gmail token"))
	dispatcher := windwatch.NewDispatcher(notifier, nil, metrics, nil, logging.Discard())
	ts := &testServer{Server: NewServer(cfg, cycle, dispatcher, monitoring.NewMonitor(logging.Discard()), logging.Discard())}

	rec := ts.do(t, http.MethodGet, "/api/cycle?armed=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/alert?armed=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AlertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Triggered)
	assert.False(t, resp.Sent)
	assert.Contains(t, resp.Error, "(auth)")
	assert.Contains(t, resp.Error, "no usable Gmail token")
	assert.NotContains(t, resp.Error, "ops@example.com")
}

func TestHandleAlert_FormBody(t *testing.T) {
	ts := newTestServer(t)

	form := url.Values{"city": {"San Pedro"}, "armed": {"on"}, "recipient": {"crew@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/api/alert", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.notifier.sent, 1)
	assert.Equal(t, "crew@example.com", ts.notifier.sent[0].To)
	assert.Equal(t, email.AlertSubject("San Pedro"), ts.notifier.sent[0].Subject)
}

func TestHandleAlert_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/alert")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Empty(t, ts.notifier.sent)
}

func TestHandlePage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/?city=Yamoussoukro&window=1&armed=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "Yamoussoukro")
	assert.Contains(t, body, "Spikes: 17 / 24")
	assert.Contains(t, body, "Next-hour prediction: 240.00 km/h")
	assert.Contains(t, body, "Alert: strong wind detected in Yamoussoukro (240.0 km/h)")
	assert.Contains(t, body, "/api/chart.png?")
	assert.Contains(t, body, "/api/export.csv?")
}

func TestHandlePage_FetchError(t *testing.T) {
	ts := newTestServer(t)
	ts.source.err = &neuro.FetchError{Op: "GET open-meteo", Err: errors.New("connection refused")}

	rec := ts.do(t, http.MethodGet, "/")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK - No runs yet", rec.Body.String())

	ts.source.err = &neuro.FetchError{Op: "GET open-meteo", Err: errors.New("timeout")}
	ts.do(t, http.MethodGet, "/api/cycle")

	rec = ts.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = ts.do(t, http.MethodGet, "/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Last run failed")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestGzipResponses(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/cycle", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)

	var model models.RenderModel
	require.NoError(t, json.Unmarshal(body, &model))
	assert.Equal(t, "Abidjan", model.City.Name)
}

func TestParseParams(t *testing.T) {
	defaults := models.CycleParams{City: "Abidjan", Threshold: 0.3, Window: 3, Recipient: "ops@example.com"}

	tests := []struct {
		name    string
		query   string
		want    models.CycleParams
		wantErr bool
	}{
		{"defaults", "", defaults, false},
		{"overrides", "city=Korhogo&threshold=0.55&window=5&armed=1", models.CycleParams{City: "Korhogo", Threshold: 0.55, Window: 5, Armed: true, Recipient: "ops@example.com"}, false},
		{"checkbox on", "armed=on", models.CycleParams{City: "Abidjan", Threshold: 0.3, Window: 3, Armed: true, Recipient: "ops@example.com"}, false},
		{"checkbox with hidden fallback", "armed=on&armed=false", models.CycleParams{City: "Abidjan", Threshold: 0.3, Window: 3, Armed: true, Recipient: "ops@example.com"}, false},
		{"blank recipient clears default", "recipient=", models.CycleParams{City: "Abidjan", Threshold: 0.3, Window: 3}, false},
		{"bad window", "window=three", models.CycleParams{}, true},
		{"bad armed", "armed=yes", models.CycleParams{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := parseParams(values, defaults)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, windwatch.ErrInvalidParams)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeParams(t *testing.T) {
	p := models.CycleParams{City: "San Pedro", Threshold: 0.45, Window: 2, Armed: true}
	values, err := url.ParseQuery(encodeParams(p))
	require.NoError(t, err)

	got, err := parseParams(values, models.CycleParams{})
	require.NoError(t, err)
	assert.Equal(t, p, got)
}
