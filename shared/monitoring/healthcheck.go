package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthServer struct {
	monitor *Monitor
	server  *http.Server
	logger  *slog.Logger
}

func NewHealthServer(monitor *Monitor, port int, logger *slog.Logger) *HealthServer {
	if port == 0 {
		port = 8081
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &HealthServer{monitor: monitor, logger: logger}
	h.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return h
}

// Handler serves /health, /status and /metrics.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HealthHandler(h.monitor))
	mux.HandleFunc("GET /status", StatusHandler(h.monitor))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start listens in the background until Shutdown.
func (h *HealthServer) Start() {
	h.logger.Info("health server starting", "addr", h.server.Addr)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server error", "error", err)
		}
	}()
}

func (h *HealthServer) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// HealthHandler answers 200 while the last run succeeded and 503 otherwise.
func HealthHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if m.IsHealthy() {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "OK - %s", m.GetStatusSummary())
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Service unhealthy - %s", m.GetStatusSummary())
	}
}

func StatusHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, m.GetStatusSummary())
	}
}
