package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	windwatch "neurowind/agents/wind-watch"
	"neurowind/internal/models"
	"neurowind/shared/config"
	"neurowind/shared/monitoring"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the dashboard: one cycle per request, no session state.
type Server struct {
	cfg        *config.Config
	cycle      *windwatch.Cycle
	dispatcher *windwatch.Dispatcher
	monitor    *monitoring.Monitor
	logger     *slog.Logger
	handler    http.Handler
}

func NewServer(cfg *config.Config, cycle *windwatch.Cycle, dispatcher *windwatch.Dispatcher, monitor *monitoring.Monitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		cycle:      cycle,
		dispatcher: dispatcher,
		monitor:    monitor,
		logger:     logger,
	}
	s.handler = gzhttp.GzipHandler(s.routes())
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handlePage)
	r.Get("/health", monitoring.HealthHandler(s.monitor))
	r.Get("/status", monitoring.StatusHandler(s.monitor))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/cities", s.handleCities)
		r.Get("/cycle", s.handleCycle)
		r.Get("/chart.png", s.handleChart)
		r.Get("/export.csv", s.handleExport)
		r.Post("/alert", s.handleAlert)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s,
		ReadTimeout:       s.cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", s.cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dashboard shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// runCycle parses the request parameters and runs one cycle, recording the
// outcome on the monitor.
func (s *Server) runCycle(r *http.Request) (*models.RenderModel, error) {
	if err := r.ParseForm(); err != nil {
		return nil, &windwatch.ParamError{Field: "form", Reason: err.Error()}
	}
	p, err := parseParams(r.Form, windwatch.ParamsFromConfig(s.cfg))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	model, err := s.cycle.Run(r.Context(), p)
	if err != nil {
		if !errors.Is(err, windwatch.ErrInvalidParams) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("cycle for %s: %w", p.City, err), time.Since(start))
		}
		return nil, err
	}
	s.monitor.RecordSuccess(windwatch.SummaryText(model), time.Since(start))
	return model, nil
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cycle.Cities())
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	model, err := s.runCycle(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	model, err := s.runCycle(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := windwatch.RenderChart(&buf, model, windwatch.ChartWidth, windwatch.ChartHeight); err != nil {
		s.logger.Error("chart rendering failed", "error", err)
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	model, err := s.runCycle(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := windwatch.WriteCSV(&buf, model.Rows); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", windwatch.CSVFileName))
	_, _ = w.Write(buf.Bytes())
}

// AlertResponse reports the outcome of an explicit send request.
type AlertResponse struct {
	RunID     string  `json:"run_id"`
	City      string  `json:"city"`
	MaxWind   float64 `json:"max_wind"`
	Triggered bool    `json:"triggered"`
	Sent      bool    `json:"sent"`
	Error     string  `json:"error,omitempty"`
}

// handleAlert is the explicit "send now" action. A failed delivery is
// reported in the body and is not an HTTP error.
func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	model, err := s.runCycle(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := AlertResponse{
		RunID:     model.RunID,
		City:      model.City.Name,
		MaxWind:   model.Alert.MaxWind,
		Triggered: model.Alert.Trigger,
	}
	switch err := s.dispatcher.Send(r.Context(), model); {
	case err == nil:
		resp.Sent = true
	case errors.Is(err, windwatch.ErrNotTriggered):
		resp.Error = windwatch.AlertLine(model)
	default:
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
