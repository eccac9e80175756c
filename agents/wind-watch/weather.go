package windwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"neurowind/internal/models"
	"neurowind/internal/neuro"
	"neurowind/shared/config"
	"neurowind/shared/monitoring"

	"github.com/sony/gobreaker/v2"
)

const fetchOp = "GET open-meteo"

// ForecastSource supplies the hourly wind forecast for a city.
type ForecastSource interface {
	GetHourlyWind(ctx context.Context, city models.City) (*models.HourlyWind, error)
}

// WeatherClient handles interactions with the Open-Meteo API. Every call makes a
// single attempt; a breaker stops hammering the API after repeated failures.
type WeatherClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	metrics *monitoring.Metrics
	logger  *slog.Logger
}

// openMeteoResponse is the subset of the Open-Meteo forecast response we read.
// Speeds are pointers because the API reports missing hours as null.
type openMeteoResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Hourly    struct {
		Time      []string   `json:"time"`
		WindSpeed []*float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

func NewWeatherClient(cfg *config.WeatherConfig, metrics *monitoring.Metrics, logger *slog.Logger) *WeatherClient {
	if logger == nil {
		logger = slog.Default()
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A caller giving up says nothing about the upstream's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &WeatherClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		metrics: metrics,
		logger:  logger,
	}
}

// GetHourlyWind fetches the next 24 hourly wind speeds (km/h, 10 m) for city.
// Every error is in the neuro.ErrFetch class.
func (w *WeatherClient) GetHourlyWind(ctx context.Context, city models.City) (*models.HourlyWind, error) {
	start := time.Now()
	wind, err := w.fetch(ctx, city)
	w.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		w.metrics.FetchRequests.WithLabelValues("error").Inc()
		w.logger.Warn("forecast fetch failed", "city", city.Name, "error", err)
		return nil, err
	}
	w.metrics.FetchRequests.WithLabelValues("success").Inc()
	return wind, nil
}

func (w *WeatherClient) fetch(ctx context.Context, city models.City) (*models.HourlyWind, error) {
	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&hourly=wind_speed_10m&wind_speed_unit=kmh&timezone=auto&forecast_hours=%d",
		w.baseURL, city.Latitude, city.Longitude, neuro.HoursPerCycle)

	w.logger.Debug("fetching wind forecast", "city", city.Name, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &neuro.FetchError{Op: fetchOp, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := w.breaker.Execute(func() (*http.Response, error) {
		resp, err := w.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, &statusError{code: resp.StatusCode}
		}
		return resp, nil
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return nil, &neuro.FetchError{Op: fetchOp, StatusCode: se.code, Err: err}
		}
		return nil, &neuro.FetchError{Op: fetchOp, Err: err}
	}
	defer resp.Body.Close()

	var apiResp openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &neuro.FetchError{Op: fetchOp, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return w.parse(&apiResp)
}

func (w *WeatherClient) parse(apiResp *openMeteoResponse) (*models.HourlyWind, error) {
	speeds := apiResp.Hourly.WindSpeed
	if len(speeds) < neuro.HoursPerCycle {
		return nil, &neuro.InsufficientDataError{Got: len(speeds), Want: neuro.HoursPerCycle}
	}
	speeds = speeds[:neuro.HoursPerCycle]

	wind := &models.HourlyWind{
		Latitude:  apiResp.Latitude,
		Longitude: apiResp.Longitude,
		Timezone:  apiResp.Timezone,
		SpeedsKmh: make([]float64, neuro.HoursPerCycle),
		FetchedAt: time.Now(),
	}
	for i, s := range speeds {
		if s == nil {
			return nil, &neuro.FetchError{Op: fetchOp, Err: fmt.Errorf("missing wind speed at hour %d", i)}
		}
		wind.SpeedsKmh[i] = *s
	}
	if err := neuro.CheckSamples(wind.SpeedsKmh); err != nil {
		return nil, &neuro.FetchError{Op: fetchOp, Err: err}
	}

	location, err := time.LoadLocation(apiResp.Timezone)
	if err != nil {
		w.logger.Warn("failed to load timezone, using UTC", "timezone", apiResp.Timezone, "error", err)
		location = time.UTC
	}
	if len(apiResp.Hourly.Time) >= neuro.HoursPerCycle {
		wind.Times = make([]time.Time, neuro.HoursPerCycle)
		for i, timeStr := range apiResp.Hourly.Time[:neuro.HoursPerCycle] {
			t, err := time.ParseInLocation("2006-01-02T15:04", timeStr, location)
			if err != nil {
				w.logger.Warn("failed to parse hourly time", "time", timeStr, "error", err)
				continue
			}
			wind.Times[i] = t
		}
	}

	return wind, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("weather API returned status %d", e.code)
}
