package windwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"neurowind/internal/models"
	"neurowind/internal/neuro"
	"neurowind/shared/config"
	"neurowind/shared/monitoring"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrInvalidParams is matched by every *ParamError.
var ErrInvalidParams = errors.New("invalid cycle parameters")

// ParamError reports a cycle input outside its domain.
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ParamError) Is(target error) bool { return target == ErrInvalidParams }

// Cycle runs one interaction: fetch the forecast for a city, push it through
// the pipeline and assemble the render model.
type Cycle struct {
	cities   []models.City
	source   ForecastSource
	lif      neuro.LIFParameters
	validate *validator.Validate
	metrics  *monitoring.Metrics
	clock    clockwork.Clock
	logger   *slog.Logger
}

func NewCycle(cities []models.City, source ForecastSource, metrics *monitoring.Metrics, clock clockwork.Clock, logger *slog.Logger) *Cycle {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cycle{
		cities:   cities,
		source:   source,
		lif:      neuro.DefaultLIFParameters(),
		validate: validator.New(),
		metrics:  metrics,
		clock:    clock,
		logger:   logger,
	}
}

// ParamsFromConfig returns the configured default inputs.
func ParamsFromConfig(cfg *config.Config) models.CycleParams {
	return models.CycleParams{
		City:      cfg.Pipeline.DefaultCity,
		Threshold: cfg.Pipeline.Threshold,
		Window:    cfg.Pipeline.Window,
		Armed:     cfg.Alert.Armed,
		Recipient: cfg.Alert.Recipient,
	}
}

func (c *Cycle) Cities() []models.City {
	return c.cities
}

// City looks up a configured city by name.
func (c *Cycle) City(name string) (models.City, bool) {
	for _, city := range c.cities {
		if city.Name == name {
			return city, true
		}
	}
	return models.City{}, false
}

// Run executes the cycle for p. A fetch failure aborts with no model; every
// other condition is reported through RenderModel.Warnings.
func (c *Cycle) Run(ctx context.Context, p models.CycleParams) (*models.RenderModel, error) {
	start := c.clock.Now()

	if err := c.Validate(p); err != nil {
		c.metrics.Cycles.WithLabelValues("", "invalid").Inc()
		return nil, err
	}
	city, ok := c.City(p.City)
	if !ok {
		c.metrics.Cycles.WithLabelValues("", "invalid").Inc()
		return nil, &ParamError{Field: "city", Reason: fmt.Sprintf("%q is not a configured city", p.City)}
	}

	wind, err := c.source.GetHourlyWind(ctx, city)
	if err != nil {
		c.metrics.Cycles.WithLabelValues(city.Name, "fetch_error").Inc()
		return nil, err
	}

	model := c.Build(city, p, wind.SpeedsKmh)
	c.metrics.Cycles.WithLabelValues(city.Name, "ok").Inc()
	c.metrics.CycleDuration.Observe(c.clock.Since(start).Seconds())

	c.logger.Info("cycle complete",
		"run_id", model.RunID,
		"city", city.Name,
		"spikes", model.Summary.SpikeCount,
		"max_wind", model.Summary.MaxWind,
		"alert", model.Alert.Trigger,
		"warnings", len(model.Warnings))

	return model, nil
}

// Replay runs the pipeline over a previously exported series instead of a
// live forecast. Unknown cities are accepted by name.
func (c *Cycle) Replay(p models.CycleParams, wind []float64) (*models.RenderModel, error) {
	if err := c.Validate(p); err != nil {
		return nil, err
	}
	if len(wind) < neuro.HoursPerCycle {
		return nil, &neuro.InsufficientDataError{Got: len(wind), Want: neuro.HoursPerCycle}
	}
	wind = wind[:neuro.HoursPerCycle]
	if err := neuro.CheckSamples(wind); err != nil {
		return nil, err
	}
	city, ok := c.City(p.City)
	if !ok {
		city = models.City{Name: p.City}
	}
	return c.Build(city, p, wind), nil
}

// Validate checks p against the threshold, window and recipient domains.
func (c *Cycle) Validate(p models.CycleParams) error {
	if err := c.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ParamError{Field: strings.ToLower(fe.Field()), Reason: describeTag(fe)}
		}
		return &ParamError{Field: "params", Reason: err.Error()}
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be an email address"
	default:
		return "failed " + fe.Tag()
	}
}

// Build turns a validated 24-hour series into the render model. It does no I/O.
func (c *Cycle) Build(city models.City, p models.CycleParams, wind []float64) *models.RenderModel {
	res := neuro.Process(wind, p.Threshold, p.Window, c.lif)

	rows := make([]models.HourRow, len(res.Wind))
	for i := range res.Wind {
		rows[i] = models.HourRow{
			Hour:           i,
			Wind:           res.Wind[i],
			NormalizedWind: res.Normalized[i],
			Spike:          res.Spikes[i],
			NeuronOutput:   res.Output[i],
		}
		if f := res.Forecast[i]; f.Valid {
			v := f.Value
			rows[i].PredictedWind = &v
		}
	}

	summary := models.Summary{
		SpikeCount:      res.Spikes.Count(),
		Hours:           len(res.Spikes),
		MaxNeuronOutput: res.MaxOutput(),
		MaxWind:         res.MaxWind(),
	}
	if next, err := res.NextHour(); err == nil {
		summary.NextHour = &next
	}

	decision := neuro.EvaluateAlert(res.Wind, p.Armed, p.Recipient)

	warnings := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w.Error())
	}

	c.metrics.SpikeCount.WithLabelValues(city.Name).Set(float64(summary.SpikeCount))
	c.metrics.MaxWind.WithLabelValues(city.Name).Set(summary.MaxWind)

	return &models.RenderModel{
		RunID:       uuid.NewString(),
		GeneratedAt: c.clock.Now().UTC().Truncate(time.Second),
		City:        city,
		Params:      p,
		Rows:        rows,
		Summary:     summary,
		Alert: models.AlertView{
			Armed:        decision.Armed,
			Exceeded:     decision.Exceeded,
			Trigger:      decision.Trigger,
			MaxWind:      decision.MaxWind,
			ThresholdKmh: neuro.AlertThresholdKmh,
			Recipient:    decision.Recipient,
		},
		Warnings: warnings,
	}
}
