package windwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"neurowind/internal/models"
	"neurowind/shared/email"
	"neurowind/shared/logging"
	"neurowind/shared/monitoring"

	"github.com/jonboulle/clockwork"
)

const briefingTimeout = 20 * time.Second

// ErrNotTriggered is returned by Dispatcher.Send when the cycle's alert
// decision did not trigger, so nothing was sent.
var ErrNotTriggered = errors.New("alert not triggered")

// Briefer adds a short narrative to an alert report.
type Briefer interface {
	Brief(ctx context.Context, report *models.AlertReport, hourly []float64) (string, error)
}

// Dispatcher delivers the alert for a finished cycle. Delivery is always an
// explicit action separate from the cycle itself.
type Dispatcher struct {
	notifier email.Notifier
	briefer  Briefer
	metrics  *monitoring.Metrics
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewDispatcher builds a dispatcher. briefer may be nil.
func NewDispatcher(notifier email.Notifier, briefer Briefer, metrics *monitoring.Metrics, clock clockwork.Clock, logger *slog.Logger) *Dispatcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		notifier: notifier,
		briefer:  briefer,
		metrics:  metrics,
		clock:    clock,
		logger:   logger,
	}
}

// AlertMessage is the one-line alert text.
func AlertMessage(city string, maxWind float64) string {
	return fmt.Sprintf("Alert: strong wind detected in %s (%.1f km/h)", city, maxWind)
}

// BuildAlertReport summarizes model for the alert email.
func BuildAlertReport(model *models.RenderModel, now time.Time) *models.AlertReport {
	peak := 0
	for i := 1; i < len(model.Rows); i++ {
		if model.Rows[i].Wind > model.Rows[peak].Wind {
			peak = i
		}
	}
	return &models.AlertReport{
		Date:         now,
		City:         model.City.Name,
		MaxWindKmh:   model.Alert.MaxWind,
		ThresholdKmh: model.Alert.ThresholdKmh,
		PeakHour:     peak,
		SpikeCount:   model.Summary.SpikeCount,
		Hours:        model.Summary.Hours,
		Message:      AlertMessage(model.City.Name, model.Alert.MaxWind),
	}
}

// Send delivers the alert for model to its recipient. It returns
// ErrNotTriggered when the decision did not trigger, and a
// *email.NotificationError when delivery failed. Neither is fatal to callers.
func (d *Dispatcher) Send(ctx context.Context, model *models.RenderModel) error {
	if model == nil || !model.Alert.Trigger {
		d.metrics.Alerts.WithLabelValues("skipped").Inc()
		return ErrNotTriggered
	}

	report := BuildAlertReport(model, d.clock.Now())
	if d.briefer != nil {
		report.Briefing = d.brief(ctx, report, model)
	}

	recipient := model.Alert.Recipient
	msg, err := email.RenderAlert(report, recipient)
	if err != nil {
		d.metrics.Alerts.WithLabelValues("failed").Inc()
		return &email.NotificationError{Provider: d.notifier.Name(), Recipient: recipient, Reason: email.ReasonUnknown, Err: err}
	}

	if err := d.notifier.Send(ctx, msg); err != nil {
		d.metrics.Alerts.WithLabelValues("failed").Inc()
		d.logger.Error("alert delivery failed", "city", report.City, "provider", d.notifier.Name(), "error", err)
		return err
	}

	d.metrics.Alerts.WithLabelValues("sent").Inc()
	d.logger.Info("alert sent",
		"city", report.City,
		"max_wind", report.MaxWindKmh,
		"provider", d.notifier.Name(),
		"to", logging.RedactEmail(recipient))
	return nil
}

func (d *Dispatcher) brief(ctx context.Context, report *models.AlertReport, model *models.RenderModel) string {
	ctx, cancel := context.WithTimeout(ctx, briefingTimeout)
	defer cancel()

	hourly := make([]float64, len(model.Rows))
	for i, row := range model.Rows {
		hourly[i] = row.Wind
	}

	briefing, err := d.briefer.Brief(ctx, report, hourly)
	if err != nil {
		d.logger.Warn("alert briefing unavailable, sending plain message", "city", report.City, "error", err)
		return ""
	}
	return briefing
}
