package windwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"neurowind/shared/config"
	"neurowind/shared/scheduler"
	"neurowind/shared/storage"
)

// WatchMetrics represents the metrics collected during one scheduled pass
type WatchMetrics struct {
	Cities    int `json:"cities"`
	Failed    int `json:"failed"`
	Triggered int `json:"triggered"`
	Sent      int `json:"sent"`
	Cooldown  int `json:"cooldown"`
}

// GetSummary implements the scheduler.Metrics interface
func (m WatchMetrics) GetSummary() string {
	ok := m.Cities - m.Failed
	switch {
	case m.Sent > 0:
		return fmt.Sprintf("%d/%d cities checked, %d alerts triggered, %d sent", ok, m.Cities, m.Triggered, m.Sent)
	case m.Triggered > 0:
		return fmt.Sprintf("%d/%d cities checked, %d alerts triggered, none sent", ok, m.Cities, m.Triggered)
	default:
		return fmt.Sprintf("%d/%d cities checked, no strong wind", ok, m.Cities)
	}
}

// WindWatchAgent implements the scheduler.Agent interface. Each pass runs the
// cycle for every configured city, one after another.
type WindWatchAgent struct {
	config     *config.Config
	cycle      *Cycle
	dispatcher *Dispatcher
	ledger     *storage.AlertLedger
	logger     *slog.Logger
}

func NewWindWatchAgent(cfg *config.Config, cycle *Cycle, dispatcher *Dispatcher, ledger *storage.AlertLedger, logger *slog.Logger) *WindWatchAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &WindWatchAgent{
		config:     cfg,
		cycle:      cycle,
		dispatcher: dispatcher,
		ledger:     ledger,
		logger:     logger,
	}
}

func (a *WindWatchAgent) Name() string {
	return "Wind Watch Agent"
}

func (a *WindWatchAgent) Initialize() error {
	if a.cycle == nil || a.dispatcher == nil || a.ledger == nil {
		return errors.New("wind watch agent is missing its cycle, dispatcher or ledger")
	}
	if len(a.config.Cities) == 0 {
		return errors.New("no cities configured")
	}
	if a.config.Alert.NotifyOnSchedule && a.config.Alert.Recipient == "" {
		return errors.New("alert.notify_on_schedule requires alert.recipient")
	}

	a.logger.Info("wind watch configured",
		"cities", len(a.config.Cities),
		"armed", a.config.Alert.Armed,
		"notify", a.config.Alert.NotifyOnSchedule,
		"cooldown", a.config.Alert.Cooldown)
	return nil
}

func (a *WindWatchAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := WatchMetrics{Cities: len(a.config.Cities)}
	defaults := ParamsFromConfig(a.config)

	var lastErr error
	for _, city := range a.config.Cities {
		if err := ctx.Err(); err != nil {
			return err
		}

		params := defaults
		params.City = city.Name

		model, err := a.cycle.Run(ctx, params)
		if err != nil {
			metrics.Failed++
			lastErr = err
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("cycle for %s failed: %w", city.Name, err), time.Since(startTime))
			}
			continue
		}
		a.logger.Info("city checked", "city", city.Name, "summary", SummaryText(model))

		if !model.Alert.Trigger {
			continue
		}
		metrics.Triggered++

		if !a.config.Alert.NotifyOnSchedule {
			a.logger.Info("alert triggered, scheduled notification disabled", "city", city.Name, "max_wind", model.Alert.MaxWind)
			continue
		}
		if a.ledger.InCooldown(city.Name) {
			metrics.Cooldown++
			a.logger.Info("alert triggered, city in cooldown", "city", city.Name)
			continue
		}

		if err := a.dispatcher.Send(ctx, model); err != nil {
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("alert for %s not delivered: %w", city.Name, err), time.Since(startTime))
			}
			continue
		}
		metrics.Sent++
		if err := a.ledger.MarkSent(city.Name); err != nil {
			a.logger.Warn("failed to record sent alert", "city", city.Name, "error", err)
		}
	}

	if metrics.Cities > 0 && metrics.Failed == metrics.Cities {
		err := fmt.Errorf("every city failed, last error: %w", lastErr)
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, time.Since(startTime))
		}
		return err
	}

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, time.Since(startTime))
	}
	a.logger.Info("wind watch pass complete", "summary", metrics.GetSummary())
	return nil
}
