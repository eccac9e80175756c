package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	windwatch "neurowind/agents/wind-watch"
	"neurowind/shared/scheduler"
	"neurowind/shared/storage"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check every city on the configured schedule",
	Long: `Run the cycle for every configured city on the cron schedule from the
config file, one city after another. Alerts are only emailed when
alert.notify_on_schedule is true, and at most once per city per cooldown.

Examples:
  neurowind watch
  neurowind watch --once`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "run a single pass and exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := newServices(cfg, logger)
	dispatcher := svc.dispatcher(ctx, cfg, logger)
	ledger, err := storage.NewAlertLedger(cfg.Storage.DataDir, cfg.Alert.Cooldown, clockwork.NewRealClock())
	if err != nil {
		return err
	}

	agent := windwatch.NewWindWatchAgent(cfg, svc.cycle, dispatcher, ledger, logger)
	s := scheduler.New(cfg, agent, logger)

	if watchOnce {
		if err := agent.Initialize(); err != nil {
			return fmt.Errorf("initialize agent: %w", err)
		}
		return s.RunOnce(ctx)
	}

	if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler failed: %w", err)
	}
	return nil
}
