// Package cli provides the command-line interface for neurowind.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	windwatch "neurowind/agents/wind-watch"
	"neurowind/shared/ai"
	"neurowind/shared/config"
	"neurowind/shared/email"
	"neurowind/shared/logging"
	"neurowind/shared/monitoring"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	configFile string
	logLevel   string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "neurowind",
	Short: "Neuromorphic wind forecast dashboard",
	Long: `neurowind fetches the next 24 hours of wind forecast for a city, encodes it
as spikes, runs a leaky integrate-and-fire neuron over them and derives a
moving-average forecast and a strong wind alert.

Examples:
  neurowind run --city Korhogo --threshold 0.45 --window 1
  neurowind serve
  neurowind tui
  neurowind watch --once
  neurowind replay neurometeo.csv`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		if configFile != "" {
			if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
				return err
			}
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger, closeLog = logging.New(cfg.Logging.Level, cfg.Logging.File)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default config.yaml, or $CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(gmailAuthCmd)
}

// services holds the components shared by the commands.
type services struct {
	metrics *monitoring.Metrics
	cycle   *windwatch.Cycle
}

func newServices(cfg *config.Config, logger *slog.Logger) *services {
	metrics := monitoring.NewMetrics()
	clock := clockwork.NewRealClock()

	var source windwatch.ForecastSource = windwatch.NewWeatherClient(&cfg.Weather, metrics, logger)
	if cfg.Weather.CacheTTL > 0 {
		source = windwatch.NewCachedSource(source, cfg.Weather.CacheTTL, cfg.Weather.CacheSize, clock, metrics)
	}

	return &services{
		metrics: metrics,
		cycle:   windwatch.NewCycle(cfg.Cities, source, metrics, clock, logger),
	}
}

// dispatcher builds the alert dispatcher. A provider that cannot be set up,
// like the optional AI briefing, never stops the command: its failure is
// reported on every send instead.
func (s *services) dispatcher(ctx context.Context, cfg *config.Config, logger *slog.Logger) *windwatch.Dispatcher {
	notifier, err := email.NewNotifier(ctx, &cfg.Email, logger)
	if err != nil {
		logger.Warn("email provider unavailable, alerts will not be delivered", "provider", cfg.Email.Provider, "error", err)
		notifier = email.NewUnavailableSender(cfg.Email.Provider, err)
	}

	var briefer windwatch.Briefer
	if cfg.AI.Enabled() {
		b, err := ai.NewBriefer(ctx, &cfg.AI, logger)
		if err != nil {
			logger.Warn("AI briefing disabled", "error", err)
		} else {
			briefer = b
		}
	}

	return windwatch.NewDispatcher(notifier, briefer, s.metrics, clockwork.NewRealClock(), logger)
}
