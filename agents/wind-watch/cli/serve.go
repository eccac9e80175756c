package cli

import (
	"os"
	"os/signal"
	"syscall"

	"neurowind/agents/wind-watch/web"
	"neurowind/shared/monitoring"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web dashboard",
	Long: `Serve the dashboard, the JSON API, the chart and CSV downloads, the explicit
alert action, health, status and Prometheus metrics on one address.

Examples:
  neurowind serve
  neurowind serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}

	svc := newServices(cfg, logger)
	server := web.NewServer(cfg, svc.cycle, svc.dispatcher(ctx, cfg, logger), monitoring.NewMonitor(logger), logger)
	return server.ListenAndServe(ctx)
}
