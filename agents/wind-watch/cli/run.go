package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	windwatch "neurowind/agents/wind-watch"
	"neurowind/internal/models"
	"neurowind/shared/config"

	"github.com/spf13/cobra"
)

var (
	runFlags     cycleFlags
	runCSV       string
	runChart     string
	runJSON      bool
	runTable     bool
	runSendAlert bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one cycle and print the result",
	Long: `Fetch the forecast for one city, run the pipeline and print the summary.

The alert email is only sent with --send-alert, and only when the alert is
armed and the forecast exceeds 30 km/h.

Examples:
  neurowind run
  neurowind run --city "San Pedro" --threshold 0.5 --window 1 --table
  neurowind run --csv neurometeo.csv --chart wind.png
  neurowind run --armed --recipient ops@example.com --send-alert`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().StringVar(&runCSV, "csv", "", "write the per-hour table as CSV to this file")
	runCmd.Flags().StringVar(&runChart, "chart", "", "write the chart as PNG to this file")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the render model as JSON")
	runCmd.Flags().BoolVar(&runTable, "table", false, "print the per-hour table")
	runCmd.Flags().BoolVar(&runSendAlert, "send-alert", false, "send the alert email when it triggers")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc := newServices(cfg, logger)

	model, err := svc.cycle.Run(ctx, runFlags.params(cmd, cfg))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(model); err != nil {
			return err
		}
	} else {
		printModel(out, defaultTheme, model, runTable)
	}

	if err := writeExports(model, runCSV, runChart); err != nil {
		return err
	}
	if runCSV != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "CSV written to %s\n", runCSV)
	}
	if runChart != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Chart written to %s\n", runChart)
	}

	if runSendAlert {
		sendAlert(ctx, cmd.ErrOrStderr(), svc, cfg, logger, model)
	}
	return nil
}

// sendAlert delivers the alert for model when it triggered and prints the
// outcome. The email provider is only set up when there is something to send.
func sendAlert(ctx context.Context, w io.Writer, svc *services, cfg *config.Config, logger *slog.Logger, model *models.RenderModel) {
	if !model.Alert.Trigger {
		reportDelivery(w, model, windwatch.ErrNotTriggered)
		return
	}
	reportDelivery(w, model, svc.dispatcher(ctx, cfg, logger).Send(ctx, model))
}

// reportDelivery prints the outcome of an alert send. Delivery failures are
// reported, never returned.
func reportDelivery(w io.Writer, model *models.RenderModel, err error) {
	switch {
	case err == nil:
		fmt.Fprintln(w, defaultTheme.calmStyle().Render("Alert sent"))
	case errors.Is(err, windwatch.ErrNotTriggered):
		fmt.Fprintln(w, defaultTheme.hintStyle().Render("No alert sent: "+windwatch.AlertLine(model)))
	default:
		fmt.Fprintln(w, defaultTheme.alertStyle().Render("Alert not delivered: "+err.Error()))
	}
}

func writeExports(model *models.RenderModel, csvPath, chartPath string) error {
	if csvPath != "" {
		if err := writeFile(csvPath, func(w io.Writer) error { return windwatch.WriteCSV(w, model.Rows) }); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
	}
	if chartPath != "" {
		if err := writeFile(chartPath, func(w io.Writer) error {
			return windwatch.RenderChart(w, model, windwatch.ChartWidth, windwatch.ChartHeight)
		}); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
