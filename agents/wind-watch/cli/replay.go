package cli

import (
	"fmt"
	"os"

	windwatch "neurowind/agents/wind-watch"

	"github.com/spf13/cobra"
)

var (
	replayFlags cycleFlags
	replayCSV   string
	replayChart string
	replayTable bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <csv>",
	Short: "Re-run the pipeline over an exported CSV",
	Long: `Read the Wind column of a CSV written by "neurowind run --csv" or the
dashboard download and run the pipeline over it again, typically with a
different threshold or window. No network access is needed.

Examples:
  neurowind replay neurometeo.csv --threshold 0.6
  neurowind replay neurometeo.csv --window 1 --csv replayed.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayFlags.register(replayCmd)
	replayCmd.Flags().StringVar(&replayCSV, "csv", "", "write the replayed table as CSV to this file")
	replayCmd.Flags().StringVar(&replayChart, "chart", "", "write the chart as PNG to this file")
	replayCmd.Flags().BoolVar(&replayTable, "table", false, "print the per-hour table")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	rows, err := windwatch.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	svc := newServices(cfg, logger)
	model, err := svc.cycle.Replay(replayFlags.params(cmd, cfg), windwatch.WindColumn(rows))
	if err != nil {
		return err
	}

	printModel(cmd.OutOrStdout(), defaultTheme, model, replayTable)
	return writeExports(model, replayCSV, replayChart)
}
