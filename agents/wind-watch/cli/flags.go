package cli

import (
	windwatch "neurowind/agents/wind-watch"
	"neurowind/internal/models"
	"neurowind/shared/config"

	"github.com/spf13/cobra"
)

// cycleFlags are the per-cycle inputs. Flags left unset keep the configured defaults.
type cycleFlags struct {
	city      string
	threshold float64
	window    int
	armed     bool
	recipient string
}

func (f *cycleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.city, "city", "", "city name (default from config)")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "spike threshold, 0.1 to 1.0")
	cmd.Flags().IntVar(&f.window, "window", 0, "moving-average window, 1 to 5")
	cmd.Flags().BoolVar(&f.armed, "armed", false, "arm the strong wind alert")
	cmd.Flags().StringVar(&f.recipient, "recipient", "", "alert recipient email")
}

func (f *cycleFlags) params(cmd *cobra.Command, cfg *config.Config) models.CycleParams {
	p := windwatch.ParamsFromConfig(cfg)
	if cmd.Flags().Changed("city") {
		p.City = f.city
	}
	if cmd.Flags().Changed("threshold") {
		p.Threshold = f.threshold
	}
	if cmd.Flags().Changed("window") {
		p.Window = f.window
	}
	if cmd.Flags().Changed("armed") {
		p.Armed = f.armed
	}
	if cmd.Flags().Changed("recipient") {
		p.Recipient = f.recipient
	}
	return p
}
