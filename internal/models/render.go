package models

import "time"

// CycleParams are the user inputs of one interaction cycle.
type CycleParams struct {
	City      string  `json:"city" validate:"required"`
	Threshold float64 `json:"threshold" validate:"gte=0.1,lte=1"`
	Window    int     `json:"window" validate:"gte=1,lte=5"`
	Armed     bool    `json:"armed"`
	Recipient string  `json:"recipient" validate:"omitempty,email"`
}

// HourRow is one line of the per-hour table. PredictedWind is nil when the
// forecast has no value for that hour.
type HourRow struct {
	Hour           int      `json:"hour"`
	Wind           float64  `json:"wind"`
	NormalizedWind float64  `json:"normalized_wind"`
	Spike          int      `json:"spike"`
	NeuronOutput   float64  `json:"neuron_output"`
	PredictedWind  *float64 `json:"predicted_wind"`
}

// Summary holds the headline numbers of a cycle.
type Summary struct {
	SpikeCount      int      `json:"spike_count"`
	Hours           int      `json:"hours"`
	MaxNeuronOutput float64  `json:"max_neuron_output"`
	MaxWind         float64  `json:"max_wind"`
	NextHour        *float64 `json:"next_hour,omitempty"`
}

// AlertView is the alert decision as shown to the user.
type AlertView struct {
	Armed        bool    `json:"armed"`
	Exceeded     bool    `json:"exceeded"`
	Trigger      bool    `json:"trigger"`
	MaxWind      float64 `json:"max_wind"`
	ThresholdKmh float64 `json:"threshold_kmh"`
	Recipient    string  `json:"recipient,omitempty"`
}

// RenderModel is everything the presentation layer needs for one cycle.
type RenderModel struct {
	RunID       string      `json:"run_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	City        City        `json:"city"`
	Params      CycleParams `json:"params"`
	Rows        []HourRow   `json:"rows"`
	Summary     Summary     `json:"summary"`
	Alert       AlertView   `json:"alert"`
	Warnings    []string    `json:"warnings,omitempty"`
}
