package neuro

import "gonum.org/v1/gonum/floats"

// AlertThresholdKmh is the fixed wind speed above which an armed alert triggers.
const AlertThresholdKmh = 30.0

// AlertDecision is the outcome of the alert check for one cycle.
type AlertDecision struct {
	Armed     bool
	MaxWind   float64
	Exceeded  bool // MaxWind > AlertThresholdKmh
	Trigger   bool // Armed && Exceeded
	Recipient string
}

// EvaluateAlert compares the raw maximum wind against AlertThresholdKmh. The
// decision never sends anything; delivery is a separate action.
func EvaluateAlert(wind WindSeries, armed bool, recipient string) AlertDecision {
	d := AlertDecision{Armed: armed, Recipient: recipient}
	if len(wind) == 0 {
		return d
	}
	d.MaxWind = floats.Max(wind)
	d.Exceeded = d.MaxWind > AlertThresholdKmh
	d.Trigger = armed && d.Exceeded
	return d
}
