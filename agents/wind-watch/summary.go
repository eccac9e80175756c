package windwatch

import (
	"fmt"
	"strings"

	"neurowind/internal/models"
)

// SummaryLines returns the headline numbers of model as display lines.
func SummaryLines(model *models.RenderModel) []string {
	s := model.Summary
	next := "unavailable"
	if s.NextHour != nil {
		next = fmt.Sprintf("%.2f km/h", *s.NextHour)
	}

	return []string{
		fmt.Sprintf("Spikes: %d / %d", s.SpikeCount, s.Hours),
		fmt.Sprintf("Max neuron output: %.2f", s.MaxNeuronOutput),
		fmt.Sprintf("Max wind: %.1f km/h", s.MaxWind),
		fmt.Sprintf("Next-hour prediction: %s", next),
	}
}

// AlertLine describes the alert decision in one line.
func AlertLine(model *models.RenderModel) string {
	a := model.Alert
	switch {
	case a.Trigger:
		return AlertMessage(model.City.Name, a.MaxWind)
	case a.Exceeded:
		return fmt.Sprintf("Wind above %.0f km/h in %s, alert disarmed", a.ThresholdKmh, model.City.Name)
	case a.Armed:
		return fmt.Sprintf("Armed, no wind above %.0f km/h in %s", a.ThresholdKmh, model.City.Name)
	default:
		return "Alert disarmed"
	}
}

// SummaryText renders the cycle as one line for logs and run status.
func SummaryText(model *models.RenderModel) string {
	return fmt.Sprintf("%s: %s", model.City.Name, strings.Join(SummaryLines(model), ", "))
}
