package cli

import (
	"fmt"
	"io"
	"strings"

	windwatch "neurowind/agents/wind-watch"
	"neurowind/internal/models"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Title   lipgloss.Color
	Value   lipgloss.Color
	Alert   lipgloss.Color
	Calm    lipgloss.Color
	Warning lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Title:   lipgloss.Color("#5FAFD7"),
	Value:   lipgloss.Color("#FFFFFF"),
	Alert:   lipgloss.Color("#FF005F"),
	Calm:    lipgloss.Color("#00D787"),
	Warning: lipgloss.Color("#FFAF00"),
	Hint:    lipgloss.Color("#6C6C6C"),
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) alertStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Alert).Bold(true)
}

func (t Theme) calmStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Calm)
}

func (t Theme) warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) alertLine(model *models.RenderModel) string {
	line := windwatch.AlertLine(model)
	if model.Alert.Trigger {
		return t.alertStyle().Render(line)
	}
	if model.Alert.Exceeded {
		return t.warningStyle().Render(line)
	}
	return t.calmStyle().Render(line)
}

// hourTable renders the per-hour rows as fixed-width text.
func hourTable(rows []models.HourRow) string {
	var b strings.Builder
	b.WriteString("Hour   Wind  Norm  Spike  Out  Predicted\n")
	for _, r := range rows {
		predicted := "-"
		if r.PredictedWind != nil {
			predicted = fmt.Sprintf("%.1f", *r.PredictedWind)
		}
		spike := " "
		if r.Spike == 1 {
			spike = "*"
		}
		fmt.Fprintf(&b, "%4d %6.1f %5.2f %5s %4.0f  %s\n", r.Hour, r.Wind, r.NormalizedWind, spike, r.NeuronOutput, predicted)
	}
	return b.String()
}

// printModel writes a styled report of model to w.
func printModel(w io.Writer, t Theme, model *models.RenderModel, withTable bool) {
	p := model.Params
	fmt.Fprintln(w, t.titleStyle().Render(fmt.Sprintf("%s  threshold %.2f  window %d", model.City.Name, p.Threshold, p.Window)))
	for _, line := range windwatch.SummaryLines(model) {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintf(w, "  %s\n", t.alertLine(model))
	for _, warning := range model.Warnings {
		fmt.Fprintf(w, "  %s\n", t.warningStyle().Render("warning: "+warning))
	}
	if withTable {
		fmt.Fprintln(w)
		fmt.Fprint(w, hourTable(model.Rows))
	}
}
