package windwatch

import (
	"fmt"
	"image/color"
	"io"

	"neurowind/internal/models"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Default chart size.
const (
	ChartWidth  = 10 * vg.Inch
	ChartHeight = 4 * vg.Inch
)

var (
	colorWind       = color.RGBA{R: 0x1f, G: 0x4e, B: 0xd8, A: 0xff}
	colorNormalized = color.RGBA{R: 0x87, G: 0xce, B: 0xeb, A: 0xff}
	colorSpikes     = color.RGBA{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}
	colorOutput     = color.RGBA{R: 0x2e, G: 0x8b, B: 0x57, A: 0xff}
	colorPredicted  = color.RGBA{R: 0x80, G: 0x00, B: 0x80, A: 0xff}
	colorThreshold  = color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}
)

type chartSeries struct {
	label  string
	points plotter.XYs
	color  color.Color
	dashes []vg.Length
}

// RenderChart draws the five hourly series of model and the spike threshold
// as a PNG. Hours without a forecast are left out of the prediction line.
func RenderChart(w io.Writer, model *models.RenderModel, width, height vg.Length) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Wind analysis: %s", model.City.Name)
	p.X.Label.Text = "Hour"
	p.Y.Label.Text = "Value"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	n := len(model.Rows)
	wind := make(plotter.XYs, n)
	normalized := make(plotter.XYs, n)
	spikes := make(plotter.XYs, n)
	output := make(plotter.XYs, n)
	var predicted plotter.XYs
	for i, row := range model.Rows {
		x := float64(row.Hour)
		wind[i] = plotter.XY{X: x, Y: row.Wind}
		normalized[i] = plotter.XY{X: x, Y: row.NormalizedWind}
		spikes[i] = plotter.XY{X: x, Y: float64(row.Spike)}
		output[i] = plotter.XY{X: x, Y: row.NeuronOutput}
		if row.PredictedWind != nil {
			predicted = append(predicted, plotter.XY{X: x, Y: *row.PredictedWind})
		}
	}

	series := []chartSeries{
		{"Wind (km/h)", wind, colorWind, nil},
		{"Normalized wind", normalized, colorNormalized, nil},
		{"Spikes", spikes, colorSpikes, []vg.Length{vg.Points(6), vg.Points(3)}},
		{"Neuron output", output, colorOutput, []vg.Length{vg.Points(1), vg.Points(3)}},
		{"Predicted wind", predicted, colorPredicted, []vg.Length{vg.Points(6), vg.Points(2), vg.Points(1), vg.Points(2)}},
	}
	if n > 0 {
		last := float64(model.Rows[n-1].Hour)
		first := float64(model.Rows[0].Hour)
		series = append(series, chartSeries{
			"Spike threshold (normalized)",
			plotter.XYs{{X: first, Y: model.Params.Threshold}, {X: last, Y: model.Params.Threshold}},
			colorThreshold,
			[]vg.Length{vg.Points(4), vg.Points(4)},
		})
	}

	for _, s := range series {
		if len(s.points) == 0 {
			continue
		}
		line, err := plotter.NewLine(s.points)
		if err != nil {
			return fmt.Errorf("failed to build %s line: %w", s.label, err)
		}
		line.LineStyle.Color = s.color
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Dashes = s.dashes
		p.Add(line)
		p.Legend.Add(s.label, line)
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to create chart writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
