package neuro

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// Result carries every series derived from one wind forecast.
type Result struct {
	Wind       WindSeries
	Normalized NormalizedSeries
	Spikes     SpikeTrain
	Output     OutputTrace
	Final      NeuronState
	Forecast   Forecast

	// Warnings holds the non-fatal conditions met on the way
	// (DegenerateSeriesError, ErrPredictionUnavailable).
	Warnings []error
}

// Process runs normalize, encode, simulate and forecast over an already
// validated series. It performs no I/O and never fails; non-fatal conditions
// are collected in Result.Warnings.
func Process(wind WindSeries, threshold float64, window int, p LIFParameters) Result {
	r := Result{Wind: wind}

	norm, err := Normalize(wind)
	if err != nil {
		r.Warnings = append(r.Warnings, err)
	}
	r.Normalized = norm
	r.Spikes = EncodeSpikes(norm, threshold)
	r.Output, r.Final = Simulate(r.Spikes, p)
	r.Forecast = MovingAverage(wind, window)

	if _, err := r.NextHour(); err != nil {
		r.Warnings = append(r.Warnings, err)
	}
	return r
}

// NextHour is NextHour over the result's forecast.
func (r Result) NextHour() (float64, error) {
	return NextHour(r.Forecast)
}

// MaxOutput returns the largest neuron output, 0 for an empty trace.
func (r Result) MaxOutput() float64 {
	if len(r.Output) == 0 {
		return 0
	}
	return floats.Max(r.Output)
}

// MaxWind returns the largest wind sample, 0 for an empty series.
func (r Result) MaxWind() float64 {
	if len(r.Wind) == 0 {
		return 0
	}
	return floats.Max(r.Wind)
}

// Degenerate reports whether normalization fell back to all zeros.
func (r Result) Degenerate() bool {
	for _, w := range r.Warnings {
		if errors.Is(w, ErrDegenerateSeries) {
			return true
		}
	}
	return false
}
