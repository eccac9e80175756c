package neuro

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CheckSamples returns an *InvalidSampleError for the first sample that is
// negative, NaN or infinite.
func CheckSamples(wind WindSeries) error {
	for i, w := range wind {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return &InvalidSampleError{Hour: i, Value: w}
		}
	}
	return nil
}

// Normalize rescales the series with batch min/max scaling so the minimum maps
// to 0 and the maximum to 1.
//
// A constant series has no range. In that case Normalize returns an all-zero
// series of the same length together with a *DegenerateSeriesError; callers
// may keep the zeros and treat the error as a warning.
func Normalize(wind WindSeries) (NormalizedSeries, error) {
	out := make(NormalizedSeries, len(wind))
	if len(wind) == 0 {
		return out, nil
	}

	lo, hi := floats.Min(wind), floats.Max(wind)
	span := hi - lo
	if span == 0 {
		return out, &DegenerateSeriesError{Value: lo}
	}

	for i, w := range wind {
		out[i] = (w - lo) / span
	}
	return out, nil
}
