package neuro

import "gonum.org/v1/gonum/stat"

// Window bounds accepted at the input boundary.
const (
	MinWindow     = 1
	MaxWindow     = 5
	DefaultWindow = 3
)

// MovingAverage predicts each hour as the mean of the window starting at that hour.
// The first len(wind)-window+1 entries carry a value and the rest are empty.
// A window outside [1, len(wind)] yields an all-empty forecast.
func MovingAverage(wind WindSeries, window int) Forecast {
	out := make(Forecast, len(wind))
	if window < 1 || window > len(wind) {
		return out
	}
	for i := 0; i+window <= len(wind); i++ {
		out[i] = Some(stat.Mean(wind[i:i+window], nil))
	}
	return out
}

// NextHour returns the prediction aligned with the last observed hour. Only a
// one-hour window fills that slot; every larger window leaves it empty and
// NextHour reports ErrPredictionUnavailable.
func NextHour(f Forecast) (float64, error) {
	if len(f) == 0 || !f[len(f)-1].Valid {
		return 0, ErrPredictionUnavailable
	}
	return f[len(f)-1].Value, nil
}
