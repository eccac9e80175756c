package neuro

// HoursPerCycle is the number of hourly samples one cycle works on.
const HoursPerCycle = 24

// WindSeries holds hourly wind speeds in km/h, index 0 being the first forecast hour.
type WindSeries []float64

// NormalizedSeries is a WindSeries rescaled into [0,1].
type NormalizedSeries []float64

// SpikeTrain holds one binary event (0 or 1) per hour.
type SpikeTrain []int

// OutputTrace holds the neuron output for each simulated step.
type OutputTrace []float64

// Optional is a real value that may be absent.
type Optional struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Optional {
	return Optional{Value: v, Valid: true}
}

// Forecast holds one optional prediction per hour. Entries past the last full
// window carry no value and only exist to keep the series aligned with the hours.
type Forecast []Optional

// ValidCount returns the number of entries that carry a value.
func (f Forecast) ValidCount() int {
	n := 0
	for _, o := range f {
		if o.Valid {
			n++
		}
	}
	return n
}

// Count returns the number of hours that fired.
func (s SpikeTrain) Count() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}
