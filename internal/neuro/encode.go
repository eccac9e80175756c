package neuro

// Threshold bounds accepted at the input boundary. ThresholdStep is only the
// increment of the interactive controls; any value in range is valid.
const (
	MinThreshold     = 0.1
	MaxThreshold     = 1.0
	ThresholdStep    = 0.05
	DefaultThreshold = 0.3
)

// EncodeSpikes emits 1 for every hour whose normalized value is strictly above
// the threshold. A value equal to the threshold does not fire.
func EncodeSpikes(norm NormalizedSeries, threshold float64) SpikeTrain {
	spikes := make(SpikeTrain, len(norm))
	for i, v := range norm {
		if v > threshold {
			spikes[i] = 1
		}
	}
	return spikes
}
