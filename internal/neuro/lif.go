package neuro

// LIFParameters configures a leaky integrate-and-fire neuron.
type LIFParameters struct {
	TauSynInv float64 // inverse synaptic time constant, 1/s
	TauMemInv float64 // inverse membrane time constant, 1/s
	VLeak     float64
	VTh       float64
	VReset    float64
	// Alpha is the sharpness of the surrogate gradient used when training.
	// The forward pass uses a hard threshold and does not read it.
	Alpha float64
	DT    float64 // integration step, seconds

	InputWeight     float64
	RecurrentWeight float64
}

// DefaultLIFParameters returns the parameters of the single wind neuron.
func DefaultLIFParameters() LIFParameters {
	return LIFParameters{
		TauSynInv:       200,
		TauMemInv:       100,
		VLeak:           0,
		VTh:             1,
		VReset:          0,
		Alpha:           100,
		DT:              0.001,
		InputWeight:     1,
		RecurrentWeight: 1,
	}
}

// NeuronState is the state of one neuron between two steps.
type NeuronState struct {
	V float64 // membrane potential
	I float64 // synaptic current
	Z float64 // output of the previous step
}

// LIFStep integrates one explicit Euler step. The membrane potential and current
// decay using the state from before this step; the current then jumps by the
// weighted input and by the weighted previous output.
func LIFStep(input float64, s NeuronState, p LIFParameters) (float64, NeuronState) {
	vDecayed := s.V + p.DT*p.TauMemInv*((p.VLeak-s.V)+s.I)
	iDecayed := s.I - p.DT*p.TauSynInv*s.I

	z := heaviside(vDecayed - p.VTh)
	vNew := (1-z)*vDecayed + z*p.VReset
	iNew := iDecayed + p.InputWeight*input + p.RecurrentWeight*s.Z

	return z, NeuronState{V: vNew, I: iNew, Z: z}
}

// Simulate runs the neuron over the train in index order from the zero state and
// returns the output of every step together with the final state.
func Simulate(spikes SpikeTrain, p LIFParameters) (OutputTrace, NeuronState) {
	trace := make(OutputTrace, len(spikes))
	var state NeuronState
	for i, s := range spikes {
		trace[i], state = LIFStep(float64(s), state, p)
	}
	return trace, state
}

func heaviside(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}
