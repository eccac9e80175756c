package windwatch

import (
	"bytes"
	"strings"
	"testing"

	"neurowind/internal/neuro"
	"neurowind/shared/monitoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	cycle := newTestCycle(newFakeSource(rampWind()), monitoring.NewMetricsForTesting())
	model, err := cycle.Run(t.Context(), defaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, model.Rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, neuro.HoursPerCycle+1)
	assert.Equal(t, "Hour,Wind,NormalizedWind,Spike,NeuronOutput,PredictedWind", lines[0])
	assert.Equal(t, "0,10,0,0,0,20", lines[1])
	assert.True(t, strings.HasPrefix(lines[24], "23,240,1,1,"), lines[24])
	assert.True(t, strings.HasSuffix(lines[23], ","), "hour 22 has no prediction: %s", lines[23])
	assert.True(t, strings.HasSuffix(lines[24], ","), "hour 23 has no prediction: %s", lines[24])
}

func TestCSVRoundTrip(t *testing.T) {
	cycle := newTestCycle(newFakeSource(rampWind()), monitoring.NewMetricsForTesting())
	model, err := cycle.Run(t.Context(), defaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, model.Rows))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, model.Rows, rows)

	replayed, err := cycle.Replay(defaultParams(), WindColumn(rows))
	require.NoError(t, err)
	assert.Equal(t, model.Rows, replayed.Rows)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "header"},
		{"wrong header", "Hour,Speed,NormalizedWind,Spike,NeuronOutput,PredictedWind\n", "column 2"},
		{"short record", "Hour,Wind,NormalizedWind,Spike,NeuronOutput,PredictedWind\n0,10,0\n", "line 2"},
		{"bad wind", "Hour,Wind,NormalizedWind,Spike,NeuronOutput,PredictedWind\n0,fast,0,0,0,\n", "invalid Wind"},
		{"bad prediction", "Hour,Wind,NormalizedWind,Spike,NeuronOutput,PredictedWind\n0,10,0,0,0,x\n", "invalid PredictedWind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
