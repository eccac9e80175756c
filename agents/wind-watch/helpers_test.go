package windwatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"neurowind/internal/models"
	"neurowind/shared/config"
	"neurowind/shared/email"
	"neurowind/shared/logging"
	"neurowind/shared/monitoring"

	"github.com/jonboulle/clockwork"
)

var testNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

// rampWind returns 10, 20, ..., 240 km/h.
func rampWind() []float64 {
	w := make([]float64, 24)
	for i := range w {
		w[i] = float64(10 * (i + 1))
	}
	return w
}

// calmWind stays below the alert threshold.
func calmWind() []float64 {
	w := make([]float64, 24)
	for i := range w {
		w[i] = 5 + float64(i)/2
	}
	return w
}

func constantWind(v float64) []float64 {
	w := make([]float64, 24)
	for i := range w {
		w[i] = v
	}
	return w
}

type fakeSource struct {
	mu    sync.Mutex
	wind  map[string][]float64
	err   error
	fail  map[string]error
	delay time.Duration
	calls atomic.Int32
}

func newFakeSource(wind []float64) *fakeSource {
	return &fakeSource{wind: map[string][]float64{"*": wind}}
}

func (f *fakeSource) GetHourlyWind(ctx context.Context, city models.City) (*models.HourlyWind, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if err, ok := f.fail[city.Name]; ok {
		return nil, err
	}
	speeds, ok := f.wind[city.Name]
	if !ok {
		speeds = f.wind["*"]
	}
	return &models.HourlyWind{
		Latitude:  city.Latitude,
		Longitude: city.Longitude,
		Timezone:  "UTC",
		SpeedsKmh: speeds,
		FetchedAt: testNow,
	}, nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Send(ctx context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeBriefer struct {
	text string
	err  error
}

func (f *fakeBriefer) Brief(ctx context.Context, report *models.AlertReport, hourly []float64) (string, error) {
	return f.text, f.err
}

func newTestCycle(source ForecastSource, metrics *monitoring.Metrics) *Cycle {
	return NewCycle(config.DefaultCities(), source, metrics, clockwork.NewFakeClockAt(testNow), logging.Discard())
}

func defaultParams() models.CycleParams {
	return models.CycleParams{City: "Abidjan", Threshold: 0.3, Window: 3}
}
