package neuro

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every failure that must abort a cycle before any computation.
	ErrFetch = errors.New("wind forecast unavailable")

	// ErrDegenerateSeries is matched by DegenerateSeriesError.
	ErrDegenerateSeries = errors.New("degenerate wind series")

	// ErrPredictionUnavailable is returned when the next-hour forecast entry has no value.
	ErrPredictionUnavailable = errors.New("next-hour prediction unavailable")
)

// FetchError reports a network failure or a malformed response from the forecast source.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// InsufficientDataError reports a forecast with fewer hourly samples than a cycle needs.
// It belongs to the fetch error class.
type InsufficientDataError struct {
	Got  int
	Want int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient forecast data: got %d hourly samples, want %d", e.Got, e.Want)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrFetch }

// DegenerateSeriesError reports a series whose samples are all equal, so min/max
// scaling has no range to divide by.
type DegenerateSeriesError struct {
	Value float64
}

func (e *DegenerateSeriesError) Error() string {
	return fmt.Sprintf("degenerate wind series: every sample equals %.2f km/h", e.Value)
}

func (e *DegenerateSeriesError) Is(target error) bool { return target == ErrDegenerateSeries }

// InvalidSampleError reports a wind sample that is not a finite, non-negative
// speed. It belongs to the fetch error class.
type InvalidSampleError struct {
	Hour  int
	Value float64
}

func (e *InvalidSampleError) Error() string {
	return fmt.Sprintf("invalid wind speed %v at hour %d", e.Value, e.Hour)
}

func (e *InvalidSampleError) Is(target error) bool { return target == ErrFetch }
