// Package series holds observed growth curves and their cleaning rules.
package series

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinFitPoints is the fewest valid points the curve fitter accepts.
	MinFitPoints = 4
	// MinBatchPoints is the fewest valid points a batch curve needs to be fitted.
	MinBatchPoints = 6
)

var (
	ErrTooFewPoints   = errors.New("series: too few valid points")
	ErrLengthMismatch = errors.New("series: times and values differ in length")
	ErrUnorderedTime  = errors.New("series: times must be non-decreasing")
	ErrNoPositive     = errors.New("series: no positive measurements")
)

type Series struct {
	ID     string    `json:"id"`
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
}

func New(id string, times, values []float64) Series {
	return Series{ID: id, Times: times, Values: values}
}

func (s Series) Len() int { return len(s.Values) }

// Clean returns a copy without missing measurements. A point is missing when
// its value or its time is NaN or ±Inf.
func (s Series) Clean() Series {
	n := len(s.Times)
	if len(s.Values) < n {
		n = len(s.Values)
	}

	out := Series{ID: s.ID, Times: make([]float64, 0, n), Values: make([]float64, 0, n)}
	for i := 0; i < n; i++ {
		if !finite(s.Times[i]) || !finite(s.Values[i]) {
			continue
		}
		out.Times = append(out.Times, s.Times[i])
		out.Values = append(out.Values, s.Values[i])
	}
	return out
}

// Validate checks alignment, ordering and the minimum number of points.
func (s Series) Validate(minPoints int) error {
	if len(s.Times) != len(s.Values) {
		return fmt.Errorf("%d times, %d values: %w", len(s.Times), len(s.Values), ErrLengthMismatch)
	}
	if len(s.Values) < minPoints {
		return fmt.Errorf("%d points, need %d: %w", len(s.Values), minPoints, ErrTooFewPoints)
	}
	for i := 1; i < len(s.Times); i++ {
		if s.Times[i] < s.Times[i-1] {
			return fmt.Errorf("t[%d]=%g < t[%d]=%g: %w", i, s.Times[i], i-1, s.Times[i-1], ErrUnorderedTime)
		}
	}
	return nil
}

// ValidCount is the number of points that survive Clean.
func (s Series) ValidCount() int {
	return s.Clean().Len()
}

// Max returns the largest value, or NaN for an empty series.
func (s Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	m := math.Inf(-1)
	for _, v := range s.Values {
		m = math.Max(m, v)
	}
	return m
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
