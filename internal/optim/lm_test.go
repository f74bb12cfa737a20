package optim

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func expProblem(ts, ys []float64, lower, upper []float64) Problem {
	return Problem{
		Residuals: len(ts),
		Func: func(dst, x []float64) {
			for i, t := range ts {
				dst[i] = x[0]*math.Exp(-x[1]*t) - ys[i]
			}
		},
		Lower: lower,
		Upper: upper,
	}
}

func sampleExp(a, k float64) ([]float64, []float64) {
	ts := Linspace(0, 5, 21)
	ys := make([]float64, len(ts))
	for i, t := range ts {
		ys[i] = a * math.Exp(-k*t)
	}
	return ts, ys
}

func TestLevenbergMarquardtExponential(t *testing.T) {
	ts, ys := sampleExp(2.5, 0.7)
	p := expProblem(ts, ys, []float64{0, 0}, []float64{10, 5})

	res, err := LevenbergMarquardt(p, []float64{1, 0.1}, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.X[0]-2.5) > 1e-3 || math.Abs(res.X[1]-0.7) > 1e-3 {
		t.Errorf("expected (2.5, 0.7), got %v", res.X)
	}
	if res.Cost > 1e-8 {
		t.Errorf("expected near-zero cost, got %v", res.Cost)
	}
	if res.Status == StatusNone {
		t.Error("expected a convergence status")
	}
	if res.Evaluations == 0 || res.Iterations == 0 {
		t.Errorf("expected counters to advance, got %d evals %d iterations", res.Evaluations, res.Iterations)
	}
}

func TestLevenbergMarquardtActiveBound(t *testing.T) {
	ts, ys := sampleExp(2.5, 0.7)
	// k is capped below its true value; the solution must sit on the bound.
	p := expProblem(ts, ys, []float64{0, 0}, []float64{10, 0.5})

	res, err := LevenbergMarquardt(p, []float64{1, 0.1}, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.X[1]-0.5) > 1e-6 {
		t.Errorf("expected k on its upper bound, got %v", res.X[1])
	}
	for i := range res.X {
		if res.X[i] < p.Lower[i] || res.X[i] > p.Upper[i] {
			t.Errorf("x[%d]=%v outside bounds", i, res.X[i])
		}
	}
}

func TestLevenbergMarquardtClampsStart(t *testing.T) {
	ts, ys := sampleExp(1, 1)
	p := expProblem(ts, ys, []float64{0, 0}, []float64{3, 3})

	res, err := LevenbergMarquardt(p, []float64{-5, 50}, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.X[0]-1) > 1e-3 || math.Abs(res.X[1]-1) > 1e-3 {
		t.Errorf("expected (1, 1), got %v", res.X)
	}
}

func TestLevenbergMarquardtBudget(t *testing.T) {
	ts, ys := sampleExp(2.5, 0.7)
	p := expProblem(ts, ys, []float64{0, 0}, []float64{10, 5})

	s := DefaultSettings()
	s.MaxEvaluations = 5
	res, err := LevenbergMarquardt(p, []float64{1, 0.1}, s)
	if !errors.Is(err, ErrMaxEvaluations) {
		t.Fatalf("expected ErrMaxEvaluations, got %v", err)
	}
	if res == nil || res.Evaluations > s.MaxEvaluations {
		t.Errorf("expected partial result within budget, got %+v", res)
	}
}

func TestLevenbergMarquardtBadInput(t *testing.T) {
	ts, ys := sampleExp(1, 1)

	p := expProblem(ts, ys, []float64{1, 0}, []float64{0, 1})
	if _, err := LevenbergMarquardt(p, []float64{0.5, 0.5}, DefaultSettings()); !errors.Is(err, ErrBadBounds) {
		t.Errorf("expected ErrBadBounds, got %v", err)
	}

	p = expProblem(ts, ys, []float64{0}, []float64{1})
	if _, err := LevenbergMarquardt(p, []float64{0.5, 0.5}, DefaultSettings()); !errors.Is(err, ErrBadBounds) {
		t.Errorf("expected ErrBadBounds for length mismatch, got %v", err)
	}

	nan := Problem{
		Residuals: 1,
		Func:      func(dst, x []float64) { dst[0] = math.NaN() },
		Lower:     []float64{0},
		Upper:     []float64{1},
	}
	if _, err := LevenbergMarquardt(nan, []float64{0.5}, DefaultSettings()); !errors.Is(err, ErrNonFiniteStart) {
		t.Errorf("expected ErrNonFiniteStart, got %v", err)
	}
}

// wall returns NaN for x > 1, so steps toward the minimum at 2 are rejected.
func wallProblem() Problem {
	return Problem{
		Residuals: 1,
		Func: func(dst, x []float64) {
			if x[0] > 1 {
				dst[0] = math.NaN()
				return
			}
			dst[0] = x[0] - 2
		},
		Lower: []float64{0},
		Upper: []float64{5},
	}
}

func TestLevenbergMarquardtWarnings(t *testing.T) {
	res, err := LevenbergMarquardt(wallProblem(), []float64{0}, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected non-finite warnings")
	}
	if !strings.Contains(res.Warnings[0], "non-finite") {
		t.Errorf("unexpected warning text %q", res.Warnings[0])
	}
	if res.X[0] > 1 {
		t.Errorf("expected solution to stay in the finite region, got %v", res.X[0])
	}

	s := DefaultSettings()
	s.SuppressWarnings = true
	res, err = LevenbergMarquardt(wallProblem(), []float64{0}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected suppressed warnings, got %v", res.Warnings)
	}
}

func TestLevenbergMarquardtOverflowingCost(t *testing.T) {
	huge := Problem{
		Residuals: 3,
		Func: func(dst, x []float64) {
			for i := range dst {
				dst[i] = 1e300 * x[0]
			}
		},
		Lower: []float64{1},
		Upper: []float64{2},
	}

	res, err := LevenbergMarquardt(huge, []float64{1.5}, DefaultSettings())
	if !errors.Is(err, ErrNonFiniteStart) {
		t.Errorf("expected ErrNonFiniteStart, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got cost %v", res.Cost)
	}
}
