package batch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/growthfit/internal/convergence"
	"github.com/san-kum/growthfit/internal/fit"
)

func success(util float64, sse, base float64, regime convergence.Regime) fit.Result {
	r := fit.Result{
		Success:     true,
		SSE:         sse,
		BaselineSSE: base,
		Superior:    sse < base,
		Convergence: convergence.Report{
			FinalUtilization: util,
			Distance:         math.Abs(util - 0.85),
			Converged:        regime == convergence.RegimeAttractor,
			StablePoints:     3,
			Regime:           regime,
		},
	}
	if !math.IsInf(base, 0) && base > 0 {
		r.Improvement = (base - sse) / base
	}
	return r
}

func TestSummarize(t *testing.T) {
	results := []fit.Result{
		success(0.85, 1, 4, convergence.RegimeAttractor),
		success(0.87, 2, 2, convergence.RegimeAttractor),
		success(0.99, 3, math.Inf(1), convergence.RegimeSaturated),
		{CurveID: "bad", Error: "boom"},
	}

	s := Summarize(results)

	require.Equal(t, 4, s.Total)
	require.Equal(t, 3, s.Successful)
	require.Equal(t, 1, s.Failed)
	require.Equal(t, 2, s.Converged)
	require.Equal(t, 1, s.Saturated)
	require.Equal(t, 2, s.Superior)

	require.InDelta(t, 0.75, s.SuccessRate, 1e-12)
	require.InDelta(t, 2.0/3.0, s.ConvergenceRate, 1e-12)
	require.InDelta(t, 1.0/3.0, s.SaturationRate, 1e-12)
	require.InDelta(t, 2.0/3.0, s.SuperiorityRate, 1e-12)

	mean := (0.85 + 0.87 + 0.99) / 3
	ss := math.Pow(0.85-mean, 2) + math.Pow(0.87-mean, 2) + math.Pow(0.99-mean, 2)
	require.InDelta(t, mean, s.MeanUtilization, 1e-12)
	require.InDelta(t, math.Sqrt(ss/2), s.StdUtilization, 1e-12)
	require.InDelta(t, (0+0.02+0.14)/3, s.MeanDistance, 1e-12)
	require.InDelta(t, 3, s.MeanStablePoints, 1e-12)
	require.InDelta(t, 2, s.MeanSSE, 1e-12)

	// The infinite baseline is excluded from the paired comparison.
	require.InDelta(t, 3, s.MeanBaselineSSE, 1e-12)
	require.InDelta(t, (3-1.5)/3, s.Improvement, 1e-12)
	require.InDelta(t, 0.375, s.MeanImprovement, 1e-12)
	require.InDelta(t, math.Sqrt(2*0.375*0.375), s.StdImprovement, 1e-12)
}

func TestSummarizeSingleSuccess(t *testing.T) {
	s := Summarize([]fit.Result{success(0.86, 1, 2, convergence.RegimeAttractor)})

	require.InDelta(t, 0.86, s.MeanUtilization, 1e-12)
	require.Zero(t, s.StdUtilization)
	require.InDelta(t, 0.5, s.Improvement, 1e-12)
}

func TestSummarizeEmpty(t *testing.T) {
	require.Equal(t, Summary{}, Summarize(nil))
}
