package batch

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/growthfit/internal/fit"
	"github.com/san-kum/growthfit/internal/growth"
)

func axis() []float64 {
	times := make([]float64, 11)
	for i := range times {
		times[i] = float64(4 * i)
	}
	return times
}

func curve(t *testing.T, times []float64, p growth.Params) []float64 {
	t.Helper()
	traj, err := growth.NewModel(growth.DefaultConstants()).Simulate(times, p)
	require.NoError(t, err)
	return traj
}

func newRunner(opts ...Option) *Runner {
	f := fit.New(growth.NewModel(growth.DefaultConstants()), fit.DefaultConfig(), nil)
	return NewRunner(f, opts...)
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func TestRunIsolatesFailures(t *testing.T) {
	times := axis()
	curves := []Curve{
		{ID: "A", Values: curve(t, times, growth.Params{R: 1.2, D: 3.5, K: 3.0, P0: 0.05})},
		{ID: "B", Values: nans(len(times))},
		{ID: "C", Values: curve(t, times, growth.Params{R: 0.9, D: 2.5, K: 2.0, P0: 0.04})},
	}

	report, err := newRunner(WithWorkers(2)).Run(context.Background(), times, curves)
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	for i, c := range curves {
		require.Equal(t, c.ID, report.Results[i].CurveID)
	}
	require.True(t, report.Results[0].Success, report.Results[0].Error)
	require.False(t, report.Results[1].Success)
	require.Contains(t, report.Results[1].Error, "too few")
	require.True(t, report.Results[2].Success, report.Results[2].Error)

	s := report.Summary
	require.Equal(t, 3, s.Total)
	require.Equal(t, 2, s.Successful)
	require.Equal(t, 1, s.Failed)
	require.InDelta(t, 2.0/3.0, s.SuccessRate, 1e-12)
	require.InDelta(t, (report.Results[0].FinalUtilization()+report.Results[2].FinalUtilization())/2, s.MeanUtilization, 1e-12)
}

func TestRunSkipsShortCurves(t *testing.T) {
	times := axis()
	values := curve(t, times, growth.Params{R: 1.2, D: 3.5, K: 3.0, P0: 0.05})
	for i := 5; i < len(values); i++ {
		values[i] = math.NaN()
	}

	report, err := newRunner().Run(context.Background(), times, []Curve{{ID: "short", Values: values}})
	require.NoError(t, err)
	require.False(t, report.Results[0].Success)
	require.Contains(t, report.Results[0].Error, "5 valid points, need 6")

	// The same curve passes once the threshold is lowered to the fitter minimum.
	report, err = newRunner(WithMinPoints(4)).Run(context.Background(), times, []Curve{{ID: "short", Values: values}})
	require.NoError(t, err)
	require.True(t, report.Results[0].Success, report.Results[0].Error)
}

func TestRunAllFailed(t *testing.T) {
	times := axis()
	curves := []Curve{{ID: "x", Values: nans(len(times))}, {ID: "y", Values: nans(len(times))}}

	report, err := newRunner().Run(context.Background(), times, curves)
	require.NoError(t, err)

	s := report.Summary
	require.Equal(t, 2, s.Total)
	require.Equal(t, 0, s.Successful)
	require.Zero(t, s.SuccessRate)
	require.Zero(t, s.ConvergenceRate)
	require.Zero(t, s.SuperiorityRate)
	require.Zero(t, s.MeanUtilization)
	require.Zero(t, s.StdUtilization)
	require.Zero(t, s.Improvement)
}

func TestRunCancelled(t *testing.T) {
	times := axis()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newRunner().Run(ctx, times, []Curve{
		{ID: "A", Values: curve(t, times, growth.Params{R: 1.2, D: 3.5, K: 3.0, P0: 0.05})},
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	require.False(t, report.Results[0].Success)
	require.Contains(t, report.Results[0].Error, "not fitted")
}

func TestRunEmpty(t *testing.T) {
	report, err := newRunner().Run(context.Background(), axis(), nil)
	require.NoError(t, err)
	require.Empty(t, report.Results)
	require.Zero(t, report.Summary.Total)
}
