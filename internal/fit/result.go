package fit

import (
	"github.com/san-kum/growthfit/internal/baseline"
	"github.com/san-kum/growthfit/internal/convergence"
	"github.com/san-kum/growthfit/internal/growth"
)

// Result is the outcome of fitting one curve. A failed fit carries only
// CurveID, Success=false and Error.
type Result struct {
	CurveID string
	Success bool
	Error   string

	// Times are elapsed from the first valid observation, so the fitted P0
	// is the population at t = 0 of this shifted axis. For series that do
	// not start at zero, baseline parameters and SSE differ from a fit on
	// absolute time.
	Times    []float64
	Observed []float64

	Params     growth.Params
	Trajectory []float64
	SSE        float64

	Baseline           baseline.Kind
	BaselineParams     *baseline.Params
	BaselineTrajectory []float64
	// BaselineSSE is +Inf when the baseline fit failed.
	BaselineSSE float64

	Superior bool
	// Improvement is (baseline SSE − SSE) / baseline SSE, zero when the
	// baseline SSE is not finite and positive.
	Improvement float64
	SSERatio    float64

	Convergence convergence.Report

	Evaluations int
	Warnings    []string
}

func failed(curveID, msg string) Result {
	return Result{CurveID: curveID, Success: false, Error: msg}
}

func (r Result) FinalUtilization() float64 { return r.Convergence.FinalUtilization }

func (r Result) Converged() bool { return r.Convergence.Converged }

// BaselineFitted reports whether the baseline fit produced parameters.
func (r Result) BaselineFitted() bool { return r.BaselineParams != nil }
