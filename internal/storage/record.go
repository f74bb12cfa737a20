package storage

import (
	"math"

	"github.com/san-kum/growthfit/internal/fit"
)

// Record is the persisted form of one fit result. BaselineSSE is nil when
// the baseline fit failed.
type Record struct {
	CurveID string `json:"curve_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	R  float64 `json:"r"`
	D  float64 `json:"d"`
	K  float64 `json:"K"`
	P0 float64 `json:"P0"`

	SSE         float64  `json:"sse"`
	Baseline    string   `json:"baseline"`
	BaselineSSE *float64 `json:"baseline_sse"`
	Superior    bool     `json:"superior"`
	Improvement float64  `json:"improvement"`
	SSERatio    float64  `json:"sse_ratio"`

	FinalUtilization float64 `json:"final_utilization"`
	Distance         float64 `json:"distance"`
	Converged        bool    `json:"converged"`
	StablePoints     int     `json:"stable_points"`
	TightStable85    int     `json:"tight_stable_85"`
	Converged100     bool    `json:"converged_100"`
	TightStable100   int     `json:"tight_stable_100"`
	Regime           string  `json:"regime"`
	Evaluations      int     `json:"evaluations"`
}

func NewRecord(r fit.Result) Record {
	rec := Record{
		CurveID: r.CurveID,
		Success: r.Success,
		Error:   r.Error,
	}
	if !r.Success {
		return rec
	}

	rec.R, rec.D, rec.K, rec.P0 = r.Params.R, r.Params.D, r.Params.K, r.Params.P0
	rec.SSE = r.SSE
	rec.Baseline = string(r.Baseline)
	if !math.IsInf(r.BaselineSSE, 0) && !math.IsNaN(r.BaselineSSE) {
		v := r.BaselineSSE
		rec.BaselineSSE = &v
	}
	rec.Superior = r.Superior
	rec.Improvement = r.Improvement
	rec.SSERatio = r.SSERatio

	c := r.Convergence
	rec.FinalUtilization = c.FinalUtilization
	rec.Distance = c.Distance
	rec.Converged = c.Converged
	rec.StablePoints = c.StablePoints
	rec.TightStable85 = c.TightStable85
	rec.Converged100 = c.Converged100
	rec.TightStable100 = c.TightStable100
	rec.Regime = string(c.Regime)
	rec.Evaluations = r.Evaluations
	return rec
}

// Trajectory is the observed and simulated curves of one fit.
type Trajectory struct {
	CurveID  string    `json:"curve_id"`
	Times    []float64 `json:"times"`
	Observed []float64 `json:"observed"`
	Fitted   []float64 `json:"fitted"`
	Baseline []float64 `json:"baseline,omitempty"`
	K        float64   `json:"K"`
}

func NewTrajectory(r fit.Result) Trajectory {
	return Trajectory{
		CurveID:  r.CurveID,
		Times:    r.Times,
		Observed: r.Observed,
		Fitted:   r.Trajectory,
		Baseline: r.BaselineTrajectory,
		K:        r.Params.K,
	}
}
