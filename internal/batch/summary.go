package batch

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/growthfit/internal/convergence"
	"github.com/san-kum/growthfit/internal/fit"
)

// Summary aggregates successful fits. Rates use zero-safe division so a
// batch without successes reports zeros.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Converged  int `json:"converged"`
	Saturated  int `json:"saturated"`
	Superior   int `json:"superior"`

	SuccessRate     float64 `json:"success_rate"`
	ConvergenceRate float64 `json:"convergence_rate"`
	SaturationRate  float64 `json:"saturation_rate"`
	SuperiorityRate float64 `json:"superiority_rate"`

	MeanUtilization  float64 `json:"mean_utilization"`
	StdUtilization   float64 `json:"std_utilization"`
	MeanDistance     float64 `json:"mean_distance"`
	MeanStablePoints float64 `json:"mean_stable_points"`

	MeanSSE         float64 `json:"mean_sse"`
	MeanBaselineSSE float64 `json:"mean_baseline_sse"`
	// Improvement is (mean baseline SSE − mean SSE) / mean baseline SSE over
	// successes whose baseline fit produced a finite SSE.
	Improvement     float64 `json:"improvement"`
	MeanImprovement float64 `json:"mean_improvement"`
	StdImprovement  float64 `json:"std_improvement"`
}

func Summarize(results []fit.Result) Summary {
	s := Summary{Total: len(results)}

	var utils, dists, stable, sses []float64
	var paired, pairedBase, improvements []float64
	for _, r := range results {
		if !r.Success {
			s.Failed++
			continue
		}
		s.Successful++
		if r.Convergence.Converged {
			s.Converged++
		}
		if r.Convergence.Regime == convergence.RegimeSaturated {
			s.Saturated++
		}
		if r.Superior {
			s.Superior++
		}

		utils = append(utils, r.Convergence.FinalUtilization)
		dists = append(dists, r.Convergence.Distance)
		stable = append(stable, float64(r.Convergence.StablePoints))
		sses = append(sses, r.SSE)

		if !math.IsInf(r.BaselineSSE, 0) && !math.IsNaN(r.BaselineSSE) {
			paired = append(paired, r.SSE)
			pairedBase = append(pairedBase, r.BaselineSSE)
			if r.BaselineSSE > 0 {
				improvements = append(improvements, r.Improvement)
			}
		}
	}

	s.SuccessRate = ratio(s.Successful, s.Total)
	s.ConvergenceRate = ratio(s.Converged, s.Successful)
	s.SaturationRate = ratio(s.Saturated, s.Successful)
	s.SuperiorityRate = ratio(s.Superior, s.Successful)

	s.MeanUtilization, s.StdUtilization = moments(utils)
	s.MeanDistance = mean(dists)
	s.MeanStablePoints = mean(stable)
	s.MeanSSE = mean(sses)

	s.MeanBaselineSSE = mean(pairedBase)
	if s.MeanBaselineSSE > 0 {
		s.Improvement = (s.MeanBaselineSSE - mean(paired)) / s.MeanBaselineSSE
	}
	s.MeanImprovement, s.StdImprovement = moments(improvements)
	return s
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// moments returns the mean and sample standard deviation, with a zero
// deviation for fewer than two values.
func moments(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
