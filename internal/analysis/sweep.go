package analysis

import (
	"fmt"

	"github.com/san-kum/growthfit/internal/convergence"
	"github.com/san-kum/growthfit/internal/dynamo"
	"github.com/san-kum/growthfit/internal/growth"
	"github.com/san-kum/growthfit/internal/integrators"
	"github.com/san-kum/growthfit/internal/optim"
)

// SweepPoint holds the trajectory of the first state variable for one
// parameter value.
type SweepPoint struct {
	Param      float64
	Trajectory []float64
}

// ParameterSweep sets paramName to each of steps evenly spaced values in
// [paramMin, paramMax] and integrates dyn from x0 over times. The original
// parameter value is restored before returning.
func ParameterSweep(
	dyn dynamo.System,
	cfg dynamo.Config,
	paramName string,
	paramMin, paramMax float64,
	steps int,
	x0 dynamo.State,
	times []float64,
) ([]SweepPoint, error) {
	tunable, ok := dyn.(dynamo.Configurable)
	if !ok {
		return nil, fmt.Errorf("system does not expose parameters: %w", dynamo.ErrUnknownParam)
	}
	original, ok := tunable.GetParams()[paramName]
	if !ok {
		return nil, fmt.Errorf("%s: %w", paramName, dynamo.ErrUnknownParam)
	}
	defer tunable.SetParam(paramName, original)

	if steps < 2 {
		steps = 2
	}

	results := make([]SweepPoint, 0, steps)
	for _, param := range optim.Linspace(paramMin, paramMax, steps) {
		if err := tunable.SetParam(paramName, param); err != nil {
			return nil, err
		}

		states, err := integrators.Solve(dyn, x0, times, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", paramName, param, err)
		}

		traj := make([]float64, len(states))
		for i, s := range states {
			traj[i] = s[0]
		}
		results = append(results, SweepPoint{Param: param, Trajectory: traj})
	}
	return results, nil
}

// DampingPoint is where the RAP model settles for one damping value.
type DampingPoint struct {
	Param       float64
	Utilization float64
	Equilibrium float64
	Regime      convergence.Regime
	Report      convergence.Report
}

// DampingSweep sweeps d over [dMin, dMax] with the other parameters fixed
// and classifies each final state.
func DampingSweep(c growth.Constants, p growth.Params, dMin, dMax float64, steps int, times []float64, tolerance float64) ([]DampingPoint, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sys := growth.NewSystem(c, p)
	sweep, err := ParameterSweep(sys, dynamo.DefaultConfig(), "d", dMin, dMax, steps, dynamo.State{p.P0}, times)
	if err != nil {
		return nil, err
	}

	classifier := convergence.NewClassifier(c)
	out := make([]DampingPoint, len(sweep))
	for i, s := range sweep {
		rep := classifier.Classify(s.Trajectory, p.K, tolerance)
		out[i] = DampingPoint{
			Param:       s.Param,
			Utilization: rep.FinalUtilization,
			Equilibrium: c.Equilibrium(s.Param),
			Regime:      rep.Regime,
			Report:      rep,
		}
	}
	return out, nil
}
