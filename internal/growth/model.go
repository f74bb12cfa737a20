package growth

import (
	"fmt"
	"math"

	"github.com/san-kum/growthfit/internal/dynamo"
	"github.com/san-kum/growthfit/internal/integrators"
)

// Params are the RAP parameters. P0 comes from data and is not fitted.
type Params struct {
	R  float64 `json:"r"`
	D  float64 `json:"d"`
	K  float64 `json:"K"`
	P0 float64 `json:"P0"`
}

func (p Params) Validate() error {
	for name, v := range map[string]float64{"r": p.R, "d": p.D, "K": p.K, "P0": p.P0} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s=%v: %w", name, v, dynamo.ErrParameterBounds)
		}
	}
	if p.R <= 0 {
		return fmt.Errorf("r=%g must be positive: %w", p.R, dynamo.ErrParameterBounds)
	}
	if p.D < 0 {
		return fmt.Errorf("d=%g must be non-negative: %w", p.D, dynamo.ErrParameterBounds)
	}
	if p.K <= 0 {
		return fmt.Errorf("K=%g must be positive: %w", p.K, dynamo.ErrParameterBounds)
	}
	if p.P0 < 0 {
		return fmt.Errorf("P0=%g must be non-negative: %w", p.P0, dynamo.ErrParameterBounds)
	}
	return nil
}

// System is the RAP ODE for one parameter set.
type System struct {
	constants Constants
	params    Params
}

func NewSystem(c Constants, p Params) *System {
	return &System{constants: c, params: p}
}

func (s *System) StateDim() int { return 1 }

// Derive returns dP/dt = rate(P/K)·P·(1 − P/K).
func (s *System) Derive(x dynamo.State, _ float64) dynamo.State {
	p := x[0]
	u := p / s.params.K
	rate := s.constants.Rate(u, s.params.R, s.params.D)
	return dynamo.State{rate * p * (1 - u)}
}

func (s *System) Params() Params { return s.params }

func (s *System) GetParams() map[string]float64 {
	return map[string]float64{"r": s.params.R, "d": s.params.D, "K": s.params.K, "P0": s.params.P0}
}

func (s *System) SetParam(name string, value float64) error {
	next := s.params
	switch name {
	case "r":
		next.R = value
	case "d":
		next.D = value
	case "K":
		next.K = value
	case "P0":
		next.P0 = value
	default:
		return fmt.Errorf("%s: %w", name, dynamo.ErrUnknownParam)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	s.params = next
	return nil
}

// Model simulates RAP trajectories with a fixed solver configuration.
type Model struct {
	constants Constants
	solver    dynamo.Config
}

type ModelOption func(*Model)

// WithSolverConfig overrides the default adaptive RK45 configuration.
func WithSolverConfig(cfg dynamo.Config) ModelOption {
	return func(m *Model) { m.solver = cfg }
}

// WithTolerance sets the solver's relative and absolute local error bounds.
func WithTolerance(rel, abs float64) ModelOption {
	return func(m *Model) { m.solver.Tolerance = dynamo.Tolerance{Rel: rel, Abs: abs} }
}

func NewModel(c Constants, opts ...ModelOption) *Model {
	m := &Model{constants: c, solver: dynamo.DefaultConfig()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) Constants() Constants { return m.constants }

// Simulate integrates the RAP ODE from P0 at times[0] and returns the
// population at each requested time.
func (m *Model) Simulate(times []float64, p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	states, err := integrators.Solve(NewSystem(m.constants, p), dynamo.State{p.P0}, times, m.solver)
	if err != nil {
		return nil, fmt.Errorf("simulate r=%.4g d=%.4g K=%.4g: %w", p.R, p.D, p.K, err)
	}

	out := make([]float64, len(states))
	for i, s := range states {
		out[i] = s[0]
	}
	return out, nil
}
