package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

// AdaptiveIntegrator advances one step under a local error tolerance. A step
// whose error exceeds the tolerance returns ErrStepRejected together with the
// unchanged state and a smaller suggested dt.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt float64, tol Tolerance) (State, float64, error)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Tolerance is the mixed local error bound atol + rtol*|x|.
type Tolerance struct {
	Rel float64
	Abs float64
}

type Config struct {
	Dt            float64
	MinDt         float64
	MaxDt         float64
	Tolerance     Tolerance
	MaxSteps      int
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		MinDt:         1e-10,
		MaxDt:         0,
		Tolerance:     Tolerance{Rel: 1e-6, Abs: 1e-8},
		MaxSteps:      200000,
		Adaptive:      true,
		ValidateState: true,
	}
}
