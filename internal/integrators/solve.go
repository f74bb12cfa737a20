package integrators

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/growthfit/internal/dynamo"
)

// Solve integrates dyn from x0 at times[0] and returns the state at every
// requested time. Steps are clipped so each output time is hit exactly.
// cfg.Adaptive selects RK45 under cfg.Tolerance; otherwise RK4 with cfg.Dt.
func Solve(dyn dynamo.System, x0 dynamo.State, times []float64, cfg dynamo.Config) ([]dynamo.State, error) {
	if len(times) == 0 {
		return nil, nil
	}
	if len(x0) != dyn.StateDim() {
		return nil, fmt.Errorf("initial state has %d values, system expects %d: %w", len(x0), dyn.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return nil, fmt.Errorf("output times must be non-decreasing (t[%d]=%g < t[%d]=%g)", i, times[i], i-1, times[i-1])
		}
	}

	out := make([]dynamo.State, len(times))
	out[0] = x0.Clone()

	x := x0.Clone()
	t := times[0]
	span := times[len(times)-1] - times[0]

	var adaptive dynamo.AdaptiveIntegrator
	var fixed dynamo.Integrator
	dt := cfg.Dt
	if cfg.Adaptive {
		adaptive = NewRK45()
		dt = initialStep(dyn, x, t, span, cfg)
	} else {
		fixed = NewRK4()
	}

	steps := 0
	for i := 1; i < len(times); i++ {
		tout := times[i]
		for t < tout {
			if cfg.MaxSteps > 0 && steps >= cfg.MaxSteps {
				return nil, &dynamo.SimulationError{Step: steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrStepBudget}
			}
			steps++

			h := dt
			last := false
			if t+h >= tout {
				h = tout - t
				last = true
			}

			if adaptive != nil {
				xNew, dtNext, err := adaptive.StepAdaptive(dyn, x, t, h, cfg.Tolerance)
				if errors.Is(err, dynamo.ErrStepRejected) {
					dt = dtNext
					if dt < cfg.MinDt {
						return nil, &dynamo.SimulationError{Step: steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrStepTooSmall}
					}
					continue
				}
				x = xNew
				if !last {
					dt = dtNext
				}
				if cfg.MaxDt > 0 {
					dt = math.Min(dt, cfg.MaxDt)
				}
			} else {
				x = fixed.Step(dyn, x, t, h)
			}

			if last {
				t = tout
			} else {
				t += h
			}

			if cfg.ValidateState && !x.IsValid() {
				return nil, &dynamo.SimulationError{Step: steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState}
			}
		}
		out[i] = x.Clone()
	}

	return out, nil
}

func validateConfig(cfg dynamo.Config) error {
	if cfg.Adaptive {
		if cfg.Tolerance.Rel <= 0 && cfg.Tolerance.Abs <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping")
		}
		return nil
	}
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	return nil
}

// initialStep picks a first trial step from the scale of x and dx/dt.
func initialStep(dyn dynamo.System, x dynamo.State, t, span float64, cfg dynamo.Config) float64 {
	f := dyn.Derive(x, t)

	d0, d1 := 0.0, 0.0
	for i := range x {
		sc := cfg.Tolerance.Abs + cfg.Tolerance.Rel*math.Abs(x[i])
		if sc <= 0 {
			sc = 1e-300
		}
		d0 += (x[i] / sc) * (x[i] / sc)
		d1 += (f[i] / sc) * (f[i] / sc)
	}
	d0 = math.Sqrt(d0 / float64(len(x)))
	d1 = math.Sqrt(d1 / float64(len(x)))

	h := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h = 0.01 * d0 / d1
	}
	if span > 0 && h > span {
		h = span
	}
	if cfg.MaxDt > 0 && h > cfg.MaxDt {
		h = cfg.MaxDt
	}
	if math.IsNaN(h) || h <= 0 {
		h = 1e-6
	}
	return h
}
