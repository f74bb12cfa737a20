package integrators

import (
	"math"

	"github.com/san-kum/growthfit/internal/dynamo"
)

// Dormand-Prince 5(4) tableau. dpErr holds the difference between the
// fifth- and fourth-order weights over all seven stages.
var (
	dpNodes = []float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1}

	dpStages = [][]float64{
		nil,
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
	}

	dpWeights = []float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0}

	dpErr = []float64{
		35.0/384.0 - 5179.0/57600.0,
		0,
		500.0/1113.0 - 7571.0/16695.0,
		125.0/192.0 - 393.0/640.0,
		-2187.0/6784.0 + 92097.0/339200.0,
		11.0/84.0 - 187.0/2100.0,
		-1.0 / 40.0,
	}
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Step takes one unchecked fifth-order step.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	xNew, _ := r.step(dyn, x, t, dt)
	return xNew
}

// StepAdaptive takes one step and measures the embedded error estimate
// against atol + rtol*max(|x|, |xNew|) in the RMS norm.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, t, dt float64, tol dynamo.Tolerance) (dynamo.State, float64, error) {
	xNew, errEst := r.step(dyn, x, t, dt)

	n := len(x)
	sum := 0.0
	for i := 0; i < n; i++ {
		scale := tol.Abs + tol.Rel*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		if scale <= 0 {
			scale = 1e-300
		}
		e := errEst[i] / scale
		sum += e * e
	}
	errNorm := 0.0
	if n > 0 {
		errNorm = math.Sqrt(sum / float64(n))
	}

	if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
		return x, dt * r.minScale, dynamo.ErrStepRejected
	}

	if errNorm > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errNorm, -0.25))
		return x, dt * scale, dynamo.ErrStepRejected
	}

	scale := r.maxScale
	if errNorm > 0 {
		scale = math.Min(r.maxScale, r.safety*math.Pow(errNorm, -0.2))
	}
	return xNew, dt * scale, nil
}

func (r *RK45) step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, dynamo.State) {
	n := len(x)
	k := make([]dynamo.State, 7)
	buf := make(dynamo.State, n)

	k[0] = dyn.Derive(x, t).Clone()
	for s := 1; s < 6; s++ {
		k[s] = dyn.Derive(combine(buf, x, dt, dpStages[s], k[:s]...), t+dpNodes[s]*dt).Clone()
	}

	xNew := combine(make(dynamo.State, n), x, dt, dpWeights, k[:6]...)
	k[6] = dyn.Derive(xNew, t+dt)

	return xNew, combine(make(dynamo.State, n), nil, dt, dpErr, k...)
}
