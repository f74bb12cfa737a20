package integrators

import "github.com/san-kum/growthfit/internal/dynamo"

var (
	rk4Half    = []float64{0.5}
	rk4Full    = []float64{1}
	rk4Weights = []float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0}
)

// RK4 is the classic fixed-step fourth-order method. It reuses a stage
// buffer, so one instance must not be shared between goroutines.
type RK4 struct {
	buf dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	if len(r.buf) != n {
		r.buf = make(dynamo.State, n)
	}

	k1 := dyn.Derive(x, t).Clone()
	k2 := dyn.Derive(combine(r.buf, x, dt, rk4Half, k1), t+dt/2).Clone()
	k3 := dyn.Derive(combine(r.buf, x, dt, rk4Half, k2), t+dt/2).Clone()
	k4 := dyn.Derive(combine(r.buf, x, dt, rk4Full, k3), t+dt)

	return combine(make(dynamo.State, n), x, dt, rk4Weights, k1, k2, k3, k4)
}
