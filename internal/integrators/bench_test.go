package integrators

import (
	"testing"

	"github.com/san-kum/growthfit/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int { return 2 }
func (b *benchDynamics) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkSolveLogistic(b *testing.B) {
	sys := &logisticSystem{r: 1.2, k: 3}
	times := make([]float64, 49)
	for i := range times {
		times[i] = float64(i)
	}
	cfg := dynamo.DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Solve(sys, dynamo.State{0.05}, times, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
