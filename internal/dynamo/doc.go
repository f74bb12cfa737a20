// Package dynamo provides core simulation primitives for growth dynamics.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for autonomous or time-dependent ODEs (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator
//   - [AdaptiveIntegrator]: error-controlled integrator with step rejection
//   - [Configurable]: runtime parameter access for sweeps
//
// # Example
//
//	sys := growth.NewSystem(growth.DefaultConstants(), params)
//	states, err := integrators.Solve(sys, dynamo.State{p0}, times, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Systems built from immutable parameters are safe to share across goroutines.
// Integrators that keep scratch buffers (RK4) are NOT; create one per goroutine.
package dynamo
