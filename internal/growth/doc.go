// Package growth implements the RAP growth-dynamics model.
//
// The model is a logistic equation whose effective growth rate depends on
// the current utilization u = P/K through three smoothly blended regimes:
//
//   - exploration (u below the bifurcation threshold): rate r
//   - bifurcation (between threshold and attractor lock): r(1 + d(lock − u))
//   - maintenance (above the attractor lock): r(0.05 − 0.5·d(u − lock))
//
// The blend uses sigmoid weights that sum to one, so the right-hand side
// dP/dt = rate(P/K)·P·(1 − P/K) stays differentiable for the adaptive solver.
//
// # Example
//
//	m := growth.NewModel(growth.DefaultConstants())
//	traj, err := m.Simulate(times, growth.Params{R: 1.2, D: 3.5, K: 3.0, P0: 0.05})
package growth
