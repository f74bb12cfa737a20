// Package analysis sweeps model parameters and records where trajectories
// settle.
//
//   - [ParameterSweep]: integrate a Configurable system across a range of
//     one parameter
//   - [DampingSweep]: final utilization and regime of the RAP model as the
//     damping d varies
//
// # Example
//
//	points, err := analysis.DampingSweep(constants, base, 0.1, 5, 50, times, 0.05)
//	for _, p := range points {
//	    fmt.Println(p.Param, p.Utilization, p.Regime)
//	}
package analysis
