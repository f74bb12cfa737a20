// Package metrics accumulates per-sample statistics over a utilization
// trajectory.
package metrics

// Metric observes utilization samples u at time t.
type Metric interface {
	Name() string
	Observe(u, t float64)
	Value() float64
	Reset()
}

// ObserveAll feeds a whole trajectory to every metric.
func ObserveAll(us, ts []float64, ms ...Metric) {
	for i, u := range us {
		t := float64(i)
		if i < len(ts) {
			t = ts[i]
		}
		for _, m := range ms {
			m.Observe(u, t)
		}
	}
}
