package integrators

import "github.com/san-kum/growthfit/internal/dynamo"

// combine writes base + dt·Σ w[j]·k[j] into dst and returns it. A nil base
// is treated as zero.
func combine(dst, base dynamo.State, dt float64, w []float64, k ...dynamo.State) dynamo.State {
	for i := range dst {
		s := 0.0
		for j, kj := range k {
			if w[j] != 0 {
				s += w[j] * kj[i]
			}
		}
		if base != nil {
			dst[i] = base[i] + dt*s
		} else {
			dst[i] = dt * s
		}
	}
	return dst
}
