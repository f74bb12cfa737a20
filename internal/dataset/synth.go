package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/growthfit/internal/batch"
	"github.com/san-kum/growthfit/internal/growth"
	"github.com/san-kum/growthfit/internal/optim"
)

// SynthOptions controls synthetic RAP curve generation. Parameters are drawn
// around the base values with Gaussian jitter and floored at the minimums.
type SynthOptions struct {
	Curves  int
	Points  int
	TimeMax float64
	// Noise is the standard deviation of additive measurement noise; noisy
	// values are clipped to [P0, 1.1·K].
	Noise float64
	Seed  int64

	Base    growth.Params
	Jitter  growth.Params
	Minimum growth.Params
}

func DefaultSynthOptions() SynthOptions {
	return SynthOptions{
		Curves:  10,
		Points:  100,
		TimeMax: 48,
		Noise:   0.02,
		Seed:    1,
		Base:    growth.Params{R: 1.2, D: 3.5, K: 3.0, P0: 0.05},
		Jitter:  growth.Params{R: 0.2, D: 0.4, K: 0.15, P0: 0.01},
		Minimum: growth.Params{R: 0.5, D: 2.5, K: 2.0, P0: 0.01},
	}
}

// Truth records the parameters a synthetic curve was generated from.
type Truth struct {
	ID     string
	Params growth.Params
	// Utilization is the noise-free final P/K.
	Utilization float64
}

func Synthesize(model *growth.Model, opts SynthOptions) (*Dataset, []Truth, error) {
	if opts.Curves <= 0 || opts.Points < 2 || !(opts.TimeMax > 0) {
		return nil, nil, fmt.Errorf("dataset: invalid synth options (curves=%d points=%d time_max=%g)", opts.Curves, opts.Points, opts.TimeMax)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	times := optim.Linspace(0, opts.TimeMax, opts.Points)

	ds := &Dataset{Name: "synthetic", Times: times}
	truths := make([]Truth, 0, opts.Curves)

	for i := 0; i < opts.Curves; i++ {
		p := growth.Params{
			R:  math.Max(opts.Minimum.R, opts.Base.R+rng.NormFloat64()*opts.Jitter.R),
			D:  math.Max(opts.Minimum.D, opts.Base.D+rng.NormFloat64()*opts.Jitter.D),
			K:  math.Max(opts.Minimum.K, opts.Base.K+rng.NormFloat64()*opts.Jitter.K),
			P0: math.Max(opts.Minimum.P0, opts.Base.P0+rng.NormFloat64()*opts.Jitter.P0),
		}

		traj, err := model.Simulate(times, p)
		if err != nil {
			return nil, nil, fmt.Errorf("curve %d: %w", i, err)
		}
		id := CurveName(i)
		truths = append(truths, Truth{ID: id, Params: p, Utilization: traj[len(traj)-1] / p.K})

		values := make([]float64, len(traj))
		for j, v := range traj {
			if opts.Noise > 0 {
				v = math.Min(math.Max(v+rng.NormFloat64()*opts.Noise, p.P0), 1.1*p.K)
			}
			values[j] = v
		}
		ds.Curves = append(ds.Curves, batch.Curve{ID: id, Values: values})
	}
	return ds, truths, nil
}

// CurveName returns RAP_Test_Curve_A, _B, ..., _Z, _AA, _AB, ...
func CurveName(i int) string {
	suffix := ""
	for n := i; ; n = n/26 - 1 {
		suffix = string(rune('A'+n%26)) + suffix
		if n < 26 {
			break
		}
	}
	return "RAP_Test_Curve_" + suffix
}
