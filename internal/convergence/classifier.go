// Package convergence classifies fitted trajectories by where their
// utilization settles: locked near the attractor, saturated at capacity,
// or neither.
package convergence

import (
	"math"

	"github.com/san-kum/growthfit/internal/growth"
	"github.com/san-kum/growthfit/internal/metrics"
)

const (
	// DefaultTolerance is the attractor tolerance the fitter uses.
	DefaultTolerance = 0.05
	// SaturationTolerance bounds the distance to full capacity.
	SaturationTolerance = 0.02
	// TightBand is the half-width of the tight windows around 0.85 and 1.0.
	TightBand = 0.01
	// exactHit lets a zero tolerance still accept an exact landing.
	exactHit = 1e-12
)

type Regime string

const (
	RegimeAttractor Regime = "attractor"
	RegimeSaturated Regime = "saturated"
	RegimeNone      Regime = "none"
)

type Report struct {
	FinalUtilization float64 `json:"final_utilization"`
	Distance         float64 `json:"distance"`
	Converged        bool    `json:"converged"`
	StablePoints     int     `json:"stable_points"`
	TightStable85    int     `json:"tight_stable_85"`
	// Dwell is the number of trailing samples within tolerance/2 of the attractor.
	Dwell int `json:"dwell"`
	// DwellShare is the fraction of samples within tolerance/2 of the attractor.
	DwellShare float64 `json:"dwell_share"`

	DistanceTo100  float64 `json:"distance_to_100"`
	Converged100   bool    `json:"converged_100"`
	TightStable100 int     `json:"tight_stable_100"`

	PeakUtilization float64 `json:"peak_utilization"`
	Regime          Regime  `json:"regime"`
}

type Classifier struct {
	attractor float64
}

func NewClassifier(c growth.Constants) *Classifier {
	return &Classifier{attractor: c.Attractor}
}

// Classify reports how trajectory/k settles relative to the attractor lock
// and to full capacity. The saturation window and the tight bands are fixed
// and do not scale with tolerance.
func (c *Classifier) Classify(trajectory []float64, k, tolerance float64) Report {
	rep := Report{
		FinalUtilization: math.NaN(),
		Distance:         math.NaN(),
		DistanceTo100:    math.NaN(),
		Regime:           RegimeNone,
	}
	if len(trajectory) == 0 || !(k > 0) {
		return rep
	}

	us := make([]float64, len(trajectory))
	for i, p := range trajectory {
		us[i] = p / k
	}

	stable := metrics.NewBand(c.attractor, tolerance/2)
	tight85 := metrics.NewBand(c.attractor, TightBand)
	tight100 := metrics.NewBand(1.0, TightBand)
	peak := metrics.NewPeak()
	metrics.ObserveAll(us, nil, stable, tight85, tight100, peak)

	final := us[len(us)-1]
	rep.FinalUtilization = final
	rep.Distance = math.Abs(final - c.attractor)
	rep.Converged = rep.Distance < tolerance || rep.Distance <= exactHit
	rep.StablePoints = stable.Count()
	rep.TightStable85 = tight85.Count()
	rep.Dwell = stable.Trailing()
	rep.DwellShare = stable.Fraction()

	rep.DistanceTo100 = math.Abs(final - 1.0)
	rep.Converged100 = rep.DistanceTo100 < SaturationTolerance
	rep.TightStable100 = tight100.Count()
	rep.PeakUtilization = peak.Value()

	switch {
	case rep.Converged:
		rep.Regime = RegimeAttractor
	case rep.Converged100:
		rep.Regime = RegimeSaturated
	}
	return rep
}
