package fit

import (
	"github.com/san-kum/growthfit/internal/baseline"
	"github.com/san-kum/growthfit/internal/convergence"
	"github.com/san-kum/growthfit/internal/series"
)

// Config controls one curve fit. K bounds are factors of the observed maximum.
type Config struct {
	Tolerance float64

	RBounds  [2]float64
	DBounds  [2]float64
	KFactors [2]float64

	InitialR       float64
	InitialD       float64
	InitialKFactor float64

	MaxEvaluations int
	// Starts is the number of optimizer runs: the initial guess plus the
	// best Starts-1 grid points.
	Starts   int
	Baseline baseline.Kind

	SuppressWarnings bool
	MinPoints        int
	// MinP0 floors the first measurement used as the initial population.
	MinP0 float64
}

func DefaultConfig() Config {
	return Config{
		Tolerance:      convergence.DefaultTolerance,
		RBounds:        [2]float64{0.1, 3.0},
		DBounds:        [2]float64{0.1, 5.0},
		KFactors:       [2]float64{1.0, 1.5},
		InitialR:       1.4,
		InitialD:       2.0,
		InitialKFactor: 1.1,
		MaxEvaluations: 5000,
		Starts:         3,
		Baseline:       baseline.Logistic,
		MinPoints:      series.MinFitPoints,
		MinP0:          1e-6,
	}
}
