package growth

import "math"

const (
	DefaultBifurcation = 0.50
	DefaultAttractor   = 0.85
	DefaultSteepness   = 500.0
	DefaultEngage      = 1e-3

	// maintenanceBase is the residual fraction of r left once the attractor is passed.
	maintenanceBase = 0.05
	// resistance scales how hard overshoot past the attractor is pushed back.
	resistance = 0.5
)

// Constants are the fixed thresholds of the rate function. They are passed
// to the model and the classifier explicitly so alternate thresholds can be
// tested without touching shared state.
type Constants struct {
	Bifurcation float64 `yaml:"bifurcation" json:"bifurcation"`
	Attractor   float64 `yaml:"attractor" json:"attractor"`
	Steepness   float64 `yaml:"steepness" json:"steepness"`
	// Engage is the damping scale over which the attractor regimes switch
	// on; d = 0 gives plain logistic growth.
	Engage float64 `yaml:"engage" json:"engage"`
}

func DefaultConstants() Constants {
	return Constants{
		Bifurcation: DefaultBifurcation,
		Attractor:   DefaultAttractor,
		Steepness:   DefaultSteepness,
		Engage:      DefaultEngage,
	}
}

// Weights are the regime memberships for one utilization value.
type Weights struct {
	Explore   float64
	Bifurcate float64
	Maintain  float64
}

func (w Weights) Sum() float64 {
	return w.Explore + w.Bifurcate + w.Maintain
}

// Weights returns sigmoid-gated regime weights. With a = σ(s(u−threshold))
// and b = σ(s(u−lock)) the weights are (1−a, a(1−b), ab), which sum to one
// for every u and saturate at ±Inf.
func (c Constants) Weights(u float64) Weights {
	a := sigmoid(c.Steepness * (u - c.Bifurcation))
	b := sigmoid(c.Steepness * (u - c.Attractor))
	return Weights{
		Explore:   1 - a,
		Bifurcate: a * (1 - b),
		Maintain:  a * b,
	}
}

func (c Constants) ExplorationRate(r float64) float64 {
	return r
}

func (c Constants) BifurcationRate(u, r, d float64) float64 {
	return r * (1 + d*(c.Attractor-u))
}

func (c Constants) MaintenanceRate(u, r, d float64) float64 {
	return r * (maintenanceBase - d*resistance*(u-c.Attractor))
}

// Rate is the effective growth rate at utilization u.
func (c Constants) Rate(u, r, d float64) float64 {
	w := c.Weights(u)
	blend := w.Explore*c.ExplorationRate(r) +
		w.Bifurcate*c.BifurcationRate(u, r, d) +
		w.Maintain*c.MaintenanceRate(u, r, d)

	g := c.engagement(d)
	return (1-g)*r + g*blend
}

// engagement is 1 − exp(−d/Engage): zero at d = 0 and exactly 1.0 in
// float64 once d exceeds ~40·Engage.
func (c Constants) engagement(d float64) float64 {
	if d <= 0 {
		return 0
	}
	if c.Engage <= 0 {
		return 1
	}
	return -math.Expm1(-d / c.Engage)
}

// Equilibrium is the utilization where the maintenance rate vanishes,
// capped at full capacity.
func (c Constants) Equilibrium(d float64) float64 {
	if d <= 0 {
		return 1
	}
	return math.Min(1, c.Attractor+maintenanceBase/(resistance*d))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
