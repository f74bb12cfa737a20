// Package baseline provides the closed-form reference growth curves that
// RAP fits are compared against.
package baseline

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type Kind string

const (
	Logistic Kind = "logistic"
	Gompertz Kind = "gompertz"
)

var ErrUnknownKind = errors.New("unknown baseline kind")

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", Logistic:
		return Logistic, nil
	case Gompertz:
		return Gompertz, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownKind)
}

func (k Kind) String() string { return string(k) }

// Params are the fitted baseline parameters. P0 is taken from the data.
type Params struct {
	R  float64 `json:"r"`
	K  float64 `json:"K"`
	P0 float64 `json:"P0"`
}

// LogisticAt evaluates K / (1 + (K/P0 − 1)·e^(−rt)).
func LogisticAt(t float64, p Params) float64 {
	return p.K / (1 + (p.K/p.P0-1)*math.Exp(-p.R*t))
}

// GompertzAt evaluates K·(P0/K)^(e^(−rt)).
func GompertzAt(t float64, p Params) float64 {
	return p.K * math.Pow(p.P0/p.K, math.Exp(-p.R*t))
}

// Curve evaluates the baseline at every time. Times are elapsed from the
// first observation.
func (k Kind) Curve(times []float64, p Params) []float64 {
	eval := LogisticAt
	if k == Gompertz {
		eval = GompertzAt
	}
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = eval(t, p)
	}
	return out
}

// Box is a parameter box with an initial guess, ordered (r, K).
type Box struct {
	Lower   [2]float64
	Upper   [2]float64
	Initial [2]float64
}

// Bounds returns the search box for the baseline given the observed maximum.
func (k Kind) Bounds(maxObs float64) Box {
	if k == Gompertz {
		est := 1.1 * maxObs
		return Box{
			Lower:   [2]float64{0.01, 0.5 * est},
			Upper:   [2]float64{2.0, 2.0 * est},
			Initial: [2]float64{0.5, est},
		}
	}
	return Box{
		Lower:   [2]float64{0.1, maxObs},
		Upper:   [2]float64{3.0, 1.5 * maxObs},
		Initial: [2]float64{1.4, 1.1 * maxObs},
	}
}
