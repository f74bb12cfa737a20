package optim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrMaxEvaluations = errors.New("optim: evaluation budget exhausted")
	ErrNonFiniteStart = errors.New("optim: residuals are not finite at the starting point")
	ErrBadBounds      = errors.New("optim: invalid bounds")
)

// Problem is a bounded least-squares problem: minimize ||f(x)||² subject to
// Lower ≤ x ≤ Upper. Func writes the residuals into dst, which has length
// Residuals. Non-finite residuals mark x as infeasible.
type Problem struct {
	Residuals int
	Func      func(dst, x []float64)
	Lower     []float64
	Upper     []float64
}

type Settings struct {
	MaxEvaluations int
	FTol           float64
	XTol           float64
	GTol           float64
	// DiffStep is the relative forward-difference step for the Jacobian.
	DiffStep       float64
	InitialDamping float64
	// SuppressWarnings drops numerical warnings instead of collecting them.
	SuppressWarnings bool
}

func DefaultSettings() Settings {
	return Settings{
		MaxEvaluations: 5000,
		FTol:           1e-8,
		XTol:           1e-8,
		GTol:           1e-8,
		DiffStep:       1e-4,
		InitialDamping: 1e-3,
	}
}

type Status int

const (
	StatusNone Status = iota
	StatusFTol
	StatusXTol
	StatusGTol
)

func (s Status) String() string {
	switch s {
	case StatusFTol:
		return "ftol"
	case StatusXTol:
		return "xtol"
	case StatusGTol:
		return "gtol"
	}
	return "none"
}

type Result struct {
	X           []float64
	Cost        float64
	Evaluations int
	Iterations  int
	Status      Status
	Warnings    []string
}

const (
	maxDamping  = 1e20
	minDamping  = 1e-15
	maxWarnings = 16
)

type solver struct {
	p        Problem
	s        Settings
	n        int
	evals    int
	warnings []string
}

// LevenbergMarquardt minimizes the problem from x0 with a projected
// Levenberg-Marquardt iteration. Variables sitting on a bound whose
// gradient points outward are frozen for the step. On ErrMaxEvaluations the
// returned result holds the best point found.
func LevenbergMarquardt(p Problem, x0 []float64, s Settings) (*Result, error) {
	n := len(x0)
	if len(p.Lower) != n || len(p.Upper) != n {
		return nil, fmt.Errorf("%d variables, %d lower, %d upper: %w", n, len(p.Lower), len(p.Upper), ErrBadBounds)
	}
	for i := 0; i < n; i++ {
		if !(p.Lower[i] <= p.Upper[i]) {
			return nil, fmt.Errorf("variable %d: [%g, %g]: %w", i, p.Lower[i], p.Upper[i], ErrBadBounds)
		}
	}
	if p.Residuals <= 0 || p.Func == nil {
		return nil, errors.New("optim: problem needs residuals and a function")
	}
	if s.MaxEvaluations <= 0 {
		s.MaxEvaluations = DefaultSettings().MaxEvaluations
	}
	if s.DiffStep <= 0 {
		s.DiffStep = DefaultSettings().DiffStep
	}
	if s.InitialDamping <= 0 {
		s.InitialDamping = DefaultSettings().InitialDamping
	}

	sv := &solver{p: p, s: s, n: n}
	return sv.run(x0)
}

func (sv *solver) run(x0 []float64) (*Result, error) {
	m, n := sv.p.Residuals, sv.n

	x := make([]float64, n)
	copy(x, x0)
	sv.clamp(x)

	r := make([]float64, m)
	sv.eval(r, x)
	if !allFinite(r) {
		return nil, ErrNonFiniteStart
	}
	cost := floats.Dot(r, r)
	if math.IsInf(cost, 0) || math.IsNaN(cost) {
		return nil, fmt.Errorf("cost overflows at the starting point: %w", ErrNonFiniteStart)
	}

	res := &Result{X: x, Cost: cost}
	finish := func(status Status, err error) (*Result, error) {
		res.Status = status
		res.Evaluations = sv.evals
		res.Warnings = sv.warnings
		return res, err
	}

	lambda := sv.s.InitialDamping
	jac := mat.NewDense(m, n, nil)
	rNew := make([]float64, m)
	xNew := make([]float64, n)

	for {
		res.Iterations++
		if err := sv.jacobian(jac, x, r); err != nil {
			return finish(StatusNone, err)
		}

		var grad mat.VecDense
		grad.MulVec(jac.T(), mat.NewVecDense(m, r))
		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)

		free := sv.freeSet(x, grad.RawVector().Data)
		if len(free) == 0 || projectedGradNorm(grad.RawVector().Data, free) <= sv.s.GTol {
			return finish(StatusGTol, nil)
		}

		accepted := false
		for !accepted {
			delta, ok := solveDamped(&jtj, grad.RawVector().Data, free, lambda)
			if !ok {
				lambda = math.Min(lambda*10, maxDamping)
				if lambda >= maxDamping {
					return finish(StatusXTol, nil)
				}
				continue
			}

			copy(xNew, x)
			for k, j := range free {
				xNew[j] += delta[k]
			}
			sv.clamp(xNew)

			if stepNorm(x, xNew) <= sv.s.XTol*(floats.Norm(x, 2)+sv.s.XTol) {
				return finish(StatusXTol, nil)
			}
			if sv.evals >= sv.s.MaxEvaluations {
				return finish(StatusNone, ErrMaxEvaluations)
			}

			sv.eval(rNew, xNew)
			if !allFinite(rNew) {
				sv.warn("non-finite residuals at x=%v, step rejected", xNew)
				lambda = math.Min(lambda*10, maxDamping)
				continue
			}

			costNew := floats.Dot(rNew, rNew)
			if costNew >= cost {
				lambda = math.Min(lambda*10, maxDamping)
				continue
			}

			accepted = true
			reduction := cost - costNew
			copy(x, xNew)
			copy(r, rNew)
			cost = costNew
			res.Cost = cost
			lambda = math.Max(lambda/10, minDamping)

			if reduction <= sv.s.FTol*(cost+reduction) {
				return finish(StatusFTol, nil)
			}
		}
	}
}

func (sv *solver) eval(dst, x []float64) {
	sv.evals++
	sv.p.Func(dst, x)
}

// jacobian fills jac with forward differences of the residuals around x,
// stepping backwards when the forward step would leave the box.
func (sv *solver) jacobian(jac *mat.Dense, x, r []float64) error {
	m := sv.p.Residuals
	xp := make([]float64, sv.n)
	rp := make([]float64, m)

	for j := 0; j < sv.n; j++ {
		if sv.evals >= sv.s.MaxEvaluations {
			return ErrMaxEvaluations
		}

		h := sv.s.DiffStep * math.Max(math.Abs(x[j]), 1)
		if x[j]+h > sv.p.Upper[j] {
			h = -h
		}
		copy(xp, x)
		xp[j] += h
		h = xp[j] - x[j]

		if h == 0 {
			for i := 0; i < m; i++ {
				jac.Set(i, j, 0)
			}
			continue
		}

		sv.eval(rp, xp)
		if !allFinite(rp) {
			sv.warn("jacobian column %d is not finite at x=%v", j, x)
			for i := 0; i < m; i++ {
				jac.Set(i, j, 0)
			}
			continue
		}
		for i := 0; i < m; i++ {
			jac.Set(i, j, (rp[i]-r[i])/h)
		}
	}
	return nil
}

// freeSet lists the variables allowed to move. A variable on its bound is
// frozen when the descent direction −g would push it outside.
func (sv *solver) freeSet(x, g []float64) []int {
	free := make([]int, 0, sv.n)
	for j := 0; j < sv.n; j++ {
		if x[j] <= sv.p.Lower[j] && g[j] > 0 {
			continue
		}
		if x[j] >= sv.p.Upper[j] && g[j] < 0 {
			continue
		}
		free = append(free, j)
	}
	return free
}

func (sv *solver) clamp(x []float64) {
	for j := range x {
		x[j] = math.Min(math.Max(x[j], sv.p.Lower[j]), sv.p.Upper[j])
	}
}

func (sv *solver) warn(format string, args ...interface{}) {
	if sv.s.SuppressWarnings || len(sv.warnings) >= maxWarnings {
		return
	}
	sv.warnings = append(sv.warnings, fmt.Sprintf(format, args...))
}

// solveDamped solves (A + λ·diag(A)) δ = −g on the free variables using a
// Cholesky factorization.
func solveDamped(jtj *mat.Dense, g []float64, free []int, lambda float64) ([]float64, bool) {
	nf := len(free)
	a := mat.NewSymDense(nf, nil)
	rhs := mat.NewVecDense(nf, nil)

	for k, i := range free {
		for l := k; l < nf; l++ {
			a.SetSym(k, l, jtj.At(i, free[l]))
		}
		d := jtj.At(i, i)
		if d <= 0 {
			d = 1
		}
		a.SetSym(k, k, jtj.At(i, i)+lambda*d)
		rhs.SetVec(k, -g[i])
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, false
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return nil, false
	}

	delta := make([]float64, nf)
	for k := range delta {
		delta[k] = sol.AtVec(k)
	}
	return delta, allFinite(delta)
}

func projectedGradNorm(g []float64, free []int) float64 {
	norm := 0.0
	for _, j := range free {
		norm = math.Max(norm, math.Abs(g[j]))
	}
	return norm
}

func stepNorm(x, y []float64) float64 {
	return floats.Distance(x, y, 2)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
