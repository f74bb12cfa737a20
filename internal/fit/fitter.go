// Package fit estimates RAP parameters for observed growth curves and
// compares them against a closed-form baseline.
package fit

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/growthfit/internal/baseline"
	"github.com/san-kum/growthfit/internal/convergence"
	"github.com/san-kum/growthfit/internal/growth"
	"github.com/san-kum/growthfit/internal/optim"
	"github.com/san-kum/growthfit/internal/series"
)

var rapParams = []string{"r", "d", "K"}

// ErrNotFinite reports a fit whose curve or SSE overflowed.
var ErrNotFinite = errors.New("fit: result is not finite")

type Fitter struct {
	model      *growth.Model
	classifier *convergence.Classifier
	cfg        Config
	log        zerolog.Logger
}

// New builds a fitter. A nil logger discards output.
func New(model *growth.Model, cfg Config, logger *zerolog.Logger) *Fitter {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Fitter{
		model:      model,
		classifier: convergence.NewClassifier(model.Constants()),
		cfg:        cfg,
		log:        l,
	}
}

func (f *Fitter) Config() Config { return f.cfg }

// Fit fits one curve. It never panics and never returns an error; failures
// are reported through Result.Success and Result.Error.
func (f *Fitter) Fit(times, values []float64, curveID string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error().Str("curve", curveID).Interface("panic", r).Msg("fit panicked")
			res = failed(curveID, fmt.Sprintf("panic during fit: %v", r))
		}
	}()

	res, err := f.fit(series.New(curveID, times, values))
	if err != nil {
		f.log.Warn().Str("curve", curveID).Err(err).Msg("fit failed")
		return failed(curveID, err.Error())
	}
	f.log.Debug().
		Str("curve", curveID).
		Float64("r", res.Params.R).
		Float64("d", res.Params.D).
		Float64("K", res.Params.K).
		Float64("sse", res.SSE).
		Float64("baseline_sse", res.BaselineSSE).
		Bool("converged", res.Convergence.Converged).
		Int("evaluations", res.Evaluations).
		Msg("fit complete")
	return res
}

func (f *Fitter) fit(s series.Series) (Result, error) {
	if len(s.Times) != len(s.Values) {
		return Result{}, fmt.Errorf("%d times, %d values: %w", len(s.Times), len(s.Values), series.ErrLengthMismatch)
	}
	s = s.Clean()
	if err := s.Validate(max(f.cfg.MinPoints, 1)); err != nil {
		return Result{}, err
	}

	maxObs := s.Max()
	if !(maxObs > 0) {
		return Result{}, series.ErrNoPositive
	}

	elapsed := make([]float64, len(s.Times))
	for i, t := range s.Times {
		elapsed[i] = t - s.Times[0]
	}
	p0 := math.Max(s.Values[0], f.cfg.MinP0)

	params, trajectory, sse, rapRes, err := f.fitRAP(elapsed, s.Values, p0, maxObs)
	if err != nil {
		return Result{}, fmt.Errorf("rap fit: %w", err)
	}
	if !isFinite(sse) || !allFinite(trajectory) {
		return Result{}, fmt.Errorf("rap fit: sse %g: %w", sse, ErrNotFinite)
	}

	res := Result{
		CurveID:     s.ID,
		Success:     true,
		Times:       elapsed,
		Observed:    s.Values,
		Params:      params,
		Trajectory:  trajectory,
		SSE:         sse,
		Baseline:    f.cfg.Baseline,
		BaselineSSE: math.Inf(1),
		Evaluations: rapRes.Evaluations,
	}
	res.Warnings = append(res.Warnings, rapRes.Warnings...)

	bp, btraj, bsse, bres, berr := f.fitBaseline(elapsed, s.Values, p0, maxObs)
	if bres != nil {
		res.Evaluations += bres.Evaluations
		res.Warnings = append(res.Warnings, bres.Warnings...)
	}
	if berr == nil && (!isFinite(bsse) || !allFinite(btraj)) {
		berr = fmt.Errorf("baseline sse %g: %w", bsse, ErrNotFinite)
	}
	if berr != nil {
		f.log.Debug().Str("curve", s.ID).Err(berr).Msg("baseline fit failed, rap wins by default")
	} else {
		res.BaselineParams = &bp
		res.BaselineTrajectory = btraj
		res.BaselineSSE = bsse
	}

	res.Superior = sse < res.BaselineSSE
	if !math.IsInf(res.BaselineSSE, 0) && res.BaselineSSE > 0 {
		res.Improvement = (res.BaselineSSE - sse) / res.BaselineSSE
		res.SSERatio = sse / res.BaselineSSE
	}

	res.Convergence = f.classifier.Classify(trajectory, params.K, f.cfg.Tolerance)
	if f.cfg.SuppressWarnings {
		res.Warnings = nil
	}
	return res, nil
}

func (f *Fitter) fitRAP(times, obs []float64, p0, maxObs float64) (growth.Params, []float64, float64, *optim.Result, error) {
	lower := []float64{f.cfg.RBounds[0], f.cfg.DBounds[0], f.cfg.KFactors[0] * maxObs}
	upper := []float64{f.cfg.RBounds[1], f.cfg.DBounds[1], f.cfg.KFactors[1] * maxObs}
	initial := []float64{f.cfg.InitialR, f.cfg.InitialD, f.cfg.InitialKFactor * maxObs}

	toParams := func(x []float64) growth.Params {
		return growth.Params{R: x[0], D: x[1], K: x[2], P0: p0}
	}
	problem := optim.Problem{
		Residuals: len(obs),
		Func: func(dst, x []float64) {
			traj, err := f.model.Simulate(times, toParams(x))
			if err != nil {
				fillNaN(dst)
				return
			}
			floats.SubTo(dst, traj, obs)
		},
		Lower: lower,
		Upper: upper,
	}

	seeds := [][]float64{initial}
	if f.cfg.Starts > 1 {
		grid := optim.NewGridSearch(rapParams, [][]float64{
			optim.Linspace(lower[0], upper[0], 3),
			optim.Linspace(lower[1], upper[1], 3),
			optim.Linspace(lower[2], upper[2], 3),
		})
		for _, c := range grid.Search(func(p map[string]float64) float64 {
			return f.sse(times, obs, toParams([]float64{p["r"], p["d"], p["K"]}))
		}, f.cfg.Starts-1) {
			seeds = append(seeds, c.Vector(rapParams))
		}
	}

	best, err := f.bestOf(problem, seeds)
	if err != nil {
		return growth.Params{}, nil, 0, nil, err
	}

	params := toParams(best.X)
	traj, err := f.model.Simulate(times, params)
	if err != nil {
		return growth.Params{}, nil, 0, nil, err
	}
	return params, traj, sumSquares(traj, obs), best, nil
}

func (f *Fitter) fitBaseline(times, obs []float64, p0, maxObs float64) (baseline.Params, []float64, float64, *optim.Result, error) {
	kind := f.cfg.Baseline
	box := kind.Bounds(maxObs)

	toParams := func(x []float64) baseline.Params {
		return baseline.Params{R: x[0], K: x[1], P0: p0}
	}
	problem := optim.Problem{
		Residuals: len(obs),
		Func: func(dst, x []float64) {
			floats.SubTo(dst, kind.Curve(times, toParams(x)), obs)
		},
		Lower: box.Lower[:],
		Upper: box.Upper[:],
	}

	best, err := f.bestOf(problem, [][]float64{box.Initial[:]})
	if err != nil {
		return baseline.Params{}, nil, 0, best, err
	}
	params := toParams(best.X)
	traj := kind.Curve(times, params)
	return params, traj, sumSquares(traj, obs), best, nil
}

// bestOf runs the optimizer from every seed and keeps the lowest cost.
// It fails only when every start fails.
func (f *Fitter) bestOf(problem optim.Problem, seeds [][]float64) (*optim.Result, error) {
	settings := optim.DefaultSettings()
	settings.MaxEvaluations = f.cfg.MaxEvaluations
	settings.SuppressWarnings = f.cfg.SuppressWarnings

	var best *optim.Result
	var errs []error
	evaluations := 0
	for _, seed := range seeds {
		res, err := optim.LevenbergMarquardt(problem, seed, settings)
		if res != nil {
			evaluations += res.Evaluations
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if best == nil || res.Cost < best.Cost {
			best = res
		}
	}
	if best == nil {
		return &optim.Result{Evaluations: evaluations}, errors.Join(errs...)
	}
	best.Evaluations = evaluations
	return best, nil
}

func (f *Fitter) sse(times, obs []float64, p growth.Params) float64 {
	traj, err := f.model.Simulate(times, p)
	if err != nil {
		return math.Inf(1)
	}
	return sumSquares(traj, obs)
}

func sumSquares(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func fillNaN(dst []float64) {
	for i := range dst {
		dst[i] = math.NaN()
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if !isFinite(x) {
			return false
		}
	}
	return true
}
