// Package batch fits many curves sharing one time axis and summarizes the
// outcome.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"

	"github.com/san-kum/growthfit/internal/fit"
	"github.com/san-kum/growthfit/internal/series"
)

// Curve is one named measurement vector aligned with the batch time axis.
type Curve struct {
	ID     string
	Values []float64
}

type Report struct {
	Results  []fit.Result
	Summary  Summary
	Duration time.Duration
}

type Runner struct {
	fitter    *fit.Fitter
	workers   int
	minPoints int
	log       zerolog.Logger
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithMinPoints sets how many valid points a curve needs before it is fitted.
func WithMinPoints(n int) Option {
	return func(r *Runner) { r.minPoints = n }
}

func WithLogger(l *zerolog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = *l
		}
	}
}

func NewRunner(f *fit.Fitter, opts ...Option) *Runner {
	r := &Runner{
		fitter:    f,
		workers:   runtime.NumCPU(),
		minPoints: series.MinBatchPoints,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run fits every curve on a worker pool. Results keep the input order and
// one curve's failure never affects another. If ctx is cancelled, curves
// not yet started get failed results and Run returns ctx.Err() along with
// the report.
func (r *Runner) Run(ctx context.Context, times []float64, curves []Curve) (*Report, error) {
	start := time.Now()
	results := make([]fit.Result, len(curves))

	r.log.Info().
		Int("curves", len(curves)).
		Int("points", len(times)).
		Int("workers", r.workers).
		Msg("Starting batch")

	pool := pond.NewPool(r.workers)
	for i, c := range curves {
		pool.Submit(func() {
			if err := ctx.Err(); err != nil {
				results[i] = fit.Result{CurveID: c.ID, Error: fmt.Sprintf("not fitted: %v", err)}
				return
			}
			results[i] = r.fitOne(times, c)
		})
	}
	pool.StopAndWait()

	report := &Report{
		Results:  results,
		Summary:  Summarize(results),
		Duration: time.Since(start),
	}

	r.log.Info().
		Int("total", report.Summary.Total).
		Int("successful", report.Summary.Successful).
		Int("converged", report.Summary.Converged).
		Dur("duration", report.Duration).
		Msg("Batch complete")

	return report, ctx.Err()
}

func (r *Runner) fitOne(times []float64, c Curve) fit.Result {
	s := series.New(c.ID, times, c.Values)
	if n := s.ValidCount(); n < r.minPoints {
		r.log.Debug().Str("curve", c.ID).Int("valid", n).Msg("Skipping curve with too few points")
		return fit.Result{
			CurveID: c.ID,
			Error:   fmt.Sprintf("%d valid points, need %d: %v", n, r.minPoints, series.ErrTooFewPoints),
		}
	}
	return r.fitter.Fit(times, c.Values, c.ID)
}
