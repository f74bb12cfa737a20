package fit_test

import (
	"bytes"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/san-kum/growthfit/internal/baseline"
	"github.com/san-kum/growthfit/internal/convergence"
	"github.com/san-kum/growthfit/internal/fit"
	"github.com/san-kum/growthfit/internal/growth"
)

var truth = growth.Params{R: 1.2, D: 3.5, K: 3.0, P0: 0.05}

func grid(start, end, step float64) []float64 {
	var out []float64
	for t := start; t <= end+1e-9; t += step {
		out = append(out, t)
	}
	return out
}

func simulate(times []float64, p growth.Params) []float64 {
	traj, err := growth.NewModel(growth.DefaultConstants()).Simulate(times, p)
	Expect(err).NotTo(HaveOccurred())
	return traj
}

func newFitter(cfg fit.Config) *fit.Fitter {
	return fit.New(growth.NewModel(growth.DefaultConstants()), cfg, nil)
}

var _ = Describe("Fitter", func() {
	var cfg fit.Config

	BeforeEach(func() {
		cfg = fit.DefaultConfig()
	})

	Describe("round trip", func() {
		It("recovers known parameters from a dense noise-free curve", func() {
			times := grid(0, 40, 0.5)
			res := newFitter(cfg).Fit(times, simulate(times, truth), "dense")

			Expect(res.Success).To(BeTrue(), res.Error)
			Expect(res.Error).To(BeEmpty())
			Expect(res.Params.R).To(BeNumerically("~", truth.R, 0.1*truth.R))
			Expect(res.Params.D).To(BeNumerically("~", truth.D, 0.1*truth.D))
			Expect(res.Params.K).To(BeNumerically("~", truth.K, 0.1*truth.K))
			Expect(res.Params.P0).To(Equal(truth.P0))
			Expect(res.Trajectory).To(HaveLen(len(times)))
			Expect(res.Evaluations).To(BeNumerically(">", 0))
		})

		It("locks onto the attractor for the six-sample scenario", func() {
			times := []float64{0, 8, 16, 24, 32, 40}
			res := newFitter(cfg).Fit(times, simulate(times, truth), "scenario")

			Expect(res.Success).To(BeTrue(), res.Error)
			Expect(res.Convergence.FinalUtilization).To(BeNumerically("~", 0.85, 0.05))
			Expect(res.Convergence.Converged).To(BeTrue())
			Expect(res.Convergence.Regime).To(Equal(convergence.RegimeAttractor))
			Expect(res.Superior).To(BeTrue())
		})
	})

	Describe("baselines", func() {
		It("lets the logistic baseline win on logistic data", func() {
			times := grid(0, 20, 1)
			p := baseline.Params{R: 0.8, K: 2.0, P0: 0.05}
			res := newFitter(cfg).Fit(times, baseline.Logistic.Curve(times, p), "logistic")

			Expect(res.Success).To(BeTrue(), res.Error)
			Expect(res.Baseline).To(Equal(baseline.Logistic))
			Expect(res.BaselineFitted()).To(BeTrue())
			Expect(res.BaselineSSE).To(BeNumerically("<", 1e-6))
			Expect(res.BaselineParams.R).To(BeNumerically("~", 0.8, 1e-2))
			Expect(res.BaselineParams.K).To(BeNumerically("~", 2.0, 1e-2))
			Expect(res.BaselineTrajectory).To(HaveLen(len(times)))
			Expect(res.Superior).To(Equal(res.SSE < res.BaselineSSE))
		})

		It("fits baselines on elapsed time for late-starting series", func() {
			times := grid(5, 20, 1)
			p := baseline.Params{R: 0.8, K: 2.0, P0: 0.05}
			values := baseline.Logistic.Curve(times, p)
			res := newFitter(cfg).Fit(times, values, "late")

			Expect(res.Success).To(BeTrue(), res.Error)
			Expect(res.Times[0]).To(Equal(0.0))
			Expect(res.Times[len(res.Times)-1]).To(BeNumerically("~", 15.0, 1e-9))
			Expect(res.BaselineFitted()).To(BeTrue())
			Expect(res.BaselineParams.P0).To(Equal(values[0]))
			Expect(res.BaselineParams.P0).NotTo(Equal(p.P0))
			Expect(res.BaselineSSE).To(BeNumerically("<", 1e-6))
		})

		It("fits a Gompertz baseline when configured", func() {
			cfg.Baseline = baseline.Gompertz
			times := grid(0, 30, 1)
			p := baseline.Params{R: 0.3, K: 2.0, P0: 0.05}
			res := newFitter(cfg).Fit(times, baseline.Gompertz.Curve(times, p), "tumor")

			Expect(res.Success).To(BeTrue(), res.Error)
			Expect(res.Baseline).To(Equal(baseline.Gompertz))
			Expect(res.BaselineSSE).To(BeNumerically("<", 1e-6))
			Expect(res.BaselineParams.R).To(BeNumerically("~", 0.3, 1e-2))
		})

		It("reports relative improvement against the baseline", func() {
			times := grid(0, 40, 1)
			res := newFitter(cfg).Fit(times, simulate(times, truth), "improvement")

			Expect(res.Success).To(BeTrue(), res.Error)
			Expect(res.BaselineSSE).To(BeNumerically(">", res.SSE))
			Expect(res.Improvement).To(BeNumerically("~", (res.BaselineSSE-res.SSE)/res.BaselineSSE, 1e-12))
			Expect(res.SSERatio).To(BeNumerically("~", res.SSE/res.BaselineSSE, 1e-12))
		})
	})

	Describe("input cleaning", func() {
		It("drops missing measurements with their times", func() {
			times := grid(0, 40, 4)
			values := simulate(times, truth)
			values[0] = math.NaN()
			values[5] = math.Inf(1)

			res := newFitter(cfg).Fit(times, values, "gappy")

			Expect(res.Success).To(BeTrue(), res.Error)
			Expect(res.Times).To(HaveLen(len(times) - 2))
			Expect(res.Times[0]).To(Equal(0.0))
			Expect(res.Params.P0).To(Equal(values[1]))
		})

		It("floors a zero first measurement", func() {
			times := grid(0, 40, 4)
			values := simulate(times, truth)
			values[0] = 0

			res := newFitter(cfg).Fit(times, values, "zero-start")
			Expect(res.Success).To(BeTrue(), res.Error)
			Expect(res.Params.P0).To(Equal(cfg.MinP0))
		})
	})

	Describe("local recovery", func() {
		DescribeTable("fails without panicking",
			func(times, values []float64, reason string) {
				res := newFitter(cfg).Fit(times, values, "bad")

				Expect(res.Success).To(BeFalse())
				Expect(res.CurveID).To(Equal("bad"))
				Expect(res.Error).To(ContainSubstring(reason))
				Expect(res.Trajectory).To(BeNil())
				Expect(res.Params).To(Equal(growth.Params{}))
			},
			Entry("all missing", []float64{0, 1, 2, 3, 4}, []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}, "too few"),
			Entry("too short", []float64{0, 1, 2}, []float64{0.1, 0.2, 0.3}, "too few"),
			Entry("no positive data", []float64{0, 1, 2, 3}, []float64{0, 0, 0, 0}, "no positive"),
			Entry("unordered time", []float64{0, 2, 1, 3}, []float64{0.1, 0.2, 0.3, 0.4}, "non-decreasing"),
			Entry("length mismatch", []float64{0, 1, 2, 3, 4}, []float64{0.1, 0.2, 0.3, 0.4}, "differ in length"),
			Entry("overflowing values", []float64{0, 1, 2, 3, 4, 5, 6, 7}, []float64{1e300, 2e300, 3e300, 4e300, 5e300, 6e300, 7e300, 8e300}, "not finite"),
		)

		It("fails when the evaluation budget is too small", func() {
			cfg.MaxEvaluations = 3
			cfg.Starts = 1
			times := grid(0, 40, 4)
			res := newFitter(cfg).Fit(times, simulate(times, truth), "budget")

			Expect(res.Success).To(BeFalse())
			Expect(res.Error).To(ContainSubstring("evaluation budget"))
		})
	})

	Describe("warnings", func() {
		It("drops warnings when suppressed", func() {
			cfg.SuppressWarnings = true
			times := grid(0, 40, 4)
			res := newFitter(cfg).Fit(times, simulate(times, truth), "quiet")

			Expect(res.Success).To(BeTrue(), res.Error)
			Expect(res.Warnings).To(BeEmpty())
		})
	})

	Describe("logging", func() {
		It("logs completed fits at debug level", func() {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
			f := fit.New(growth.NewModel(growth.DefaultConstants()), cfg, &logger)

			times := grid(0, 40, 4)
			f.Fit(times, simulate(times, truth), "logged")

			Expect(buf.String()).To(ContainSubstring(`"message":"fit complete"`))
			Expect(buf.String()).To(ContainSubstring(`"curve":"logged"`))
		})

		It("logs failures as warnings", func() {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			f := fit.New(growth.NewModel(growth.DefaultConstants()), cfg, &logger)

			f.Fit([]float64{0}, []float64{1}, "short")

			Expect(buf.String()).To(ContainSubstring(`"level":"warn"`))
		})
	})
})
