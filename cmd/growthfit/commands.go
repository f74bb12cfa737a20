package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/growthfit/internal/analysis"
	"github.com/san-kum/growthfit/internal/batch"
	"github.com/san-kum/growthfit/internal/config"
	"github.com/san-kum/growthfit/internal/convergence"
	"github.com/san-kum/growthfit/internal/dataset"
	"github.com/san-kum/growthfit/internal/fit"
	"github.com/san-kum/growthfit/internal/growth"
	"github.com/san-kum/growthfit/internal/logging"
	"github.com/san-kum/growthfit/internal/optim"
	"github.com/san-kum/growthfit/internal/report"
	"github.com/san-kum/growthfit/internal/storage"
)

// loadConfig resolves defaults, preset or config file, environment and
// flag overrides, in that order, and validates the result.
func loadConfig(override func(*config.Config)) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if tolerance >= 0 {
		cfg.Fit.Tolerance = tolerance
	}
	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zerolog.Logger, error) {
	return logging.New(cfg.Log, os.Stderr)
}

func fitCurves(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(func(c *config.Config) {
		if baseKind != "" {
			c.Fit.Baseline = baseKind
		}
		if workers > 0 {
			c.Batch.Workers = workers
		}
		if runName != "" {
			c.Name = runName
		}
	})
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ds, err := dataset.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}

	fitCfg, err := cfg.FitterConfig()
	if err != nil {
		return err
	}
	fitter := fit.New(cfg.NewModel(), fitCfg, logger)
	runner := batch.NewRunner(fitter,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithMinPoints(cfg.Batch.MinPoints),
		batch.WithLogger(logger),
	)

	rep, runErr := runner.Run(cmd.Context(), ds.Times, ds.Curves)

	if err := printResults(rep.Results); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(renderSummary(fmt.Sprintf("%s (%s baseline)", ds.Name, fitCfg.Baseline), rep.Summary, rep.Duration.String()))

	if runErr != nil {
		return runErr
	}
	if noSave {
		return nil
	}

	st := storage.New(cfg.DataDir)
	runID, err := st.Save(cfg.Name, args[0], cfg, rep)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	fmt.Printf("\nrun saved: %s\n", runID)
	return nil
}

func modelParams() growth.Params {
	return growth.Params{R: rate, D: damping, K: capacity, P0: initial}
}

func simulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	model := cfg.NewModel()
	p := modelParams()
	times := optim.Linspace(0, duration, points)

	traj, err := model.Simulate(times, p)
	if err != nil {
		return err
	}

	c := model.Constants()
	rep := convergence.NewClassifier(c).Classify(traj, p.K, cfg.Fit.Tolerance)

	util := make([]float64, len(traj))
	for i, v := range traj {
		util[i] = v / p.K
	}

	fmt.Println(asciigraph.Plot(util,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("P/K  r=%.2f d=%.2f K=%.2f P0=%.3f", p.R, p.D, p.K, p.P0)),
	))
	fmt.Println()

	lines := []string{
		titleStyle.Render("trajectory"),
		"",
		row("final utilization", fmt.Sprintf("%.4f", rep.FinalUtilization)),
		row("equilibrium", fmt.Sprintf("%.4f", c.Equilibrium(p.D))),
		row("peak utilization", fmt.Sprintf("%.4f", rep.PeakUtilization)),
		row("distance to 0.85", fmt.Sprintf("%.4f", rep.Distance)),
		row("stable points", fmt.Sprintf("%d (tight %d, dwell %d, %.0f%%)", rep.StablePoints, rep.TightStable85, rep.Dwell, 100*rep.DwellShare)),
		row("distance to 1.0", fmt.Sprintf("%.4f", rep.DistanceTo100)),
		row("regime", regimeStyle(rep.Regime).Render(string(rep.Regime))),
	}
	fmt.Println(boxStyle.Render(strings.Join(lines, "\n")))
	return nil
}

func sweepDamping(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	times := optim.Linspace(0, duration, points)
	sweep, err := analysis.DampingSweep(cfg.Constants(), modelParams(), dMin, dMax, steps, times, cfg.Fit.Tolerance)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "D\tFINAL\tEQUILIBRIUM\tDIST\tSTABLE\tREGIME")
	util := make([]float64, len(sweep))
	for i, pt := range sweep {
		util[i] = pt.Utilization
		fmt.Fprintf(w, "%.3f\t%.4f\t%.4f\t%.4f\t%d\t%s\n",
			pt.Param,
			pt.Utilization,
			pt.Equilibrium,
			pt.Report.Distance,
			pt.Report.StablePoints,
			pt.Regime,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(util) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(util,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("final P/K vs d in [%.2f, %.2f]", dMin, dMax)),
		))
	}
	return nil
}

func synthesize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	opts := dataset.DefaultSynthOptions()
	opts.Curves = synthCurves
	opts.Points = points
	opts.TimeMax = duration
	opts.Noise = synthNoise
	opts.Seed = synthSeed

	ds, truths, err := dataset.Synthesize(cfg.NewModel(), opts)
	if err != nil {
		return err
	}
	if err := ds.SaveFile(args[0]); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CURVE\tR\tD\tK\tP0\tFINAL")
	for _, t := range truths {
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.4f\t%.4f\n",
			t.ID, t.Params.R, t.Params.D, t.Params.K, t.Params.P0, t.Utilization)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nwrote %d curves x %d points to %s\n", len(ds.Curves), len(ds.Times), args[0])
	return nil
}

func openStore() (*storage.Store, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	return printRuns(runs)
}

func showRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadResults(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("time: %s\n\n", meta.Timestamp.Format("2006-01-02 15:04:05"))

	if err := printRecords(records); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(renderSummary(meta.Name, meta.Summary, meta.Duration))
	return nil
}

func plotCurve(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0], args[1])
	if err != nil {
		return err
	}
	if len(traj.Observed) == 0 {
		return fmt.Errorf("no data to plot")
	}

	data := [][]float64{traj.Observed, traj.Fitted}
	colors := []asciigraph.AnsiColor{asciigraph.Default, asciigraph.Green}
	caption := "observed (default), rap (green)"
	if len(traj.Baseline) > 0 {
		data = append(data, traj.Baseline)
		colors = append(colors, asciigraph.Red)
		caption += ", baseline (red)"
	}

	fmt.Printf("run: %s\n", args[0])
	fmt.Printf("curve: %s\n", traj.CurveID)
	fmt.Printf("samples: %d\n\n", len(traj.Times))

	fmt.Println(asciigraph.PlotMany(data,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	))
	return nil
}

func pngCurve(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0], args[1])
	if err != nil {
		return err
	}

	attractor := growth.DefaultAttractor
	if meta.Config != nil {
		attractor = meta.Config.Model.Attractor
	}
	if err := report.SavePNG(args[2], *traj, attractor); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", args[2])
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	return st.ExportJSON(args[0], os.Stdout)
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Printf("  %-8s baseline=%s tolerance=%.2f starts=%d\n",
			name, cfg.Fit.Baseline, cfg.Fit.Tolerance, cfg.Fit.Starts)
	}
	return nil
}
