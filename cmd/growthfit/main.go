package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	envFile    string
	workers    int
	baseKind   string
	runName    string
	noSave     bool
	tolerance  float64

	// model parameters for simulate and sweep
	rate     float64
	damping  float64
	capacity float64
	initial  float64
	duration float64
	points   int

	dMin  float64
	dMax  float64
	steps int

	synthCurves int
	synthNoise  float64
	synthSeed   int64
)

// main registers the growthfit commands and executes the root command.
func main() {
	rootCmd := &cobra.Command{
		Use:           "growthfit",
		Short:         "fit RAP growth dynamics to growth curves",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file")

	fitCmd := &cobra.Command{
		Use:   "fit [csv]",
		Short: "fit every curve in a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE:  fitCurves,
	}
	fitCmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = config or NumCPU)")
	fitCmd.Flags().StringVar(&baseKind, "baseline", "", "baseline model (logistic, gompertz)")
	fitCmd.Flags().StringVar(&runName, "name", "", "run name")
	fitCmd.Flags().Float64Var(&tolerance, "tolerance", -1, "convergence tolerance (negative = config)")
	fitCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "integrate the RAP model and classify the trajectory",
		RunE:  simulate,
	}
	addModelFlags(simulateCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep damping and report the final regime",
		RunE:  sweepDamping,
	}
	addModelFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&dMin, "d-min", 0.5, "lowest damping")
	sweepCmd.Flags().Float64Var(&dMax, "d-max", 5.0, "highest damping")
	sweepCmd.Flags().IntVar(&steps, "steps", 10, "number of damping values")

	synthCmd := &cobra.Command{
		Use:   "synth [out.csv]",
		Short: "generate synthetic RAP curves",
		Args:  cobra.ExactArgs(1),
		RunE:  synthesize,
	}
	synthCmd.Flags().IntVar(&synthCurves, "curves", 10, "number of curves")
	synthCmd.Flags().IntVar(&points, "points", 100, "samples per curve")
	synthCmd.Flags().Float64Var(&duration, "time", 48, "last sample time")
	synthCmd.Flags().Float64Var(&synthNoise, "noise", 0.02, "measurement noise std")
	synthCmd.Flags().Int64Var(&synthSeed, "seed", 1, "random seed")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run summary and per-curve results",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [curve]",
		Short: "plot observed and fitted curve in the terminal",
		Args:  cobra.ExactArgs(2),
		RunE:  plotCurve,
	}

	pngCmd := &cobra.Command{
		Use:   "png [run_id] [curve] [out.png]",
		Short: "render observed and fitted curve to PNG",
		Args:  cobra.ExactArgs(3),
		RunE:  pngCurve,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(fitCmd, simulateCmd, sweepCmd, synthCmd, listCmd, showCmd, plotCmd, pngCmd, exportJSONCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&rate, "r", 1.2, "intrinsic growth rate")
	cmd.Flags().Float64Var(&damping, "d", 3.5, "damping coefficient")
	cmd.Flags().Float64Var(&capacity, "K", 3.0, "carrying capacity")
	cmd.Flags().Float64Var(&initial, "P0", 0.05, "initial population")
	cmd.Flags().Float64Var(&duration, "time", 48, "duration")
	cmd.Flags().IntVar(&points, "points", 100, "output samples")
	cmd.Flags().Float64Var(&tolerance, "tolerance", -1, "convergence tolerance (negative = config)")
}
