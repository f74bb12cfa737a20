package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/growthfit/internal/batch"
	"github.com/san-kum/growthfit/internal/convergence"
	"github.com/san-kum/growthfit/internal/fit"
	"github.com/san-kum/growthfit/internal/storage"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Width(24)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func percent(x float64) string {
	return fmt.Sprintf("%.1f%%", 100*x)
}

// renderSummary draws the batch summary as a bordered block.
func renderSummary(title string, s batch.Summary, elapsed string) string {
	lines := []string{
		titleStyle.Render(title),
		"",
		row("curves", fmt.Sprintf("%d (%d ok, %d failed)", s.Total, s.Successful, s.Failed)),
		row("success rate", percent(s.SuccessRate)),
		row("converged to 0.85", fmt.Sprintf("%d (%s)", s.Converged, percent(s.ConvergenceRate))),
		row("saturated at 1.0", fmt.Sprintf("%d (%s)", s.Saturated, percent(s.SaturationRate))),
		row("beats baseline", fmt.Sprintf("%d (%s)", s.Superior, percent(s.SuperiorityRate))),
		row("final utilization", fmt.Sprintf("%.4f ± %.4f", s.MeanUtilization, s.StdUtilization)),
		row("mean distance", fmt.Sprintf("%.4f", s.MeanDistance)),
		row("mean stable points", fmt.Sprintf("%.1f", s.MeanStablePoints)),
		row("mean SSE (rap/base)", fmt.Sprintf("%.4g / %.4g", s.MeanSSE, s.MeanBaselineSSE)),
		row("SSE improvement", improvementStyle(s.Improvement).Render(percent(s.Improvement))),
	}
	if elapsed != "" {
		lines = append(lines, row("duration", elapsed))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func improvementStyle(x float64) lipgloss.Style {
	if x > 0 {
		return goodStyle
	}
	return warnStyle
}

func regimeStyle(r convergence.Regime) lipgloss.Style {
	switch r {
	case convergence.RegimeAttractor:
		return goodStyle
	case convergence.RegimeSaturated:
		return warnStyle
	default:
		return valueStyle
	}
}

func formatSSE(x float64) string {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return "-"
	}
	return fmt.Sprintf("%.4g", x)
}

func printResults(results []fit.Result) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CURVE\tR\tD\tK\tFINAL\tDIST\tSTABLE\tREGIME\tSSE\tBASE_SSE\tSUPERIOR")

	for _, r := range results {
		if !r.Success {
			fmt.Fprintf(w, "%s\t%s\n", r.CurveID, errStyle.Render("failed: "+r.Error))
			continue
		}
		c := r.Convergence
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.4f\t%.4f\t%d\t%s\t%s\t%s\t%t\n",
			r.CurveID,
			r.Params.R,
			r.Params.D,
			r.Params.K,
			c.FinalUtilization,
			c.Distance,
			c.StablePoints,
			c.Regime,
			formatSSE(r.SSE),
			formatSSE(r.BaselineSSE),
			r.Superior,
		)
	}

	return w.Flush()
}

func printRecords(records []storage.Record) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CURVE\tR\tD\tK\tFINAL\tDIST\tSTABLE\tREGIME\tSSE\tBASE_SSE\tSUPERIOR")

	for _, r := range records {
		if !r.Success {
			fmt.Fprintf(w, "%s\t%s\n", r.CurveID, errStyle.Render("failed: "+r.Error))
			continue
		}
		base := "-"
		if r.BaselineSSE != nil {
			base = formatSSE(*r.BaselineSSE)
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.4f\t%.4f\t%d\t%s\t%s\t%s\t%t\n",
			r.CurveID,
			r.R,
			r.D,
			r.K,
			r.FinalUtilization,
			r.Distance,
			r.StablePoints,
			r.Regime,
			formatSSE(r.SSE),
			base,
			r.Superior,
		)
	}

	return w.Flush()
}

func printRuns(runs []storage.RunMetadata) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSOURCE\tTIME\tCURVES\tOK\tCONVERGED\tDURATION")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Name,
			run.Source,
			run.Timestamp.Format(time.DateTime),
			run.Curves,
			run.Summary.Successful,
			run.Summary.Converged,
			run.Duration,
		)
	}

	return w.Flush()
}
