// Package report renders fitted curves as PNG images.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/growthfit/internal/storage"
)

var ErrNoData = errors.New("report: nothing to plot")

var (
	observedColor = color.RGBA{A: 255}
	fittedColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	baselineColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	guideColor    = color.Gray{Y: 128}
)

// FitPlot draws the observed points, the RAP fit, the baseline fit when
// present, and dashed guides at the attractor and at K.
func FitPlot(traj storage.Trajectory, attractor float64) ([]byte, error) {
	if len(traj.Times) == 0 || len(traj.Times) != len(traj.Observed) {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = traj.CurveID
	p.X.Label.Text = "Elapsed time"
	p.Y.Label.Text = "Population"
	p.Add(plotter.NewGrid())

	observed, err := plotter.NewScatter(xys(traj.Times, traj.Observed))
	if err != nil {
		return nil, fmt.Errorf("observed points: %w", err)
	}
	observed.GlyphStyle.Color = observedColor
	observed.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(observed)
	p.Legend.Add("Observed", observed)

	if len(traj.Fitted) == len(traj.Times) {
		line, err := plotter.NewLine(xys(traj.Times, traj.Fitted))
		if err != nil {
			return nil, fmt.Errorf("fitted line: %w", err)
		}
		line.Color = fittedColor
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("RAP", line)
	}

	if len(traj.Baseline) == len(traj.Times) {
		line, err := plotter.NewLine(xys(traj.Times, traj.Baseline))
		if err != nil {
			return nil, fmt.Errorf("baseline line: %w", err)
		}
		line.Color = baselineColor
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("Baseline", line)
	}

	if traj.K > 0 {
		t0, t1 := traj.Times[0], traj.Times[len(traj.Times)-1]
		for _, g := range []struct {
			label string
			y     float64
		}{
			{fmt.Sprintf("%.0f%% K", attractor*100), attractor * traj.K},
			{"K", traj.K},
		} {
			guide, err := plotter.NewLine(plotter.XYs{{X: t0, Y: g.y}, {X: t1, Y: g.y}})
			if err != nil {
				return nil, fmt.Errorf("guide %s: %w", g.label, err)
			}
			guide.Color = guideColor
			guide.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
			p.Add(guide)
			p.Legend.Add(g.label, guide)
		}
	}

	p.Legend.Top = false
	p.Legend.Left = false
	p.Legend.XOffs = -vg.Points(10)
	p.Legend.YOffs = vg.Points(10)

	writer, err := p.WriterTo(vg.Points(800), vg.Points(450), "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func SavePNG(path string, traj storage.Trajectory, attractor float64) error {
	data, err := FitPlot(traj, attractor)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	return pts
}
