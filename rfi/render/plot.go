package render

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

var errNoSamples = errors.New("render: no samples to plot")

var (
	colorAbove = color.RGBA{R: 220, A: 255}
	colorBelow = color.RGBA{B: 220, A: 255}
)

// SeriesPlot describes a classified time-series plot.
type SeriesPlot struct {
	Title     string
	XLabel    string
	YLabel    string
	T0        int64
	Threshold float64
}

// PlotSeries plots values against time, red where a value is at or
// above the threshold and blue below it, with the threshold drawn as a
// dashed line. The image format follows the extension of path.
func PlotSeries(path string, values []float64, sp SeriesPlot) error {
	if len(values) == 0 {
		return errNoSamples
	}
	above := make(plotter.XYs, 0, len(values))
	below := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		pt := plotter.XY{X: float64(sp.T0 + int64(i)), Y: v}
		if v >= sp.Threshold {
			above = append(above, pt)
		} else {
			below = append(below, pt)
		}
	}

	p := plot.New()
	p.Title.Text = sp.Title
	p.X.Label.Text = sp.XLabel
	p.Y.Label.Text = sp.YLabel

	for _, cls := range []struct {
		name  string
		pts   plotter.XYs
		color color.Color
	}{
		{"above", above, colorAbove},
		{"below", below, colorBelow},
	} {
		if len(cls.pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(cls.pts)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		sc.GlyphStyle.Color = cls.color
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)
		p.Legend.Add(cls.name, sc)
	}

	thr := plotter.NewFunction(func(float64) float64 { return sp.Threshold })
	thr.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	thr.Width = vg.Points(1)
	p.Add(thr)
	p.Legend.Add(fmt.Sprintf("threshold %g", sp.Threshold), thr)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

// gridXYZ adapts a Grid to plotter.GridXYZ with time along x.
type gridXYZ struct {
	g  core.Grid
	t0 int64
}

func (g gridXYZ) Dims() (c, r int)   { return g.g.Nt, g.g.Nfreq }
func (g gridXYZ) Z(c, r int) float64 { return g.g.At(r, c) }
func (g gridXYZ) X(c int) float64    { return float64(g.t0 + int64(c)) }
func (g gridXYZ) Y(r int) float64    { return float64(r) }

// Heatmap draws a colour-mapped grid with axes in sample time and
// channel index.
func Heatmap(path, title string, g core.Grid, t0 int64) error {
	if g.Nfreq == 0 || g.Nt == 0 {
		return errEmpty
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time sample"
	p.Y.Label.Text = "Channel"

	hm := plotter.NewHeatMap(gridXYZ{g: g, t0: t0}, palette.Heat(16, 1))
	p.Add(hm)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}
