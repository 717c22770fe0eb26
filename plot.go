/*
Copyright © 2023 the MINV authors.
This file is part of MINV.

MINV is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

MINV is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with MINV.  If not, see <http://www.gnu.org/licenses/>.
*/

package minv

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"
	"time"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/carto"
	"github.com/ctessum/sparse"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// FieldPlotOptions configures a gridded-field map.
type FieldPlotOptions struct {
	// Title is drawn above the map.
	Title string

	// Label is the color bar label.
	Label string

	// Mask, if non-nil, is a 0/1 region-of-interest mask whose
	// boundary is drawn on the map.
	Mask *sparse.DenseArray

	// OnlyROI zeroes out the field outside the mask before
	// plotting.
	OnlyROI bool

	// PointSources are marked on the map with crosses.
	PointSources []geom.Point

	// ColorMapType selects the color scale; the default is
	// carto.LinCutoff.
	ColorMapType carto.ColorMapType
}

// PlotField renders the given gridded field onto canvas c as a map,
// with a color bar legend below the map.
func PlotField(c draw.Canvas, grid *Grid, field *sparse.DenseArray, opts FieldPlotOptions) error {
	if field.Shape[0] != grid.Ny() || field.Shape[1] != grid.Nx() {
		return fmt.Errorf("minv: plotting field of shape %v on a %dx%d grid",
			field.Shape, grid.Ny(), grid.Nx())
	}
	vals := field.Elements
	if opts.OnlyROI {
		if opts.Mask == nil {
			return fmt.Errorf("minv: plotting only the region of interest requires a mask")
		}
		vals = make([]float64, len(field.Elements))
		for i, v := range field.Elements {
			vals[i] = v * opts.Mask.Elements[i]
		}
	}

	labelFont, err := vg.MakeFont(plot.DefaultFont, vg.Points(7))
	if err != nil {
		return err
	}
	ts := draw.TextStyle{Color: color.Black, Font: labelFont}

	const legendHeight = 0.4 * vg.Inch
	titleHeight := vg.Length(0)
	if opts.Title != "" {
		titleHeight = 0.2 * vg.Inch
	}
	cMap := draw.Crop(c, 0, 0, legendHeight, -titleHeight)
	cLegend := draw.Crop(c, 0, 0, 0, legendHeight-(c.Max.Y-c.Min.Y))

	N, S, E, W := grid.Extent()
	m := carto.NewCanvas(N, S, E, W, cMap)

	cmap := carto.NewColorMap(opts.ColorMapType)
	cmap.Font = plot.DefaultFont
	cmap.AddArray(vals)
	cmap.Set()

	lineStyle := draw.LineStyle{Width: 0.1 * vg.Millimeter}
	glyph := draw.GlyphStyle{Radius: 0.5 * vg.Millimeter, Shape: draw.CircleGlyph{}}
	for j := 0; j < grid.Ny(); j++ {
		for i := 0; i < grid.Nx(); i++ {
			col := cmap.GetColor(vals[j*grid.Nx()+i])
			lineStyle.Color = col
			glyph.Color = col
			if err := m.DrawVector(grid.Cell(j, i), col, lineStyle, glyph); err != nil {
				return err
			}
		}
	}

	if opts.Mask != nil {
		if err := drawMaskOutline(m, grid, opts.Mask); err != nil {
			return err
		}
	}

	for _, p := range opts.PointSources {
		marker := draw.GlyphStyle{
			Color:  color.Black,
			Radius: vg.Points(3),
			Shape:  draw.CrossGlyph{},
		}
		if err := m.DrawVector(p, color.NRGBA{0, 0, 0, 255}, lineStyle, marker); err != nil {
			return err
		}
	}

	if opts.Title != "" {
		tts := ts
		tts.XAlign = -0.5
		tts.YAlign = -1
		c.FillText(tts, vg.Point{X: c.X(0.5), Y: c.Max.Y - 0.05*vg.Inch}, opts.Title)
	}

	return cmap.Legend(&cLegend, opts.Label)
}

// drawMaskOutline draws the edges separating grid cells inside the
// 0/1 mask from those outside it.
func drawMaskOutline(m *carto.Canvas, grid *Grid, mask *sparse.DenseArray) error {
	outline := draw.LineStyle{Color: color.NRGBA{0, 0, 0, 255}, Width: vg.Points(1.5)}
	glyph := draw.GlyphStyle{}
	latE := edges(grid.Lat)
	lonE := edges(grid.Lon)
	in := func(j, i int) bool {
		if j < 0 || i < 0 || j >= grid.Ny() || i >= grid.Nx() {
			return false
		}
		return mask.Get(j, i) != 0
	}
	for j := 0; j < grid.Ny(); j++ {
		for i := 0; i < grid.Nx(); i++ {
			if !in(j, i) {
				continue
			}
			if !in(j-1, i) { // southern edge
				seg := geom.LineString{
					{X: lonE[i], Y: latE[j]}, {X: lonE[i+1], Y: latE[j]}}
				if err := m.DrawVector(seg, color.NRGBA{}, outline, glyph); err != nil {
					return err
				}
			}
			if !in(j+1, i) { // northern edge
				seg := geom.LineString{
					{X: lonE[i], Y: latE[j+1]}, {X: lonE[i+1], Y: latE[j+1]}}
				if err := m.DrawVector(seg, color.NRGBA{}, outline, glyph); err != nil {
					return err
				}
			}
			if !in(j, i-1) { // western edge
				seg := geom.LineString{
					{X: lonE[i], Y: latE[j]}, {X: lonE[i], Y: latE[j+1]}}
				if err := m.DrawVector(seg, color.NRGBA{}, outline, glyph); err != nil {
					return err
				}
			}
			if !in(j, i+1) { // eastern edge
				seg := geom.LineString{
					{X: lonE[i+1], Y: latE[j]}, {X: lonE[i+1], Y: latE[j+1]}}
				if err := m.DrawVector(seg, color.NRGBA{}, outline, glyph); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// TimeSeries is one line or point set in a time-series plot. Series
// whose labels contain "moving" (e.g. moving averages) are drawn as
// lines; all others are drawn as points.
type TimeSeries struct {
	Label  string
	Values []float64
}

// TimeSeriesPlotOptions configures a time-series plot.
type TimeSeriesPlotOptions struct {
	Title  string
	YLabel string

	// DOFS, if non-nil, holds the degrees of freedom for signal of
	// each period, in [0,1]. They are drawn in red, rescaled to
	// the emission axis.
	DOFS []float64
}

// PlotTimeSeries renders period time series (e.g. posterior emission
// totals and their moving average) as a PNG image written to w.
func PlotTimeSeries(w io.Writer, times []time.Time, series []TimeSeries, opts TimeSeriesPlotOptions) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = opts.Title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = opts.YLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Legend.Top = true

	for k, s := range series {
		if len(s.Values) != len(times) {
			return fmt.Errorf("minv: time series %s has %d values for %d times",
				s.Label, len(s.Values), len(times))
		}
		xys := make(plotter.XYs, len(times))
		for i, t := range times {
			xys[i].X = float64(t.Unix())
			xys[i].Y = s.Values[i]
		}
		if strings.Contains(strings.ToLower(s.Label), "moving") {
			l, err := plotter.NewLine(xys)
			if err != nil {
				return err
			}
			l.Color = plotutilColor(k)
			p.Add(l)
			p.Legend.Add(s.Label, l)
		} else {
			sc, err := plotter.NewScatter(xys)
			if err != nil {
				return err
			}
			sc.Color = plotutilColor(k)
			sc.Radius = vg.Points(2)
			sc.Shape = draw.CircleGlyph{}
			p.Add(sc)
			p.Legend.Add(s.Label, sc)
		}
	}

	if opts.DOFS != nil {
		if len(opts.DOFS) != len(times) {
			return fmt.Errorf("minv: %d DOFS values for %d times", len(opts.DOFS), len(times))
		}
		// There is no secondary axis, so the [0,1] DOFS range is
		// stretched over the emission axis.
		ymin, ymax := seriesRange(series)
		xys := make(plotter.XYs, len(times))
		for i, t := range times {
			xys[i].X = float64(t.Unix())
			xys[i].Y = ymin + opts.DOFS[i]*(ymax-ymin)
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		sc.Color = color.NRGBA{255, 0, 0, 255}
		sc.Radius = vg.Points(2)
		sc.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add("DOFS (scaled 0-1)", sc)
	}

	img := vgimg.New(15*vg.Centimeter, 6*vg.Centimeter)
	dc := draw.New(img)
	p.Draw(dc)
	_, err = vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

func seriesRange(series []TimeSeries) (ymin, ymax float64) {
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			if v < ymin {
				ymin = v
			}
			if v > ymax {
				ymax = v
			}
		}
	}
	return ymin, ymax
}

func plotutilColor(i int) color.Color {
	colors := []color.Color{
		color.NRGBA{0, 0, 0, 255},
		color.NRGBA{0, 90, 181, 255},
		color.NRGBA{220, 109, 30, 255},
		color.NRGBA{85, 156, 60, 255},
		color.NRGBA{127, 127, 127, 255},
	}
	return colors[i%len(colors)]
}

// ComparisonStats holds regression statistics between two sets of
// emission estimates.
type ComparisonStats struct {
	Slope, Intercept, RSquared float64
	MFB, MFE                   float64 // mean fractional bias and error
}

// PlotComparison renders a scatter plot comparing posterior period
// totals y against prior period totals x, with a 1:1 line, and
// returns the regression statistics. The plot is written to w as a
// PNG image.
func PlotComparison(w io.Writer, x, y []float64, xLabel, yLabel string) (*ComparisonStats, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("minv: comparing %d against %d values", len(x), len(y))
	}
	s := new(ComparisonStats)
	s.Slope, s.Intercept, s.RSquared, _, _, _ = stats.LinearRegression(x, y)
	s.MFB = mfb(x, y)
	s.MFE = mfe(x, y)

	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top, p.Legend.Left = true, true

	xys := make(plotter.XYs, len(x))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range x {
		xys[i].X, xys[i].Y = x[i], y[i]
		lo = math.Min(lo, math.Min(x[i], y[i]))
		hi = math.Max(hi, math.Max(x[i], y[i]))
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.Color = color.NRGBA{0, 0, 0, 255}
	sc.Radius = vg.Points(1.5)
	sc.Shape = draw.CircleGlyph{}
	p.Add(sc)

	oneToOne, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, err
	}
	oneToOne.Color = color.NRGBA{127, 127, 127, 255}
	p.Add(oneToOne)
	p.Legend.Add(fmt.Sprintf("S=%.2f R²=%.2f", s.Slope, s.RSquared), sc)

	img := vgimg.New(8*vg.Centimeter, 8*vg.Centimeter)
	dc := draw.New(img)
	p.Draw(dc)
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return nil, err
	}
	return s, nil
}

// mfb returns the mean fractional bias of b relative to a.
func mfb(a, b []float64) float64 {
	r := 0.
	for i, v1 := range a {
		v2 := b[i]
		r += 2 * (v2 - v1) / (v2 + v1)
	}
	return r / float64(len(a))
}

// mfe returns the mean fractional error of b relative to a.
func mfe(a, b []float64) float64 {
	r := 0.
	for i, v1 := range a {
		v2 := b[i]
		r += 2 * math.Abs(v2-v1) / (v2 + v1)
	}
	return r / float64(len(a))
}
