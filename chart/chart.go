/*
 * This file is part of Go Schedbench.
 *
 * Go Schedbench is free software: you can redistribute it and/or modify it under
 * the terms of the GNU General Public License as published by the Free Software Foundation,
 * either version 2 of the License, or (at your option) any later version.
 * Go Schedbench is distributed in the hope that it will be useful, but WITHOUT ANY
 * WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
 * PARTICULAR PURPOSE. See the GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with Go Schedbench. If not, see <https://www.gnu.org/licenses/>.
 */

package chart

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var ErrNothingToPlot = errors.New("nothing to plot")

// Series is one line of a chart. Err, when present, holds the half-height of
// the error bar at each point. Points whose Y is NaN are left out.
type Series struct {
	Label string
	X     []float64
	Y     []float64
	Err   []float64
}

type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

func (s Series) points() (plotter.XYs, plotter.YErrors) {
	xys := make(plotter.XYs, 0, len(s.Y))
	yerrs := make(plotter.YErrors, 0, len(s.Y))
	for i := range s.Y {
		if i >= len(s.X) || math.IsNaN(s.Y[i]) || math.IsNaN(s.X[i]) {
			continue
		}
		xys = append(xys, plotter.XY{X: s.X[i], Y: s.Y[i]})
		spread := 0.0
		if i < len(s.Err) && !math.IsNaN(s.Err[i]) {
			spread = s.Err[i]
		}
		yerrs = append(yerrs, struct{ Low, High float64 }{spread, spread})
	}
	return xys, yerrs
}

// Chart is a line chart with optional error bars.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Series []Series
	Width  vg.Length
	Height vg.Length
}

func (c *Chart) size() (vg.Length, vg.Length) {
	width, height := c.Width, c.Height
	if width == 0 {
		width = 10 * vg.Inch
	}
	if height == 0 {
		height = 6 * vg.Inch
	}
	return width, height
}

// Save renders the chart to path. The image format follows the extension of
// path. Series without any plottable point are skipped and a chart without
// any plottable series fails with ErrNothingToPlot.
func (c *Chart) Save(path string) error {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Add(plotter.NewGrid())

	plotted := 0
	for i, series := range c.Series {
		xys, yerrs := series.points()
		if len(xys) == 0 {
			continue
		}
		line, scatter, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("could not plot %q: %w", series.Label, err)
		}
		line.Color = plotutil.Color(i)
		scatter.Color = plotutil.Color(i)
		scatter.Shape = plotutil.Shape(i)
		p.Add(line, scatter)

		if series.Err != nil {
			bars, err := plotter.NewYErrorBars(errPoints{xys, yerrs})
			if err != nil {
				return fmt.Errorf("could not plot error bars of %q: %w", series.Label, err)
			}
			bars.Color = plotutil.Color(i)
			bars.CapWidth = vg.Points(5)
			p.Add(bars)
		}
		if series.Label != "" {
			p.Legend.Add(series.Label, line, scatter)
		}
		plotted++
	}
	if plotted == 0 {
		return fmt.Errorf("%s: %w", path, ErrNothingToPlot)
	}

	width, height := c.size()
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("could not save chart %s: %w", path, err)
	}
	return nil
}

// Group is one category of a box-and-bar chart.
type Group struct {
	Label  string
	Values []float64
}

// BoxAndBar renders two panels side by side into one PNG: the distribution
// of each group's values as a box plot and each group's mean as a bar. Every
// group needs at least one value.
func BoxAndBar(path string, title string, groups []Group) error {
	if len(groups) == 0 {
		return fmt.Errorf("%s: %w", path, ErrNothingToPlot)
	}
	names := make([]string, len(groups))
	means := make(plotter.Values, len(groups))
	for i, group := range groups {
		if len(group.Values) == 0 {
			return fmt.Errorf("%s has no values: %w", group.Label, ErrNothingToPlot)
		}
		names[i] = group.Label
		total := 0.0
		for _, value := range group.Values {
			total += value
		}
		means[i] = total / float64(len(group.Values))
	}

	distribution := plot.New()
	distribution.Title.Text = panelTitle(title, "Distribution of Completion Times")
	distribution.Y.Label.Text = "Completion Time (seconds)"
	for i, group := range groups {
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), plotter.Values(group.Values))
		if err != nil {
			return fmt.Errorf("could not plot the distribution of %s: %w", group.Label, err)
		}
		box.FillColor = plotutil.Color(i)
		distribution.Add(box)
	}
	distribution.NominalX(names...)

	averages := plot.New()
	averages.Title.Text = panelTitle(title, "Average Completion Time Comparison")
	averages.Y.Label.Text = "Average Completion Time (seconds)"
	bars, err := plotter.NewBarChart(means, vg.Points(40))
	if err != nil {
		return fmt.Errorf("could not plot averages: %w", err)
	}
	bars.Color = plotutil.Color(0)
	averages.Add(bars)
	averages.NominalX(names...)

	img := vgimg.New(15*vg.Inch, 6*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      2,
		PadX:      vg.Millimeter * 5,
		PadY:      vg.Millimeter * 5,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	plots := [][]*plot.Plot{{distribution, averages}}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots[0] {
		plots[0][j].Draw(canvases[0][j])
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create chart %s: %w", path, err)
	}
	defer file.Close()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(file); err != nil {
		return fmt.Errorf("could not write chart %s: %w", path, err)
	}
	return nil
}

func panelTitle(title string, panel string) string {
	if title == "" {
		return panel
	}
	return title + ": " + panel
}
