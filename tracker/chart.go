// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracker

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"golang.org/x/benchprof/storage"
)

// DefaultChartBars is the number of functions Chart draws when asked
// for zero or fewer.
const DefaultChartBars = 20

const chartDPI = 150

var errNothingToChart = errors.New("no changed functions to chart")

func red(alpha uint8) color.Color {
	return color.NRGBA{0xFF, 0, 0, alpha}
}

func green(alpha uint8) color.Color {
	return color.NRGBA{0, 0xA0, 0, alpha}
}

// top returns up to n non-stable changes with the largest flat change
// magnitude, largest last so it is drawn at the top.
func (r *Report) top(n int) []*Change {
	var cs []*Change
	for _, c := range r.Changes {
		if c.Type != Stable {
			cs = append(cs, c)
		}
	}
	sort.SliceStable(cs, func(i, j int) bool {
		return math.Abs(cs[i].FlatPercent) > math.Abs(cs[j].FlatPercent)
	})
	if len(cs) > n {
		cs = cs[:n]
	}
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
	return cs
}

// Chart draws a horizontal bar chart of the n largest flat changes and
// writes it to path as a PNG. Regressions are red and improvements
// green.
func (r *Report) Chart(path string, n int) error {
	if n <= 0 {
		n = DefaultChartBars
	}
	cs := r.top(n)
	if len(cs) == 0 {
		return errNothingToChart
	}

	up := make(plotter.Values, len(cs))
	down := make(plotter.Values, len(cs))
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Function
		if c.FlatPercent > 0 {
			up[i] = c.FlatPercent
		} else {
			down[i] = c.FlatPercent
		}
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s vs %s", r.Current, r.Baseline)
	pl.X.Label.Text = "flat change (%)"
	grid := plotter.NewGrid()
	grid.Horizontal.Color = nil
	pl.Add(grid)

	w := vg.Points(12)
	for _, b := range []struct {
		vs  plotter.Values
		clr color.Color
	}{{up, red(0xC0)}, {down, green(0xC0)}} {
		bars, err := plotter.NewBarChart(b.vs, w)
		if err != nil {
			return err
		}
		bars.Horizontal = true
		bars.Color = b.clr
		bars.LineStyle.Width = 0
		pl.Add(bars)
	}
	pl.NominalY(names...)
	if pl.X.Min > 0 {
		pl.X.Min = 0
	}
	if pl.X.Max < 0 {
		pl.X.Max = 0
	}

	width := 20 * vg.Centimeter
	height := vg.Length(2+len(cs)) * 0.8 * vg.Centimeter
	if height < 6*vg.Centimeter {
		height = 6 * vg.Centimeter
	}
	can := vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(width, height),
		vgimg.UseDPI(chartDPI), vgimg.UseBackgroundColor(color.White))}
	pl.Draw(draw.New(can))

	if err := os.MkdirAll(filepath.Dir(path), storage.PermDir); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := can.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
