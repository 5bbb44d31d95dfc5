// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchstat compares the go test results of two sessions.
//
// Results are grouped into one table per unit. Each row holds the
// sample of one benchmark in both sessions, its summaries and the test
// of whether the two samples differ.
package benchstat

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/benchfmt"
	"golang.org/x/benchprof/benchmath"
)

// DefaultConfidence is the level of the summary confidence intervals.
const DefaultConfidence = 0.95

// Options configure Compare.
type Options struct {
	// Confidence defaults to DefaultConfidence.
	Confidence float64
	// Alpha defaults to benchmath.DefaultThresholds.CompareAlpha.
	Alpha float64
}

// A Cell is the sample of one benchmark in one session.
type Cell struct {
	Sample  *benchmath.Sample
	Summary benchmath.Summary
}

// A Row compares one benchmark across the two sessions. Either cell is
// nil if the benchmark did not report the unit in that session.
type Row struct {
	Benchmark     string
	Base, Current *Cell
	// Comparison is meaningful only when both cells are present.
	Comparison benchmath.Comparison
}

// Delta formats the change of the row, or returns "" if the row lacks
// a side.
func (r *Row) Delta() string {
	if r.Base == nil || r.Current == nil {
		return ""
	}
	return r.Comparison.FormatDelta(r.Base.Summary.Center, r.Current.Summary.Center)
}

// A Geomean summarizes a table column.
type Geomean struct {
	Base, Current       float64
	HasBase, HasCurrent bool
	// Ratio is the geometric mean of the per-row current/base ratios.
	Ratio    float64
	HasRatio bool
	Warnings []error
}

// A Table holds every row of one unit.
type Table struct {
	Unit       string
	Assumption benchmath.Assumption
	Rows       []*Row
	Geomean    Geomean
}

// A Comparison is the result of Compare.
type Comparison struct {
	Base, Current string
	Tables        []*Table
}

// Compare builds the tables comparing base with cur. The labels name
// the two sessions. Units and benchmarks keep their first-seen order,
// base first.
func Compare(baseLabel string, base *benchfmt.Summary, curLabel string, cur *benchfmt.Summary, opts Options) *Comparison {
	if opts.Confidence == 0 {
		opts.Confidence = DefaultConfidence
	}
	thr := benchmath.DefaultThresholds
	if opts.Alpha != 0 {
		thr.CompareAlpha = opts.Alpha
	}

	c := &Comparison{Base: baseLabel, Current: curLabel}
	tables := make(map[string]*Table)
	rows := make(map[[2]string]*Row)
	row := func(unit, bench string) (*Table, *Row) {
		t := tables[unit]
		if t == nil {
			t = &Table{Unit: unit, Assumption: benchmath.AssumptionFor(unit)}
			tables[unit] = t
			c.Tables = append(c.Tables, t)
		}
		r := rows[[2]string{unit, bench}]
		if r == nil {
			r = &Row{Benchmark: bench}
			rows[[2]string{unit, bench}] = r
			t.Rows = append(t.Rows, r)
		}
		return t, r
	}
	add := func(s *benchfmt.Summary, isBase bool) {
		if s == nil {
			return
		}
		for _, b := range s.Benchmarks {
			for _, m := range b.Metrics {
				if len(m.Sample.Xs) == 0 {
					continue
				}
				t, r := row(m.Unit, b.Name)
				values := append([]float64(nil), m.Sample.Xs...)
				cell := &Cell{Sample: benchmath.NewSample(values, &thr)}
				cell.Summary = t.Assumption.Summary(cell.Sample, opts.Confidence)
				if isBase {
					r.Base = cell
				} else {
					r.Current = cell
				}
			}
		}
	}
	add(base, true)
	add(cur, false)

	for _, t := range c.Tables {
		nBase := 0
		for _, r := range t.Rows {
			if r.Base != nil {
				nBase++
			}
			if r.Base != nil && r.Current != nil {
				r.Comparison = t.Assumption.Compare(r.Base.Sample, r.Current.Sample)
			}
		}
		t.Geomean = geomean(t, nBase)
	}
	return c
}

// geomean computes the geometric mean of each column and of the
// per-row ratios. The mean of ratios stays meaningful when the two
// sessions ran different benchmark sets.
func geomean(t *Table, nBase int) Geomean {
	var g Geomean
	var base, cur, ratios []float64
	paired, badRatio := 0, false
	for _, r := range t.Rows {
		if r.Base != nil {
			base = append(base, r.Base.Summary.Center)
		}
		if r.Current == nil {
			continue
		}
		cur = append(cur, r.Current.Summary.Center)
		if r.Base == nil {
			continue
		}
		paired++
		a, b := r.Current.Summary.Center, r.Base.Summary.Center
		switch {
		case a == b:
			ratios = append(ratios, 1)
		case b == 0:
			badRatio = true
		default:
			ratios = append(ratios, a/b)
		}
	}
	if paired != nBase || paired != len(cur) {
		g.Warnings = append(g.Warnings, fmt.Errorf("benchmark set differs from baseline; geomeans may not be comparable"))
	}
	if gm := stats.GeoMean(base); !math.IsNaN(gm) {
		g.Base, g.HasBase = gm, true
	}
	if gm := stats.GeoMean(cur); !math.IsNaN(gm) {
		g.Current, g.HasCurrent = gm, true
	}
	if (len(base) > 0 && !g.HasBase) || (len(cur) > 0 && !g.HasCurrent) {
		g.Warnings = append(g.Warnings, fmt.Errorf("summaries must be >0 to compute geomean"))
	}
	if !badRatio && len(ratios) > 0 {
		if gm := stats.GeoMean(ratios); !math.IsNaN(gm) {
			g.Ratio, g.HasRatio = gm, true
		} else {
			g.Warnings = append(g.Warnings, fmt.Errorf("ratios must be >0 to compute geomean"))
		}
	}
	return g
}

// A Regression is a significant change of a benchmark in the worse
// direction of its unit.
type Regression struct {
	Benchmark string
	Unit      string
	Percent   float64
}

// Regressions returns the significant regressions, worst first. Units
// with no known better direction are ignored.
func (c *Comparison) Regressions() []Regression {
	var regs []Regression
	for _, t := range c.Tables {
		better := benchmath.Better(t.Unit)
		if better == 0 {
			continue
		}
		for _, r := range t.Rows {
			if r.Base == nil || r.Current == nil || !r.Comparison.Significant() {
				continue
			}
			old, new := r.Base.Summary.Center, r.Current.Summary.Center
			if old == 0 {
				continue
			}
			pct := (new/old - 1) * 100 * float64(-better)
			if pct > 0 {
				regs = append(regs, Regression{Benchmark: r.Benchmark, Unit: t.Unit, Percent: pct})
			}
		}
	}
	sort.SliceStable(regs, func(i, j int) bool { return regs[i].Percent > regs[j].Percent })
	return regs
}

// Gate returns an error wrapping benchprof.ErrRegression if any
// regression reaches threshold percent. A threshold of zero or less
// disables the gate.
func (c *Comparison) Gate(threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	regs := c.Regressions()
	if len(regs) > 0 && regs[0].Percent >= threshold {
		w := regs[0]
		return fmt.Errorf("%w: %s %s is %.2f%% worse (threshold %.2f%%)", benchprof.ErrRegression, w.Benchmark, w.Unit, w.Percent, threshold)
	}
	return nil
}
