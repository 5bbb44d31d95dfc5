// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tracker compares two profiles of the same benchmark function
// by function and flags regressions.
//
// Functions are matched by their fully qualified name. A function
// present in only one of the profiles is listed as added or removed
// rather than compared.
package tracker

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/storage"
)

// A ChangeType classifies the direction of a change in flat cost.
type ChangeType string

const (
	Improvement ChangeType = "IMPROVEMENT"
	Regression  ChangeType = "REGRESSION"
	Stable      ChangeType = "STABLE"
)

// A Severity grades the magnitude of a change.
type Severity string

const (
	SeverityNone     Severity = "NONE"
	SeverityLow      Severity = "LOW"
	SeverityModerate Severity = "MODERATE"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Severity bounds, in percent of the baseline flat cost.
const (
	lowBound      = 5
	moderateBound = 15
	highBound     = 30
)

// SeverityOf grades a percent change by its magnitude.
func SeverityOf(percent float64) Severity {
	switch a := math.Abs(percent); {
	case a == 0:
		return SeverityNone
	case a < lowBound:
		return SeverityLow
	case a < moderateBound:
		return SeverityModerate
	case a < highBound:
		return SeverityHigh
	}
	return SeverityCritical
}

// A Delta is a before and after pair of one measurement.
type Delta struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Delta  float64 `json:"delta"`
}

func newDelta(before, after float64) Delta {
	return Delta{Before: before, After: after, Delta: after - before}
}

// A Change describes how one function's cost moved.
type Change struct {
	Function    string     `json:"function"`
	Type        ChangeType `json:"change_type"`
	Severity    Severity   `json:"severity"`
	FlatPercent float64    `json:"flat_change_percent"`
	CumPercent  float64    `json:"cum_change_percent"`
	Flat        Delta      `json:"flat"`
	Cum         Delta      `json:"cum"`
}

// percent returns the relative change from before to after. A zero
// baseline has no defined ratio and reports no change.
func percent(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100
}

// Detect compares the costs of one function. Flat changes smaller in
// magnitude than minChange percent are reported as stable.
func Detect(name string, base, cur Cost, minChange float64) *Change {
	c := &Change{
		Function:    name,
		FlatPercent: percent(base.Flat, cur.Flat),
		CumPercent:  percent(base.Cum, cur.Cum),
		Flat:        newDelta(base.Flat, cur.Flat),
		Cum:         newDelta(base.Cum, cur.Cum),
	}
	switch {
	case c.FlatPercent == 0 || math.Abs(c.FlatPercent) < minChange:
		c.Type = Stable
	case c.FlatPercent > 0:
		c.Type = Regression
	default:
		c.Type = Improvement
	}
	c.Severity = SeverityOf(c.FlatPercent)
	return c
}

// Recommendation returns a short suggestion for c.
func (c *Change) Recommendation() string {
	switch c.Type {
	case Improvement:
		switch a := math.Abs(c.FlatPercent); {
		case a > 25:
			return "Significant performance gain; consider documenting the optimization."
		case a > 10:
			return "Notable improvement; monitor to ensure consistency."
		}
		return "Minor improvement; continue monitoring."
	case Regression:
		switch p := c.FlatPercent; {
		case p > 50:
			return "Critical regression; investigate immediately."
		case p > 25:
			return "Significant regression; consider rollback or optimization."
		case p > 10:
			return "Moderate regression; review recent changes."
		}
		return "Minor regression; monitor for trends."
	}
	return "No action required."
}

// A Report is the result of comparing two profiles.
type Report struct {
	Baseline string `json:"baseline"`
	Current  string `json:"current"`
	Type     string `json:"sample_type"`
	Unit     string `json:"unit"`

	// Changes is sorted by decreasing flat change, then by name.
	Changes []*Change `json:"changes"`
	Added   []string  `json:"added,omitempty"`
	Removed []string  `json:"removed,omitempty"`
}

// Compare matches the functions of base and cur.
func Compare(base, cur *Profile, minChange float64) *Report {
	r := &Report{Type: cur.Type, Unit: cur.Unit}
	for name, c := range cur.Functions {
		b, ok := base.Functions[name]
		if !ok {
			r.Added = append(r.Added, name)
			continue
		}
		r.Changes = append(r.Changes, Detect(name, b, c, minChange))
	}
	for name := range base.Functions {
		if _, ok := cur.Functions[name]; !ok {
			r.Removed = append(r.Removed, name)
		}
	}
	sort.Slice(r.Changes, func(i, j int) bool {
		a, b := r.Changes[i], r.Changes[j]
		if a.FlatPercent != b.FlatPercent {
			return a.FlatPercent > b.FlatPercent
		}
		return a.Function < b.Function
	})
	sort.Strings(r.Added)
	sort.Strings(r.Removed)
	return r
}

// CompareFiles loads two dumps and compares them.
func CompareFiles(baseline, current string, minChange float64) (*Report, error) {
	base, err := Load(baseline)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	cur, err := Load(current)
	if err != nil {
		return nil, fmt.Errorf("current: %w", err)
	}
	if base.Type != cur.Type {
		return nil, fmt.Errorf("%w: sample types differ: %s vs %s", benchprof.ErrConfig, base.Type, cur.Type)
	}
	r := Compare(base, cur, minChange)
	r.Baseline, r.Current = baseline, current
	return r, nil
}

// A Tracker compares dumps stored under two tags.
type Tracker struct {
	Store     *storage.Store
	MinChange float64
}

// CompareTags compares the kind dumps of bench in baseTag and curTag.
func (t *Tracker) CompareTags(baseTag, curTag, bench string, kind benchprof.Kind) (*Report, error) {
	if !kind.Tabular() {
		return nil, fmt.Errorf("%w: cannot compare %s profiles", benchprof.ErrConfig, kind)
	}
	r, err := CompareFiles(t.Store.DumpFile(baseTag, bench, kind), t.Store.DumpFile(curTag, bench, kind), t.MinChange)
	if err != nil {
		return nil, err
	}
	r.Baseline, r.Current = baseTag, curTag
	return r, nil
}

// Counts tallies the changes of a report by type.
type Counts struct {
	Regressions, Improvements, Stable int
}

// Counts returns how many changes of each type r holds.
func (r *Report) Counts() Counts {
	var n Counts
	for _, c := range r.Changes {
		switch c.Type {
		case Regression:
			n.Regressions++
		case Improvement:
			n.Improvements++
		default:
			n.Stable++
		}
	}
	return n
}

// Worst returns the largest regression, or nil.
func (r *Report) Worst() *Change {
	if len(r.Changes) > 0 && r.Changes[0].Type == Regression {
		return r.Changes[0]
	}
	return nil
}

// Best returns the largest improvement, or nil.
func (r *Report) Best() *Change {
	if n := len(r.Changes); n > 0 && r.Changes[n-1].Type == Improvement {
		return r.Changes[n-1]
	}
	return nil
}

// GeoMean returns the geometric mean of the current to baseline flat
// ratios, over the functions with a positive flat cost in both. It is
// NaN when there are none.
func (r *Report) GeoMean() float64 {
	var ratios []float64
	for _, c := range r.Changes {
		if c.Flat.Before > 0 && c.Flat.After > 0 {
			ratios = append(ratios, c.Flat.After/c.Flat.Before)
		}
	}
	if len(ratios) == 0 {
		return math.NaN()
	}
	return stats.GeoMean(ratios)
}

// Gate fails if the worst regression reaches threshold percent. A
// threshold of zero or less disables the gate.
func (r *Report) Gate(threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if w := r.Worst(); w != nil && w.FlatPercent >= threshold {
		return fmt.Errorf("%w: %s is %.2f%% slower (threshold %.2f%%)", benchprof.ErrRegression, w.Function, w.FlatPercent, threshold)
	}
	return nil
}
