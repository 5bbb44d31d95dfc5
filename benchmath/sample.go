// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchmath computes statistics over the repeated measurements
// of a benchmark, as produced by go test -count=N.
//
// Callers state a distributional assumption and the assumption picks
// the summary statistic and the test used to compare two sessions.
//
// Results carry warnings as an []error. These do not prevent a result
// from being used but should be shown next to it.
package benchmath

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/mathx"
	"github.com/aclements/go-moremath/stats"
)

// A Sample is the set of measurements of one benchmark in one unit.
type Sample struct {
	// Values are the measured values, in ascending order.
	Values []float64

	// Thresholds are the statistical thresholds used by tests on
	// this sample.
	Thresholds *Thresholds

	Warnings []error
}

// NewSample returns a Sample of values, which it sorts in place.
// A nil t means DefaultThresholds.
func NewSample(values []float64, t *Thresholds) *Sample {
	if t == nil {
		t = &DefaultThresholds
	}
	sort.Float64s(values)
	return &Sample{Values: values, Thresholds: t}
}

func (s *Sample) sample() stats.Sample {
	return stats.Sample{Xs: s.Values, Sorted: true}
}

// Thresholds configure the statistical tests.
type Thresholds struct {
	// CompareAlpha is the alpha level below which Compare rejects
	// the null hypothesis that two samples come from the same
	// distribution.
	CompareAlpha float64
}

// DefaultThresholds are the thresholds benchstat has always used.
var DefaultThresholds = Thresholds{
	CompareAlpha: 0.05,
}

// An Assumption is a distributional assumption about a sample.
type Assumption interface {
	// SummaryLabel names the summary statistic, such as "median".
	SummaryLabel() string

	// Summary returns a summary statistic of s and its confidence
	// interval at the given level in [0,1].
	Summary(s *Sample, confidence float64) Summary

	// Compare tests whether s1 and s2 come from the same
	// distribution.
	Compare(s1, s2 *Sample) Comparison
}

// A Summary summarizes a Sample.
type Summary struct {
	// Center is a measure of the central tendency of the sample.
	Center float64

	// Lo and Hi bound the confidence interval around Center.
	Lo, Hi float64

	// Confidence is the actual level of the interval, which is at
	// least the requested one.
	Confidence float64

	Warnings []error
}

// PctRangeString returns the half-width of the confidence interval
// as a percentage of the center.
func (s Summary) PctRangeString() string {
	if math.IsInf(s.Lo, 0) || math.IsInf(s.Hi, 0) {
		return "∞"
	}
	// An interval that crosses zero has no meaningful percentage.
	csign := mathx.Sign(s.Center)
	if csign != mathx.Sign(s.Lo) || csign != mathx.Sign(s.Hi) {
		return "?"
	}
	if s.Center == 0 {
		return "0%"
	}
	v := math.Max(s.Hi/s.Center-1, 1-s.Lo/s.Center)
	return fmt.Sprintf("%.0f%%", 100*v)
}

// A Comparison is the result of testing whether two samples come from
// the same distribution.
type Comparison struct {
	// P is the p-value of the null hypothesis. Zero means the
	// result is exact.
	P float64

	// N1 and N2 are the sample sizes.
	N1, N2 int

	// Alpha is the threshold below which P rejects the null
	// hypothesis.
	Alpha float64

	Warnings []error
}

// Significant reports whether the samples differ at level Alpha.
func (c Comparison) Significant() bool {
	return c.P <= c.Alpha
}

// String returns "p=0.PPP n=N1+N2", shortened where possible.
func (c Comparison) String() string {
	var s string
	if c.P != 0 {
		s = fmt.Sprintf("p=%0.3f ", c.P)
	}
	if c.N1 == c.N2 {
		return s + fmt.Sprintf("n=%d", c.N1)
	}
	return s + fmt.Sprintf("n=%d+%d", c.N1, c.N2)
}

// FormatDelta formats the change from the old center to the new one,
// or "~" if the difference is not significant.
func (c Comparison) FormatDelta(old, new float64) string {
	if !c.Significant() {
		return "~"
	}
	if old == new {
		return "0.00%"
	}
	if old == 0 {
		return "?"
	}
	return fmt.Sprintf("%+.2f%%", (new/old-1)*100)
}
