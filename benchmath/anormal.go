// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

import "github.com/aclements/go-moremath/stats"

// AssumeNormal treats a sample as normally distributed. The summary is
// the mean and comparisons use Welch's t-test.
var AssumeNormal = assumeNormal{}

type assumeNormal struct{}

var _ Assumption = assumeNormal{}

func (assumeNormal) SummaryLabel() string {
	return "mean"
}

func (assumeNormal) Summary(s *Sample, confidence float64) Summary {
	mean, lo, hi := s.sample().MeanCI(confidence)
	return Summary{Center: mean, Lo: lo, Hi: hi, Confidence: confidence}
}

func (assumeNormal) Compare(s1, s2 *Sample) Comparison {
	c := Comparison{P: 1, N1: len(s1.Values), N2: len(s2.Values), Alpha: s1.Thresholds.CompareAlpha}
	t, err := stats.TwoSampleWelchTTest(s1.sample(), s2.sample(), stats.LocationDiffers)
	if err != nil {
		// Report no significant difference, with the reason.
		c.Warnings = []error{err}
		return c
	}
	c.P = t.P
	return c
}
