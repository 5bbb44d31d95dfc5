// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

import "fmt"

// AssumeExact treats a value as exactly measurable, so repeating the
// measurement adds no confidence. A sample whose values differ gets a
// warning.
var AssumeExact = assumeExact{}

type assumeExact struct{}

var _ Assumption = assumeExact{}

func (assumeExact) SummaryLabel() string {
	return "exact"
}

func (assumeExact) Summary(s *Sample, confidence float64) Summary {
	// The mode is a sensible center even when values disagree.
	val, count := s.Values[0], 1
	modeVal, modeCount := val, count
	for _, v := range s.Values[1:] {
		if v == val {
			count++
			if count > modeCount {
				modeVal, modeCount = val, count
			}
		} else {
			val, count = v, 1
		}
	}
	lo, hi := s.Values[0], s.Values[len(s.Values)-1]
	sum := Summary{Center: modeVal, Lo: lo, Hi: hi, Confidence: 1}
	if modeCount != len(s.Values) {
		sum.Warnings = []error{fmt.Errorf("exact distribution expected, but values range from %v to %v", lo, hi)}
	}
	return sum
}

func (assumeExact) Compare(s1, s2 *Sample) Comparison {
	return Comparison{P: 0, N1: len(s1.Values), N2: len(s2.Values), Alpha: s1.Thresholds.CompareAlpha}
}
