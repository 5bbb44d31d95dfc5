// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
)

// AssumeNothing makes no distributional assumption. The summary is the
// median with an order statistic confidence interval and comparisons
// use the Mann-Whitney U-test.
var AssumeNothing = assumeNothing{}

type assumeNothing struct{}

var _ Assumption = assumeNothing{}

// Sample size searches give up past these sizes.
const (
	maxMedianSamples = 50
	maxUTestSamples  = 10
)

func (assumeNothing) SummaryLabel() string {
	return "median"
}

func (assumeNothing) Summary(s *Sample, confidence float64) Summary {
	n := len(s.Values)
	sum := Summary{Center: s.sample().Quantile(0.5)}

	// [x(k), x(n-1-k)] covers the median with probability
	// 1 - 2*P(X <= k) for X ~ B(n, 1/2). Pick the narrowest
	// interval that still meets the requested level.
	dist := stats.BinomialDist{N: n, P: 0.5}
	k, tail := -1, 0.0
	for i := 0; i <= (n-1)/2; i++ {
		tail += dist.PMF(float64(i))
		level := 1 - 2*tail
		if level < confidence {
			break
		}
		k, sum.Confidence = i, level
	}
	if k < 0 {
		op, need := medianSamples(confidence)
		sum.Lo, sum.Hi, sum.Confidence = math.Inf(-1), math.Inf(1), 1
		sum.Warnings = []error{fmt.Errorf("need %s %d samples for confidence interval at level %v", op, need, confidence)}
		return sum
	}
	sum.Lo, sum.Hi = s.Values[k], s.Values[n-1-k]
	return sum
}

// medianSamples returns the smallest sample size with a median
// confidence interval at the given level.
func medianSamples(confidence float64) (op string, n int) {
	for n := 2; n <= maxMedianSamples; n++ {
		if 1-2*math.Pow(0.5, float64(n)) >= confidence {
			return ">=", n
		}
	}
	return ">", maxMedianSamples
}

func (assumeNothing) Compare(s1, s2 *Sample) Comparison {
	c := Comparison{P: 1, N1: len(s1.Values), N2: len(s2.Values), Alpha: s1.Thresholds.CompareAlpha}
	res, err := stats.MannWhitneyUTest(s1.Values, s2.Values, stats.LocationDiffers)
	if err != nil {
		// Most likely every value is equal, which the U-test
		// cannot rank.
		c.Warnings = []error{err}
		return c
	}
	c.P = res.P
	if op, need := uTestSamples(c.Alpha); min(c.N1, c.N2) < need || op == ">" {
		c.Warnings = append(c.Warnings, fmt.Errorf("need %s %d samples to detect a difference at alpha level %v", op, need, c.Alpha))
	}
	return c
}

// uTestSamples returns the smallest equal sample size for which the
// U-test can reach alpha.
func uTestSamples(alpha float64) (op string, n int) {
	var lo, hi []float64
	for n := 1; n <= maxUTestSamples; n++ {
		// The p-value is smallest when the samples are fully
		// separated.
		lo, hi = append(lo, -1), append(hi, 1)
		res, err := stats.MannWhitneyUTest(lo, hi, stats.LocationDiffers)
		if err == nil && res.P <= alpha {
			return ">=", n
		}
	}
	return ">", maxUTestSamples
}
