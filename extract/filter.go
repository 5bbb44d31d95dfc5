// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package extract

import (
	"strconv"
	"strings"
)

// Thresholds are lower bounds on the numeric columns of a row.
// A zero bound places no constraint on its column; any other bound
// must be strictly exceeded.
type Thresholds struct {
	Flat        float64 `json:"flat"`
	FlatPercent float64 `json:"flat%"`
	SumPercent  float64 `json:"sum%"`
	Cum         float64 `json:"cum"`
	CumPercent  float64 `json:"cum%"`
}

func (t Thresholds) bounds() [NumColumns]float64 {
	return [NumColumns]float64{t.Flat, t.FlatPercent, t.SumPercent, t.Cum, t.CumPercent}
}

// Pass reports whether every column of rec exceeds its non-zero bound.
// A column without a number in it is not constrained.
func (t Thresholds) Pass(rec *Record) bool {
	for i, bound := range t.bounds() {
		if bound == 0 {
			continue
		}
		v, ok := leadingNumber(rec.Columns[i])
		if !ok {
			continue
		}
		if v <= bound {
			return false
		}
	}
	return true
}

// leadingNumber parses the first run of digits, with an optional
// fraction, in tok. Units and signs are ignored: "1.5s" and "1.5MB"
// both yield 1.5.
func leadingNumber(tok string) (float64, bool) {
	m := number.FindString(tok)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	return v, err == nil
}

// A Filter decides which rows of a listing are kept.
// The nil Filter keeps every row.
type Filter struct {
	Thresholds Thresholds
	// IgnoreFunctions are canonical names to drop.
	IgnoreFunctions []string
	// IgnorePrefixes drop rows whose symbol starts with any of them.
	IgnorePrefixes []string
	// IncludePrefixes, if set, restrict Select to rows whose symbol
	// contains one of them anywhere.
	IncludePrefixes []string
}

// Keep reports whether rec survives the threshold, ignore-function and
// ignore-prefix tests, in that order.
func (f *Filter) Keep(rec *Record) bool {
	if f == nil {
		return true
	}
	if !f.Thresholds.Pass(rec) {
		return false
	}
	if len(f.IgnoreFunctions) > 0 {
		name := Canonical(rec.Symbol)
		for _, fn := range f.IgnoreFunctions {
			if name == fn {
				return false
			}
		}
	}
	if len(f.IgnorePrefixes) > 0 {
		name := rec.Name()
		for _, p := range f.IgnorePrefixes {
			if strings.HasPrefix(name, p) {
				return false
			}
		}
	}
	return true
}

// Select reports whether rec's function should get its own listing.
// It applies Keep, then the include list. The include test matches
// substrings, so it admits more than the prefix test Keep uses.
func (f *Filter) Select(rec *Record) bool {
	if !f.Keep(rec) {
		return false
	}
	if f == nil || len(f.IncludePrefixes) == 0 {
		return true
	}
	name := rec.Name()
	for _, p := range f.IncludePrefixes {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}
