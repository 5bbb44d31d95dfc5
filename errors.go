// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchprof

import "errors"

// Error classes. Stages wrap one of these so callers can classify a
// failure with errors.Is regardless of the detail attached to it.
var (
	ErrSetup           = errors.New("setup failed")
	ErrConfig          = errors.New("invalid configuration")
	ErrModuleNotFound  = errors.New("go: cannot find main module")
	ErrBenchmarkFailed = errors.New("benchmark run failed")
	ErrProfileMissing  = errors.New("profile dump missing")
	ErrProfiler        = errors.New("profiler failed")
	ErrInvalidHeader   = errors.New("listing has no column header")
	ErrEmptyProfile    = errors.New("profile has no content after filtering")
	ErrAnalysis        = errors.New("analysis failed")
	ErrRegression      = errors.New("performance regression detected")
)

// Exit statuses returned by ExitCode.
const (
	ExitOK = iota
	ExitFailure
	ExitUsage
	ExitModuleNotFound
	ExitBenchmarkFailed
	ExitProfileMissing
	ExitInvalidHeader
	ExitAnalysis
	ExitRegression
	ExitSetup
)

var exitCodes = []struct {
	err  error
	code int
}{
	// Order matters: a module error is also a benchmark failure.
	{ErrModuleNotFound, ExitModuleNotFound},
	{ErrSetup, ExitSetup},
	{ErrConfig, ExitUsage},
	{ErrRegression, ExitRegression},
	{ErrBenchmarkFailed, ExitBenchmarkFailed},
	{ErrProfileMissing, ExitProfileMissing},
	{ErrInvalidHeader, ExitInvalidHeader},
	{ErrEmptyProfile, ExitAnalysis},
	{ErrAnalysis, ExitAnalysis},
}

// ExitCode maps err to a process exit status.
// A nil error maps to ExitOK and an unclassified error to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, c := range exitCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ExitFailure
}
