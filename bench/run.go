// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/internal/gotool"
	"golang.org/x/benchprof/storage"
)

// moduleNotFound is the go command diagnostic for a directory outside
// any module.
var moduleNotFound = []byte(benchprof.ErrModuleNotFound.Error())

// noTestFiles is what go test prints, with a zero exit status, for a
// package without tests.
var noTestFiles = []byte("[no test files]")

// errNoTestFiles reports a run that never reached the benchmark.
var errNoTestFiles = errors.New("no test files in package directory")

// A Benchmark is one benchmark to run and the profiles to collect.
type Benchmark struct {
	Name       string
	Kinds      []benchprof.Kind
	Iterations int
	// Dir is the package directory declaring the benchmark.
	// Empty means Stage.Dir.
	Dir string
}

// A RunError reports a go test invocation that exited unsuccessfully.
// Output holds everything the command printed.
type RunError struct {
	Benchmark string
	Output    []byte
	Err       error
}

func (e *RunError) Error() string {
	if e.ModuleNotFound() {
		return fmt.Sprintf("running %s: %v", e.Benchmark, benchprof.ErrModuleNotFound)
	}
	return fmt.Sprintf("running %s: %v", e.Benchmark, e.Err)
}

// ModuleNotFound reports whether go test failed because the working
// directory is not inside a module.
func (e *RunError) ModuleNotFound() bool {
	return bytes.Contains(e.Output, moduleNotFound)
}

func (e *RunError) Unwrap() []error {
	if e.ModuleNotFound() {
		return []error{benchprof.ErrModuleNotFound, benchprof.ErrBenchmarkFailed, e.Err}
	}
	return []error{benchprof.ErrBenchmarkFailed, e.Err}
}

// A Result lists what a run left in the store.
type Result struct {
	Output       string                    // captured go test output
	Dumps        map[benchprof.Kind]string // kind -> dump path
	Skipped      []benchprof.Kind          // requested kinds with no dump
	TestBinaries []string
}

// A Stage runs benchmarks in Dir and files their artifacts in Store.
type Stage struct {
	Store  *storage.Store
	Runner gotool.Runner
	Log    logrus.FieldLogger

	// Dir is the directory go test runs in unless the benchmark names
	// its own. Dumps and test binaries appear there before they are
	// moved.
	Dir string

	WaitTimeout  time.Duration // zero means DefaultWaitTimeout
	WaitInterval time.Duration // zero means DefaultWaitInterval
}

func (s *Stage) bounds() (time.Duration, time.Duration) {
	timeout, interval := s.WaitTimeout, s.WaitInterval
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	return timeout, interval
}

// Run executes b inside tag, whose layout must already exist.
//
// The combined go test output is written to the run output file even
// when the command fails. A failing command yields a *RunError and no
// dumps are collected. A dump that does not appear in time is logged
// and reported in Result.Skipped.
func (s *Stage) Run(ctx context.Context, tag string, b Benchmark) (*Result, error) {
	log := s.Log.WithFields(logrus.Fields{"tag": tag, "benchmark": b.Name})
	cmd := BuildRunCommand(b.Name, b.Kinds, b.Iterations)
	cmd.Dir = b.Dir
	if cmd.Dir == "" {
		cmd.Dir = s.Dir
	}
	log.WithField("command", cmd.String()).Debug("running benchmark")

	out, runErr := s.Runner.CombinedOutput(ctx, cmd.Command)
	res := &Result{
		Output: s.Store.RunOutputFile(tag, b.Name),
		Dumps:  make(map[benchprof.Kind]string),
	}
	if err := storage.WriteFile(res.Output, out); err != nil {
		return nil, fmt.Errorf("saving output of %s: %w", b.Name, err)
	}
	if runErr != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, &RunError{Benchmark: b.Name, Output: out, Err: runErr}
	}
	if bytes.Contains(out, noTestFiles) {
		return res, &RunError{Benchmark: b.Name, Output: out, Err: fmt.Errorf("%w: %s", errNoTestFiles, cmd.Dir)}
	}

	timeout, interval := s.bounds()
	for _, o := range cmd.Outputs {
		src := filepath.Join(cmd.Dir, o.File)
		dst := s.Store.DumpFile(tag, b.Name, o.Kind)
		err := moveWhenReady(ctx, src, dst, timeout, interval)
		var te *errWaitTimeout
		switch {
		case errors.As(err, &te):
			log.WithField("kind", o.Kind).Warnf("skipping profile: %v", err)
			res.Skipped = append(res.Skipped, o.Kind)
		case err != nil:
			return res, fmt.Errorf("collecting %s profile of %s: %w", o.Kind, b.Name, err)
		default:
			log.WithFields(logrus.Fields{"kind": o.Kind, "path": dst}).Debug("saved profile")
			res.Dumps[o.Kind] = dst
		}
	}

	bins, err := s.moveTestBinaries(ctx, cmd.Dir, tag, b.Name)
	res.TestBinaries = bins
	if err != nil {
		return res, err
	}
	return res, nil
}

// moveTestBinaries relocates the *.test binaries go test leaves behind
// when profiling is enabled.
func (s *Stage) moveTestBinaries(ctx context.Context, dir, tag, bench string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.test"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	timeout, interval := s.bounds()
	var moved []string
	for _, src := range matches {
		dst := s.Store.TestBinaryFile(tag, bench, filepath.Base(src))
		err := moveWhenReady(ctx, src, dst, timeout, interval)
		var te *errWaitTimeout
		if errors.As(err, &te) {
			s.Log.WithField("path", src).Warnf("skipping test binary: %v", err)
			continue
		} else if err != nil {
			return moved, fmt.Errorf("moving test binary %s: %w", src, err)
		}
		moved = append(moved, dst)
	}
	return moved, nil
}
