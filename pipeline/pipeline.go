// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline runs the profiling stages for a set of benchmarks.
//
// Benchmarks are processed one after another. For each of them the
// pipeline runs go test, summarizes its output, converts the dumps and
// extracts per-function listings. Analysis, if requested, follows once
// every benchmark has been processed.
//
// Setup failures abort before any benchmark runs. A failing stage skips
// the rest of its benchmark (or kind) and the pipeline moves on; every
// such failure is returned together at the end.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/analysis"
	"golang.org/x/benchprof/bench"
	"golang.org/x/benchprof/benchfmt"
	"golang.org/x/benchprof/config"
	"golang.org/x/benchprof/convert"
	"golang.org/x/benchprof/extract"
	"golang.org/x/benchprof/internal/gotool"
	"golang.org/x/benchprof/storage"
)

// Options describe one profiling session.
type Options struct {
	Tag        string
	Benchmarks []string
	Kinds      []benchprof.Kind
	Iterations int
	// Dirs maps a benchmark to the package directory declaring it.
	// Benchmarks without an entry run in Pipeline.Dir.
	Dirs map[string]string
	// Analyze sends the listings to Pipeline.Analyzer after the run.
	Analyze bool
}

func (o *Options) validate() error {
	if err := storage.ValidTag(o.Tag); err != nil {
		return err
	}
	if len(o.Benchmarks) == 0 {
		return fmt.Errorf("%w: no benchmarks given", benchprof.ErrConfig)
	}
	if o.Iterations < 1 {
		return fmt.Errorf("%w: iteration count must be positive, got %d", benchprof.ErrConfig, o.Iterations)
	}
	for _, k := range o.Kinds {
		if !k.Known() {
			return fmt.Errorf("%w: unknown profile kind %q", benchprof.ErrConfig, k)
		}
	}
	return nil
}

// A Pipeline holds the collaborators shared by every session.
type Pipeline struct {
	Store  *storage.Store
	Runner gotool.Runner
	Config *config.Config
	Log    logrus.FieldLogger

	// Dir is the directory go test runs in by default.
	Dir string
	// Analyzer is required when Options.Analyze is set.
	Analyzer analysis.Analyzer

	// Dump wait bounds; zero values use the bench defaults.
	Stage bench.Stage
}

// A Report describes what happened to each benchmark.
type Report struct {
	Benchmarks []*BenchmarkReport
	Analysis   *analysis.Summary
}

// A BenchmarkReport describes one benchmark of a session.
type BenchmarkReport struct {
	Name      string
	Run       *bench.Result
	Converted []benchprof.Kind
	Functions map[benchprof.Kind][]string
	Err       error
}

// Run executes a session. The returned report is non-nil whenever the
// tag layout was created, even if err is not nil.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	cfg := p.Config
	if cfg == nil {
		cfg = new(config.Config)
	}
	if opts.Analyze {
		if p.Analyzer == nil {
			return nil, fmt.Errorf("%w: analysis requested without a model client", benchprof.ErrConfig)
		}
		if err := cfg.ValidateAnalysis(); err != nil {
			return nil, err
		}
	}
	if err := p.Store.CreateTagLayout(opts.Tag, opts.Benchmarks, opts.Kinds); err != nil {
		return nil, err
	}
	p.Log.WithFields(logrus.Fields{"tag": opts.Tag, "benchmarks": opts.Benchmarks, "kinds": opts.Kinds}).
		Info("starting profiling session")

	stage := p.Stage
	stage.Store, stage.Runner, stage.Log, stage.Dir = p.Store, p.Runner, p.Log, p.Dir
	conv := &convert.Converter{Store: p.Store, Runner: p.Runner, Log: p.Log}
	ext := &extract.Extractor{Store: p.Store, Runner: p.Runner, Log: p.Log}

	rep := new(Report)
	var errs *multierror.Error
	var analyzable []string
	for _, name := range opts.Benchmarks {
		br := &BenchmarkReport{Name: name}
		rep.Benchmarks = append(rep.Benchmarks, br)
		log := p.Log.WithFields(logrus.Fields{"tag": opts.Tag, "benchmark": name})

		res, err := stage.Run(ctx, opts.Tag, bench.Benchmark{
			Name:       name,
			Kinds:      opts.Kinds,
			Iterations: opts.Iterations,
			Dir:        opts.Dirs[name],
		})
		br.Run = res
		if err != nil {
			br.Err = err
			errs = multierror.Append(errs, err)
			if ctx.Err() != nil || errors.Is(err, benchprof.ErrModuleNotFound) {
				// Nothing after this can succeed.
				return rep, errs.ErrorOrNil()
			}
			log.WithError(err).Error("benchmark failed; skipping")
			continue
		}

		if err := benchfmt.SummarizeFile(res.Output, p.Store.SummaryFile(opts.Tag, name)); err != nil {
			log.WithError(err).Warn("cannot summarize benchmark output")
		}

		var kinds []benchprof.Kind
		for _, k := range opts.Kinds {
			if _, ok := res.Dumps[k]; ok {
				kinds = append(kinds, k)
			}
		}
		br.Converted, err = conv.ConvertAll(ctx, opts.Tag, name, kinds)
		if err != nil {
			br.Err = err
			errs = multierror.Append(errs, err)
		}

		ex, err := ext.Collect(ctx, opts.Tag, name, br.Converted, cfg.FilterFor(name))
		if ex != nil {
			br.Functions = ex.Functions
		}
		if err != nil {
			br.Err = multierror.Append(br.Err, err).ErrorOrNil()
			errs = multierror.Append(errs, err)
		}
		if ctx.Err() != nil {
			return rep, multierror.Append(errs, ctx.Err()).ErrorOrNil()
		}
		if len(br.Converted) > 0 {
			analyzable = append(analyzable, name)
		}
		log.WithField("kinds", br.Converted).Info("benchmark done")
	}

	if opts.Analyze && len(analyzable) > 0 {
		d := analysis.New(cfg, p.Store, p.Analyzer, p.Log)
		sum, err := d.Dispatch(ctx, opts.Tag, analyzable, opts.Kinds)
		rep.Analysis = sum
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return rep, errs.ErrorOrNil()
}
