// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/bench"
	"golang.org/x/benchprof/pipeline"
)

type runFlags struct {
	tag        string
	benchmarks []string
	profiles   string
	count      int
	analyze    bool
	dir        string
}

func newRunCmd(e *env) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run benchmarks with profiling and process the profiles",
		Long: `Run executes each benchmark once under go test with the requested
profilers, then writes ranked listings, call graph images and
per-function listings under <root>/<tag>. Without --benchmarks every
benchmark declared under --dir is run, each in the directory of the
package that declares it.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.run(cmd, &f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.tag, "tag", "", "session `name`")
	fl.StringSliceVar(&f.benchmarks, "benchmarks", nil, "benchmark `names` to run")
	fl.StringVar(&f.profiles, "profiles", "cpu,memory", "profile `kinds`, comma separated, or \"all\"")
	fl.IntVar(&f.count, "count", 1, "iterations passed to go test -count")
	fl.BoolVar(&f.analyze, "analyze", false, "send the listings to the configured model afterwards")
	fl.StringVar(&f.dir, "dir", ".", "`directory` to run go test in and to search for benchmarks")
	return cmd
}

func (e *env) run(cmd *cobra.Command, f *runFlags) error {
	ctx := cmd.Context()
	if err := required("tag", f.tag); err != nil {
		return err
	}
	kinds, err := benchprof.ParseKinds(f.profiles)
	if err != nil {
		return err
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	names := f.benchmarks
	var dirs map[string]string
	if len(names) == 0 {
		found, err := bench.Discover(f.dir)
		if err != nil {
			return fmt.Errorf("%w: finding benchmarks: %v", benchprof.ErrSetup, err)
		}
		if len(found) == 0 {
			return fmt.Errorf("%w: no benchmarks found in %s", benchprof.ErrConfig, f.dir)
		}
		dirs = make(map[string]string, len(found))
		for _, b := range found {
			names = append(names, b.Name)
			dirs[b.Name] = b.Dir
		}
		e.log.WithField("benchmarks", names).Info("discovered benchmarks")
	}

	p := &pipeline.Pipeline{
		Store:  e.store(),
		Runner: e.runner,
		Config: cfg,
		Log:    e.log,
		Dir:    f.dir,
	}
	if f.analyze {
		p.Analyzer = e.newAnalyzer(ctx, cfg)
	}
	rep, err := p.Run(ctx, pipeline.Options{
		Tag:        f.tag,
		Benchmarks: names,
		Kinds:      kinds,
		Iterations: f.count,
		Dirs:       dirs,
		Analyze:    f.analyze,
	})
	if rep != nil {
		printRunReport(cmd.OutOrStdout(), f.tag, rep)
	}
	return err
}
