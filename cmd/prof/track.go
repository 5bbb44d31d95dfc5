// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/benchstat"
	"golang.org/x/benchprof/config"
	"golang.org/x/benchprof/storage"
	"golang.org/x/benchprof/tracker"
)

// trackFlags are shared by the track subcommands.
type trackFlags struct {
	base, current string
	format        string
	threshold     float64
	minChange     float64
	chart         string
	bars          int
}

func (f *trackFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.base, "base", "", "baseline")
	fl.StringVar(&f.current, "current", "", "current")
	fl.StringVar(&f.format, "format", tracker.FormatSummary, "report format: "+strings.Join(tracker.Formats, ", "))
	fl.Float64Var(&f.threshold, "fail-on-regression", 0, "exit with status 8 when a function regresses by this `percent` (default from config)")
	fl.Float64Var(&f.minChange, "min-change", 0, "treat flat changes below this `percent` as stable (default from config)")
	fl.StringVar(&f.chart, "chart", "", "also write a PNG bar chart to `file`")
	fl.IntVar(&f.bars, "bars", tracker.DefaultChartBars, "functions drawn in the chart")
}

// apply fills unset thresholds from the configuration.
func (f *trackFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("fail-on-regression") {
		f.threshold = cfg.Tracker.RegressionThreshold
	}
	if !cmd.Flags().Changed("min-change") {
		f.minChange = cfg.Tracker.MinChange
	}
}

func newTrackCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Compare two sessions",
	}
	cmd.AddCommand(newTrackTagsCmd(e), newTrackFilesCmd(e), newTrackBenchCmd(e))
	return cmd
}

func newTrackTagsCmd(e *env) *cobra.Command {
	var (
		f       trackFlags
		bench   string
		profile string
	)
	cmd := &cobra.Command{
		Use:   "tags --base=TAG --current=TAG --benchmark=NAME",
		Short: "Compare the dumps of one benchmark in two tags",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, r := range [][2]string{{"base", f.base}, {"current", f.current}, {"benchmark", bench}} {
				if err := required(r[0], r[1]); err != nil {
					return err
				}
			}
			kind := benchprof.Kind(profile)
			if !kind.Known() {
				return usageError(fmtUnknownKind(profile))
			}
			cfg, err := e.config()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			t := &tracker.Tracker{Store: e.store(), MinChange: f.minChange}
			rep, err := t.CompareTags(f.base, f.current, bench, kind)
			if err != nil {
				return err
			}
			return e.finishTrack(cmd, &f, rep)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&bench, "benchmark", "", "benchmark `name`")
	cmd.Flags().StringVar(&profile, "profile", string(benchprof.CPU), "profile `kind`")
	return cmd
}

func newTrackFilesCmd(e *env) *cobra.Command {
	var f trackFlags
	cmd := &cobra.Command{
		Use:   "files --base=FILE --current=FILE",
		Short: "Compare two profile files",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("base", f.base); err != nil {
				return err
			}
			if err := required("current", f.current); err != nil {
				return err
			}
			cfg, err := e.config()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			rep, err := tracker.CompareFiles(f.base, f.current, f.minChange)
			if err != nil {
				return err
			}
			return e.finishTrack(cmd, &f, rep)
		},
	}
	f.register(cmd)
	return cmd
}

func newTrackBenchCmd(e *env) *cobra.Command {
	var (
		base, current string
		benches       []string
		opts          benchstat.Options
		threshold     float64
	)
	cmd := &cobra.Command{
		Use:   "bench --base=TAG --current=TAG [--benchmark=NAME]...",
		Short: "Compare the go test results of two tags statistically",
		Long: `Bench compares the recorded go test output of every benchmark, or only
the named ones, between two tags. Each unit gets a table of medians with
confidence intervals and a Mann-Whitney U-test of the difference.

The table is printed and saved under the store's tools/benchstat directory.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("base", base); err != nil {
				return err
			}
			if err := required("current", current); err != nil {
				return err
			}
			if opts.Alpha < 0 || opts.Alpha >= 1 || opts.Confidence < 0 || opts.Confidence >= 1 {
				return usageError(errors.New("--alpha and --confidence must be in [0, 1)"))
			}
			cfg, err := e.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("fail-on-regression") {
				threshold = cfg.Tracker.RegressionThreshold
			}
			store := e.store()
			c, err := benchstat.CompareTags(store, base, current, benches, opts)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := c.Write(&buf); err != nil {
				return err
			}
			name := base + "_vs_" + current
			if len(benches) == 1 {
				name = benches[0]
			}
			path := store.BenchstatFile(name)
			if err := storage.WriteFile(path, buf.Bytes()); err != nil {
				return err
			}
			e.log.WithField("path", path).Info("benchstat results saved")
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}
			return c.Gate(threshold)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&base, "base", "", "baseline `tag`")
	fl.StringVar(&current, "current", "", "current `tag`")
	fl.StringSliceVar(&benches, "benchmark", nil, "benchmark `name` to compare (default all)")
	fl.Float64Var(&opts.Alpha, "alpha", 0, "significance level of the U-test (default 0.05)")
	fl.Float64Var(&opts.Confidence, "confidence", 0, "confidence level of the intervals (default 0.95)")
	fl.Float64Var(&threshold, "fail-on-regression", 0, "exit with status 8 when a benchmark regresses by this `percent` (default from config)")
	return cmd
}

// finishTrack prints rep, draws the chart and applies the gate.
func (e *env) finishTrack(cmd *cobra.Command, f *trackFlags, rep *tracker.Report) error {
	if err := rep.Write(cmd.OutOrStdout(), f.format); err != nil {
		return err
	}
	if f.chart != "" {
		if err := rep.Chart(f.chart, f.bars); err != nil {
			e.log.WithField("path", f.chart).WithError(err).Warn("cannot draw chart")
		} else {
			e.log.WithField("path", f.chart).Info("chart written")
		}
	}
	return rep.Gate(f.threshold)
}
