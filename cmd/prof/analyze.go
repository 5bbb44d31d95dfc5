// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/analysis"
)

func newAnalyzeCmd(e *env) *cobra.Command {
	var (
		tag        string
		benchmarks []string
		profiles   string
	)
	cmd := &cobra.Command{
		Use:   "analyze --tag=TAG",
		Short: "Send the listings of an earlier run to the configured model",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("tag", tag); err != nil {
				return err
			}
			kinds, err := benchprof.ParseKinds(profiles)
			if err != nil {
				return err
			}
			cfg, err := e.config()
			if err != nil {
				return err
			}
			if err := cfg.ValidateAnalysis(); err != nil {
				return err
			}
			store := e.store()
			if len(benchmarks) == 0 {
				benchmarks, err = store.Benchmarks(tag)
				if err != nil || len(benchmarks) == 0 {
					return fmt.Errorf("%w: no benchmarks recorded under tag %q", benchprof.ErrProfileMissing, tag)
				}
			}
			ctx := cmd.Context()
			d := analysis.New(cfg, store, e.newAnalyzer(ctx, cfg), e.log)
			sum, err := d.Dispatch(ctx, tag, benchmarks, kinds)
			if sum != nil {
				printAnalysisSummary(cmd.OutOrStdout(), sum)
			}
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&tag, "tag", "", "session `name`")
	fl.StringSliceVar(&benchmarks, "benchmarks", nil, "benchmark `names` (default: every benchmark of the tag)")
	fl.StringVar(&profiles, "profiles", "all", "profile `kinds`, comma separated, or \"all\"")
	return cmd
}
