// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/storage"
)

func newListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "list [TAG]",
		Aliases: []string{"ls"},
		Short:   "List tags, or the benchmarks and artifacts of one tag",
		Args:    args(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			store := e.store()
			w := cmd.OutOrStdout()
			if len(a) == 0 {
				tags, err := store.Tags()
				if err != nil {
					return err
				}
				for _, t := range tags {
					fmt.Fprintln(w, t)
				}
				return nil
			}
			tag := a[0]
			if err := storage.ValidTag(tag); err != nil {
				return err
			}
			benches, err := store.Benchmarks(tag)
			if err != nil {
				return fmt.Errorf("%w: tag %q: %v", benchprof.ErrProfileMissing, tag, err)
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "benchmark\tlistings\tanalyses\t\n")
			for _, b := range benches {
				var listings, analyses []benchprof.Kind
				for _, k := range benchprof.TabularKinds(benchprof.Kinds) {
					p := store.Paths(tag, b, k)
					if storage.Exists(p.Listing) {
						listings = append(listings, k)
					}
					if storage.Exists(p.Analysis) {
						analyses = append(analyses, k)
					}
				}
				fmt.Fprintf(tw, "%s\t%v\t%v\t\n", b, listings, analyses)
			}
			return tw.Flush()
		},
	}
}

func newCleanCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clean TAG...",
		Short: "Remove the artifacts of tags",
		Args:  args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, tags []string) error {
			store := e.store()
			for _, t := range tags {
				if err := store.Clean(t); err != nil {
					return err
				}
				e.log.WithField("tag", t).Info("removed")
			}
			return nil
		},
	}
}
