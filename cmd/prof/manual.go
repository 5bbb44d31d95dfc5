// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/benchprof/collector"
)

func newManualCmd(e *env) *cobra.Command {
	var tag string
	cmd := &cobra.Command{
		Use:   "manual --tag=TAG FILE...",
		Short: "Organize existing profile files without running benchmarks",
		Args:  args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, files []string) error {
			if err := required("tag", tag); err != nil {
				return err
			}
			cfg, err := e.config()
			if err != nil {
				return err
			}
			c := &collector.Collector{Store: e.store(), Runner: e.runner, Config: cfg, Log: e.log}
			res, err := c.Collect(cmd.Context(), tag, files)
			if res != nil {
				for _, f := range files {
					name := collector.Name(f)
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d functions\n", name, len(res.Functions[name]))
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "session `name`")
	return cmd
}
