// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/benchprof/analysis"
	"golang.org/x/benchprof/pipeline"
)

func printRunReport(w io.Writer, tag string, rep *pipeline.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "benchmark\tprofiles\tfunctions\tstatus\t\n")
	for _, b := range rep.Benchmarks {
		n := 0
		for _, fns := range b.Functions {
			n += len(fns)
		}
		status := "ok"
		if b.Err != nil {
			status = "failed"
		}
		fmt.Fprintf(tw, "%s\t%v\t%d\t%s\t\n", b.Name, b.Converted, n, status)
	}
	tw.Flush()
	if rep.Analysis != nil {
		printAnalysisSummary(w, rep.Analysis)
	}
	fmt.Fprintf(w, "artifacts in tag %q\n", tag)
}

func printAnalysisSummary(w io.Writer, s *analysis.Summary) {
	fmt.Fprintf(w, "analyzed %d listings", len(s.Analyzed))
	if len(s.Failed) > 0 {
		fmt.Fprintf(w, ", %d failed:", len(s.Failed))
		for _, p := range s.Failed {
			fmt.Fprintf(w, " %s", p)
		}
	}
	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, ", %d without listing", len(s.Skipped))
	}
	fmt.Fprintln(w)
}
