// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracker

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"golang.org/x/benchprof"
)

// Output formats accepted by Write.
const (
	FormatSummary  = "summary"
	FormatDetailed = "detailed"
	FormatJSON     = "json"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatSummary, FormatDetailed, FormatJSON}

func signed(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// Write renders r in the named format.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case FormatSummary, "":
		return r.writeSummary(w)
	case FormatDetailed:
		return r.writeDetailed(w)
	case FormatJSON:
		return r.writeJSON(w)
	}
	return fmt.Errorf("%w: unknown report format %q (want one of %s)", benchprof.ErrConfig, format, strings.Join(Formats, ", "))
}

func (r *Report) writeHeader(w io.Writer) {
	fmt.Fprintf(w, "baseline: %s\ncurrent:  %s\n", r.Baseline, r.Current)
	if r.Type != "" {
		fmt.Fprintf(w, "sample:   %s (%s)\n", r.Type, r.Unit)
	}
	n := r.Counts()
	fmt.Fprintf(w, "functions: %d compared, %d regressed, %d improved, %d stable, %d added, %d removed\n",
		len(r.Changes), n.Regressions, n.Improvements, n.Stable, len(r.Added), len(r.Removed))
	if gm := r.GeoMean(); !math.IsNaN(gm) {
		fmt.Fprintf(w, "geomean:  %.4f\n", gm)
	}
	if c := r.Worst(); c != nil {
		fmt.Fprintf(w, "worst:    %s %s\n", c.Function, signed(c.FlatPercent))
	}
	if c := r.Best(); c != nil {
		fmt.Fprintf(w, "best:     %s %s\n", c.Function, signed(c.FlatPercent))
	}
}

func (r *Report) writeSummary(w io.Writer) error {
	r.writeHeader(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nfunction\tchange\tflat\tcum\tseverity\t")
	for _, c := range r.Changes {
		if c.Type == Stable {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", c.Function, c.Type, signed(c.FlatPercent), signed(c.CumPercent), c.Severity)
	}
	return tw.Flush()
}

func (r *Report) writeDetailed(w io.Writer) error {
	r.writeHeader(w)
	rule := strings.Repeat("-", 64)
	for _, c := range r.Changes {
		fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, c.Function, rule)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "\tbefore\tafter\tdelta\tchange\t\n")
		fmt.Fprintf(tw, "flat\t%g\t%g\t%+g\t%s\t\n", c.Flat.Before, c.Flat.After, c.Flat.Delta, signed(c.FlatPercent))
		fmt.Fprintf(tw, "cum\t%g\t%g\t%+g\t%s\t\n", c.Cum.Before, c.Cum.After, c.Cum.Delta, signed(c.CumPercent))
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(w, "type: %s, severity: %s\n%s\n", c.Type, c.Severity, c.Recommendation())
	}
	for _, name := range r.Added {
		fmt.Fprintf(w, "\nadded: %s\n", name)
	}
	for _, name := range r.Removed {
		fmt.Fprintf(w, "\nremoved: %s\n", name)
	}
	return nil
}

func (r *Report) writeJSON(w io.Writer) error {
	out := struct {
		*Report
		GeoMean *float64 `json:"geomean,omitempty"`
	}{Report: r}
	if gm := r.GeoMean(); !math.IsNaN(gm) {
		out.GeoMean = &gm
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
