// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchstat

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Write prints c as one aligned table per unit, followed by the
// numbered warnings its cells refer to.
func (c *Comparison) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "base: %s\ncurrent: %s\n", c.Base, c.Current); err != nil {
		return err
	}
	var notes footnotes
	for _, t := range c.Tables {
		fmt.Fprintf(w, "\nunit: %s (%s)\n", t.Unit, t.Assumption.SummaryLabel())
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "name\t%s\t±\t%s\t±\tvs base\t\t\n", c.Base, c.Current)
		for _, r := range t.Rows {
			cols := []string{r.Benchmark}
			cols = append(cols, notes.cell(r.Base)...)
			cols = append(cols, notes.cell(r.Current)...)
			if d := r.Delta(); d != "" {
				cols = append(cols, d, "("+r.Comparison.String()+")"+notes.mark(r.Comparison.Warnings))
			} else {
				cols = append(cols, "", "")
			}
			fmt.Fprint(tw, strings.Join(cols, "\t")+"\t\n")
		}
		if len(t.Rows) > 1 {
			g := t.Geomean
			cols := []string{"geomean", "", "", "", "", "?", notes.mark(g.Warnings)}
			if g.HasBase {
				cols[1] = format(g.Base)
			}
			if g.HasCurrent {
				cols[3] = format(g.Current)
			}
			if g.HasRatio {
				cols[5] = fmt.Sprintf("%+.2f%%", (g.Ratio-1)*100)
			}
			fmt.Fprint(tw, strings.Join(cols, "\t")+"\t\n")
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	for i, msg := range notes.list {
		if _, err := fmt.Fprintf(w, "%s %s\n", superscript(i+1), msg); err != nil {
			return err
		}
	}
	return nil
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// footnotes numbers distinct warnings in order of appearance.
type footnotes struct {
	list  []string
	index map[string]int
}

// mark returns the superscript references for errs.
func (f *footnotes) mark(errs ...[]error) string {
	var refs []string
	for _, list := range errs {
		for _, err := range list {
			msg := err.Error()
			i, ok := f.index[msg]
			if !ok {
				if f.index == nil {
					f.index = make(map[string]int)
				}
				i = len(f.list)
				f.index[msg] = i
				f.list = append(f.list, msg)
			}
			refs = append(refs, superscript(i+1))
		}
	}
	if len(refs) == 0 {
		return ""
	}
	return " " + strings.Join(refs, " ")
}

// cell returns the center and range columns of c.
func (f *footnotes) cell(c *Cell) []string {
	if c == nil {
		return []string{"", ""}
	}
	return []string{
		format(c.Summary.Center),
		c.Summary.PctRangeString() + f.mark(c.Sample.Warnings, c.Summary.Warnings),
	}
}

var superDigits = []rune("⁰¹²³⁴⁵⁶⁷⁸⁹")

func superscript(i int) string {
	if i == 0 {
		return string(superDigits[0])
	}
	var buf [20]rune
	pos := len(buf)
	for i > 0 && pos > 0 {
		pos--
		buf[pos] = superDigits[i%10]
		i /= 10
	}
	return string(buf[pos:])
}
