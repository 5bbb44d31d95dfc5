// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfmt

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/aclements/go-moremath/stats"
	"golang.org/x/benchprof/storage"
)

// A Metric collects every measurement of one unit for one benchmark.
type Metric struct {
	Unit   string
	Sample stats.Sample
}

// A Benchmark groups the metrics of one benchmark name.
type Benchmark struct {
	Name    string
	Metrics []*Metric
}

// Metric returns the metric of b for unit, adding it if needed.
func (b *Benchmark) Metric(unit string) *Metric {
	for _, m := range b.Metrics {
		if m.Unit == unit {
			return m
		}
	}
	m := &Metric{Unit: unit}
	b.Metrics = append(b.Metrics, m)
	return m
}

// A Summary is the result of reading a complete benchmark output.
type Summary struct {
	Config     []Config
	Benchmarks []*Benchmark
	Errors     []*SyntaxError
}

// Summarize reads every record from r, grouping results by name
// (without GOMAXPROCS suffix) and unit in first-seen order.
func Summarize(r *Reader) (*Summary, error) {
	s := new(Summary)
	byName := make(map[string]*Benchmark)
	for r.Scan() {
		switch rec := r.Result().(type) {
		case *SyntaxError:
			s.Errors = append(s.Errors, rec)
		case *Result:
			name := rec.Full()
			b := byName[name]
			if b == nil {
				b = &Benchmark{Name: name}
				byName[name] = b
				s.Benchmarks = append(s.Benchmarks, b)
			}
			for _, v := range rec.Values {
				m := b.Metric(v.Unit)
				m.Sample.Xs = append(m.Sample.Xs, v.Value)
			}
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	s.Config = r.Config()
	return s, nil
}

// Write prints s as an aligned table.
func (s *Summary) Write(w io.Writer) error {
	for _, c := range s.Config {
		if _, err := fmt.Fprintf(w, "%s: %s\n", c.Key, c.Value); err != nil {
			return err
		}
	}
	if len(s.Config) > 0 {
		fmt.Fprintln(w)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "name\tunit\tn\tmean\tmedian\tmin\tmax\tstddev\t\n")
	for _, b := range s.Benchmarks {
		for _, m := range b.Metrics {
			lo, hi := m.Sample.Bounds()
			sd := math.NaN()
			if len(m.Sample.Xs) > 1 {
				sd = m.Sample.StdDev()
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
				b.Name, m.Unit, len(m.Sample.Xs),
				num(m.Sample.Mean()), num(m.Sample.Quantile(0.5)),
				num(lo), num(hi), num(sd))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, e := range s.Errors {
		if _, err := fmt.Fprintf(w, "# %v\n", e); err != nil {
			return err
		}
	}
	return nil
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// SummarizeFile reads the go test output in src and writes its summary
// to dst.
func SummarizeFile(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	s, err := Summarize(NewReader(f, src))
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, storage.PermFile)
	if err != nil {
		return err
	}
	if err := s.Write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
