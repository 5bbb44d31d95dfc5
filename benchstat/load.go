// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchstat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"golang.org/x/benchprof"
	"golang.org/x/benchprof/benchfmt"
	"golang.org/x/benchprof/storage"
)

// LoadFiles reads go test output from each path and merges the
// results into one summary.
func LoadFiles(paths ...string) (*benchfmt.Summary, error) {
	merged := new(benchfmt.Summary)
	byName := make(map[string]*benchfmt.Benchmark)
	for _, path := range paths {
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", benchprof.ErrProfileMissing, err)
		} else if err != nil {
			return nil, err
		}
		s, err := benchfmt.Summarize(benchfmt.NewReader(f, path))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if merged.Config == nil {
			merged.Config = s.Config
		}
		merged.Errors = append(merged.Errors, s.Errors...)
		for _, b := range s.Benchmarks {
			into := byName[b.Name]
			if into == nil {
				byName[b.Name] = b
				merged.Benchmarks = append(merged.Benchmarks, b)
				continue
			}
			for _, m := range b.Metrics {
				dst := into.Metric(m.Unit)
				dst.Sample.Xs = append(dst.Sample.Xs, m.Sample.Xs...)
			}
		}
	}
	return merged, nil
}

// CompareTags compares the go test output of benches between the
// sessions base and cur. With no benches every benchmark recorded in
// either session is compared, and one missing from a session only has
// results on the other side. Named benchmarks must exist in both.
func CompareTags(store *storage.Store, base, cur string, benches []string, opts Options) (*Comparison, error) {
	for _, tag := range []string{base, cur} {
		if err := storage.ValidTag(tag); err != nil {
			return nil, err
		}
	}
	explicit := len(benches) > 0
	if !explicit {
		seen := make(map[string]bool)
		for _, tag := range []string{base, cur} {
			names, err := store.Benchmarks(tag)
			if err != nil {
				return nil, err
			}
			for _, n := range names {
				if !seen[n] {
					seen[n] = true
					benches = append(benches, n)
				}
			}
		}
		sort.Strings(benches)
	}

	load := func(tag string) (*benchfmt.Summary, error) {
		var paths []string
		for _, b := range benches {
			path := store.RunOutputFile(tag, b)
			if !explicit {
				if _, err := os.Stat(path); err != nil {
					continue
				}
			}
			paths = append(paths, path)
		}
		return LoadFiles(paths...)
	}
	bs, err := load(base)
	if err != nil {
		return nil, err
	}
	cs, err := load(cur)
	if err != nil {
		return nil, err
	}
	if len(bs.Benchmarks) == 0 && len(cs.Benchmarks) == 0 {
		return nil, fmt.Errorf("%w: no benchmark results in %q or %q", benchprof.ErrProfileMissing, base, cur)
	}
	return Compare(base, bs, cur, cs, opts), nil
}
