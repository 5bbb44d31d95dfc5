// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracker

import (
	"fmt"
	"os"

	"github.com/google/pprof/profile"
	"golang.org/x/benchprof"
)

// A Cost is the flat and cumulative value of one function.
type Cost struct {
	Flat float64
	Cum  float64
}

// A Profile holds per-function costs of one dump for a single sample
// type.
type Profile struct {
	// Type and Unit describe the sample type the costs come from.
	Type, Unit string
	Functions  map[string]Cost
}

// Load reads and aggregates the dump at path.
func Load(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", benchprof.ErrProfileMissing, err)
	}
	defer f.Close()
	p, err := profile.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", benchprof.ErrProfiler, path, err)
	}
	return Aggregate(p)
}

// sampleIndex returns the index of p's default sample type, which is
// the last one unless the profile names another.
func sampleIndex(p *profile.Profile) (int, error) {
	if len(p.SampleType) == 0 {
		return 0, fmt.Errorf("%w: profile has no sample types", benchprof.ErrProfiler)
	}
	if p.DefaultSampleType != "" {
		for i, st := range p.SampleType {
			if st.Type == p.DefaultSampleType {
				return i, nil
			}
		}
	}
	return len(p.SampleType) - 1, nil
}

// Aggregate computes per-function costs the way pprof -top does: a
// sample counts toward the flat cost of its innermost frame and toward
// the cumulative cost of every distinct function on its stack.
func Aggregate(p *profile.Profile) (*Profile, error) {
	idx, err := sampleIndex(p)
	if err != nil {
		return nil, err
	}
	out := &Profile{
		Type:      p.SampleType[idx].Type,
		Unit:      p.SampleType[idx].Unit,
		Functions: make(map[string]Cost),
	}
	seen := make(map[string]bool)
	for _, s := range p.Sample {
		if idx >= len(s.Value) {
			continue
		}
		v := float64(s.Value[idx])
		clear(seen)
		leaf := true
		for _, loc := range s.Location {
			for _, line := range loc.Line {
				if line.Function == nil {
					continue
				}
				name := line.Function.Name
				c := out.Functions[name]
				if leaf {
					c.Flat += v
					leaf = false
				}
				if !seen[name] {
					c.Cum += v
					seen[name] = true
				}
				out.Functions[name] = c
			}
		}
	}
	return out, nil
}
