// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchprof

import (
	"fmt"
	"strings"
)

// A Kind is a category of runtime profile a benchmark run can emit.
type Kind string

const (
	CPU    Kind = "cpu"
	Memory Kind = "memory"
	Mutex  Kind = "mutex"
	Block  Kind = "block"
	Trace  Kind = "trace"
)

// Kinds lists every known kind in canonical order.
var Kinds = []Kind{CPU, Memory, Mutex, Block, Trace}

// Known reports whether k is one of the kinds in Kinds.
func (k Kind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Tabular reports whether the profiler can render k as a ranked
// listing. Execution traces cannot.
func (k Kind) Tabular() bool {
	return k.Known() && k != Trace
}

func (k Kind) String() string { return string(k) }

// ParseKinds parses a comma-separated list of kind names.
// Blank elements are dropped and duplicates are collapsed.
// The special list "all" expands to every tabular kind plus trace.
func ParseKinds(s string) ([]Kind, error) {
	s = strings.TrimSpace(s)
	if s == "all" {
		return append([]Kind(nil), Kinds...), nil
	}
	var kinds []Kind
	seen := make(map[Kind]bool)
	for _, f := range strings.Split(s, ",") {
		k := Kind(strings.TrimSpace(f))
		if k == "" {
			continue
		}
		if !k.Known() {
			return nil, fmt.Errorf("%w: unknown profile kind %q", ErrConfig, k)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// TabularKinds returns the elements of kinds that have a tabular form,
// preserving order.
func TabularKinds(kinds []Kind) []Kind {
	var out []Kind
	for _, k := range kinds {
		if k.Tabular() {
			out = append(out, k)
		}
	}
	return out
}
