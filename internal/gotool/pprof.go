// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gotool

import "strconv"

// MaxNodes is passed as -nodecount so the ranked listing is never
// truncated.
const MaxNodes = 100000000

// Top returns the pprof invocation that prints every node of dump
// ranked by cumulative cost, with no edge or node trimming.
func Top(dump string) Command {
	return Go("tool", "pprof",
		"-nodecount="+strconv.Itoa(MaxNodes),
		"-cum",
		"-edgefraction=0",
		"-nodefraction=0",
		"-top",
		dump)
}

// PNG returns the pprof invocation that renders dump as a PNG call
// graph on standard output.
func PNG(dump string) Command {
	return Go("tool", "pprof", "-png", dump)
}

// List returns the pprof invocation that prints annotated source for
// the functions of dump matching fn.
func List(fn, dump string) Command {
	return Go("tool", "pprof", "-list="+fn, dump)
}
