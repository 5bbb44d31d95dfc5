// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bench runs Go benchmarks with profiling enabled and files the
// resulting dumps into the artifact store.
package bench

import (
	"strconv"

	"golang.org/x/benchprof"
	"golang.org/x/benchprof/internal/gotool"
)

// profileFlags maps each kind to the go test flag that enables it.
// The flag value is also the name of the file go test writes.
var profileFlags = map[benchprof.Kind]string{
	benchprof.CPU:    "-cpuprofile",
	benchprof.Memory: "-memprofile",
	benchprof.Mutex:  "-mutexprofile",
	benchprof.Block:  "-blockprofile",
	benchprof.Trace:  "-trace",
}

// DefaultFile returns the file name go test writes a dump of kind to,
// and false if kind has no profiling flag.
func DefaultFile(kind benchprof.Kind) (string, bool) {
	if _, ok := profileFlags[kind]; !ok {
		return "", false
	}
	return string(kind) + ".out", true
}

// An Output pairs a requested kind with the file go test writes it to.
type Output struct {
	Kind benchprof.Kind
	File string
}

// A RunCommand is a go test invocation plus the dumps it will produce.
type RunCommand struct {
	gotool.Command
	Outputs []Output
}

// BuildRunCommand returns the go test invocation that runs exactly the
// benchmark named benchmark iterations times, with memory allocation
// statistics and one profiling flag per known kind. Unknown kinds and
// repeats are ignored.
func BuildRunCommand(benchmark string, kinds []benchprof.Kind, iterations int) RunCommand {
	args := []string{
		"test",
		"-run=^$",
		"-bench=^" + benchmark + "$",
		"-benchmem",
		"-count=" + strconv.Itoa(iterations),
	}
	var outs []Output
	seen := make(map[benchprof.Kind]bool)
	for _, k := range kinds {
		flag, ok := profileFlags[k]
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		file, _ := DefaultFile(k)
		args = append(args, flag+"="+file)
		outs = append(outs, Output{Kind: k, File: file})
	}
	return RunCommand{Command: gotool.Go(args...), Outputs: outs}
}
