// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Prof runs Go benchmarks under the profilers and organizes what they
// produce.
//
// Usage:
//
//	prof run --tag=TAG [--benchmarks=B1,B2] [--profiles=cpu,memory] [--count=N] [--analyze]
//	prof manual --tag=TAG FILE...
//	prof analyze --tag=TAG [--benchmarks=...] [--profiles=...]
//	prof track tags --base=TAG --current=TAG --benchmark=B --profile=KIND
//	prof track files --base=FILE --current=FILE
//	prof track bench --base=TAG --current=TAG [--benchmark=B]...
//	prof list [TAG]
//	prof setup
//	prof clean TAG...
//
// Artifacts are written under ./bench/<tag>. Configuration is read from
// config_template.json at the root of the enclosing module, or from
// $XDG_CONFIG_HOME/prof/config.json; --config names another file.
//
// The exit status classifies the failure: 2 for usage and configuration
// errors, 3 when no Go module was found, 4 for failing benchmarks, 5 for
// missing profiles, 6 for malformed listings, 7 for analysis failures,
// 8 when prof track detects a regression and 9 for setup errors.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newEnv(os.Stdout, os.Stderr), os.Args[1:])
	stop()
	os.Exit(code)
}
