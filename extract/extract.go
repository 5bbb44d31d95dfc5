// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/internal/gotool"
	"golang.org/x/benchprof/storage"
)

// An Extractor writes per-function listings for the functions a ranked
// listing selects.
type Extractor struct {
	Store  *storage.Store
	Runner gotool.Runner
	Log    logrus.FieldLogger
}

// A Result lists the functions Collect handled, per kind.
type Result struct {
	Functions map[benchprof.Kind][]string // listings written
	Failed    map[benchprof.Kind][]string // listings that could not be produced
}

// FunctionListing writes the pprof -list output for name, read from
// the dump of kind, to the function directory of bench.
func (e *Extractor) FunctionListing(ctx context.Context, tag, bench string, kind benchprof.Kind, name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("function name %q cannot be used as a file name", name)
	}
	dump := e.Store.DumpFile(tag, bench, kind)
	out, err := e.Runner.Output(ctx, gotool.List(name, dump))
	if err != nil {
		return fmt.Errorf("%w: listing %s in %s: %v", benchprof.ErrProfiler, name, dump, err)
	}
	return storage.WriteFile(e.Store.FunctionListingFile(tag, bench, kind, name), out)
}

// Collect reads the ranked listing of every tabular kind, selects
// functions with f and writes a listing for each of them.
//
// A function whose listing fails is logged and recorded in
// Result.Failed; the rest of the batch still runs. A kind whose ranked
// listing is missing or malformed is skipped and its error is part of
// the returned aggregate.
func (e *Extractor) Collect(ctx context.Context, tag, bench string, kinds []benchprof.Kind, f *Filter) (*Result, error) {
	res := &Result{
		Functions: make(map[benchprof.Kind][]string),
		Failed:    make(map[benchprof.Kind][]string),
	}
	var errs *multierror.Error
	for _, kind := range benchprof.TabularKinds(kinds) {
		log := e.Log.WithFields(logrus.Fields{"tag": tag, "benchmark": bench, "kind": kind})
		names, err := e.names(tag, bench, kind, f)
		if err != nil {
			log.WithError(err).Error("cannot extract function names")
			errs = multierror.Append(errs, err)
			continue
		}
		log.Debugf("extracting %d functions", len(names))
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if err := e.FunctionListing(ctx, tag, bench, kind, name); err != nil {
				log.WithField("function", name).WithError(err).Warn("skipping function")
				res.Failed[kind] = append(res.Failed[kind], name)
				continue
			}
			res.Functions[kind] = append(res.Functions[kind], name)
		}
	}
	return res, errs.ErrorOrNil()
}

func (e *Extractor) names(tag, bench string, kind benchprof.Kind, f *Filter) ([]string, error) {
	path := e.Store.ListingFile(tag, bench, kind)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", benchprof.ErrProfileMissing, err)
	}
	defer file.Close()
	lr := NewReader(file, path)
	return functionNames(lr, f)
}
