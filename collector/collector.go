// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package collector files existing profile dumps under a tag without
// running any benchmark.
//
// Each dump <name>.<ext> gets a directory <tag>/<name> holding its
// ranked listing, <name>.txt, and a functions directory with one -list
// output per selected function.
package collector

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/config"
	"golang.org/x/benchprof/extract"
	"golang.org/x/benchprof/internal/gotool"
	"golang.org/x/benchprof/storage"
)

// A Collector organizes dumps into a Store.
type Collector struct {
	Store  *storage.Store
	Runner gotool.Runner
	Config *config.Config
	Log    logrus.FieldLogger
}

// A Result lists, per dump name, the functions whose listings were
// written and those that failed.
type Result struct {
	Functions map[string][]string
	Failed    map[string][]string
}

// Name returns the directory name used for the dump at path.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Collect replaces the contents of tag with the artifacts of files.
// The files are checked before anything is removed. A dump that cannot
// be listed is skipped and its error is part of the returned aggregate.
func (c *Collector) Collect(ctx context.Context, tag string, files []string) (*Result, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no profile files given", benchprof.ErrConfig)
	}
	seen := make(map[string]string)
	for _, f := range files {
		if !storage.Exists(f) {
			return nil, fmt.Errorf("%w: %s", benchprof.ErrProfileMissing, f)
		}
		name := Name(f)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %s and %s both map to %q", benchprof.ErrConfig, prev, f, name)
		}
		seen[name] = f
	}
	if err := storage.ValidTag(tag); err != nil {
		return nil, err
	}
	if err := c.Store.Clean(tag); err != nil {
		return nil, fmt.Errorf("%w: %v", benchprof.ErrSetup, err)
	}
	if err := os.MkdirAll(c.Store.TagDir(tag), storage.PermDir); err != nil {
		return nil, fmt.Errorf("%w: %v", benchprof.ErrSetup, err)
	}

	cfg := c.Config
	if cfg == nil {
		cfg = new(config.Config)
	}
	res := &Result{
		Functions: make(map[string][]string),
		Failed:    make(map[string][]string),
	}
	var errs *multierror.Error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := c.collect(ctx, tag, f, cfg.FilterFor(Name(f)), res); err != nil {
			c.Log.WithFields(logrus.Fields{"tag": tag, "path": f}).WithError(err).Error("cannot collect profile")
			errs = multierror.Append(errs, err)
		}
	}
	return res, errs.ErrorOrNil()
}

func (c *Collector) collect(ctx context.Context, tag, file string, f *extract.Filter, res *Result) error {
	name := Name(file)
	log := c.Log.WithFields(logrus.Fields{"tag": tag, "benchmark": name})

	out, err := c.Runner.Output(ctx, gotool.Top(file))
	if err != nil {
		return fmt.Errorf("%w: listing %s: %v", benchprof.ErrProfiler, file, err)
	}
	if err := storage.WriteFile(c.Store.ManualListingFile(tag, name), out); err != nil {
		return err
	}
	names, err := extract.FunctionNames(bytes.NewReader(out), f)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	if err := os.MkdirAll(c.Store.ManualFunctionDir(tag, name), storage.PermDir); err != nil {
		return err
	}
	for _, fn := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.list(ctx, tag, name, file, fn); err != nil {
			log.WithField("function", fn).WithError(err).Warn("skipping function")
			res.Failed[name] = append(res.Failed[name], fn)
			continue
		}
		res.Functions[name] = append(res.Functions[name], fn)
	}
	log.Infof("collected %d functions", len(res.Functions[name]))
	return nil
}

func (c *Collector) list(ctx context.Context, tag, name, file, fn string) error {
	if strings.ContainsAny(fn, `/\`) {
		return fmt.Errorf("function name %q cannot be used as a file name", fn)
	}
	out, err := c.Runner.Output(ctx, gotool.List(fn, file))
	if err != nil {
		return fmt.Errorf("%w: %v", benchprof.ErrProfiler, err)
	}
	return storage.WriteFile(c.Store.ManualFunctionFile(tag, name, fn), out)
}
