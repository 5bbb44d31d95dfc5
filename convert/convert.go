// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package convert turns the binary profile dumps of a run into a
// ranked text listing and a rendered call graph.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/pprof/profile"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/internal/gotool"
	"golang.org/x/benchprof/storage"
)

// ErrNoTabularForm is returned for kinds pprof cannot rank.
var ErrNoTabularForm = errors.New("profile kind has no tabular form")

// A Converter renders the dumps in Store with the profiler behind
// Runner.
type Converter struct {
	Store  *storage.Store
	Runner gotool.Runner
	Log    logrus.FieldLogger
}

// Convert writes the ranked listing and the PNG call graph of the kind
// dump of bench. The two profiler invocations are independent; the
// listing is written before the image is attempted.
func (c *Converter) Convert(ctx context.Context, tag, bench string, kind benchprof.Kind) error {
	if !kind.Tabular() {
		return fmt.Errorf("%s: %w", kind, ErrNoTabularForm)
	}
	p := c.Store.Paths(tag, bench, kind)
	if !storage.Exists(p.Dump) {
		return fmt.Errorf("%w: %s", benchprof.ErrProfileMissing, p.Dump)
	}
	log := c.Log.WithFields(logrus.Fields{"tag": tag, "benchmark": bench, "kind": kind})
	if err := Validate(p.Dump); err != nil {
		// pprof has the final say; it may still read what we cannot.
		log.WithError(err).Warn("dump does not parse as a profile")
	}

	top, err := c.Runner.Output(ctx, gotool.Top(p.Dump))
	if err != nil {
		return fmt.Errorf("%w: ranking %s: %v", benchprof.ErrProfiler, p.Dump, err)
	}
	if err := storage.WriteFile(p.Listing, top); err != nil {
		return err
	}
	log.WithField("path", p.Listing).Debug("wrote listing")

	png, err := c.Runner.Output(ctx, gotool.PNG(p.Dump))
	if err != nil {
		return fmt.Errorf("%w: rendering %s: %v", benchprof.ErrProfiler, p.Dump, err)
	}
	if err := storage.WriteFile(p.Image, png); err != nil {
		return err
	}
	log.WithField("path", p.Image).Debug("wrote image")
	return nil
}

// ConvertAll converts every tabular kind in kinds and returns the kinds
// that succeeded. A failing kind is logged and skipped; its error is
// part of the returned aggregate.
func (c *Converter) ConvertAll(ctx context.Context, tag, bench string, kinds []benchprof.Kind) ([]benchprof.Kind, error) {
	var done []benchprof.Kind
	var errs *multierror.Error
	for _, kind := range benchprof.TabularKinds(kinds) {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := c.Convert(ctx, tag, bench, kind); err != nil {
			c.Log.WithFields(logrus.Fields{"tag": tag, "benchmark": bench, "kind": kind}).
				WithError(err).Error("conversion failed")
			errs = multierror.Append(errs, fmt.Errorf("%s %s: %w", bench, kind, err))
			continue
		}
		done = append(done, kind)
	}
	return done, errs.ErrorOrNil()
}

// Validate reports whether the file at path decodes as a pprof profile.
func Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	p, err := profile.Parse(f)
	if err != nil {
		return err
	}
	return p.CheckValid()
}
