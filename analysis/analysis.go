// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package analysis sends filtered profile listings to a chat model and
// stores the replies next to the other artifacts of a session.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/analysis/chat"
	"golang.org/x/benchprof/config"
	"golang.org/x/benchprof/extract"
	"golang.org/x/benchprof/storage"
)

// bannerWidth is the width of the rule under an analysis banner.
const bannerWidth = 80

// An Analyzer turns a conversation into a narrative analysis.
type Analyzer interface {
	Analyze(ctx context.Context, msgs []chat.Message) (string, error)
}

// A Policy decides what Dispatch does after a failed pair.
type Policy int

const (
	// AbortOnError stops at the first failure.
	AbortOnError Policy = iota
	// ContinueOnError analyzes every pair and reports failures at the end.
	ContinueOnError
)

// A Selector narrows the benchmarks and kinds Dispatch visits.
// *config.AIConfig implements it.
type Selector interface {
	SelectsBenchmark(bench string) bool
	SelectsKind(kind benchprof.Kind) bool
}

// A Dispatcher analyzes the listings of a session.
type Dispatcher struct {
	Store    *storage.Store
	Analyzer Analyzer
	Log      logrus.FieldLogger

	// Filter is applied to each listing before it is sent.
	Filter *extract.Filter
	// PromptFile holds the system prompt.
	PromptFile string
	// Select, if non-nil, restricts the pairs Dispatch visits.
	Select Selector
	Policy Policy
}

// New returns a Dispatcher configured from cfg.
func New(cfg *config.Config, store *storage.Store, a Analyzer, log logrus.FieldLogger) *Dispatcher {
	d := &Dispatcher{
		Store:      store,
		Analyzer:   a,
		Log:        log,
		Filter:     cfg.DisplayFilter(),
		PromptFile: cfg.Model.PromptLocation,
		Select:     &cfg.AI,
	}
	if cfg.AI.ContinueOnError {
		d.Policy = ContinueOnError
	}
	return d
}

// A Pair names one listing.
type Pair struct {
	Benchmark string
	Kind      benchprof.Kind
}

func (p Pair) String() string { return p.Benchmark + " (" + string(p.Kind) + ")" }

// A Summary reports the outcome of Dispatch.
type Summary struct {
	Analyzed []Pair
	Failed   []Pair
	// Skipped pairs have no listing in the session, usually because
	// their dump never appeared.
	Skipped []Pair
}

// Pairs returns the benchmark and kind combinations Dispatch visits:
// the cross product of benches and kinds, minus trace and anything the
// selector rejects.
func (d *Dispatcher) Pairs(benches []string, kinds []benchprof.Kind) []Pair {
	var pairs []Pair
	for _, b := range benches {
		if d.Select != nil && !d.Select.SelectsBenchmark(b) {
			continue
		}
		for _, k := range benchprof.TabularKinds(kinds) {
			if d.Select != nil && !d.Select.SelectsKind(k) {
				continue
			}
			pairs = append(pairs, Pair{b, k})
		}
	}
	return pairs
}

// Dispatch analyzes every pair of benches and kinds in tag.
//
// Pairs without a listing are logged and skipped. If every pair is
// skipped Dispatch fails with benchprof.ErrProfileMissing.
// Under AbortOnError the first failure ends the loop and is returned.
// Under ContinueOnError every pair is attempted and the failures are
// returned together.
func (d *Dispatcher) Dispatch(ctx context.Context, tag string, benches []string, kinds []benchprof.Kind) (*Summary, error) {
	sum := new(Summary)
	var errs *multierror.Error
	for _, p := range d.Pairs(benches, kinds) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		log := d.Log.WithFields(logrus.Fields{"tag": tag, "benchmark": p.Benchmark, "kind": p.Kind})
		if _, err := os.Stat(d.Store.ListingFile(tag, p.Benchmark, p.Kind)); errors.Is(err, fs.ErrNotExist) {
			log.Warn("no listing; skipping")
			sum.Skipped = append(sum.Skipped, p)
			continue
		}
		if _, err := d.AnalyzeOne(ctx, tag, p.Benchmark, p.Kind); err != nil {
			sum.Failed = append(sum.Failed, p)
			err = fmt.Errorf("analyzing %s: %w", p, err)
			if d.Policy == AbortOnError {
				return sum, err
			}
			log.WithError(err).Error("analysis failed")
			errs = multierror.Append(errs, err)
			continue
		}
		sum.Analyzed = append(sum.Analyzed, p)
	}
	if len(sum.Skipped) > 0 && len(sum.Analyzed)+len(sum.Failed) == 0 {
		return sum, fmt.Errorf("%w: no listings to analyze in %s", benchprof.ErrProfileMissing, tag)
	}
	if len(sum.Failed) > 0 {
		d.Log.Warnf("analyzed %d of %d profiles", len(sum.Analyzed), len(sum.Analyzed)+len(sum.Failed))
	}
	return sum, errs.ErrorOrNil()
}

// AnalyzeOne sends the filtered listing of bench and kind to the
// analyzer and writes the reply to the analysis file, which it returns.
func (d *Dispatcher) AnalyzeOne(ctx context.Context, tag, bench string, kind benchprof.Kind) (string, error) {
	content, err := d.content(tag, bench, kind)
	if err != nil {
		return "", err
	}
	prompt, err := d.prompt()
	if err != nil {
		return "", err
	}
	msgs := []chat.Message{
		{Role: chat.RoleSystem, Content: prompt},
		{Role: chat.RoleUser, Content: UserMessage(bench, kind, content)},
	}
	d.Log.WithFields(logrus.Fields{"benchmark": bench, "kind": kind}).Info("sending profile to model")
	reply, err := d.Analyzer.Analyze(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", benchprof.ErrAnalysis, err)
	}
	path := d.Store.AnalysisFile(tag, bench, kind)
	if err := storage.WriteFile(path, []byte(Banner(bench, kind)+reply)); err != nil {
		return "", fmt.Errorf("saving analysis: %w", err)
	}
	d.Log.WithField("path", path).Info("analysis saved")
	return path, nil
}

func (d *Dispatcher) content(tag, bench string, kind benchprof.Kind) (string, error) {
	path := d.Store.ListingFile(tag, bench, kind)
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", benchprof.ErrProfileMissing, err)
	}
	defer f.Close()
	content, err := extract.FilterListing(f, kind, d.Filter)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: %s", benchprof.ErrEmptyProfile, path)
	}
	return content, nil
}

func (d *Dispatcher) prompt() (string, error) {
	if d.PromptFile == "" {
		return "", fmt.Errorf("%w: no prompt file configured", benchprof.ErrConfig)
	}
	data, err := os.ReadFile(d.PromptFile)
	if err != nil {
		return "", fmt.Errorf("%w: reading prompt: %v", benchprof.ErrConfig, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// UserMessage formats a listing for the model.
func UserMessage(bench string, kind benchprof.Kind, content string) string {
	return fmt.Sprintf("BenchmarkName: %s\nProfile Type: %s\n\nProfile Content: %s", bench, kind, content)
}

// Banner returns the heading written above an analysis.
func Banner(bench string, kind benchprof.Kind) string {
	return fmt.Sprintf("Benchmark: %s\nProfile Type: %s\n%s\n\n", bench, kind, strings.Repeat("=", bannerWidth))
}
