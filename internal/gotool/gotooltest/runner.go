// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gotooltest provides a scripted gotool.Runner for tests.
package gotooltest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/benchprof/internal/gotool"
)

// A Rule answers every command whose String form contains Match.
type Rule struct {
	Match  string
	Output []byte
	Err    error
	// Do, if non-nil, runs before the answer is returned, for example
	// to create the files the real command would have written.
	Do func(cmd gotool.Command) error
}

// Runner answers commands from its rules, first match wins. Commands
// with no matching rule fail.
type Runner struct {
	Rules []Rule

	mu    sync.Mutex
	calls []gotool.Command
}

// On appends a rule and returns r for chaining.
func (r *Runner) On(match string, output string, err error) *Runner {
	r.Rules = append(r.Rules, Rule{Match: match, Output: []byte(output), Err: err})
	return r
}

// Calls returns the commands run so far.
func (r *Runner) Calls() []gotool.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gotool.Command(nil), r.calls...)
}

// Ran reports whether any command so far contained match.
func (r *Runner) Ran(match string) bool {
	for _, c := range r.Calls() {
		if strings.Contains(c.String(), match) {
			return true
		}
	}
	return false
}

func (r *Runner) run(cmd gotool.Command) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()

	s := cmd.String()
	for _, rule := range r.Rules {
		if !strings.Contains(s, rule.Match) {
			continue
		}
		if rule.Do != nil {
			if err := rule.Do(cmd); err != nil {
				return nil, err
			}
		}
		if rule.Err != nil {
			return rule.Output, &gotool.ExitError{Command: cmd, Output: rule.Output, Err: rule.Err}
		}
		return rule.Output, nil
	}
	return nil, &gotool.ExitError{Command: cmd, Err: fmt.Errorf("no rule for %q", s)}
}

func (r *Runner) Output(ctx context.Context, cmd gotool.Command) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.run(cmd)
}

func (r *Runner) CombinedOutput(ctx context.Context, cmd gotool.Command) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.run(cmd)
}
