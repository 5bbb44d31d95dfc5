// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gotool runs the go command and the profiler it ships with.
//
// Stages describe invocations as Command values and execute them
// through a Runner, so tests can substitute a scripted runner for the
// real toolchain.
package gotool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// A Command is one invocation of an external program.
type Command struct {
	Name string
	Args []string
	Dir  string // working directory; empty means the current one
}

// Go returns a command invoking the go tool with args.
func Go(args ...string) Command {
	return Command{Name: "go", Args: args}
}

// In returns a copy of c that runs in dir.
func (c Command) In(dir string) Command {
	c.Dir = dir
	return c
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// A Runner executes commands.
type Runner interface {
	// Output runs cmd and returns its standard output.
	// Standard error is attached to the returned error on failure.
	Output(ctx context.Context, cmd Command) ([]byte, error)
	// CombinedOutput runs cmd and returns standard output and standard
	// error interleaved, even when the command fails.
	CombinedOutput(ctx context.Context, cmd Command) ([]byte, error)
}

// An ExitError reports a command that could not be started or exited
// unsuccessfully.
type ExitError struct {
	Command Command
	Output  []byte // stderr for Output, everything for CombinedOutput
	Err     error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if out := strings.TrimSpace(string(e.Output)); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	// Env, if non-nil, replaces the environment of the child.
	Env []string
}

func (r ExecRunner) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}
	return cmd
}

func (r ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	cmd := r.command(ctx, c)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, &ExitError{Command: c, Output: stderr.Bytes(), Err: err}
	}
	return out, nil
}

func (r ExecRunner) CombinedOutput(ctx context.Context, c Command) ([]byte, error) {
	out, err := r.command(ctx, c).CombinedOutput()
	if err != nil {
		return out, &ExitError{Command: c, Output: out, Err: err}
	}
	return out, nil
}
