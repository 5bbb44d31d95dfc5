// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/analysis"
	"golang.org/x/benchprof/analysis/chat"
	"golang.org/x/benchprof/config"
	"golang.org/x/benchprof/internal/gotool"
	"golang.org/x/benchprof/storage"
)

// env is the state shared by every command.
type env struct {
	stdout io.Writer
	log    *logrus.Logger
	runner gotool.Runner

	// Flags.
	configPath string
	root       string
	verbose    bool

	// newAnalyzer builds the model client used by run and analyze.
	newAnalyzer func(ctx context.Context, cfg *config.Config) analysis.Analyzer
}

func newEnv(stdout, stderr io.Writer) *env {
	log := logrus.New()
	log.SetOutput(stderr)
	return &env{
		stdout:      stdout,
		log:         log,
		runner:      gotool.ExecRunner{},
		newAnalyzer: chatAnalyzer,
	}
}

func chatAnalyzer(ctx context.Context, cfg *config.Config) analysis.Analyzer {
	return chat.NewClient(ctx, cfg.BaseURL, cfg.APIKey, chat.Params{
		Model:       cfg.Model.Model,
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
		TopP:        cfg.Model.TopP,
	})
}

func (e *env) config() (*config.Config, error) {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (e *env) store() *storage.Store {
	return storage.New(e.root)
}

// usageError marks err as a command line mistake.
func usageError(err error) error {
	return fmt.Errorf("%w: %v", benchprof.ErrConfig, err)
}

// required reports a usage error if the flag name was left empty.
func required(name, value string) error {
	if value == "" {
		return usageError(fmt.Errorf("required flag --%s not set", name))
	}
	return nil
}

// args wraps a positional argument check so its failures are usage
// errors.
func args(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := check(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "prof",
		Short:         "Profile Go benchmarks and organize the results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if e.verbose {
				e.log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	pf := root.PersistentFlags()
	pf.StringVar(&e.configPath, "config", "", "configuration `file` (default: module config_template.json, then XDG config)")
	pf.StringVar(&e.root, "root", storage.DefaultRoot, "artifact `directory`")
	pf.BoolVarP(&e.verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(
		newRunCmd(e),
		newManualCmd(e),
		newAnalyzeCmd(e),
		newTrackCmd(e),
		newListCmd(e),
		newSetupCmd(e),
		newCleanCmd(e),
	)
	return root
}

// execute runs the command line in a and returns the process exit
// status.
func execute(ctx context.Context, e *env, a []string) int {
	root := newRootCmd(e)
	root.SetArgs(a)
	root.SetOut(e.stdout)
	root.SetErr(e.log.Out)
	err := root.ExecuteContext(ctx)
	if err != nil {
		e.log.Error(err)
	}
	return benchprof.ExitCode(err)
}

func fmtUnknownKind(k string) error {
	return fmt.Errorf("unknown profile kind %q", k)
}
