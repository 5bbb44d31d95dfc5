// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/analysis"
	"golang.org/x/benchprof/analysis/chat"
	"golang.org/x/benchprof/bench"
	"golang.org/x/benchprof/config"
	"golang.org/x/benchprof/internal/gotool"
	"golang.org/x/benchprof/internal/gotool/gotooltest"
	"golang.org/x/benchprof/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	runOutput = "goos: linux\ngoarch: amd64\npkg: example.com/p\n" +
		"BenchmarkGood-8   100   12.5 ns/op   8 B/op   1 allocs/op\n" +
		"BenchmarkGood-8   100   13.5 ns/op   8 B/op   1 allocs/op\n" +
		"PASS\nok  example.com/p 0.1s\n"

	topOutput = "File: p.test\nType: cpu\nTime: Jan 1, 2024\nDuration: 1s\nShowing nodes\n" +
		"      flat  flat%   sum%        cum   cum%\n" +
		"      10ms 50.00% 50.00%       20ms   100% example.com/p.Alpha\n" +
		"       5ms 25.00% 75.00%        5ms 25.00% example.com/p.beta (inline)\n"
)

// dumpsIn returns a rule action that leaves a dump for each kind in
// the command's working directory.
func dumpsIn(kinds ...benchprof.Kind) func(gotool.Command) error {
	return func(cmd gotool.Command) error {
		for _, k := range kinds {
			f, _ := bench.DefaultFile(k)
			if err := os.WriteFile(filepath.Join(cmd.Dir, f), []byte("dump"), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
}

func newPipeline(t *testing.T, rules ...gotooltest.Rule) (*Pipeline, *gotooltest.Runner) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	r := &gotooltest.Runner{Rules: rules}
	p := &Pipeline{
		Store:  storage.New(filepath.Join(t.TempDir(), "bench")),
		Runner: r,
		Config: new(config.Config),
		Log:    logger,
		Dir:    t.TempDir(),
		Stage: bench.Stage{
			WaitTimeout:  100 * time.Millisecond,
			WaitInterval: 10 * time.Millisecond,
		},
	}
	return p, r
}

func pprofRules() []gotooltest.Rule {
	return []gotooltest.Rule{
		{Match: "-top", Output: []byte(topOutput)},
		{Match: "-png", Output: []byte("\x89PNG")},
		{Match: "-list=", Output: []byte("ROUTINE ======================== listing\n")},
	}
}

func TestRun(t *testing.T) {
	rules := append([]gotooltest.Rule{
		{Match: "-bench=^BenchmarkBad$", Output: []byte("--- FAIL: BenchmarkBad\nFAIL\n"), Err: errors.New("exit status 1")},
		{Match: "go test", Output: []byte(runOutput), Do: dumpsIn(benchprof.CPU)},
	}, pprofRules()...)
	p, r := newPipeline(t, rules...)

	rep, err := p.Run(context.Background(), Options{
		Tag:        "v1",
		Benchmarks: []string{"BenchmarkBad", "BenchmarkGood"},
		Kinds:      []benchprof.Kind{benchprof.CPU},
		Iterations: 2,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, benchprof.ErrBenchmarkFailed))
	assert.Equal(t, benchprof.ExitBenchmarkFailed, benchprof.ExitCode(err))

	require.Len(t, rep.Benchmarks, 2)
	bad, good := rep.Benchmarks[0], rep.Benchmarks[1]
	assert.Error(t, bad.Err)
	assert.Empty(t, bad.Converted)
	assert.FileExists(t, p.Store.RunOutputFile("v1", "BenchmarkBad"))

	assert.NoError(t, good.Err)
	assert.Equal(t, []benchprof.Kind{benchprof.CPU}, good.Converted)
	assert.Equal(t, []string{"Alpha", "beta"}, good.Functions[benchprof.CPU])

	for _, path := range []string{
		p.Store.ListingFile("v1", "BenchmarkGood", benchprof.CPU),
		p.Store.ImageFile("v1", "BenchmarkGood", benchprof.CPU),
		p.Store.FunctionListingFile("v1", "BenchmarkGood", benchprof.CPU, "Alpha"),
		p.Store.FunctionListingFile("v1", "BenchmarkGood", benchprof.CPU, "beta"),
	} {
		assert.FileExists(t, path)
	}

	sum, err := os.ReadFile(p.Store.SummaryFile("v1", "BenchmarkGood"))
	require.NoError(t, err)
	assert.Contains(t, string(sum), "ns/op")
	assert.Contains(t, string(sum), "13")

	assert.False(t, r.Ran(p.Store.DumpFile("v1", "BenchmarkBad", benchprof.CPU)), "failed benchmark must not be converted")
}

func TestRunModuleNotFound(t *testing.T) {
	p, r := newPipeline(t, gotooltest.Rule{
		Match:  "go test",
		Output: []byte("go: cannot find main module, but found .git/config\n"),
		Err:    errors.New("exit status 1"),
	})
	rep, err := p.Run(context.Background(), Options{
		Tag:        "v1",
		Benchmarks: []string{"BenchmarkA", "BenchmarkB"},
		Iterations: 1,
	})
	require.Error(t, err)
	assert.Equal(t, benchprof.ExitModuleNotFound, benchprof.ExitCode(err))
	assert.Len(t, rep.Benchmarks, 1)
	assert.Len(t, r.Calls(), 1)
}

func TestRunInvalidOptions(t *testing.T) {
	for _, test := range []struct {
		name string
		opts Options
	}{
		{"no benchmarks", Options{Tag: "v1", Iterations: 1}},
		{"zero iterations", Options{Tag: "v1", Benchmarks: []string{"BenchmarkA"}}},
		{"unknown kind", Options{Tag: "v1", Benchmarks: []string{"BenchmarkA"}, Iterations: 1, Kinds: []benchprof.Kind{"heap"}}},
		{"analysis without client", Options{Tag: "v1", Benchmarks: []string{"BenchmarkA"}, Iterations: 1, Analyze: true}},
	} {
		t.Run(test.name, func(t *testing.T) {
			p, r := newPipeline(t)
			_, err := p.Run(context.Background(), test.opts)
			assert.True(t, errors.Is(err, benchprof.ErrConfig), "got %v", err)
			assert.Empty(t, r.Calls())
			assert.NoDirExists(t, p.Store.TagDir("v1"))
		})
	}
}

type cannedAnalyzer struct {
	seen []string
}

func (a *cannedAnalyzer) Analyze(ctx context.Context, msgs []chat.Message) (string, error) {
	a.seen = append(a.seen, msgs[len(msgs)-1].Content)
	return "looks fine", nil
}

func TestRunAnalyze(t *testing.T) {
	rules := append([]gotooltest.Rule{
		{Match: "go test", Output: []byte(runOutput), Do: dumpsIn(benchprof.CPU, benchprof.Trace)},
	}, pprofRules()...)
	p, _ := newPipeline(t, rules...)

	prompt := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(prompt, []byte("  You are a profiler.\n"), 0o644))
	p.Config = &config.Config{
		APIKey:  "k",
		BaseURL: "http://model.invalid",
		Model:   config.ModelConfig{Model: "m", PromptLocation: prompt},
		AI:      config.AIConfig{AllBenchmarks: true, AllProfiles: true},
	}
	a := new(cannedAnalyzer)
	p.Analyzer = a

	rep, err := p.Run(context.Background(), Options{
		Tag:        "v2",
		Benchmarks: []string{"BenchmarkGood"},
		Kinds:      []benchprof.Kind{benchprof.CPU, benchprof.Trace},
		Iterations: 1,
		Analyze:    true,
	})
	require.NoError(t, err)
	require.NotNil(t, rep.Analysis)
	assert.Len(t, rep.Analysis.Analyzed, 1)
	require.Len(t, a.seen, 1)
	assert.True(t, strings.HasPrefix(a.seen[0], "BenchmarkName: BenchmarkGood\nProfile Type: cpu\n"))

	out, err := os.ReadFile(p.Store.AnalysisFile("v2", "BenchmarkGood", benchprof.CPU))
	require.NoError(t, err)
	assert.Contains(t, string(out), "looks fine")
}

func TestRunAnalyzeSkipsMissingDump(t *testing.T) {
	rules := append([]gotooltest.Rule{
		{Match: "go test", Output: []byte(runOutput), Do: dumpsIn(benchprof.CPU)},
	}, pprofRules()...)
	p, _ := newPipeline(t, rules...)

	prompt := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(prompt, []byte("You are a profiler."), 0o644))
	p.Config = &config.Config{
		APIKey:  "k",
		BaseURL: "http://model.invalid",
		Model:   config.ModelConfig{Model: "m", PromptLocation: prompt},
		AI:      config.AIConfig{AllBenchmarks: true, AllProfiles: true},
	}
	a := new(cannedAnalyzer)
	p.Analyzer = a

	rep, err := p.Run(context.Background(), Options{
		Tag:        "v3",
		Benchmarks: []string{"BenchmarkGood"},
		Kinds:      []benchprof.Kind{benchprof.Memory, benchprof.CPU},
		Iterations: 1,
		Analyze:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, []benchprof.Kind{benchprof.Memory}, rep.Benchmarks[0].Run.Skipped)
	assert.Equal(t, []benchprof.Kind{benchprof.CPU}, rep.Benchmarks[0].Converted)
	require.NotNil(t, rep.Analysis)
	assert.Equal(t, []analysis.Pair{{Benchmark: "BenchmarkGood", Kind: benchprof.CPU}}, rep.Analysis.Analyzed)
	assert.Equal(t, []analysis.Pair{{Benchmark: "BenchmarkGood", Kind: benchprof.Memory}}, rep.Analysis.Skipped)
	assert.Empty(t, rep.Analysis.Failed)
	assert.Len(t, a.seen, 1)
}
