// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/analysis/chat"
	"golang.org/x/benchprof/config"
	"golang.org/x/benchprof/extract"
	"golang.org/x/benchprof/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeAnalyzer records conversations and fails for listed benchmarks.
type fakeAnalyzer struct {
	calls [][]chat.Message
	fail  map[string]bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, msgs []chat.Message) (string, error) {
	f.calls = append(f.calls, msgs)
	for b := range f.fail {
		if strings.Contains(msgs[1].Content, "BenchmarkName: "+b+"\n") {
			return "", errors.New("model unavailable")
		}
	}
	return "all good", nil
}

const listing = `File: x.test
Type: cpu
Time: now
Duration: 1s
Showing nodes accounting for 1s
      flat  flat%   sum%        cum   cum%
     0.50s 50.00% 50.00%      0.90s 90.00%  pkg.Hot
     0.01s  1.00% 51.00%      0.01s  1.00%  runtime.cold
`

func setup(t *testing.T, benches ...string) (*Dispatcher, *fakeAnalyzer) {
	t.Helper()
	dir := t.TempDir()
	store := storage.New(filepath.Join(dir, "bench"))
	kinds := []benchprof.Kind{benchprof.CPU, benchprof.Memory}
	require.NoError(t, store.CreateTagLayout("v1", benches, kinds))
	for _, b := range benches {
		for _, k := range kinds {
			require.NoError(t, storage.WriteFile(store.ListingFile("v1", b, k), []byte(listing)))
		}
	}
	prompt := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(prompt, []byte("  You are a profiler.\n"), 0o644))

	fa := &fakeAnalyzer{fail: map[string]bool{}}
	logger, _ := test.NewNullLogger()
	d := &Dispatcher{
		Store:      store,
		Analyzer:   fa,
		Log:        logger,
		Filter:     &extract.Filter{IgnorePrefixes: []string{"runtime."}},
		PromptFile: prompt,
	}
	return d, fa
}

func TestAnalyzeOne(t *testing.T) {
	d, fa := setup(t, "BenchmarkA")
	path, err := d.AnalyzeOne(context.Background(), "v1", "BenchmarkA", benchprof.CPU)
	require.NoError(t, err)
	assert.Equal(t, d.Store.AnalysisFile("v1", "BenchmarkA", benchprof.CPU), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "Benchmark: BenchmarkA\nProfile Type: cpu\n" + strings.Repeat("=", 80) + "\n\nall good"
	assert.Equal(t, want, string(data))

	require.Len(t, fa.calls, 1)
	msgs := fa.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.Message{Role: chat.RoleSystem, Content: "You are a profiler."}, msgs[0])
	assert.Equal(t, chat.RoleUser, msgs[1].Role)
	assert.True(t, strings.HasPrefix(msgs[1].Content, "BenchmarkName: BenchmarkA\nProfile Type: cpu\n\nProfile Content: File: x.test\n"))
	assert.Contains(t, msgs[1].Content, "0.50s 50.00% 50.00%      0.90s 90.00%  pkg.Hot")
	assert.NotContains(t, msgs[1].Content, "runtime.cold")
}

func TestAnalyzeOneErrors(t *testing.T) {
	d, _ := setup(t, "BenchmarkA")
	ctx := context.Background()

	_, err := d.AnalyzeOne(ctx, "v1", "BenchmarkMissing", benchprof.CPU)
	assert.ErrorIs(t, err, benchprof.ErrProfileMissing)

	require.NoError(t, storage.WriteFile(d.Store.ListingFile("v1", "BenchmarkA", benchprof.Mutex), []byte("no header\n")))
	_, err = d.AnalyzeOne(ctx, "v1", "BenchmarkA", benchprof.Mutex)
	assert.ErrorIs(t, err, benchprof.ErrInvalidHeader)

	d.PromptFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = d.AnalyzeOne(ctx, "v1", "BenchmarkA", benchprof.CPU)
	assert.ErrorIs(t, err, benchprof.ErrConfig)
}

func TestDispatchAbort(t *testing.T) {
	d, fa := setup(t, "BenchmarkA", "BenchmarkB")
	fa.fail["BenchmarkA"] = true

	kinds := []benchprof.Kind{benchprof.CPU, benchprof.Trace, benchprof.Memory}
	sum, err := d.Dispatch(context.Background(), "v1", []string{"BenchmarkA", "BenchmarkB"}, kinds)
	require.Error(t, err)
	assert.ErrorIs(t, err, benchprof.ErrAnalysis)
	assert.Len(t, fa.calls, 1)
	assert.Equal(t, []Pair{{"BenchmarkA", benchprof.CPU}}, sum.Failed)
	assert.Empty(t, sum.Analyzed)
}

func TestDispatchContinue(t *testing.T) {
	d, fa := setup(t, "BenchmarkA", "BenchmarkB")
	fa.fail["BenchmarkA"] = true
	d.Policy = ContinueOnError

	kinds := []benchprof.Kind{benchprof.CPU, benchprof.Trace, benchprof.Memory}
	sum, err := d.Dispatch(context.Background(), "v1", []string{"BenchmarkA", "BenchmarkB"}, kinds)
	require.Error(t, err)
	assert.Len(t, fa.calls, 4, "trace is never analyzed")
	assert.Equal(t, []Pair{{"BenchmarkA", benchprof.CPU}, {"BenchmarkA", benchprof.Memory}}, sum.Failed)
	assert.Equal(t, []Pair{{"BenchmarkB", benchprof.CPU}, {"BenchmarkB", benchprof.Memory}}, sum.Analyzed)
	assert.FileExists(t, d.Store.AnalysisFile("v1", "BenchmarkB", benchprof.Memory))
	assert.NoFileExists(t, d.Store.AnalysisFile("v1", "BenchmarkA", benchprof.CPU))
}

func TestPairsSelection(t *testing.T) {
	cfg := &config.Config{AI: config.AIConfig{
		SpecificBenchmarks: []string{"BenchmarkB"},
		SpecificProfiles:   []string{"memory"},
		ContinueOnError:    true,
	}}
	logger, _ := test.NewNullLogger()
	d := New(cfg, storage.New(""), &fakeAnalyzer{}, logger)
	assert.Equal(t, ContinueOnError, d.Policy)

	got := d.Pairs([]string{"BenchmarkA", "BenchmarkB"}, []benchprof.Kind{benchprof.CPU, benchprof.Memory, benchprof.Trace})
	assert.Equal(t, []Pair{{"BenchmarkB", benchprof.Memory}}, got)

	d.Select = nil
	got = d.Pairs([]string{"BenchmarkA"}, benchprof.Kinds)
	assert.Equal(t, []Pair{{"BenchmarkA", benchprof.CPU}, {"BenchmarkA", benchprof.Memory},
		{"BenchmarkA", benchprof.Mutex}, {"BenchmarkA", benchprof.Block}}, got)
}

func TestDispatchSkipsMissingListing(t *testing.T) {
	d, fa := setup(t, "BenchmarkA", "BenchmarkB")
	require.NoError(t, os.Remove(d.Store.ListingFile("v1", "BenchmarkA", benchprof.Memory)))

	kinds := []benchprof.Kind{benchprof.Memory, benchprof.CPU, benchprof.Mutex}
	sum, err := d.Dispatch(context.Background(), "v1", []string{"BenchmarkA", "BenchmarkB"}, kinds)
	require.NoError(t, err)
	assert.Len(t, fa.calls, 3)
	assert.Equal(t, []Pair{{"BenchmarkA", benchprof.CPU}, {"BenchmarkB", benchprof.Memory}, {"BenchmarkB", benchprof.CPU}}, sum.Analyzed)
	assert.Equal(t, []Pair{{"BenchmarkA", benchprof.Memory}, {"BenchmarkA", benchprof.Mutex}, {"BenchmarkB", benchprof.Mutex}}, sum.Skipped)
	assert.Empty(t, sum.Failed)
}

func TestDispatchNothingToAnalyze(t *testing.T) {
	d, fa := setup(t, "BenchmarkA")
	sum, err := d.Dispatch(context.Background(), "v1", []string{"BenchmarkA"}, []benchprof.Kind{benchprof.Block})
	assert.ErrorIs(t, err, benchprof.ErrProfileMissing)
	assert.Empty(t, fa.calls)
	assert.Equal(t, []Pair{{"BenchmarkA", benchprof.Block}}, sum.Skipped)
}
