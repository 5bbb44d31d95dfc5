// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/config"
	"golang.org/x/benchprof/internal/gotool/gotooltest"
	"golang.org/x/benchprof/storage"
)

const top = "Type: cpu\n" +
	"      flat  flat%   sum%        cum   cum%\n" +
	"      30ms 60.00% 60.00%       30ms 60.00% example.com/app.Encode\n" +
	"      10ms 20.00% 80.00%       40ms 80.00% runtime.mallocgc\n" +
	"       5ms 10.00% 90.00%        5ms 10.00% example.com/app.(*Pool).Get\n"

func newCollector(t *testing.T, r *gotooltest.Runner) *Collector {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return &Collector{
		Store:  storage.New(filepath.Join(t.TempDir(), "bench")),
		Runner: r,
		Config: new(config.Config),
		Log:    logger,
	}
}

func dump(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("dump"), 0o644))
	return path
}

func TestName(t *testing.T) {
	assert.Equal(t, "cpu", Name("/tmp/x/cpu.out"))
	assert.Equal(t, "mem.v2", Name("mem.v2.prof"))
	assert.Equal(t, "heap", Name("heap"))
}

func TestCollect(t *testing.T) {
	r := (&gotooltest.Runner{}).
		On("-top", top, nil).
		On("-list=Get", "", errors.New("exit status 1")).
		On("-list=", "ROUTINE ===\n", nil)
	c := newCollector(t, r)
	c.Config.Benchmarks = map[string]config.BenchmarkFilter{
		"cpu": {Prefixes: []string{"example.com/app"}},
	}

	stale := filepath.Join(c.Store.TagDir("manual"), "old", "old.txt")
	require.NoError(t, storage.WriteFile(stale, []byte("x")))

	cpu := dump(t, "cpu.out")
	res, err := c.Collect(context.Background(), "manual", []string{cpu})
	require.NoError(t, err)

	assert.NoFileExists(t, stale)
	listing, err := os.ReadFile(c.Store.ManualListingFile("manual", "cpu"))
	require.NoError(t, err)
	assert.Equal(t, top, string(listing))

	assert.Equal(t, []string{"Encode"}, res.Functions["cpu"])
	assert.Equal(t, []string{"Get"}, res.Failed["cpu"])
	assert.FileExists(t, c.Store.ManualFunctionFile("manual", "cpu", "Encode"))
	assert.NoFileExists(t, c.Store.ManualFunctionFile("manual", "cpu", "mallocgc"))
	assert.True(t, r.Ran("-list=Encode "+cpu))
}

func TestCollectWithoutFilter(t *testing.T) {
	r := (&gotooltest.Runner{}).On("-top", top, nil).On("-list=", "ok\n", nil)
	c := newCollector(t, r)
	c.Config = nil

	res, err := c.Collect(context.Background(), "manual", []string{dump(t, "cpu.out")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Encode", "mallocgc", "Get"}, res.Functions["cpu"])
}

func TestCollectErrors(t *testing.T) {
	c := newCollector(t, (&gotooltest.Runner{}).On("-top", "no header here\n", nil))

	_, err := c.Collect(context.Background(), "manual", nil)
	assert.True(t, errors.Is(err, benchprof.ErrConfig))

	_, err = c.Collect(context.Background(), "manual", []string{filepath.Join(t.TempDir(), "missing.out")})
	assert.True(t, errors.Is(err, benchprof.ErrProfileMissing))

	a, b := dump(t, "cpu.out"), dump(t, "cpu.prof")
	_, err = c.Collect(context.Background(), "manual", []string{a, b})
	assert.True(t, errors.Is(err, benchprof.ErrConfig))

	_, err = c.Collect(context.Background(), "manual", []string{a})
	assert.True(t, errors.Is(err, benchprof.ErrInvalidHeader))
	assert.FileExists(t, c.Store.ManualListingFile("manual", "cpu"))
}
