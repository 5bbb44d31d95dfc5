// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/extract"
)

func TestLoad(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	cfg, err := Load(filepath.Join("testdata", "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "test-model", cfg.Model.Model)
	assert.Equal(t, 512, cfg.Model.MaxTokens)
	assert.InDelta(t, 0.9, cfg.Model.TopP, 1e-6)
	assert.True(t, cfg.AI.ContinueOnError)
	require.NotNil(t, cfg.AI.Filter)
	assert.Equal(t, extract.Thresholds{Flat: 0.1, CumPercent: 2.5}, cfg.AI.Filter.Thresholds)
	assert.Equal(t, 10.0, cfg.Tracker.RegressionThreshold)
	require.NoError(t, cfg.ValidateAnalysis())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")
	cfg, err := Load(filepath.Join("testdata", "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestLoadMissingExplicit(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, benchprof.ErrConfig)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := Load(path)
	assert.ErrorIs(t, err, benchprof.ErrConfig)
}

func TestLoadDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(dir, "xdg-dirs"))
	t.Setenv(APIKeyEnv, "")
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	// Outside any module and without a user file, the config is empty.
	t.Chdir(dir)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)

	// The user file is found through XDG.
	user := filepath.Join(dir, "xdg", "prof", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(user), 0o755))
	require.NoError(t, os.WriteFile(user, []byte(`{"base_url": "user"}`), 0o644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "user", cfg.BaseURL)

	// A template at the module root wins.
	mod := filepath.Join(dir, "mod")
	sub := filepath.Join(mod, "pkg", "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mod, "go.mod"), []byte("module example.com/m\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(mod, TemplateName), []byte(`{"base_url": "module"}`), 0o644))
	t.Chdir(sub)
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "module", cfg.BaseURL)
}

func TestFindModuleRoot(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module m\n"), 0o644))

	root, err := FindModuleRoot(sub)
	require.NoError(t, err)
	want, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, want, root)
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name string
		json string
	}{
		{"negative threshold", `{"ai_config": {"universal_profile_filter": {"profile_values": {"cum%": -1}}}}`},
		{"unknown kind", `{"ai_config": {"specific_profiles": ["heap"]}}`},
		{"negative tracker", `{"tracker": {"min_change": -2}}`},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.json))
			assert.ErrorIs(t, err, benchprof.ErrConfig)
		})
	}
}

func TestValidateAnalysis(t *testing.T) {
	cfg := Template()
	require.NoError(t, cfg.ValidateAnalysis())

	cfg.APIKey = ""
	cfg.Model.PromptLocation = ""
	err := cfg.ValidateAnalysis()
	require.ErrorIs(t, err, benchprof.ErrConfig)
	assert.Contains(t, err.Error(), "api_key")
	assert.Contains(t, err.Error(), "prompt_location")

	cfg = Template()
	cfg.AI.AllProfiles = false
	assert.ErrorIs(t, cfg.ValidateAnalysis(), benchprof.ErrConfig)
	cfg.AI.SpecificProfiles = []string{"cpu"}
	assert.NoError(t, cfg.ValidateAnalysis())
}

func TestFilterFor(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.json"))
	require.NoError(t, err)

	f := cfg.FilterFor("BenchmarkGet")
	assert.Equal(t, extract.Thresholds{Flat: 0.1, CumPercent: 2.5}, f.Thresholds)
	assert.Equal(t, []string{"example/pool"}, f.IncludePrefixes)
	assert.Equal(t, []string{"gcBgMarkWorker", "init", "TestMain"}, f.IgnoreFunctions)
	assert.Equal(t, []string{"runtime."}, f.IgnorePrefixes)

	// Benchmarks without an entry use the "*" entry.
	f = cfg.FilterFor("BenchmarkOther")
	assert.Equal(t, []string{"example"}, f.IncludePrefixes)
	assert.Equal(t, []string{"gcBgMarkWorker", "main"}, f.IgnoreFunctions)

	// An empty config filters nothing.
	f = (&Config{}).FilterFor("BenchmarkOther")
	assert.Equal(t, &extract.Filter{}, f)
	assert.Nil(t, (&Config{}).DisplayFilter())

	d := cfg.DisplayFilter()
	require.NotNil(t, d)
	assert.Empty(t, d.IncludePrefixes)
	assert.Equal(t, []string{"gcBgMarkWorker"}, d.IgnoreFunctions)
}

func TestSelection(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.json"))
	require.NoError(t, err)
	assert.True(t, cfg.AI.SelectsBenchmark("BenchmarkGet"))
	assert.False(t, cfg.AI.SelectsBenchmark("BenchmarkPut"))
	// all_profiles overrides the specific list.
	assert.True(t, cfg.AI.SelectsKind(benchprof.Mutex))
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", TemplateName)
	require.NoError(t, WriteTemplate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Template(), cfg)

	// Existing files are left alone.
	assert.ErrorIs(t, WriteTemplate(path), benchprof.ErrSetup)
}
