// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the JSON configuration of the prof tool.
//
// A Config is an ordinary value: it is loaded once and handed to the
// stages that need it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"golang.org/x/benchprof"
	"golang.org/x/benchprof/extract"
)

// File names searched by DefaultPath.
const (
	TemplateName  = "config_template.json"
	XDGConfigFile = "prof/config.json"
)

// APIKeyEnv overrides Config.APIKey when set.
const APIKeyEnv = "PROF_API_KEY"

// GlobalBenchmark is the benchmark_configs key that applies to
// benchmarks without an entry of their own.
const GlobalBenchmark = "*"

// Config is the decoded configuration file.
type Config struct {
	APIKey     string                     `json:"api_key"`
	BaseURL    string                     `json:"base_url"`
	Model      ModelConfig                `json:"model_config"`
	Benchmarks map[string]BenchmarkFilter `json:"benchmark_configs"`
	AI         AIConfig                   `json:"ai_config"`
	Tracker    TrackerConfig              `json:"tracker"`
}

// ModelConfig holds the chat completion parameters.
type ModelConfig struct {
	Model          string  `json:"model"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float32 `json:"temperature"`
	TopP           float32 `json:"top_p"`
	PromptLocation string  `json:"prompt_location"`
}

// BenchmarkFilter narrows function extraction for one benchmark.
type BenchmarkFilter struct {
	// Prefixes admits only symbols containing one of these.
	Prefixes []string `json:"prefixes"`
	// Ignore is a comma-separated list of canonical names to skip.
	Ignore string `json:"ignore,omitempty"`
}

// IgnoreList splits Ignore into names, dropping blanks.
func (b BenchmarkFilter) IgnoreList() []string {
	var names []string
	for _, f := range strings.Split(b.Ignore, ",") {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	return names
}

// AIConfig selects what the analysis dispatcher sends to the model.
type AIConfig struct {
	AllBenchmarks      bool     `json:"all_benchmarks"`
	AllProfiles        bool     `json:"all_profiles"`
	SpecificBenchmarks []string `json:"specific_benchmarks"`
	SpecificProfiles   []string `json:"specific_profiles"`
	// ContinueOnError keeps dispatching after a failed analysis.
	ContinueOnError bool          `json:"continue_on_error"`
	Filter          *GlobalFilter `json:"universal_profile_filter,omitempty"`
}

// GlobalFilter applies to every listing.
type GlobalFilter struct {
	Thresholds      extract.Thresholds `json:"profile_values"`
	IgnoreFunctions []string           `json:"ignore_functions,omitempty"`
	IgnorePrefixes  []string           `json:"ignore_prefixes,omitempty"`
}

// TrackerConfig holds the defaults of prof track.
type TrackerConfig struct {
	// RegressionThreshold fails a comparison whose worst regression
	// reaches this percentage. Zero disables the gate.
	RegressionThreshold float64 `json:"regression_threshold"`
	// MinChange hides functions that changed by less than this
	// percentage.
	MinChange float64 `json:"min_change"`
}

// Load reads the configuration at path. An empty path means
// DefaultPath; if that finds nothing, Load returns an empty Config.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return applyEnv(&Config{}), nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return applyEnv(&Config{}), nil
		}
		return nil, fmt.Errorf("%w: %v", benchprof.ErrConfig, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", benchprof.ErrConfig, path, err)
	}
	return applyEnv(cfg), nil
}

// Parse decodes and validates a configuration file's contents.
func Parse(data []byte) (*Config, error) {
	cfg := new(Config)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) *Config {
	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.APIKey = key
	}
	return cfg
}

// DefaultPath returns the configuration file used when none is given:
// the template at the root of the enclosing Go module, or the user's
// XDG configuration file. It returns "" if neither exists.
func DefaultPath() string {
	if wd, err := os.Getwd(); err == nil {
		if root, err := FindModuleRoot(wd); err == nil {
			p := filepath.Join(root, TemplateName)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	if p, err := xdg.SearchConfigFile(XDGConfigFile); err == nil {
		return p
	}
	return ""
}

// FindModuleRoot returns the closest directory at or above dir that
// holds a go.mod file.
func FindModuleRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", benchprof.ErrModuleNotFound
		}
		dir = parent
	}
}

// Validate checks the values every command relies on.
func (c *Config) Validate() error {
	if f := c.AI.Filter; f != nil {
		t := f.Thresholds
		for name, v := range map[string]float64{
			"flat": t.Flat, "flat%": t.FlatPercent, "sum%": t.SumPercent,
			"cum": t.Cum, "cum%": t.CumPercent,
		} {
			if v < 0 {
				return fmt.Errorf("%w: profile_values.%s must not be negative", benchprof.ErrConfig, name)
			}
		}
	}
	for _, p := range c.AI.SpecificProfiles {
		if !benchprof.Kind(p).Known() {
			return fmt.Errorf("%w: unknown profile kind %q in specific_profiles", benchprof.ErrConfig, p)
		}
	}
	if c.Tracker.RegressionThreshold < 0 || c.Tracker.MinChange < 0 {
		return fmt.Errorf("%w: tracker thresholds must not be negative", benchprof.ErrConfig)
	}
	return nil
}

// ValidateAnalysis checks the values needed to contact the model.
func (c *Config) ValidateAnalysis() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var missing []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"api_key", c.APIKey != ""},
		{"base_url", c.BaseURL != ""},
		{"model_config.model", c.Model.Model != ""},
		{"model_config.prompt_location", c.Model.PromptLocation != ""},
	} {
		if !f.set {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", benchprof.ErrConfig, strings.Join(missing, ", "))
	}
	if !c.AI.AllBenchmarks && len(c.AI.SpecificBenchmarks) == 0 {
		return fmt.Errorf("%w: specific_benchmarks is empty and all_benchmarks is false", benchprof.ErrConfig)
	}
	if !c.AI.AllProfiles && len(c.AI.SpecificProfiles) == 0 {
		return fmt.Errorf("%w: specific_profiles is empty and all_profiles is false", benchprof.ErrConfig)
	}
	return nil
}

// benchmarkFilter returns the entry for bench, or the global entry.
func (c *Config) benchmarkFilter(bench string) (BenchmarkFilter, bool) {
	if b, ok := c.Benchmarks[bench]; ok {
		return b, true
	}
	b, ok := c.Benchmarks[GlobalBenchmark]
	return b, ok
}

// FilterFor returns the filter that selects functions of bench for
// per-function listings: the global thresholds and ignore lists, plus
// the include prefixes and ignored names of the benchmark's entry.
func (c *Config) FilterFor(bench string) *extract.Filter {
	f := new(extract.Filter)
	if g := c.AI.Filter; g != nil {
		f.Thresholds = g.Thresholds
		f.IgnoreFunctions = append(f.IgnoreFunctions, g.IgnoreFunctions...)
		f.IgnorePrefixes = append(f.IgnorePrefixes, g.IgnorePrefixes...)
	}
	if b, ok := c.benchmarkFilter(bench); ok {
		f.IncludePrefixes = append(f.IncludePrefixes, b.Prefixes...)
		f.IgnoreFunctions = append(f.IgnoreFunctions, b.IgnoreList()...)
	}
	return f
}

// DisplayFilter returns the filter applied to listings before they are
// sent to the model. A nil filter keeps every row.
func (c *Config) DisplayFilter() *extract.Filter {
	g := c.AI.Filter
	if g == nil {
		return nil
	}
	return &extract.Filter{
		Thresholds:      g.Thresholds,
		IgnoreFunctions: g.IgnoreFunctions,
		IgnorePrefixes:  g.IgnorePrefixes,
	}
}

// SelectsBenchmark reports whether bench should be analyzed.
func (a *AIConfig) SelectsBenchmark(bench string) bool {
	return a.AllBenchmarks || contains(a.SpecificBenchmarks, bench)
}

// SelectsKind reports whether profiles of kind should be analyzed.
func (a *AIConfig) SelectsKind(kind benchprof.Kind) bool {
	return a.AllProfiles || contains(a.SpecificProfiles, string(kind))
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
