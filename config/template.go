// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/benchprof"
	"golang.org/x/benchprof/extract"
)

// Template returns an example configuration with every field present.
func Template() *Config {
	return &Config{
		APIKey:  "your-api-key",
		BaseURL: "https://api.openai.com/v1",
		Model: ModelConfig{
			Model:          "gpt-4-turbo-preview",
			MaxTokens:      4096,
			Temperature:    0.7,
			TopP:           1.0,
			PromptLocation: "prompt.txt",
		},
		Benchmarks: map[string]BenchmarkFilter{
			"BenchmarkGenPool": {
				Prefixes: []string{"github.com/example/GenPool"},
				Ignore:   "init,TestMain",
			},
			GlobalBenchmark: {Prefixes: []string{}},
		},
		AI: AIConfig{
			AllBenchmarks:      true,
			AllProfiles:        true,
			SpecificBenchmarks: []string{},
			SpecificProfiles:   []string{},
			Filter: &GlobalFilter{
				Thresholds:      extract.Thresholds{},
				IgnoreFunctions: []string{"runtime.gcBgMarkWorker"},
				IgnorePrefixes:  []string{"runtime.", "testing."},
			},
		},
		Tracker: TrackerConfig{RegressionThreshold: 5, MinChange: 1},
	}
}

// WriteTemplate writes Template to path. It does not overwrite an
// existing file.
func WriteTemplate(path string) error {
	data, err := json.MarshalIndent(Template(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", benchprof.ErrSetup, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", benchprof.ErrSetup, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
