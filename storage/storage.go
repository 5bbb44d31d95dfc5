// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storage manages the on-disk artifact layout of a profiling
// session.
//
// Every session is identified by a tag and owns the directory
// <root>/<tag>:
//
//	bin/<bench>/                 raw profile dumps and test binaries
//	text/<bench>/                go test output and ranked listings
//	<kind>_functions/<bench>/    per-function listings and images
//	AI/generalistic/<bench>/     analysis results
//	description.txt              free-form session notes
//
// Comparisons that span sessions are written under <root>/tools, which
// is therefore not a valid tag.
//
// Stages never delete files; only CreateTagLayout and Clean do.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/benchprof"
)

// DefaultRoot is the directory sessions are created under when a Store
// has no explicit root.
const DefaultRoot = "bench"

// Permissions for created directories and files.
const (
	PermDir  fs.FileMode = 0o755
	PermFile fs.FileMode = 0o644
)

// Fixed element names of the layout.
const (
	BinDirName         = "bin"
	TextDirName        = "text"
	FunctionsSuffix    = "_functions"
	DescriptionName    = "description.txt"
	AnalysisDirName    = "AI"
	AnalysisFlavor     = "generalistic"
	analysisFilePrefix = "generalistic_analysis_"
	manualFunctionsDir = "functions"
	ToolsDirName       = "tools"
	BenchstatDirName   = "benchstat"
	resultsSuffix      = "_results.txt"
)

// A Store addresses the artifacts of every session under Root.
type Store struct {
	Root string
}

// New returns a Store rooted at root, or at DefaultRoot if root is empty.
func New(root string) *Store {
	if root == "" {
		root = DefaultRoot
	}
	return &Store{Root: root}
}

// ValidTag reports an error if tag cannot be used as a single directory
// name.
func ValidTag(tag string) error {
	switch {
	case tag == "", tag == ".", tag == "..":
		return fmt.Errorf("%w: invalid tag %q", benchprof.ErrSetup, tag)
	case strings.ContainsAny(tag, `/\`):
		return fmt.Errorf("%w: tag %q must not contain path separators", benchprof.ErrSetup, tag)
	case tag == ToolsDirName:
		return fmt.Errorf("%w: tag %q is reserved", benchprof.ErrSetup, tag)
	}
	return nil
}

// CreateTagLayout prepares the directory tree for a session. An existing
// tree for tag is removed first, so the resulting layout is the same no
// matter how many times this is called.
//
// Function directories are only created for kinds with a tabular form.
func (s *Store) CreateTagLayout(tag string, benchmarks []string, kinds []benchprof.Kind) error {
	if err := ValidTag(tag); err != nil {
		return err
	}
	dir := s.TagDir(tag)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: clearing %s: %v", benchprof.ErrSetup, dir, err)
	}

	var dirs []string
	for _, b := range benchmarks {
		dirs = append(dirs, s.BinDir(tag, b), s.TextDir(tag, b))
		for _, k := range benchprof.TabularKinds(kinds) {
			dirs = append(dirs, s.FunctionDir(tag, k, b))
		}
	}
	if len(benchmarks) == 0 {
		dirs = append(dirs, dir)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, PermDir); err != nil {
			return fmt.Errorf("%w: %v", benchprof.ErrSetup, err)
		}
	}
	if err := os.WriteFile(s.DescriptionFile(tag), nil, PermFile); err != nil {
		return fmt.Errorf("%w: %v", benchprof.ErrSetup, err)
	}
	return nil
}

// Clean removes every artifact of tag. Removing a tag that does not
// exist is not an error.
func (s *Store) Clean(tag string) error {
	if err := ValidTag(tag); err != nil {
		return err
	}
	return os.RemoveAll(s.TagDir(tag))
}

// Tags lists the sessions under the store root in lexical order.
func (s *Store) Tags() ([]string, error) {
	dirs, err := subdirs(s.Root)
	if err != nil {
		return nil, err
	}
	tags := dirs[:0]
	for _, d := range dirs {
		if d != ToolsDirName {
			tags = append(tags, d)
		}
	}
	return tags, nil
}

// Benchmarks lists the benchmarks that have a text directory in tag.
func (s *Store) Benchmarks(tag string) ([]string, error) {
	return subdirs(filepath.Join(s.TagDir(tag), TextDirName))
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// WriteFile writes data to path, creating its parent directory if needed.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), PermDir); err != nil {
		return err
	}
	return os.WriteFile(path, data, PermFile)
}

// Exists reports whether path names an existing regular file with
// content.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}
