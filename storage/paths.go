// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"path/filepath"

	"golang.org/x/benchprof"
)

// TagDir returns <root>/<tag>.
func (s *Store) TagDir(tag string) string {
	return filepath.Join(s.Root, tag)
}

// BinDir returns the directory holding the dumps and test binaries of
// bench.
func (s *Store) BinDir(tag, bench string) string {
	return filepath.Join(s.TagDir(tag), BinDirName, bench)
}

// TextDir returns the directory holding the text artifacts of bench.
func (s *Store) TextDir(tag, bench string) string {
	return filepath.Join(s.TagDir(tag), TextDirName, bench)
}

// FunctionDir returns <tag>/<kind>_functions/<bench>.
func (s *Store) FunctionDir(tag string, kind benchprof.Kind, bench string) string {
	return filepath.Join(s.TagDir(tag), string(kind)+FunctionsSuffix, bench)
}

// DescriptionFile returns the path of the session notes.
func (s *Store) DescriptionFile(tag string) string {
	return filepath.Join(s.TagDir(tag), DescriptionName)
}

// RunOutputFile returns the path of the captured go test output.
func (s *Store) RunOutputFile(tag, bench string) string {
	return filepath.Join(s.TextDir(tag, bench), bench+".txt")
}

// SummaryFile returns the path of the per-metric statistics table.
func (s *Store) SummaryFile(tag, bench string) string {
	return filepath.Join(s.TextDir(tag, bench), bench+"_summary.txt")
}

// DumpFile returns the path a raw dump of kind is moved to.
func (s *Store) DumpFile(tag, bench string, kind benchprof.Kind) string {
	return filepath.Join(s.BinDir(tag, bench), bench+"_"+string(kind)+".out")
}

// TestBinaryFile returns the path a compiled test binary is moved to.
func (s *Store) TestBinaryFile(tag, bench, name string) string {
	return filepath.Join(s.BinDir(tag, bench), bench+"_"+name)
}

// ListingFile returns the path of the ranked listing of kind.
func (s *Store) ListingFile(tag, bench string, kind benchprof.Kind) string {
	return filepath.Join(s.TextDir(tag, bench), bench+"_"+string(kind)+".txt")
}

// ImageFile returns the path of the rendered call graph of kind.
func (s *Store) ImageFile(tag, bench string, kind benchprof.Kind) string {
	return filepath.Join(s.FunctionDir(tag, kind, bench), bench+"_"+string(kind)+".png")
}

// FunctionListingFile returns the path of the -list output for fn.
func (s *Store) FunctionListingFile(tag, bench string, kind benchprof.Kind, fn string) string {
	return filepath.Join(s.FunctionDir(tag, kind, bench), fn+".txt")
}

// AnalysisDir returns the directory holding the analyses of bench.
func (s *Store) AnalysisDir(tag, bench string) string {
	return filepath.Join(s.TagDir(tag), AnalysisDirName, AnalysisFlavor, bench)
}

// AnalysisFile returns the path of the analysis of kind for bench.
func (s *Store) AnalysisFile(tag, bench string, kind benchprof.Kind) string {
	return filepath.Join(s.AnalysisDir(tag, bench), analysisFilePrefix+string(kind)+".txt")
}

// Paths collects the artifact locations of one benchmark and kind.
type Paths struct {
	Dump        string
	Listing     string
	Image       string
	FunctionDir string
	Analysis    string
}

// Paths returns every artifact location of bench and kind in tag.
func (s *Store) Paths(tag, bench string, kind benchprof.Kind) Paths {
	return Paths{
		Dump:        s.DumpFile(tag, bench, kind),
		Listing:     s.ListingFile(tag, bench, kind),
		Image:       s.ImageFile(tag, bench, kind),
		FunctionDir: s.FunctionDir(tag, kind, bench),
		Analysis:    s.AnalysisFile(tag, bench, kind),
	}
}

// ManualDir returns the directory of a dump collected outside a run,
// <tag>/<name>.
func (s *Store) ManualDir(tag, name string) string {
	return filepath.Join(s.TagDir(tag), name)
}

// ManualListingFile returns <tag>/<name>/<name>.txt.
func (s *Store) ManualListingFile(tag, name string) string {
	return filepath.Join(s.ManualDir(tag, name), name+".txt")
}

// ManualFunctionDir returns <tag>/<name>/functions.
func (s *Store) ManualFunctionDir(tag, name string) string {
	return filepath.Join(s.ManualDir(tag, name), manualFunctionsDir)
}

// ManualFunctionFile returns the path of the -list output for fn.
func (s *Store) ManualFunctionFile(tag, name, fn string) string {
	return filepath.Join(s.ManualFunctionDir(tag, name), fn+".txt")
}

// BenchstatFile returns <root>/tools/benchstat/<name>_results.txt, where
// a comparison of two sessions is saved.
func (s *Store) BenchstatFile(name string) string {
	return filepath.Join(s.Root, ToolsDirName, BenchstatDirName, name+resultsSuffix)
}
