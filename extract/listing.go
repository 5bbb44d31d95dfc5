// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package extract parses the ranked listings printed by pprof -top,
// filters their rows and produces focused per-function listings.
package extract

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/benchprof"
)

// ColumnHeader is the column header row of a ranked listing.
const ColumnHeader = "flat  flat%   sum%        cum   cum%"

// InlineMarker is the suffix pprof appends to inlined functions.
const InlineMarker = " (inline)"

// NumColumns is the number of numeric columns preceding the symbol.
const NumColumns = 5

// Column indexes within Record.Columns.
const (
	Flat = iota
	FlatPercent
	SumPercent
	Cum
	CumPercent
)

// A Record is one row of a ranked listing.
type Record struct {
	Columns [NumColumns]string
	// Symbol is the remainder of the row, with runs of white space
	// collapsed to one space. It may carry InlineMarker.
	Symbol string
	// Line is the row with leading and trailing white space removed.
	Line string
}

// ParseRecord splits line into a Record. It reports false if line has
// fewer than NumColumns+1 fields.
func ParseRecord(line string) (Record, bool) {
	f := strings.Fields(line)
	if len(f) < NumColumns+1 {
		return Record{}, false
	}
	var rec Record
	copy(rec.Columns[:], f[:NumColumns])
	rec.Symbol = strings.Join(f[NumColumns:], " ")
	rec.Line = strings.TrimSpace(line)
	return rec, true
}

// Name returns the symbol with InlineMarker removed.
func (r *Record) Name() string {
	return stripInline(r.Symbol)
}

func stripInline(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, InlineMarker, ""))
}

var (
	// trailing dotted component, minus an argument parenthetical
	finalComponent = regexp.MustCompile(`\.([^.(]+)(?:\([^)]*\))?$`)
	number         = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Canonical reduces a listing symbol to the bare function name used
// for deduplication, ignore lists and per-function file names.
// For example, "pkg/sub.Type.Method (inline)" becomes "Method".
// Canonical(Canonical(s)) == Canonical(s) for every s.
func Canonical(symbol string) string {
	if name, ok := qualifiedName(symbol); ok {
		return name
	}
	s := stripInline(symbol)
	if i := strings.LastIndexByte(s, '.'); i >= 0 && i < len(s)-1 {
		s = s[i+1:]
	}
	return strings.Join(strings.Fields(s), "")
}

// qualifiedName returns the final dotted component of symbol. It
// reports false for symbols with no such component, like "<unknown>"
// or a bare address.
func qualifiedName(symbol string) (string, bool) {
	m := finalComponent.FindStringSubmatch(stripInline(symbol))
	if m == nil {
		return "", false
	}
	return strings.Join(strings.Fields(m[1]), ""), true
}

// A Reader reads the rows of a ranked listing.
//
// Its API is modeled on bufio.Scanner. Lines before the column header
// are collected as the header block; every later line with enough
// fields is returned as a Record. Shorter lines are skipped.
type Reader struct {
	s        *bufio.Scanner
	fileName string
	line     int

	seeking bool
	header  []string
	rec     Record
	err     error
}

// NewReader returns a Reader reading from r. fileName is used in error
// messages only.
func NewReader(r io.Reader, fileName string) *Reader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	return &Reader{s: bufio.NewScanner(r), fileName: fileName, seeking: true}
}

// Scan advances to the next record and reports whether there is one.
// If the input ends before the column header is found, Scan returns
// false and Err returns an error wrapping benchprof.ErrInvalidHeader.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.s.Scan() {
		r.line++
		line := r.s.Text()
		if r.seeking {
			r.header = append(r.header, strings.TrimSpace(line))
			if strings.Contains(line, ColumnHeader) {
				r.seeking = false
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, ok := ParseRecord(line)
		if !ok {
			continue
		}
		r.rec = rec
		return true
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
		return false
	}
	if r.seeking {
		r.err = fmt.Errorf("%s: %w", r.fileName, benchprof.ErrInvalidHeader)
	}
	return false
}

// Record returns the record read by the last call to Scan.
func (r *Reader) Record() Record {
	return r.rec
}

// Header returns the lines up to and including the column header.
// It is complete once Scan has returned true at least once, or has
// returned false with a nil Err.
func (r *Reader) Header() []string {
	return r.header
}

// Err returns the first error encountered by Scan.
func (r *Reader) Err() error {
	return r.err
}

// headerLines is how many lines of the header block a filtered listing
// keeps. The cpu preamble has an extra Duration line.
func headerLines(kind benchprof.Kind) int {
	if kind == benchprof.CPU {
		return 6
	}
	return 5
}

// FilterListing returns the display text of the listing read from r:
// the header block followed by the rows f keeps, one per line with
// surrounding white space removed.
//
// The header block ends with the column header and holds at most six
// lines for cpu listings and five for the other kinds.
func FilterListing(r io.Reader, kind benchprof.Kind, f *Filter) (string, error) {
	lr := NewReader(r, string(kind))
	var body []string
	for lr.Scan() {
		rec := lr.Record()
		if f.Keep(&rec) {
			body = append(body, rec.Line)
		}
	}
	if err := lr.Err(); err != nil {
		return "", err
	}
	header := lr.Header()
	if n := headerLines(kind); len(header) > n {
		header = header[len(header)-n:]
	}
	return strings.Join(append(append([]string(nil), header...), body...), "\n"), nil
}

// FunctionNames returns the canonical names of the rows f selects, in
// listing order and without duplicates. Rows whose symbol has no
// qualified function name are left out.
func FunctionNames(r io.Reader, f *Filter) ([]string, error) {
	return functionNames(NewReader(r, ""), f)
}

func functionNames(lr *Reader, f *Filter) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	for lr.Scan() {
		rec := lr.Record()
		if !f.Select(&rec) {
			continue
		}
		name, ok := qualifiedName(rec.Symbol)
		if !ok || name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if err := lr.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
