// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchfmt reads the benchmark results printed by go test and
// summarizes them per benchmark and unit.
package benchfmt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A Reader reads the Go benchmark format.
//
// Its API is modeled on bufio.Scanner. Lines that are neither results
// nor configuration are ignored, so the complete output of go test can
// be read directly.
type Reader struct {
	s        *bufio.Scanner
	fileName string
	line     int
	err      error

	config []Config
	rec    Record
}

// A Config is a key: value line preceding results, such as
// "goos: linux".
type Config struct {
	Key, Value string
}

// A Value is one measurement of a result.
type Value struct {
	Value float64
	Unit  string
}

// A Result is one benchmark result line.
type Result struct {
	// Name is the full name, including any sub-benchmark parts and the
	// GOMAXPROCS suffix, without the "Benchmark" prefix.
	Name   string
	Iters  int
	Values []Value

	fileName string
	line     int
}

// Pos returns the file name and 1-based line the result was read from.
func (r *Result) Pos() (string, int) { return r.fileName, r.line }

// Base returns Name without sub-benchmark parts or GOMAXPROCS suffix.
func (r *Result) Base() string {
	name := r.Name
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return trimProcs(name)
}

// Full returns the name as printed, with the Benchmark prefix and
// without the GOMAXPROCS suffix.
func (r *Result) Full() string {
	return "Benchmark" + trimProcs(r.Name)
}

// trimProcs removes a trailing -N.
func trimProcs(name string) string {
	i := strings.LastIndexByte(name, '-')
	if i < 0 || i == len(name)-1 {
		return name
	}
	for _, c := range name[i+1:] {
		if c < '0' || c > '9' {
			return name
		}
	}
	return name[:i]
}

// A SyntaxError reports a malformed result line.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Pos() (string, int) { return e.FileName, e.Line }

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// A Record is a *Result or a *SyntaxError.
type Record interface {
	Pos() (fileName string, line int)
}

var errSkip = &SyntaxError{"", 0, "skip line"}

// NewReader returns a Reader reading from r. fileName is used in error
// messages only.
func NewReader(r io.Reader, fileName string) *Reader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	return &Reader{s: bufio.NewScanner(r), fileName: fileName}
}

// Scan advances to the next record and reports whether there is one.
// At EOF or on an I/O error it returns false; Err distinguishes them.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.s.Scan() {
		r.line++
		line := r.s.Text()
		if strings.HasPrefix(line, "Benchmark") {
			res, err := r.parseBenchmarkLine(line)
			if err == errSkip {
				continue
			}
			if err != nil {
				r.rec = err
			} else {
				r.rec = res
			}
			return true
		}
		if key, val, ok := parseKeyValueLine(line); ok {
			r.setConfig(key, val)
		}
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
	}
	return false
}

// Result returns the record read by the last call to Scan. Syntax
// errors are not fatal; the caller may continue to Scan.
func (r *Reader) Result() Record {
	return r.rec
}

// Err returns the I/O error that stopped Scan, if any.
func (r *Reader) Err() error {
	return r.err
}

// Config returns the configuration lines seen so far, in first-seen
// order, with later values replacing earlier ones.
func (r *Reader) Config() []Config {
	return r.config
}

func (r *Reader) setConfig(key, val string) {
	for i := range r.config {
		if r.config[i].Key == key {
			r.config[i].Value = val
			return
		}
	}
	r.config = append(r.config, Config{key, val})
}

// parseKeyValueLine parses a "key: value" line. Keys start with a
// lower-case letter and contain no spaces or upper-case letters.
func parseKeyValueLine(line string) (key, val string, ok bool) {
	for i, r := range line {
		if i == 0 && !unicode.IsLower(r) {
			return
		}
		if unicode.IsSpace(r) || unicode.IsUpper(r) {
			return
		}
		if i > 0 && r == ':' {
			key, val = line[:i], line[i+1:]
			break
		}
	}
	if key == "" {
		return
	}
	if val == "" {
		return key, "", true
	}
	if val[0] != ' ' && val[0] != '\t' {
		return "", "", false
	}
	return key, strings.TrimSpace(val), true
}

func (r *Reader) newSyntaxError(msg string) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, msg}
}

// parseBenchmarkLine parses a line starting with "Benchmark".
func (r *Reader) parseBenchmarkLine(line string) (*Result, *SyntaxError) {
	line = line[len("Benchmark"):]
	if c, _ := utf8.DecodeRuneInString(line); line != "" && unicode.IsLower(c) {
		return nil, errSkip
	}
	res := &Result{fileName: r.fileName, line: r.line}
	var f string
	res.Name, line = splitField(line)
	// go test -v prints the bare name when a benchmark starts.
	if line == "" {
		return nil, errSkip
	}

	f, line = splitField(line)
	iters, err := strconv.Atoi(f)
	if err != nil {
		return nil, r.newSyntaxError("parsing iteration count: " + err.Error())
	}
	res.Iters = iters

	for {
		f, line = splitField(line)
		if f == "" {
			if len(res.Values) > 0 {
				break
			}
			return nil, r.newSyntaxError("missing measurements")
		}
		val, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, r.newSyntaxError("parsing measurement: " + err.Error())
		}
		f, line = splitField(line)
		if f == "" {
			return nil, r.newSyntaxError("missing units")
		}
		res.Values = append(res.Values, Value{val, f})
	}
	return res, nil
}

// splitField returns the leading non-space run of x and the rest of x
// after the white space that follows it.
func splitField(x string) (field, rest string) {
	x = strings.TrimLeftFunc(x, unicode.IsSpace)
	i := strings.IndexFunc(x, unicode.IsSpace)
	if i < 0 {
		return x, ""
	}
	return x[:i], strings.TrimLeftFunc(x[i:], unicode.IsSpace)
}
