// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfmt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const output = `goos: linux
goarch: amd64
pkg: github.com/example/pool
cpu: Test CPU @ 2.00GHz
BenchmarkGet
BenchmarkGet-8   	 1000000	      1000 ns/op	      64 B/op	       1 allocs/op
BenchmarkGet-8   	 1000000	      2000 ns/op	      64 B/op	       1 allocs/op
BenchmarkGet-8   	 1000000	      3000 ns/op	      64 B/op	       1 allocs/op
BenchmarkPut/small-8 	 500	 10.5 ns/op
BenchmarkBad-8   	 x	 10 ns/op
Benchmarking is fun
PASS
ok  	github.com/example/pool	3.021s
`

func read(t *testing.T) []Record {
	t.Helper()
	r := NewReader(strings.NewReader(output), "out.txt")
	var recs []Record
	for r.Scan() {
		recs = append(recs, r.Result())
	}
	require.NoError(t, r.Err())
	return recs
}

func TestReader(t *testing.T) {
	recs := read(t)
	require.Len(t, recs, 5)

	res, ok := recs[0].(*Result)
	require.True(t, ok)
	assert.Equal(t, "Get-8", res.Name)
	assert.Equal(t, "Get", res.Base())
	assert.Equal(t, "BenchmarkGet", res.Full())
	assert.Equal(t, 1000000, res.Iters)
	assert.Equal(t, []Value{{1000, "ns/op"}, {64, "B/op"}, {1, "allocs/op"}}, res.Values)
	file, line := res.Pos()
	assert.Equal(t, "out.txt", file)
	assert.Equal(t, 6, line)

	sub := recs[3].(*Result)
	assert.Equal(t, "Put", sub.Base())
	assert.Equal(t, "BenchmarkPut/small", sub.Full())

	serr, ok := recs[4].(*SyntaxError)
	require.True(t, ok)
	assert.Equal(t, 10, serr.Line)
	assert.Contains(t, serr.Error(), "out.txt:10: parsing iteration count")
}

func TestParseKeyValueLine(t *testing.T) {
	for _, test := range []struct {
		line     string
		key, val string
		ok       bool
	}{
		{"goos: linux", "goos", "linux", true},
		{"key:", "key", "", true},
		{"key:value", "", "", false},
		{"Key: value", "", "", false},
		{"PASS", "", "", false},
		{"ok  	pkg	1s", "", "", false},
	} {
		key, val, ok := parseKeyValueLine(test.line)
		if key != test.key || val != test.val || ok != test.ok {
			t.Errorf("parseKeyValueLine(%q) = %q, %q, %v, want %q, %q, %v",
				test.line, key, val, ok, test.key, test.val, test.ok)
		}
	}
}

func TestTrimProcs(t *testing.T) {
	for in, want := range map[string]string{
		"Get-8":       "Get",
		"Get":         "Get",
		"Get-":        "Get-",
		"Get-x":       "Get-x",
		"a-b-16":      "a-b",
		"Put/small-8": "Put/small",
	} {
		assert.Equal(t, want, trimProcs(in), in)
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(NewReader(strings.NewReader(output), "out.txt"))
	require.NoError(t, err)

	assert.Equal(t, []Config{
		{"goos", "linux"}, {"goarch", "amd64"},
		{"pkg", "github.com/example/pool"}, {"cpu", "Test CPU @ 2.00GHz"},
	}, s.Config)
	require.Len(t, s.Benchmarks, 2)
	require.Len(t, s.Errors, 1)

	get := s.Benchmarks[0]
	assert.Equal(t, "BenchmarkGet", get.Name)
	require.Len(t, get.Metrics, 3)
	ns := get.Metrics[0]
	assert.Equal(t, "ns/op", ns.Unit)
	assert.Equal(t, []float64{1000, 2000, 3000}, ns.Sample.Xs)
	assert.InDelta(t, 2000, ns.Sample.Mean(), 1e-9)
	assert.InDelta(t, 2000, ns.Sample.Quantile(0.5), 1e-6)
	assert.InDelta(t, 1000, ns.Sample.StdDev(), 1e-9)
}

func TestSummarizeFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "BenchmarkGet.txt")
	dst := filepath.Join(dir, "BenchmarkGet_summary.txt")
	require.NoError(t, os.WriteFile(src, []byte(output), 0o644))
	require.NoError(t, SummarizeFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	got := string(data)
	assert.True(t, strings.HasPrefix(got, "goos: linux\n"))
	assert.Contains(t, got, "stddev")

	var getLine, putLine string
	for _, l := range strings.Split(got, "\n") {
		f := strings.Fields(l)
		if len(f) < 2 {
			continue
		}
		switch {
		case f[0] == "BenchmarkGet" && f[1] == "ns/op":
			getLine = l
		case f[0] == "BenchmarkPut/small":
			putLine = l
		}
	}
	assert.Equal(t, []string{"BenchmarkGet", "ns/op", "3", "2000", "2000", "1000", "3000", "1000"}, strings.Fields(getLine))
	// A single run has no standard deviation.
	assert.Equal(t, []string{"BenchmarkPut/small", "ns/op", "1", "10.5", "10.5", "10.5", "10.5", "-"}, strings.Fields(putLine))
	assert.Contains(t, got, "# "+src+":10: parsing iteration count")
}
