// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bench

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/go/ast/inspector"
)

// A Found benchmark is one Discover located, with the directory of the
// package declaring it. go test must run in Dir to see the benchmark.
type Found struct {
	Name string
	Dir  string
}

// Discover returns the benchmark functions declared in the _test.go
// files under root, sorted by name. A name declared in more than one
// package is reported once, for the first package in lexical order.
// Directories named vendor or testdata and hidden directories are not
// searched.
func Discover(root string) ([]Found, error) {
	fset := token.NewFileSet()
	var files []*ast.File
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, "_test.go") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return err
		}
		files = append(files, f)
		dirs = append(dirs, filepath.Dir(path))
		return nil
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var found []Found
	for i, f := range files {
		testing := testingName(f)
		if testing == "" {
			continue
		}
		inspector.New([]*ast.File{f}).Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
			fn := n.(*ast.FuncDecl)
			if isBenchmark(fn, testing) && !seen[fn.Name.Name] {
				seen[fn.Name.Name] = true
				found = append(found, Found{Name: fn.Name.Name, Dir: dirs[i]})
			}
		})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

// testingName returns the name f refers to package testing by, or ""
// if f does not import it.
func testingName(f *ast.File) string {
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != "testing" {
			continue
		}
		if imp.Name != nil {
			if imp.Name.Name == "_" {
				return ""
			}
			return imp.Name.Name
		}
		return "testing"
	}
	return ""
}

// isBenchmark reports whether fn has the shape go test runs as a
// benchmark: func BenchmarkXxx(b *testing.B).
func isBenchmark(fn *ast.FuncDecl, testing string) bool {
	if fn.Recv != nil || fn.Type.Results != nil || fn.Type.TypeParams != nil {
		return false
	}
	if !hasBenchmarkPrefix(fn.Name.Name) {
		return false
	}
	params := fn.Type.Params.List
	if len(params) != 1 || len(params[0].Names) > 1 {
		return false
	}
	star, ok := params[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	sel, ok := star.X.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "B" {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && (pkg.Name == testing || testing == ".")
}

// hasBenchmarkPrefix applies the go test naming rule: Benchmark, then
// nothing or a rune that is not a lower-case letter.
func hasBenchmarkPrefix(name string) bool {
	const prefix = "Benchmark"
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	if len(name) == len(prefix) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name[len(prefix):])
	return !unicode.IsLower(r)
}
