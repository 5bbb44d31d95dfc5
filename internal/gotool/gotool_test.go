// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gotool

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPprofCommands(t *testing.T) {
	for _, test := range []struct {
		cmd  Command
		want string
	}{
		{Top("a.out"), "go tool pprof -nodecount=100000000 -cum -edgefraction=0 -nodefraction=0 -top a.out"},
		{PNG("a.out"), "go tool pprof -png a.out"},
		{List("Method", "a.out"), "go tool pprof -list=Method a.out"},
	} {
		assert.Equal(t, test.want, test.cmd.String())
	}
}

func TestIn(t *testing.T) {
	c := Go("version")
	d := c.In("/tmp")
	assert.Empty(t, c.Dir)
	assert.Equal(t, "/tmp", d.Dir)
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
	ctx := context.Background()
	var r ExecRunner

	out, err := r.Output(ctx, Command{Name: "sh", Args: []string{"-c", "echo out; echo err >&2"}})
	require.NoError(t, err)
	assert.Equal(t, "out\n", string(out))

	out, err = r.CombinedOutput(ctx, Command{Name: "sh", Args: []string{"-c", "echo out; echo err >&2; exit 3"}})
	require.Error(t, err)
	assert.Contains(t, string(out), "out\n")
	assert.Contains(t, string(out), "err\n")

	var ee *ExitError
	require.True(t, errors.As(err, &ee))
	assert.Contains(t, ee.Error(), "err")
	var xe *exec.ExitError
	require.True(t, errors.As(err, &xe))
	assert.Equal(t, 3, xe.ExitCode())
}
