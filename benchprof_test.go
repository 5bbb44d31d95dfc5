// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchprof

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKinds(t *testing.T) {
	for _, test := range []struct {
		in      string
		want    []Kind
		wantErr bool
	}{
		{"", nil, false},
		{"cpu", []Kind{CPU}, false},
		{"cpu, memory,,cpu", []Kind{CPU, Memory}, false},
		{"mutex,trace,block", []Kind{Mutex, Trace, Block}, false},
		{"all", Kinds, false},
		{"cpu,heap", nil, true},
	} {
		t.Run(test.in, func(t *testing.T) {
			got, err := ParseKinds(test.in)
			if test.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestTabularKinds(t *testing.T) {
	got := TabularKinds([]Kind{Trace, CPU, "heap", Mutex})
	assert.Equal(t, []Kind{CPU, Mutex}, got)
	assert.False(t, Trace.Tabular())
	assert.True(t, Block.Tabular())
}

func TestExitCode(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("stage: %w", err) }
	var agg *multierror.Error
	agg = multierror.Append(agg, errors.New("plain"), wrap(ErrProfileMissing))

	for _, test := range []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"module", wrap(ErrModuleNotFound), ExitModuleNotFound},
		{"benchmark", wrap(ErrBenchmarkFailed), ExitBenchmarkFailed},
		{"header", wrap(ErrInvalidHeader), ExitInvalidHeader},
		{"regression", wrap(ErrRegression), ExitRegression},
		{"setup", wrap(ErrSetup), ExitSetup},
		{"config", wrap(ErrConfig), ExitUsage},
		{"aggregate", agg.ErrorOrNil(), ExitProfileMissing},
	} {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, ExitCode(test.err))
		})
	}
}
