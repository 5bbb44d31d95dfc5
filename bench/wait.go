// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/benchprof/storage"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Default bounds of the wait for a dump file.
const (
	DefaultWaitTimeout  = 5 * time.Second
	DefaultWaitInterval = 100 * time.Millisecond
)

// An errWaitTimeout reports a file that never appeared.
type errWaitTimeout struct {
	path    string
	timeout time.Duration
}

func (e *errWaitTimeout) Error() string {
	return fmt.Sprintf("%s did not appear within %v", e.path, e.timeout)
}

// waitForFile polls until path exists and is non-empty.
// The profiler may still be flushing the dump after go test exits.
func waitForFile(ctx context.Context, path string, timeout, interval time.Duration) error {
	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(context.Context) (bool, error) {
		return storage.Exists(path), nil
	})
	if err != nil && ctx.Err() == nil && wait.Interrupted(err) {
		return &errWaitTimeout{path, timeout}
	}
	return err
}

// moveWhenReady waits for src and renames it to dst.
func moveWhenReady(ctx context.Context, src, dst string, timeout, interval time.Duration) error {
	if err := waitForFile(ctx, src, timeout, interval); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), storage.PermDir); err != nil {
		return err
	}
	return os.Rename(src, dst)
}
