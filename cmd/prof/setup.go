// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/benchprof/config"
)

func newSetupCmd(e *env) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write an example configuration at the module root",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				root, err := config.FindModuleRoot(wd)
				if err != nil {
					return err
				}
				path = filepath.Join(root, config.TemplateName)
			}
			if err := config.WriteTemplate(path); err != nil {
				return err
			}
			e.log.WithField("path", path).Info("configuration template written")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "write the template to `file` instead")
	return cmd
}
