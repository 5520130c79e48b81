// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command wasm5 runs WebAssembly modules: it loads a binary module,
// verifies it, compiles it to threaded code and executes it with a
// minimal WASI preview-1 host.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wasm5/wasm5/exec"
	"github.com/wasm5/wasm5/validate"
	"github.com/wasm5/wasm5/wasi"
	"github.com/wasm5/wasm5/wasm"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:           "wasm5",
		Short:         "wasm5 is a WebAssembly virtual machine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				return nil
			}
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			wasm.SetLogger(logger)
			validate.SetLogger(logger)
			exec.SetLogger(logger)
			wasi.SetLogger(logger)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(runCommand())
	root.AddCommand(dumpCommand())
	root.AddCommand(versionCommand())

	if err := root.Execute(); err != nil {
		var exit *exec.ExitError
		if asExitError(err, &exit) {
			os.Exit(int(exit.Code))
		}
		fmt.Fprintf(os.Stderr, "wasm5: %v\n", err)
		os.Exit(1)
	}
}
