// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/spf13/cobra"

	"github.com/wasm5/wasm5/exec"
	"github.com/wasm5/wasm5/validate"
	"github.com/wasm5/wasm5/wasi"
	"github.com/wasm5/wasm5/wasm"
)

func asExitError(err error, out **exec.ExitError) bool {
	return errors.As(err, out)
}

func runCommand() *cobra.Command {
	var (
		invoke   string
		dirs     []string
		envs     []string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "run <file.wasm> [args...]",
		Short: "Run a WebAssembly module",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeModule, err := loadModule(args[0], !noVerify)
			if err != nil {
				return err
			}
			defer closeModule()

			opts := []wasi.HostOption{
				wasi.WithArgs(args...),
				wasi.WithEnviron(envs...),
			}
			for _, d := range dirs {
				guest, host, ok := strings.Cut(d, "=")
				if !ok {
					host = guest
				}
				opts = append(opts, wasi.WithPreopenDir(guest, host))
			}
			host := wasi.NewHost(opts...)

			vm, err := exec.NewVM(m, exec.WithHostModule(wasi.ModuleName, host.BindModule(wasiImports(m))))
			if err != nil {
				return err
			}

			if invoke != "" {
				return invokeExport(cmd, vm, invoke, args[1:])
			}

			if _, _, ok := vm.ExportedFunction("_start"); !ok {
				return fmt.Errorf("module has no _start export; use --invoke")
			}
			_, err = vm.ExecExport("_start")
			return err
		},
	}

	cmd.Flags().StringVar(&invoke, "invoke", "", "invoke a named export instead of _start")
	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "preopen a directory (guest=host or path)")
	cmd.Flags().StringArrayVar(&envs, "env", nil, "set an environment variable (KEY=VALUE)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip module verification")

	return cmd
}

// loadModule maps the module image read-only and parses it.
func loadModule(path string, verify bool) (*wasm.Module, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	image, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("could not map %s: %w", path, err)
	}
	cleanup := func() {
		image.Unmap()
		f.Close()
	}

	m, err := wasm.ReadModule(bytes.NewReader(image))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("could not read module: %w", err)
	}

	if verify {
		if err := validate.VerifyModule(m); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("could not verify module: %w", err)
		}
	}
	return m, cleanup, nil
}

// wasiImports lists the fields the module imports from the WASI module.
func wasiImports(m *wasm.Module) []string {
	var fields []string
	if m.Import == nil {
		return fields
	}
	for _, imp := range m.Import.Entries {
		if imp.ModuleName == wasi.ModuleName && imp.Kind == wasm.ExternalFunction {
			fields = append(fields, imp.FieldName)
		}
	}
	return fields
}

// invokeExport calls a named export with literal arguments parsed per its
// signature, and prints the results.
func invokeExport(cmd *cobra.Command, vm *exec.VM, name string, literals []string) error {
	_, sig, ok := vm.ExportedFunction(name)
	if !ok {
		return fmt.Errorf("no exported function %q", name)
	}
	if len(literals) != len(sig.ParamTypes) {
		return fmt.Errorf("%s takes %d arguments, got %d", name, len(sig.ParamTypes), len(literals))
	}

	args := make([]uint64, len(literals))
	for i, lit := range literals {
		v, err := parseArg(lit, sig.ParamTypes[i])
		if err != nil {
			return err
		}
		args[i] = v
	}

	results, err := vm.ExecExport(name, args...)
	if err != nil {
		return err
	}
	for i, r := range results {
		fmt.Fprintln(cmd.OutOrStdout(), formatResult(r, sig.ReturnTypes[i]))
	}
	return nil
}

func parseArg(lit string, t wasm.ValueType) (uint64, error) {
	switch t {
	case wasm.ValueTypeI32:
		v, err := strconv.ParseInt(lit, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid i32 argument %q: %w", lit, err)
		}
		return uint64(uint32(int32(v))), nil
	case wasm.ValueTypeI64:
		v, err := strconv.ParseInt(lit, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid i64 argument %q: %w", lit, err)
		}
		return uint64(v), nil
	case wasm.ValueTypeF32:
		v, err := strconv.ParseFloat(lit, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid f32 argument %q: %w", lit, err)
		}
		return uint64(math.Float32bits(float32(v))), nil
	case wasm.ValueTypeF64:
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid f64 argument %q: %w", lit, err)
		}
		return math.Float64bits(v), nil
	default:
		return 0, fmt.Errorf("cannot pass %s arguments from the command line", t)
	}
}

func formatResult(v uint64, t wasm.ValueType) string {
	switch t {
	case wasm.ValueTypeI32:
		return strconv.FormatInt(int64(int32(uint32(v))), 10)
	case wasm.ValueTypeI64:
		return strconv.FormatInt(int64(v), 10)
	case wasm.ValueTypeF32:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(v))), 'g', -1, 32)
	case wasm.ValueTypeF64:
		return strconv.FormatFloat(math.Float64frombits(v), 'g', -1, 64)
	default:
		return fmt.Sprintf("%#x", v)
	}
}
