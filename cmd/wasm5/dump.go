// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasm5/wasm5/disasm"
)

func dumpCommand() *cobra.Command {
	var disassemble bool

	cmd := &cobra.Command{
		Use:   "dump <file.wasm>",
		Short: "Print the structure of a WebAssembly module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeModule, err := loadModule(args[0], false)
			if err != nil {
				return err
			}
			defer closeModule()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: module version %d\n\n", args[0], m.Version)

			if m.Types != nil {
				fmt.Fprintf(w, "types (%d):\n", len(m.Types.Entries))
				for i, t := range m.Types.Entries {
					fmt.Fprintf(w, "  %4d: %v\n", i, t)
				}
			}
			if m.Import != nil {
				fmt.Fprintf(w, "imports (%d):\n", len(m.Import.Entries))
				for i, imp := range m.Import.Entries {
					fmt.Fprintf(w, "  %4d: %v\n", i, imp)
				}
			}
			if m.Export != nil {
				fmt.Fprintf(w, "exports (%d):\n", len(m.Export.Entries))
				for _, e := range m.Export.Entries {
					fmt.Fprintf(w, "  %4d: %q (%s)\n", e.Index, e.FieldStr, e.Kind)
				}
			}

			fmt.Fprintf(w, "functions (%d, %d imported):\n", len(m.FunctionIndexSpace), m.NumImportedFuncs)
			for i := range m.FunctionIndexSpace {
				fn := &m.FunctionIndexSpace[i]
				name := fn.Name
				if name == "" {
					name = fmt.Sprintf("func[%d]", i)
				}
				fmt.Fprintf(w, "  %4d: %s %v\n", i, name, fn.Sig)
				if !disassemble || fn.IsHost() {
					continue
				}
				instrs, err := disasm.Disassemble(fn.Body.Code)
				if err != nil {
					return err
				}
				for _, instr := range instrs {
					fmt.Fprintf(w, "        %s %v\n", instr.Op.Name, instr.Immediates)
				}
			}

			for _, s := range m.Other {
				fmt.Fprintf(w, "custom section %q (%d bytes)\n", s.Name, len(s.Bytes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&disassemble, "disassemble", "d", false, "disassemble function bodies")
	return cmd
}
