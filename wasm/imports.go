// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"fmt"
)

// Import is an interface implemented by types that can be imported by a
// WebAssembly module.
type Import interface {
	isImport()
}

// ImportEntry describes an import statement in a Wasm module. Binding of
// imports to host functions happens at instantiation, outside this package.
type ImportEntry struct {
	ModuleName string // module name string
	FieldName  string // field name string
	Kind       External

	// If Kind is Function, Type is a FuncImport containing the type index of the function signature
	// If Kind is Table, Type is a TableImport containing the type of the imported table
	// If Kind is Memory, Type is a MemoryImport containing the type of the imported memory
	// If Kind is Global, Type is a GlobalVarImport
	Type Import
}

func (i ImportEntry) String() string {
	return fmt.Sprintf("%s.%s (%s)", i.ModuleName, i.FieldName, i.Kind)
}

type FuncImport struct {
	Type uint32
}

func (FuncImport) isImport() {}

type TableImport struct {
	Type Table
}

func (TableImport) isImport() {}

type MemoryImport struct {
	Type Memory
}

func (MemoryImport) isImport() {}

type GlobalVarImport struct {
	Type GlobalVar
}

func (GlobalVarImport) isImport() {}

type InvalidExternalError uint8

func (e InvalidExternalError) Error() string {
	return fmt.Sprintf("wasm: invalid external_kind value %d", uint8(e))
}

type InvalidFunctionIndexError uint32

func (e InvalidFunctionIndexError) Error() string {
	return fmt.Sprintf("wasm: invalid index to function index space: %#x", uint32(e))
}

type InvalidTypeIndexError uint32

func (e InvalidTypeIndexError) Error() string {
	return fmt.Sprintf("wasm: invalid index to type section: %#x", uint32(e))
}

// populateImports appends the imported entries to the front of the index
// spaces, so that module-defined entries follow them.
func (m *Module) populateImports() error {
	if m.Import == nil {
		return nil
	}

	for _, imp := range m.Import.Entries {
		switch imp.Kind {
		case ExternalFunction:
			typeIndex := imp.Type.(FuncImport).Type
			if m.Types == nil || typeIndex >= uint32(len(m.Types.Entries)) {
				return InvalidTypeIndexError(typeIndex)
			}
			m.FunctionIndexSpace = append(m.FunctionIndexSpace, Function{
				Sig:  &m.Types.Entries[typeIndex],
				Name: imp.ModuleName + "." + imp.FieldName,
			})
			m.NumImportedFuncs++
		case ExternalGlobal:
			v := imp.Type.(GlobalVarImport).Type
			m.GlobalIndexSpace = append(m.GlobalIndexSpace, GlobalEntry{Type: &v})
			m.NumImportedGlobals++
		case ExternalTable:
			m.TableIndexSpace = append(m.TableIndexSpace, imp.Type.(TableImport).Type)
			m.NumImportedTables++
		case ExternalMemory:
			m.MemoryIndexSpace = append(m.MemoryIndexSpace, imp.Type.(MemoryImport).Type)
			m.NumImportedMemories++
		default:
			return InvalidExternalError(imp.Kind)
		}
	}
	return nil
}
