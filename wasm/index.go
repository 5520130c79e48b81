// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

// Functions for populating and looking up entries in a module's index
// spaces. Imported entries always precede module-defined ones.

func (m *Module) populateFunctions() error {
	if m.Function == nil {
		return nil
	}
	if m.Types == nil {
		return MissingSectionError(SectionIDType)
	}

	for codeIndex, typeIndex := range m.Function.Types {
		if int(typeIndex) >= len(m.Types.Entries) {
			return InvalidTypeIndexError(typeIndex)
		}
		if m.Code == nil || codeIndex >= len(m.Code.Bodies) {
			return MissingSectionError(SectionIDCode)
		}

		m.FunctionIndexSpace = append(m.FunctionIndexSpace, Function{
			Sig:  &m.Types.Entries[typeIndex],
			Body: &m.Code.Bodies[codeIndex],
		})
	}

	return nil
}

// GetFunction returns a *Function, based on the function's index in
// the function index space. Returns nil when the index is invalid.
func (m *Module) GetFunction(i int) *Function {
	if i >= len(m.FunctionIndexSpace) || i < 0 {
		return nil
	}

	return &m.FunctionIndexSpace[i]
}

func (m *Module) populateGlobals() error {
	if m.Global == nil {
		return nil
	}

	m.GlobalIndexSpace = append(m.GlobalIndexSpace, m.Global.Globals...)
	logger.Debugf("there are %d entries in the global index space", len(m.GlobalIndexSpace))
	return nil
}

// GetGlobal returns a *GlobalEntry, based on the global index space.
// Returns nil when the index is invalid.
func (m *Module) GetGlobal(i int) *GlobalEntry {
	if i >= len(m.GlobalIndexSpace) || i < 0 {
		return nil
	}

	return &m.GlobalIndexSpace[i]
}

func (m *Module) populateTables() error {
	if m.Table == nil {
		return nil
	}

	m.TableIndexSpace = append(m.TableIndexSpace, m.Table.Entries...)
	logger.Debugf("there are %d entries in the table index space", len(m.TableIndexSpace))
	return nil
}

// GetTable returns the declaration of table i, or nil when the index is
// invalid.
func (m *Module) GetTable(i int) *Table {
	if i >= len(m.TableIndexSpace) || i < 0 {
		return nil
	}

	return &m.TableIndexSpace[i]
}

func (m *Module) populateLinearMemory() error {
	if m.Memory == nil {
		return nil
	}

	m.MemoryIndexSpace = append(m.MemoryIndexSpace, m.Memory.Entries...)
	return nil
}

// GetMemory returns the declaration of memory i, or nil when the index is
// invalid.
func (m *Module) GetMemory(i int) *Memory {
	if i >= len(m.MemoryIndexSpace) || i < 0 {
		return nil
	}

	return &m.MemoryIndexSpace[i]
}

// NumDataSegments returns the data segment count declared by the data count
// section, or the length of the data section when absent.
func (m *Module) NumDataSegments() int {
	if m.DataCount != nil {
		return int(m.DataCount.Count)
	}
	if m.Data != nil {
		return len(m.Data.Entries)
	}
	return 0
}
