// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wasm provides the in-memory model of a WebAssembly module and
// functions for reading one from its binary encoding.
package wasm

import (
	"errors"
	"io"

	"github.com/wasm5/wasm5/wasm/internal/readpos"
)

var ErrInvalidMagic = errors.New("wasm: invalid magic number")
var ErrInvalidVersion = errors.New("wasm: invalid version number")

const (
	Magic   uint32 = 0x6d736100
	Version uint32 = 0x1
)

// Function represents an entry in the function index space of a module.
// Imported functions have a nil Body.
type Function struct {
	Sig  *FunctionSig
	Body *FunctionBody
	Name string
}

// IsHost reports whether the function is imported from the host.
func (fn *Function) IsHost() bool { return fn.Body == nil }

// Module represents a parsed WebAssembly module:
// https://webassembly.github.io/spec/core/syntax/modules.html
type Module struct {
	Version uint32

	Types     *SectionTypes
	Import    *SectionImports
	Function  *SectionFunctions
	Table     *SectionTables
	Memory    *SectionMemories
	Global    *SectionGlobals
	Export    *SectionExports
	Start     *SectionStartFunction
	Elements  *SectionElements
	Code      *SectionCode
	Data      *SectionData
	DataCount *SectionDataCount

	// The index spaces of the module: imported entries first, followed by
	// the module's own definitions.
	FunctionIndexSpace []Function
	GlobalIndexSpace   []GlobalEntry
	TableIndexSpace    []Table
	MemoryIndexSpace   []Memory

	NumImportedFuncs    int
	NumImportedGlobals  int
	NumImportedTables   int
	NumImportedMemories int

	Other []Section // Other holds the custom sections if any
}

// ReadModule reads a module from the reader r.
func ReadModule(r io.Reader) (*Module, error) {
	reader := &readpos.ReadPos{
		R:      r,
		CurPos: 0,
	}
	m := &Module{}
	magic, err := readU32(reader)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	if m.Version, err = readU32(reader); err != nil {
		return nil, err
	}
	if m.Version != Version {
		return nil, ErrInvalidVersion
	}

	for {
		done, err := m.readSection(reader)
		if err != nil {
			return nil, err
		} else if done {
			break
		}
	}

	for _, fn := range []func() error{
		m.populateImports,
		m.populateGlobals,
		m.populateFunctions,
		m.populateTables,
		m.populateLinearMemory,
		m.populateNames,
	} {
		if err := fn(); err != nil {
			return nil, err
		}
	}

	logger.Debugf("there are %d entries in the function index space", len(m.FunctionIndexSpace))
	return m, nil
}

// BlockSig resolves a block type immediate into its parameter and result
// types. Non-negative block types index the type section.
func (m *Module) BlockSig(bt BlockType) (params, results []ValueType, err error) {
	if idx, ok := bt.TypeIndex(); ok {
		if m.Types == nil || idx >= uint32(len(m.Types.Entries)) {
			return nil, nil, InvalidTypeIndexError(idx)
		}
		sig := &m.Types.Entries[idx]
		return sig.ParamTypes, sig.ReturnTypes, nil
	}
	if t, ok := bt.Result(); ok {
		return nil, []ValueType{t}, nil
	}
	return nil, nil, nil
}
