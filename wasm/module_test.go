// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// addModule is the binary encoding of:
//
//	(module
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0
//	    local.get 1
//	    i32.add))
var addModule = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // type section
	0x03, 0x02, 0x01, 0x00, // function section
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00, // export section
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, // code section
}

func TestReadModule(t *testing.T) {
	m, err := ReadModule(bytes.NewReader(addModule))
	require.NoError(t, err)

	require.Len(t, m.Types.Entries, 1)
	sig := m.Types.Entries[0]
	require.Equal(t, []ValueType{ValueTypeI32, ValueTypeI32}, sig.ParamTypes)
	require.Equal(t, []ValueType{ValueTypeI32}, sig.ReturnTypes)

	require.Len(t, m.FunctionIndexSpace, 1)
	require.Equal(t, []byte{0x20, 0x00, 0x20, 0x01, 0x6a}, m.FunctionIndexSpace[0].Body.Code)

	e := m.Export.ByName("add")
	require.NotNil(t, e)
	require.Equal(t, ExternalFunction, e.Kind)
	require.Equal(t, uint32(0), e.Index)
}

func TestReadModuleBadMagic(t *testing.T) {
	bad := append([]byte{0xde, 0xad, 0xbe, 0xef}, addModule[4:]...)
	_, err := ReadModule(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestReadModuleBadVersion(t *testing.T) {
	bad := append([]byte{}, addModule...)
	bad[4] = 0x02
	_, err := ReadModule(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestReadModuleMemoryAndData(t *testing.T) {
	mod := []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
		0x0b, 0x08, 0x01, 0x00, 0x41, 0x00, 0x0b, 0x02, 0x68, 0x69, // data: active, offset 0, "hi"
	}
	m, err := ReadModule(bytes.NewReader(mod))
	require.NoError(t, err)

	require.Len(t, m.MemoryIndexSpace, 1)
	require.Equal(t, uint32(1), m.MemoryIndexSpace[0].Limits.Initial)

	require.Len(t, m.Data.Entries, 1)
	seg := m.Data.Entries[0]
	require.Equal(t, DataModeActive, seg.Mode)
	require.Equal(t, []byte("hi"), seg.Data)

	off, typ, err := m.ExecInitExpr(seg.Offset, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0), off)
	require.Equal(t, ValueTypeI32, typ)
}

func TestReadModuleElementSegment(t *testing.T) {
	mod := []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type: () -> ()
		0x03, 0x02, 0x01, 0x00, // function
		0x04, 0x04, 0x01, 0x70, 0x00, 0x02, // table: funcref, min 2
		0x09, 0x07, 0x01, 0x00, 0x41, 0x01, 0x0b, 0x01, 0x00, // elem: active, offset 1, [0]
		0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b, // code: empty body
	}
	m, err := ReadModule(bytes.NewReader(mod))
	require.NoError(t, err)

	require.Len(t, m.Elements.Entries, 1)
	seg := m.Elements.Entries[0]
	require.Equal(t, ElemModeActive, seg.Mode)
	require.Equal(t, ValueTypeFuncref, seg.Type)
	require.Equal(t, []int64{0}, seg.Indices)
}

func TestReadModuleTruncated(t *testing.T) {
	_, err := ReadModule(bytes.NewReader(addModule[:12]))
	require.Error(t, err)
}
