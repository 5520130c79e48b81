// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm5/wasm5/wasm"
	ops "github.com/wasm5/wasm5/wasm/operators"
)

func TestDisassemble(t *testing.T) {
	// block (result i32)  i32.const 10  br 0  end  local.get 0  i32.add
	body := []byte{
		0x02, 0x7f,
		0x41, 0x0a,
		0x0c, 0x00,
		0x0b,
		0x20, 0x00,
		0x6a,
	}

	instrs, err := Disassemble(body)
	require.NoError(t, err)
	require.Len(t, instrs, 6)

	require.Equal(t, ops.Block, instrs[0].Op.Code)
	require.Equal(t, wasm.BlockType(wasm.ValueTypeI32), instrs[0].Immediates[0])

	require.Equal(t, ops.I32Const, instrs[1].Op.Code)
	require.Equal(t, int32(10), instrs[1].Immediates[0])

	require.Equal(t, ops.Br, instrs[2].Op.Code)
	require.Equal(t, uint32(0), instrs[2].Immediates[0])

	require.Equal(t, ops.End, instrs[3].Op.Code)
	require.Equal(t, ops.LocalGet, instrs[4].Op.Code)
	require.Equal(t, uint32(0), instrs[4].Immediates[0])
	require.Equal(t, ops.I32Add, instrs[5].Op.Code)
}

func TestDisassembleMemoryImmediates(t *testing.T) {
	// i32.load align=2 offset=16
	instrs, err := Disassemble([]byte{0x28, 0x02, 0x10})
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	require.Equal(t, []interface{}{uint32(2), uint32(16)}, instrs[0].Immediates)
}

func TestDisassemblePrefixed(t *testing.T) {
	// memory.init 3 0 ; data.drop 3 ; i32.trunc_sat_f32_s
	body := []byte{
		0xfc, 0x08, 0x03, 0x00,
		0xfc, 0x09, 0x03,
		0xfc, 0x00,
	}
	instrs, err := Disassemble(body)
	require.NoError(t, err)
	require.Len(t, instrs, 3)

	require.Equal(t, ops.MemoryInit, instrs[0].Op.Sub)
	require.Equal(t, uint32(3), instrs[0].Immediates[0])
	require.Equal(t, ops.DataDrop, instrs[1].Op.Sub)
	require.Equal(t, "i32.trunc_sat_f32_s", instrs[2].Op.Name)
}

func TestDisassembleBrTable(t *testing.T) {
	// local.get 0 ; br_table [0 1] default 2
	instrs, err := Disassemble([]byte{0x20, 0x00, 0x0e, 0x02, 0x00, 0x01, 0x02})
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	require.Equal(t, []interface{}{uint32(2), uint32(0), uint32(1), uint32(2)}, instrs[1].Immediates)
}

func TestDisassembleRejectsSIMD(t *testing.T) {
	_, err := Disassemble([]byte{0xfd, 0x00})
	require.Error(t, err)
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	_, err := Disassemble([]byte{0x27})
	require.Error(t, err)
}
