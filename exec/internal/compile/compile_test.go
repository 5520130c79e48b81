// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm5/wasm5/wasm"
)

func i32Sig(params, results int) wasm.FunctionSig {
	sig := wasm.FunctionSig{Form: int8(wasm.TypeFunc)}
	for i := 0; i < params; i++ {
		sig.ParamTypes = append(sig.ParamTypes, wasm.ValueTypeI32)
	}
	for i := 0; i < results; i++ {
		sig.ReturnTypes = append(sig.ReturnTypes, wasm.ValueTypeI32)
	}
	return sig
}

func testModule(sigs []wasm.FunctionSig, typeIndices []uint32, bodies []wasm.FunctionBody) *wasm.Module {
	m := &wasm.Module{
		Types:    &wasm.SectionTypes{Entries: sigs},
		Function: &wasm.SectionFunctions{Types: typeIndices},
		Code:     &wasm.SectionCode{Bodies: bodies},
	}
	for i, ti := range typeIndices {
		m.FunctionIndexSpace = append(m.FunctionIndexSpace, wasm.Function{
			Sig:  &m.Types.Entries[ti],
			Body: &m.Code.Bodies[i],
		})
	}
	return m
}

func TestHashSig(t *testing.T) {
	a := i32Sig(2, 1)
	b := i32Sig(2, 1)
	require.Equal(t, HashSig(&a), HashSig(&b))

	variants := []wasm.FunctionSig{
		i32Sig(0, 0),
		i32Sig(1, 1),
		i32Sig(2, 1),
		i32Sig(1, 2),
		{ParamTypes: []wasm.ValueType{wasm.ValueTypeF32}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeF32}},
		{ParamTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI64}},
		{ParamTypes: []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI32}},
	}
	seen := map[TypeHash]int{}
	for i, sig := range variants {
		sig := sig
		h := HashSig(&sig)
		if prev, dup := seen[h]; dup {
			t.Fatalf("signatures %d and %d collide: %v", prev, i, h)
		}
		seen[h] = i
	}
}

func TestCompileAdd(t *testing.T) {
	sig := i32Sig(2, 1)
	m := testModule(
		[]wasm.FunctionSig{sig},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x20, 0x00, 0x20, 0x01, 0x6a}}},
	)

	c, err := Compile(m)
	require.NoError(t, err)
	require.Len(t, c.Funcs, 1)

	meta := c.Funcs[0]
	require.Equal(t, 2, meta.NumParams)
	require.Equal(t, 2, meta.NumLocals)
	require.Equal(t, 1, meta.NumResults)
	require.Equal(t, 4, meta.FrameSize) // two locals plus two operands
	require.GreaterOrEqual(t, meta.Entry, 0)

	// entry cell layout: entry, numLocals, numParams, frameSize
	require.Equal(t, OpEntry, c.Code[meta.Entry])
	require.Equal(t, uint64(2), c.Code[meta.Entry+1])
	require.Equal(t, uint64(2), c.Code[meta.Entry+2])
	require.Equal(t, uint64(4), c.Code[meta.Entry+3])

	// the function ends with an end cell carrying the result count
	require.Equal(t, OpEnd, c.Code[len(c.Code)-2])
	require.Equal(t, uint64(1), c.Code[len(c.Code)-1])
}

func TestCompileBranchTargetsInBody(t *testing.T) {
	// block (result i32)  i32.const 10  br 0  i32.const 5  i32.const 2  i32.add  end
	body := []byte{0x02, 0x7f, 0x41, 0x0a, 0x0c, 0x00, 0x41, 0x05, 0x41, 0x02, 0x6a, 0x0b}
	sig := i32Sig(0, 1)
	m := testModule(
		[]wasm.FunctionSig{sig},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: body}},
	)

	c, err := Compile(m)
	require.NoError(t, err)

	// find the br cell and check its target lies inside the body
	meta := c.Funcs[0]
	for pc := meta.Entry; pc < len(c.Code); pc++ {
		if c.Code[pc] == OpBr {
			target := int(c.Code[pc+1])
			require.GreaterOrEqual(t, target, meta.Entry)
			require.LessOrEqual(t, target, len(c.Code))
			return
		}
	}
	t.Fatal("no br cell emitted")
}

func TestCompileImportedFunc(t *testing.T) {
	sig := i32Sig(1, 1)
	m := &wasm.Module{
		Types: &wasm.SectionTypes{Entries: []wasm.FunctionSig{sig}},
	}
	m.FunctionIndexSpace = []wasm.Function{{Sig: &m.Types.Entries[0]}} // host: nil body
	m.NumImportedFuncs = 1

	c, err := Compile(m)
	require.NoError(t, err)
	require.Equal(t, -1, c.Funcs[0].Entry)
	require.Equal(t, 1, c.Funcs[0].NumParams)
}
