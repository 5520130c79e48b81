// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm5/wasm5/wasm"
)

const (
	i32T = wasm.ValueTypeI32
	i64T = wasm.ValueTypeI64
)

func fnSig(params, results []wasm.ValueType) wasm.FunctionSig {
	return wasm.FunctionSig{Form: int8(wasm.TypeFunc), ParamTypes: params, ReturnTypes: results}
}

// buildModule assembles a module from raw function bodies, mirroring the
// index space population done by the binary reader.
func buildModule(sigs []wasm.FunctionSig, typeIndices []uint32, bodies []wasm.FunctionBody) *wasm.Module {
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

func singleFunc(sig wasm.FunctionSig, locals []wasm.LocalEntry, code []byte) *wasm.Module {
	return buildModule(
		[]wasm.FunctionSig{sig},
		[]uint32{0},
		[]wasm.FunctionBody{{Locals: locals, Code: code}},
	)
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "error %v carries no validation kind", err)
	require.Equal(t, kind, verr.Kind, "got %v", err)
}

func TestVerifyAdd(t *testing.T) {
	m := singleFunc(
		fnSig([]wasm.ValueType{i32T, i32T}, []wasm.ValueType{i32T}),
		nil,
		[]byte{0x20, 0x00, 0x20, 0x01, 0x6a}, // local.get 0; local.get 1; i32.add
	)
	require.NoError(t, VerifyModule(m))
}

func TestVerifyDeterministic(t *testing.T) {
	m := singleFunc(
		fnSig(nil, []wasm.ValueType{i32T}),
		nil,
		[]byte{0x42, 0x05}, // i64.const: wrong result type
	)
	first := VerifyModule(m)
	requireKind(t, first, KindTypeMismatch)
	for i := 0; i < 3; i++ {
		again := VerifyModule(m)
		require.Equal(t, first.Error(), again.Error())
	}
}

func TestVerifyTypeMismatch(t *testing.T) {
	m := singleFunc(
		fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i64T}),
		nil,
		[]byte{0x20, 0x00, 0x42, 0x01, 0x7c}, // i64.add of i32 and i64
	)
	requireKind(t, VerifyModule(m), KindTypeMismatch)
}

func TestVerifyUnknownLocal(t *testing.T) {
	m := singleFunc(
		fnSig([]wasm.ValueType{i32T}, nil),
		nil,
		[]byte{0x20, 0x05, 0x1a}, // local.get 5; drop
	)
	requireKind(t, VerifyModule(m), KindUnknownLocal)
}

func TestVerifyUnknownLabel(t *testing.T) {
	m := singleFunc(
		fnSig(nil, nil),
		nil,
		[]byte{0x0c, 0x05}, // br 5
	)
	requireKind(t, VerifyModule(m), KindUnknownLabel)
}

func TestVerifyUnreachableAfterBr(t *testing.T) {
	// block (result i32) (br 0 (i32.const 10)) (i32.add (i32.const 5) (i32.const 2))
	// validates: the add after the branch is dead code typed polymorphically.
	m := singleFunc(
		fnSig(nil, []wasm.ValueType{i32T}),
		nil,
		[]byte{
			0x02, 0x7f, // block (result i32)
			0x41, 0x0a, // i32.const 10
			0x0c, 0x00, // br 0
			0x41, 0x05, // i32.const 5
			0x41, 0x02, // i32.const 2
			0x6a, // i32.add
			0x0b, // end
		},
	)
	require.NoError(t, VerifyModule(m))
}

func TestVerifyDeadCodeStillTypeChecked(t *testing.T) {
	// even after unreachable, an i64 operand under i32.add is rejected
	m := singleFunc(
		fnSig(nil, nil),
		nil,
		[]byte{
			0x00,       // unreachable
			0x42, 0x01, // i64.const 1
			0x41, 0x02, // i32.const 2
			0x6a, // i32.add
			0x1a, // drop
		},
	)
	requireKind(t, VerifyModule(m), KindTypeMismatch)
}

func TestVerifyUnbalancedStack(t *testing.T) {
	m := singleFunc(
		fnSig(nil, nil),
		nil,
		[]byte{0x41, 0x01}, // i32.const 1 left on the stack
	)
	requireKind(t, VerifyModule(m), KindTypeMismatch)
}

func TestVerifySelectUntyped(t *testing.T) {
	m := singleFunc(
		fnSig(nil, []wasm.ValueType{i32T}),
		nil,
		[]byte{0x41, 0x01, 0x42, 0x02, 0x41, 0x00, 0x1b}, // select of i32 and i64
	)
	requireKind(t, VerifyModule(m), KindTypeMismatch)
}

func TestVerifyIfWithoutElseNeedsBalancedType(t *testing.T) {
	m := singleFunc(
		fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T}),
		nil,
		[]byte{
			0x20, 0x00, // local.get 0
			0x04, 0x7f, // if (result i32)
			0x41, 0x01, // i32.const 1
			0x0b, // end: no else to produce the other arm's value
		},
	)
	requireKind(t, VerifyModule(m), KindTypeMismatch)
}

func TestVerifyBrTableArityMismatch(t *testing.T) {
	m := singleFunc(
		fnSig(nil, []wasm.ValueType{i32T}),
		nil,
		[]byte{
			0x02, 0x7f, // block (result i32)
			0x02, 0x40, // block (no result)
			0x41, 0x01, // i32.const 1
			0x41, 0x00, // i32.const 0
			0x0e, 0x01, 0x00, 0x01, // br_table [0] default 1: labels disagree
			0x0b,
			0x0b,
		},
	)
	requireKind(t, VerifyModule(m), KindTypeMismatch)
}

func TestVerifyAlignmentTooLarge(t *testing.T) {
	m := singleFunc(
		fnSig(nil, []wasm.ValueType{i32T}),
		nil,
		[]byte{0x41, 0x00, 0x28, 0x03, 0x00}, // i32.load with align 2^3
	)
	m.Memory = &wasm.SectionMemories{Entries: []wasm.Memory{{Limits: wasm.ResizableLimits{Initial: 1}}}}
	m.MemoryIndexSpace = m.Memory.Entries
	requireKind(t, VerifyModule(m), KindAlignmentTooLarge)
}

func TestVerifyMemoryRequired(t *testing.T) {
	m := singleFunc(
		fnSig(nil, []wasm.ValueType{i32T}),
		nil,
		[]byte{0x41, 0x00, 0x28, 0x02, 0x00}, // i32.load without a memory
	)
	requireKind(t, VerifyModule(m), KindUnknownMemory)
}

func TestVerifyGlobalSetImmutable(t *testing.T) {
	m := singleFunc(
		fnSig(nil, nil),
		nil,
		[]byte{0x41, 0x01, 0x24, 0x00}, // global.set 0
	)
	m.GlobalIndexSpace = []wasm.GlobalEntry{{
		Type: &wasm.GlobalVar{Type: i32T, Mutable: false},
		Init: []byte{0x41, 0x00, 0x0b},
	}}
	requireKind(t, VerifyModule(m), KindTypeMismatch)
}

func TestVerifyDuplicateExport(t *testing.T) {
	m := singleFunc(
		fnSig(nil, nil),
		nil,
		[]byte{0x01}, // nop
	)
	m.Export = &wasm.SectionExports{Entries: []wasm.ExportEntry{
		{FieldStr: "f", Kind: wasm.ExternalFunction, Index: 0},
		{FieldStr: "f", Kind: wasm.ExternalFunction, Index: 0},
	}}
	requireKind(t, VerifyModule(m), KindDuplicateExport)
}

func TestVerifyMultipleMemories(t *testing.T) {
	m := singleFunc(fnSig(nil, nil), nil, []byte{0x01})
	m.MemoryIndexSpace = []wasm.Memory{
		{Limits: wasm.ResizableLimits{Initial: 1}},
		{Limits: wasm.ResizableLimits{Initial: 1}},
	}
	requireKind(t, VerifyModule(m), KindMultipleMemories)
}

func TestVerifySizeMinGreaterThanMax(t *testing.T) {
	m := singleFunc(fnSig(nil, nil), nil, []byte{0x01})
	m.MemoryIndexSpace = []wasm.Memory{
		{Limits: wasm.ResizableLimits{Flags: 1, Initial: 4, Maximum: 2}},
	}
	requireKind(t, VerifyModule(m), KindSizeMinGreaterThanMax)
}

func TestVerifyConstExprRequired(t *testing.T) {
	m := singleFunc(fnSig(nil, nil), nil, []byte{0x01})
	m.GlobalIndexSpace = []wasm.GlobalEntry{{
		Type: &wasm.GlobalVar{Type: i32T},
		Init: []byte{0x41, 0x01, 0x41, 0x01, 0x6a, 0x0b}, // i32.add is not constant
	}}
	requireKind(t, VerifyModule(m), KindConstantExpressionRequired)
}

func TestVerifyStartFunctionSignature(t *testing.T) {
	m := singleFunc(
		fnSig([]wasm.ValueType{i32T}, nil),
		nil,
		[]byte{0x01},
	)
	m.Start = &wasm.SectionStartFunction{Index: 0}
	requireKind(t, VerifyModule(m), KindInvalidStartFunction)
}

func TestVerifyRefFuncUndeclared(t *testing.T) {
	m := singleFunc(
		fnSig(nil, nil),
		nil,
		[]byte{0xd2, 0x00, 0x1a}, // ref.func 0; drop
	)
	requireKind(t, VerifyModule(m), KindUndeclaredFunctionReference)
}

func TestVerifyRefFuncDeclaredByElem(t *testing.T) {
	m := singleFunc(
		fnSig(nil, nil),
		nil,
		[]byte{0xd2, 0x00, 0x1a}, // ref.func 0; drop
	)
	m.Elements = &wasm.SectionElements{Entries: []wasm.ElementSegment{{
		Mode:    wasm.ElemModeDeclarative,
		Type:    wasm.ValueTypeFuncref,
		Indices: []int64{0},
	}}}
	require.NoError(t, VerifyModule(m))
}

func TestVerifyMemoryInitNeedsDataCount(t *testing.T) {
	m := singleFunc(
		fnSig(nil, nil),
		nil,
		[]byte{0x41, 0x00, 0x41, 0x00, 0x41, 0x00, 0xfc, 0x08, 0x00, 0x00}, // memory.init 0
	)
	m.MemoryIndexSpace = []wasm.Memory{{Limits: wasm.ResizableLimits{Initial: 1}}}
	requireKind(t, VerifyModule(m), KindUnknownDataSegment)
}

func TestVerifyLoopParams(t *testing.T) {
	// loop with a parameter typed through the type section
	sigs := []wasm.FunctionSig{
		fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T}),
		fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T}), // block type
	}
	m := buildModule(sigs, []uint32{0}, []wasm.FunctionBody{{Code: []byte{
		0x20, 0x00, // local.get 0
		0x03, 0x01, // loop (type 1): i32 -> i32
		0x0b, // end
	}}})
	require.NoError(t, VerifyModule(m))
}

func TestVerifyTailCallResultMismatch(t *testing.T) {
	sigs := []wasm.FunctionSig{
		fnSig(nil, []wasm.ValueType{i32T}),
		fnSig(nil, []wasm.ValueType{i64T}),
	}
	m := buildModule(sigs, []uint32{0, 1}, []wasm.FunctionBody{
		{Code: []byte{0x12, 0x01}}, // return_call 1: results differ
		{Code: []byte{0x42, 0x00}},
	})
	requireKind(t, VerifyModule(m), KindInvalidResultArity)
}
