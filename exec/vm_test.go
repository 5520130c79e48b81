// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm5/wasm5/validate"
	"github.com/wasm5/wasm5/wasm"
)

const (
	i32T = wasm.ValueTypeI32
	i64T = wasm.ValueTypeI64
	f32T = wasm.ValueTypeF32
	f64T = wasm.ValueTypeF64
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

func withMemory(m *wasm.Module, pages, maxPages uint32) *wasm.Module {
	lim := wasm.ResizableLimits{Initial: pages}
	if maxPages > 0 {
		lim.Flags = 1
		lim.Maximum = maxPages
	}
	m.Memory = &wasm.SectionMemories{Entries: []wasm.Memory{{Limits: lim}}}
	m.MemoryIndexSpace = m.Memory.Entries
	return m
}

// newTestVM verifies the module first, so every executed module is also a
// validator fixture.
func newTestVM(t *testing.T, m *wasm.Module, opts ...Option) *VM {
	t.Helper()
	require.NoError(t, validate.VerifyModule(m))
	vm, err := NewVM(m, opts...)
	require.NoError(t, err)
	return vm
}

func requireTrap(t *testing.T, err error, code Trap) {
	t.Helper()
	require.Error(t, err)
	te, ok := err.(*TrapError)
	require.True(t, ok, "expected a trap, got %v", err)
	require.Equal(t, code, te.Code)
}

func TestExecAdd(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{i32T, i32T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x20, 0x00, 0x20, 0x01, 0x6a}}},
	)
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0, 3, 4)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, res)
}

func TestExecFactLoop(t *testing.T) {
	body := []byte{
		0x41, 0x01, // i32.const 1
		0x21, 0x01, // local.set 1 (acc)
		0x02, 0x40, // block
		0x03, 0x40, // loop
		0x20, 0x00, // local.get 0
		0x41, 0x01, // i32.const 1
		0x4c,       // i32.le_s
		0x0d, 0x01, // br_if 1
		0x20, 0x01, // local.get 1
		0x20, 0x00, // local.get 0
		0x6c,       // i32.mul
		0x21, 0x01, // local.set 1
		0x20, 0x00, // local.get 0
		0x41, 0x01, // i32.const 1
		0x6b,       // i32.sub
		0x21, 0x00, // local.set 0
		0x0c, 0x00, // br 0
		0x0b,       // end loop
		0x0b,       // end block
		0x20, 0x01, // local.get 1
	}
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{
			Locals: []wasm.LocalEntry{{Count: 1, Type: i32T}},
			Code:   body,
		}},
	)
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{3628800}, res)

	res, err = vm.ExecCode(0, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, res)
}

func TestExecDivByZeroTrap(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{i32T, i32T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x20, 0x00, 0x20, 0x01, 0x6d}}}, // i32.div_s
	)
	vm := newTestVM(t, m)

	_, err := vm.ExecCode(0, 1, 0)
	requireTrap(t, err, TrapDivByZero)

	// the vm remains usable and its state is unchanged
	res, err := vm.ExecCode(0, 6, 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, res)
}

func TestExecDivOverflowTrap(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{i32T, i32T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x20, 0x00, 0x20, 0x01, 0x6d}}},
	)
	vm := newTestVM(t, m)

	_, err := vm.ExecCode(0, uint64(uint32(1)<<31), uint64(uint32(0xffffffff))) // MinInt32 / -1
	requireTrap(t, err, TrapIntOverflow)
}

func TestExecBlockBrValue(t *testing.T) {
	// block (result i32) (br 0 (i32.const 10)) (i32.add (i32.const 5) (i32.const 2))
	m := buildModule(
		[]wasm.FunctionSig{fnSig(nil, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{
			0x02, 0x7f,
			0x41, 0x0a,
			0x0c, 0x00,
			0x41, 0x05,
			0x41, 0x02,
			0x6a,
			0x0b,
		}}},
	)
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0)
	require.NoError(t, err)
	require.Equal(t, []uint64{10}, res)
}

func TestExecIfElse(t *testing.T) {
	// if (result i32) then 10 else 20
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{
			0x20, 0x00,
			0x04, 0x7f,
			0x41, 0x0a,
			0x05,
			0x41, 0x14,
			0x0b,
		}}},
	)
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{10}, res)

	res, err = vm.ExecCode(0, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{20}, res)
}

func TestExecBrTable(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{
			0x02, 0x40, // block A
			0x02, 0x40, // block B
			0x02, 0x40, // block C
			0x20, 0x00, // local.get 0
			0x0e, 0x02, 0x00, 0x01, 0x02, // br_table [C B] default A
			0x0b,
			0x41, 0x0a, // 10
			0x0f, // return
			0x0b,
			0x41, 0x14, // 20
			0x0f, // return
			0x0b,
			0x41, 0x1e, // 30
		}}},
	)
	vm := newTestVM(t, m)

	for arg, want := range map[uint64]uint64{0: 10, 1: 20, 2: 30, 9: 30} {
		res, err := vm.ExecCode(0, arg)
		require.NoError(t, err)
		require.Equal(t, []uint64{want}, res, "arg %d", arg)
	}
}

func TestExecCall(t *testing.T) {
	// f0 calls f1(a, b) twice and sums the results
	sigs := []wasm.FunctionSig{
		fnSig([]wasm.ValueType{i32T, i32T}, []wasm.ValueType{i32T}),
	}
	m := buildModule(sigs, []uint32{0, 0}, []wasm.FunctionBody{
		{Code: []byte{
			0x20, 0x00, 0x20, 0x01, 0x10, 0x01, // call 1
			0x20, 0x00, 0x20, 0x01, 0x10, 0x01, // call 1
			0x6a, // i32.add
		}},
		{Code: []byte{0x20, 0x00, 0x20, 0x01, 0x6a}},
	})
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0, 3, 4)
	require.NoError(t, err)
	require.Equal(t, []uint64{14}, res)
}

func TestExecReturnCall(t *testing.T) {
	// tail-recursive factorial: fact(n, acc)
	body := []byte{
		0x20, 0x00, // local.get n
		0x41, 0x01, // i32.const 1
		0x4c,       // i32.le_s
		0x04, 0x40, // if
		0x20, 0x01, // local.get acc
		0x0f, // return
		0x0b, // end
		0x20, 0x00, 0x41, 0x01, 0x6b, // n - 1
		0x20, 0x01, 0x20, 0x00, 0x6c, // acc * n
		0x12, 0x00, // return_call 0
	}
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{i32T, i32T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: body}},
	)
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0, 10, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{3628800}, res)

	// deep enough that non-tail recursion would exhaust the native stack
	res, err = vm.ExecCode(0, 100000, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
}

func TestExecCallIndirect(t *testing.T) {
	sigs := []wasm.FunctionSig{
		fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T}),
		fnSig([]wasm.ValueType{f32T}, []wasm.ValueType{f32T}),
		fnSig([]wasm.ValueType{i32T, i32T}, []wasm.ValueType{i32T}),
	}
	m := buildModule(sigs, []uint32{0, 1, 2}, []wasm.FunctionBody{
		{Code: []byte{0x20, 0x00}},
		{Code: []byte{0x20, 0x00}},
		// caller(x, i): call_indirect (type 0) with element index i
		{Code: []byte{0x20, 0x00, 0x20, 0x01, 0x11, 0x00, 0x00}},
	})
	m.Table = &wasm.SectionTables{Entries: []wasm.Table{{
		ElementType: wasm.ValueTypeFuncref,
		Limits:      wasm.ResizableLimits{Initial: 3},
	}}}
	m.TableIndexSpace = m.Table.Entries
	m.Elements = &wasm.SectionElements{Entries: []wasm.ElementSegment{{
		Mode:    wasm.ElemModeActive,
		Type:    wasm.ValueTypeFuncref,
		Offset:  []byte{0x41, 0x00, 0x0b},
		Indices: []int64{0, 1},
	}}}
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(2, 5, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, res)

	// index 1 has type (f32)->f32: expected (i32)->i32 must trap
	_, err = vm.ExecCode(2, 5, 1)
	requireTrap(t, err, TrapIndirectTypeMismatch)

	// index 2 is uninitialized
	_, err = vm.ExecCode(2, 5, 2)
	requireTrap(t, err, TrapUninitializedElement)

	// out of bounds index
	_, err = vm.ExecCode(2, 5, 10)
	requireTrap(t, err, TrapOOBTable)
}

func TestExecMemoryLoadStore(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig(nil, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{
			0x41, 0x10, // i32.const 16
			0x41, 0x2a, // i32.const 42
			0x36, 0x02, 0x00, // i32.store
			0x41, 0x10, // i32.const 16
			0x28, 0x02, 0x00, // i32.load
		}}},
	)
	withMemory(m, 1, 0)
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)
}

func TestExecMemoryOOBTrap(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x20, 0x00, 0x28, 0x02, 0x00}}}, // i32.load
	)
	withMemory(m, 1, 0)
	vm := newTestVM(t, m)

	// the last 4-byte load inside one page is at 65532
	res, err := vm.ExecCode(0, 65532)
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, res)

	_, err = vm.ExecCode(0, 65533)
	requireTrap(t, err, TrapOOBMemory)
}

func TestExecMemoryGrow(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{
			fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T, i32T}),
		},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{
			0x20, 0x00, // local.get 0
			0x40, 0x00, // memory.grow
			0x3f, 0x00, // memory.size
		}}},
	)
	withMemory(m, 1, 4)
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 3}, res) // old size, new size

	// over the declared maximum: grow refuses, size is unchanged
	res, err = vm.ExecCode(0, 100)
	require.NoError(t, err)
	require.Equal(t, []uint64{uint64(uint32(0xffffffff)), 3}, res)
}

func TestExecGlobals(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig(nil, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{
			0x23, 0x00, // global.get 0
			0x41, 0x01, // i32.const 1
			0x6a,       // i32.add
			0x24, 0x00, // global.set 0
			0x23, 0x00, // global.get 0
		}}},
	)
	m.GlobalIndexSpace = []wasm.GlobalEntry{{
		Type: &wasm.GlobalVar{Type: i32T, Mutable: true},
		Init: []byte{0x41, 0x05, 0x0b}, // i32.const 5
	}}
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0)
	require.NoError(t, err)
	require.Equal(t, []uint64{6}, res)

	res, err = vm.ExecCode(0)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, res)
}

func TestExecSelect(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{
			0x41, 0x0a, // i32.const 10
			0x41, 0x14, // i32.const 20
			0x20, 0x00, // local.get 0
			0x1b, // select
		}}},
	)
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{10}, res)

	res, err = vm.ExecCode(0, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{20}, res)
}

func TestExecMultiValue(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig(nil, []wasm.ValueType{i32T, i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x41, 0x01, 0x41, 0x02}}},
	)
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, res)
}

func TestExecDataDropThenInitTraps(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{
			fnSig(nil, nil),
			fnSig(nil, nil),
		},
		[]uint32{0, 1},
		[]wasm.FunctionBody{
			// init: memory.init 0 (dst=0 src=0 n=3)
			{Code: []byte{0x41, 0x00, 0x41, 0x00, 0x41, 0x03, 0xfc, 0x08, 0x00, 0x00}},
			// drop_then_init: data.drop 0 ; memory.init 0 (n=1)
			{Code: []byte{
				0xfc, 0x09, 0x00,
				0x41, 0x00, 0x41, 0x00, 0x41, 0x01, 0xfc, 0x08, 0x00, 0x00,
			}},
		},
	)
	withMemory(m, 1, 0)
	m.Data = &wasm.SectionData{Entries: []wasm.DataSegment{{
		Mode: wasm.DataModePassive,
		Data: []byte("abc"),
	}}}
	m.DataCount = &wasm.SectionDataCount{Count: 1}
	vm := newTestVM(t, m)

	_, err := vm.ExecCode(0)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), vm.Memory()[:3])

	_, err = vm.ExecCode(1)
	requireTrap(t, err, TrapOOBMemory)
}

func TestExecTableOps(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig(nil, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{
			0x41, 0x00, // i32.const 0
			0x25, 0x00, // table.get 0
			0xd1, // ref.is_null
		}}},
	)
	m.Table = &wasm.SectionTables{Entries: []wasm.Table{{
		ElementType: wasm.ValueTypeFuncref,
		Limits:      wasm.ResizableLimits{Initial: 1},
	}}}
	m.TableIndexSpace = m.Table.Entries
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, res)
}

func TestExecSignExtension(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x20, 0x00, 0xc0}}}, // i32.extend8_s
	)
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(0, 0x80)
	require.NoError(t, err)
	require.Equal(t, []uint64{uint64(uint32(0xffffff80))}, res)
}

func TestExecTruncSat(t *testing.T) {
	// i32.trunc_sat_f64_s of a huge value saturates instead of trapping
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{f64T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x20, 0x00, 0xfc, 0x02}}},
	)
	vm := newTestVM(t, m)

	exec := func(f float64) int32 {
		res, err := vm.ExecCode(0, math.Float64bits(f))
		require.NoError(t, err)
		return int32(uint32(res[0]))
	}
	require.Equal(t, int32(2147483647), exec(1e30))
	require.Equal(t, int32(-2147483648), exec(-1e30))
	require.Equal(t, int32(0), exec(math.NaN()))
	require.Equal(t, int32(-7), exec(-7.9))
}

func TestExecTruncTrap(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig([]wasm.ValueType{f64T}, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x20, 0x00, 0xaa}}}, // i32.trunc_f64_s
	)
	vm := newTestVM(t, m)

	_, err := vm.ExecCode(0, math.Float64bits(1e30))
	requireTrap(t, err, TrapIntOverflow)

	_, err = vm.ExecCode(0, math.Float64bits(math.NaN()))
	requireTrap(t, err, TrapInvalidConversion)

	res, err := vm.ExecCode(0, math.Float64bits(-7.9))
	require.NoError(t, err)
	require.Equal(t, []uint64{uint64(uint32(0xfffffff9))}, res) // -7
}

func TestExecStackOverflowTrap(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig(nil, nil)},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x10, 0x00}}}, // call 0
	)
	vm := newTestVM(t, m)

	_, err := vm.ExecCode(0)
	requireTrap(t, err, TrapStackOverflow)
}

func TestExecHostFunction(t *testing.T) {
	sigs := []wasm.FunctionSig{
		fnSig([]wasm.ValueType{i32T}, []wasm.ValueType{i32T}),
	}
	m := buildModule(sigs, nil, nil)
	m.Import = &wasm.SectionImports{Entries: []wasm.ImportEntry{{
		ModuleName: "env",
		FieldName:  "add1",
		Kind:       wasm.ExternalFunction,
		Type:       wasm.FuncImport{Type: 0},
	}}}
	m.FunctionIndexSpace = []wasm.Function{{Sig: &m.Types.Entries[0]}}
	m.NumImportedFuncs = 1

	m.Function.Types = []uint32{0}
	m.Code.Bodies = []wasm.FunctionBody{{Code: []byte{0x20, 0x00, 0x10, 0x00}}} // call import
	m.FunctionIndexSpace = append(m.FunctionIndexSpace, wasm.Function{
		Sig:  &m.Types.Entries[0],
		Body: &m.Code.Bodies[0],
	})

	add1 := func(proc *Process, args []uint64) (uint64, Trap) {
		return args[0] + 1, TrapNone
	}
	vm := newTestVM(t, m, WithHostModule("env", map[string]HostFunction{"add1": add1}))

	res, err := vm.ExecCode(1, 41)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)
}

func TestExecStartFunction(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{
			fnSig(nil, nil),
			fnSig(nil, []wasm.ValueType{i32T}),
		},
		[]uint32{0, 1},
		[]wasm.FunctionBody{
			{Code: []byte{0x41, 0x07, 0x24, 0x00}}, // global.set 0 = 7
			{Code: []byte{0x23, 0x00}},
		},
	)
	m.GlobalIndexSpace = []wasm.GlobalEntry{{
		Type: &wasm.GlobalVar{Type: i32T, Mutable: true},
		Init: []byte{0x41, 0x00, 0x0b},
	}}
	m.Start = &wasm.SectionStartFunction{Index: 0}
	vm := newTestVM(t, m)

	res, err := vm.ExecCode(1)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, res)
}

func TestExecExport(t *testing.T) {
	m := buildModule(
		[]wasm.FunctionSig{fnSig(nil, []wasm.ValueType{i32T})},
		[]uint32{0},
		[]wasm.FunctionBody{{Code: []byte{0x41, 0x2a}}},
	)
	m.Export = &wasm.SectionExports{Entries: []wasm.ExportEntry{
		{FieldStr: "answer", Kind: wasm.ExternalFunction, Index: 0},
	}}
	vm := newTestVM(t, m)

	res, err := vm.ExecExport("answer")
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)

	_, err = vm.ExecExport("missing")
	require.Error(t, err)
}
