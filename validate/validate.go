// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package validate provides functions for validating WebAssembly modules:
// module-level structural checks and per-function type checking of every
// body over an abstract type stack with a control-frame stack.
package validate

import (
	"bytes"
	"io"

	"github.com/wasm5/wasm5/wasm"
	ops "github.com/wasm5/wasm5/wasm/operators"
)

// maxPages is the hard limit on linear memory size (2^16 pages of 64 KiB).
const maxPages = 1 << 16

func verifyBody(fn *wasm.FunctionSig, body *wasm.FunctionBody, module *wasm.Module, declared map[uint32]struct{}) (*mockVM, error) {
	vm := &mockVM{
		stack:      make([]wasm.ValueType, 0, 16),
		code:       bytes.NewReader(body.Code),
		origLength: len(body.Code),
		curSig:     fn,
		module:     module,
		declared:   declared,
	}

	// The outermost frame is the function itself; its label receives the
	// function results, like the label of a block.
	vm.ctrlFrames = []frame{{
		op:         ops.Call,
		labelTypes: fn.ReturnTypes,
		endTypes:   fn.ReturnTypes,
	}}

	// Parameters count as local variables too.
	vm.locals = append(vm.locals, fn.ParamTypes...)
	for _, entry := range body.Locals {
		for i := uint32(0); i < entry.Count; i++ {
			vm.locals = append(vm.locals, entry.Type)
		}
	}

	for {
		op, err := vm.code.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return vm, err
		}

		var opStruct ops.Op
		if op == ops.PrefixMisc {
			sub, err := vm.fetchVarUint()
			if err != nil {
				return vm, err
			}
			if opStruct, err = ops.NewPrefixed(sub); err != nil {
				return vm, err
			}
		} else {
			if opStruct, err = ops.New(op); err != nil {
				return vm, err
			}
		}

		logger.Debugf("pc %d op %s", vm.pc(), opStruct.Name)

		if !opStruct.Polymorphic {
			if err := vm.adjustStack(opStruct); err != nil {
				return vm, err
			}
		}

		if opStruct.IsPref {
			if err := vm.verifyPrefixedOp(opStruct); err != nil {
				return vm, err
			}
			continue
		}

		if err := vm.verifyOp(opStruct); err != nil {
			return vm, err
		}
	}

	// The parser strips the function's final end opcode, so the stream
	// running dry closes the outermost frame.
	if len(vm.ctrlFrames) != 1 {
		return vm, verr(KindTypeMismatch, "unclosed block at end of function")
	}
	if _, err := vm.popFrame(); err != nil {
		return vm, err
	}

	return vm, nil
}

// adjustStack pops and pushes the fixed operand signature of op.
func (vm *mockVM) adjustStack(op ops.Op) error {
	if err := vm.popMatching(op.Args); err != nil {
		return err
	}
	for _, t := range op.Returns {
		vm.pushOperand(t)
	}
	return nil
}

func (vm *mockVM) verifyOp(opStruct ops.Op) error {
	module := vm.module
	fn := vm.curSig

	switch op := opStruct.Code; op {
	case ops.Unreachable:
		vm.setUnreachable()

	case ops.Block, ops.Loop:
		bt, err := vm.fetchBlockType()
		if err != nil {
			return err
		}
		params, results, err := vm.blockSig(bt)
		if err != nil {
			return err
		}
		if err := vm.popMatching(params); err != nil {
			return err
		}
		labels := results
		if op == ops.Loop {
			labels = params
		}
		vm.pushFrame(op, labels, results)
		vm.topFrame().params = params
		for _, t := range params {
			vm.pushOperand(t)
		}

	case ops.If:
		bt, err := vm.fetchBlockType()
		if err != nil {
			return err
		}
		params, results, err := vm.blockSig(bt)
		if err != nil {
			return err
		}
		if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := vm.popMatching(params); err != nil {
			return err
		}
		vm.pushFrame(op, results, results)
		vm.topFrame().params = params
		for _, t := range params {
			vm.pushOperand(t)
		}

	case ops.Else:
		f, err := vm.popFrame()
		if err != nil {
			return err
		}
		if f.op != ops.If {
			return verr(KindTypeMismatch, "else with no matching if")
		}
		vm.pushFrame(ops.Else, f.endTypes, f.endTypes)
		vm.topFrame().params = f.params
		for _, t := range f.params {
			vm.pushOperand(t)
		}

	case ops.End:
		if len(vm.ctrlFrames) == 1 {
			return verr(KindTypeMismatch, "unmatched end")
		}
		f, err := vm.popFrame()
		if err != nil {
			return err
		}
		// An if with no else implicitly maps its parameters to its
		// results, which only types when the two agree.
		if f.op == ops.If && !typesEqual(f.params, f.endTypes) {
			return verr(KindTypeMismatch, "if without else requires matching parameter and result types")
		}
		for _, t := range f.endTypes {
			vm.pushOperand(t)
		}

	case ops.Br:
		depth, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		f := vm.getFrameFromDepth(int(depth))
		if f == nil {
			return verr(KindUnknownLabel, "invalid nesting depth %d", depth)
		}
		if err := vm.popMatching(f.labelTypes); err != nil {
			return err
		}
		vm.setUnreachable()

	case ops.BrIf:
		depth, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		f := vm.getFrameFromDepth(int(depth))
		if f == nil {
			return verr(KindUnknownLabel, "invalid nesting depth %d", depth)
		}
		if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := vm.popMatching(f.labelTypes); err != nil {
			return err
		}
		// the target values remain on the stack for fallthrough
		for _, t := range f.labelTypes {
			vm.pushOperand(t)
		}

	case ops.BrTable:
		if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}

		targetCount, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		targets := make([]uint32, int(targetCount))
		for i := uint32(0); i < targetCount; i++ {
			targetDepth, err := vm.fetchVarUint()
			if err != nil {
				return err
			}
			if vm.getFrameFromDepth(int(targetDepth)) == nil {
				return verr(KindUnknownLabel, "invalid nesting depth %d", targetDepth)
			}
			targets[i] = targetDepth
		}

		defaultTarget, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		defaultBranch := vm.getFrameFromDepth(int(defaultTarget))
		if defaultBranch == nil {
			return verr(KindUnknownLabel, "invalid nesting depth %d", defaultTarget)
		}

		// every branch must share the default branch's label signature
		for _, target := range targets {
			f := vm.getFrameFromDepth(int(target))
			if !typesEqual(f.labelTypes, defaultBranch.labelTypes) {
				return verr(KindTypeMismatch, "br_table labels have inconsistent types")
			}
		}

		if err := vm.popMatching(defaultBranch.labelTypes); err != nil {
			return err
		}
		vm.setUnreachable()

	case ops.Return:
		if err := vm.popMatching(fn.ReturnTypes); err != nil {
			return err
		}
		vm.setUnreachable()

	case ops.Call:
		index, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		callee := module.GetFunction(int(index))
		if callee == nil {
			return verr(KindUnknownFunction, "invalid function index %d", index)
		}
		if err := vm.popMatching(callee.Sig.ParamTypes); err != nil {
			return err
		}
		for _, t := range callee.Sig.ReturnTypes {
			vm.pushOperand(t)
		}

	case ops.ReturnCall:
		index, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		callee := module.GetFunction(int(index))
		if callee == nil {
			return verr(KindUnknownFunction, "invalid function index %d", index)
		}
		if !typesEqual(callee.Sig.ReturnTypes, fn.ReturnTypes) {
			return verr(KindInvalidResultArity, "return_call to function whose results do not match the caller")
		}
		if err := vm.popMatching(callee.Sig.ParamTypes); err != nil {
			return err
		}
		vm.setUnreachable()

	case ops.CallIndirect, ops.ReturnCallIndirect:
		typeIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		tableIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if module.Types == nil || typeIndex >= uint32(len(module.Types.Entries)) {
			return verr(KindUnknownType, "invalid type index %d in call_indirect", typeIndex)
		}
		table := module.GetTable(int(tableIndex))
		if table == nil {
			return verr(KindUnknownTable, "invalid table index %d", tableIndex)
		}
		if table.ElementType != wasm.ValueTypeFuncref {
			return typeMismatch(wasm.ValueTypeFuncref, table.ElementType)
		}

		sig := &module.Types.Entries[typeIndex]
		if op == ops.ReturnCallIndirect && !typesEqual(sig.ReturnTypes, fn.ReturnTypes) {
			return verr(KindInvalidResultArity, "return_call_indirect to type whose results do not match the caller")
		}
		if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := vm.popMatching(sig.ParamTypes); err != nil {
			return err
		}
		if op == ops.CallIndirect {
			for _, t := range sig.ReturnTypes {
				vm.pushOperand(t)
			}
		} else {
			vm.setUnreachable()
		}

	case ops.Drop:
		if _, err := vm.popOperand(); err != nil {
			return err
		}

	case ops.Select:
		if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		t2, err := vm.popOperand()
		if err != nil {
			return err
		}
		t1, err := vm.popOperand()
		if err != nil {
			return err
		}
		if !equalType(t1, t2) {
			return typeMismatch(t1, t2)
		}
		if t1.IsRef() || t2.IsRef() {
			return verr(KindTypeMismatch, "select without type annotation requires numeric operands")
		}
		if t1 == unknownType {
			t1 = t2
		}
		vm.pushOperand(t1)

	case ops.SelectTyped:
		count, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if count != 1 {
			return verr(KindInvalidResultArity, "select requires exactly one result type, got %d", count)
		}
		t, err := vm.fetchValueType()
		if err != nil {
			return err
		}
		if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if _, err := vm.popExpect(t); err != nil {
			return err
		}
		if _, err := vm.popExpect(t); err != nil {
			return err
		}
		vm.pushOperand(t)

	case ops.LocalGet, ops.LocalSet, ops.LocalTee:
		i, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if int(i) >= len(vm.locals) {
			return verr(KindUnknownLocal, "invalid index for local variable %d", i)
		}
		t := vm.locals[i]

		switch op {
		case ops.LocalGet:
			vm.pushOperand(t)
		case ops.LocalSet:
			if _, err := vm.popExpect(t); err != nil {
				return err
			}
		case ops.LocalTee:
			if _, err := vm.popExpect(t); err != nil {
				return err
			}
			vm.pushOperand(t)
		}

	case ops.GlobalGet, ops.GlobalSet:
		index, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		gv := module.GetGlobal(int(index))
		if gv == nil {
			return verr(KindUnknownGlobal, "invalid global index %d", index)
		}
		if op == ops.GlobalGet {
			vm.pushOperand(gv.Type.Type)
		} else {
			if !gv.Type.Mutable {
				return verr(KindTypeMismatch, "global %d is immutable", index)
			}
			if _, err := vm.popExpect(gv.Type.Type); err != nil {
				return err
			}
		}

	case ops.TableGet, ops.TableSet:
		index, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		table := module.GetTable(int(index))
		if table == nil {
			return verr(KindUnknownTable, "invalid table index %d", index)
		}
		if op == ops.TableGet {
			if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
				return err
			}
			vm.pushOperand(table.ElementType)
		} else {
			if _, err := vm.popExpect(table.ElementType); err != nil {
				return err
			}
			if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
				return err
			}
		}

	case ops.RefNull:
		t, err := vm.fetchValueType()
		if err != nil {
			return err
		}
		if !t.IsRef() {
			return typeMismatch(wasm.ValueTypeFuncref, t)
		}
		vm.pushOperand(t)

	case ops.RefIsNull:
		t, err := vm.popOperand()
		if err != nil {
			return err
		}
		if t != unknownType && !t.IsRef() {
			return typeMismatch(wasm.ValueTypeFuncref, t)
		}
		vm.pushOperand(wasm.ValueTypeI32)

	case ops.RefFunc:
		index, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if module.GetFunction(int(index)) == nil {
			return verr(KindUnknownFunction, "invalid function index %d", index)
		}
		if _, ok := vm.declared[index]; !ok {
			return verr(KindUndeclaredFunctionReference, "ref.func of undeclared function %d", index)
		}
		vm.pushOperand(wasm.ValueTypeFuncref)

	case ops.I32Const:
		if _, err := vm.fetchVarInt(); err != nil {
			return err
		}

	case ops.I64Const:
		if _, err := vm.fetchVarInt64(); err != nil {
			return err
		}

	case ops.F32Const:
		if _, err := vm.fetchUint32(); err != nil {
			return err
		}

	case ops.F64Const:
		if _, err := vm.fetchUint64(); err != nil {
			return err
		}

	case ops.I32Load, ops.I64Load, ops.F32Load, ops.F64Load, ops.I32Load8s, ops.I32Load8u,
		ops.I32Load16s, ops.I32Load16u, ops.I64Load8s, ops.I64Load8u, ops.I64Load16s,
		ops.I64Load16u, ops.I64Load32s, ops.I64Load32u, ops.I32Store, ops.I64Store,
		ops.F32Store, ops.F64Store, ops.I32Store8, ops.I32Store16, ops.I64Store8,
		ops.I64Store16, ops.I64Store32:
		if module.GetMemory(0) == nil {
			return verr(KindUnknownMemory, "%s requires a memory", opStruct.Name)
		}
		align, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if _, err = vm.fetchVarUint(); err != nil { // offset
			return err
		}
		if align > naturalAlign(op) {
			return verr(KindAlignmentTooLarge, "alignment 2^%d larger than natural alignment of %s", align, opStruct.Name)
		}

	case ops.MemorySize, ops.MemoryGrow:
		memIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if module.GetMemory(int(memIndex)) == nil {
			return verr(KindUnknownMemory, "invalid memory index %d", memIndex)
		}
	}

	return nil
}

func (vm *mockVM) verifyPrefixedOp(opStruct ops.Op) error {
	module := vm.module

	switch opStruct.Sub {
	case ops.MemoryInit:
		dataIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		memIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if module.GetMemory(int(memIndex)) == nil {
			return verr(KindUnknownMemory, "invalid memory index %d", memIndex)
		}
		return vm.checkDataIndex(dataIndex)

	case ops.DataDrop:
		dataIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		return vm.checkDataIndex(dataIndex)

	case ops.MemoryCopy:
		dst, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		src, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if module.GetMemory(int(dst)) == nil || module.GetMemory(int(src)) == nil {
			return verr(KindUnknownMemory, "invalid memory index in memory.copy")
		}

	case ops.MemoryFill:
		memIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if module.GetMemory(int(memIndex)) == nil {
			return verr(KindUnknownMemory, "invalid memory index %d", memIndex)
		}

	case ops.TableInit:
		elemIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		tableIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		table := module.GetTable(int(tableIndex))
		if table == nil {
			return verr(KindUnknownTable, "invalid table index %d", tableIndex)
		}
		seg, err := vm.elemSegment(elemIndex)
		if err != nil {
			return err
		}
		if seg.Type != table.ElementType {
			return typeMismatch(table.ElementType, seg.Type)
		}

	case ops.ElemDrop:
		elemIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if _, err := vm.elemSegment(elemIndex); err != nil {
			return err
		}

	case ops.TableCopy:
		dstIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		srcIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		dst := module.GetTable(int(dstIndex))
		src := module.GetTable(int(srcIndex))
		if dst == nil || src == nil {
			return verr(KindUnknownTable, "invalid table index in table.copy")
		}
		if dst.ElementType != src.ElementType {
			return typeMismatch(dst.ElementType, src.ElementType)
		}

	case ops.TableGrow:
		tableIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		table := module.GetTable(int(tableIndex))
		if table == nil {
			return verr(KindUnknownTable, "invalid table index %d", tableIndex)
		}
		if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if _, err := vm.popExpect(table.ElementType); err != nil {
			return err
		}
		vm.pushOperand(wasm.ValueTypeI32)

	case ops.TableSize:
		tableIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		if module.GetTable(int(tableIndex)) == nil {
			return verr(KindUnknownTable, "invalid table index %d", tableIndex)
		}

	case ops.TableFill:
		tableIndex, err := vm.fetchVarUint()
		if err != nil {
			return err
		}
		table := module.GetTable(int(tableIndex))
		if table == nil {
			return verr(KindUnknownTable, "invalid table index %d", tableIndex)
		}
		if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if _, err := vm.popExpect(table.ElementType); err != nil {
			return err
		}
		if _, err := vm.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
	}

	return nil
}

func (vm *mockVM) checkDataIndex(index uint32) error {
	if vm.module.DataCount == nil {
		return verr(KindUnknownDataSegment, "data count section required")
	}
	if index >= vm.module.DataCount.Count {
		return verr(KindUnknownDataSegment, "invalid data segment index %d", index)
	}
	return nil
}

func (vm *mockVM) elemSegment(index uint32) (*wasm.ElementSegment, error) {
	if vm.module.Elements == nil || index >= uint32(len(vm.module.Elements.Entries)) {
		return nil, verr(KindUnknownElementSegment, "invalid element segment index %d", index)
	}
	return &vm.module.Elements.Entries[index], nil
}

func typesEqual(a, b []wasm.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// blockSig resolves a block type against the module's type section.
func (vm *mockVM) blockSig(bt wasm.BlockType) (params, results []wasm.ValueType, err error) {
	params, results, merr := vm.module.BlockSig(bt)
	if merr != nil {
		if idx, ok := bt.TypeIndex(); ok {
			return nil, nil, verr(KindUnknownType, "invalid type index %d in block type", idx)
		}
		return nil, nil, merr
	}
	if t, ok := bt.Result(); ok {
		switch t {
		case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64,
			wasm.ValueTypeV128, wasm.ValueTypeFuncref, wasm.ValueTypeExternref:
		default:
			return nil, nil, verr(KindUnknownType, "invalid block type %d", int64(bt))
		}
	}
	return params, results, nil
}

func naturalAlign(op byte) uint32 {
	switch op {
	case ops.I32Load8s, ops.I32Load8u, ops.I64Load8s, ops.I64Load8u, ops.I32Store8, ops.I64Store8:
		return 0
	case ops.I32Load16s, ops.I32Load16u, ops.I64Load16s, ops.I64Load16u, ops.I32Store16, ops.I64Store16:
		return 1
	case ops.I32Load, ops.F32Load, ops.I64Load32s, ops.I64Load32u, ops.I32Store, ops.F32Store, ops.I64Store32:
		return 2
	default: // i64.load, f64.load, i64.store, f64.store
		return 3
	}
}
