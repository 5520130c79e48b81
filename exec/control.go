// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"github.com/wasm5/wasm5/exec/internal/compile"
	ops "github.com/wasm5/wasm5/wasm/operators"
)

func init() {
	register(compile.OpEntry, (*VM).entry)
	register(compile.OpEnd, (*VM).end)
	register(compile.OpBr, (*VM).br)
	register(compile.OpBrIf, (*VM).brIf)
	register(compile.OpBrZ, (*VM).brZ)
	register(compile.OpBrTable, (*VM).brTable)
	register(compile.OpCopySlot, (*VM).copySlot)
	register(compile.OpSetSp, (*VM).setSp)
	register(compile.OpCall, (*VM).call)
	register(compile.OpCallHost, (*VM).callHostOp)
	register(compile.OpCallIndirect, (*VM).callIndirect)
	register(compile.OpReturnCall, (*VM).returnCall)
	register(compile.OpReturnCallIndirect, (*VM).returnCallIndirect)

	registerByte(ops.Unreachable, (*VM).unreachable)
	registerByte(ops.Drop, (*VM).drop)
	registerByte(ops.Select, (*VM).selectOp)
	registerByte(ops.LocalGet, (*VM).localGet)
	registerByte(ops.LocalSet, (*VM).localSet)
	registerByte(ops.LocalTee, (*VM).localTee)
	registerByte(ops.GlobalGet, (*VM).globalGet)
	registerByte(ops.GlobalSet, (*VM).globalSet)
}

// entry opens a function frame: it checks stack headroom, zeroes the
// non-argument locals and positions sp above the locals.
func (vm *VM) entry() {
	numLocals := vm.fetchInt()
	numParams := vm.fetchInt()
	frameSize := vm.fetchInt()

	if vm.fp+frameSize > len(vm.stack) {
		panic(TrapStackOverflow)
	}
	for i := numParams; i < numLocals; i++ {
		vm.stack[vm.fp+i] = 0
	}
	vm.sp = vm.fp + numLocals
}

// end returns from the current frame, moving the results to the base of
// the frame where the caller expects them.
func (vm *VM) end() {
	n := vm.fetchInt()
	copy(vm.stack[vm.fp:vm.fp+n], vm.stack[vm.sp-n:vm.sp])
	vm.sp = vm.fp + n
	vm.returned = true
}

func (vm *VM) br() {
	vm.pc = vm.fetchInt()
}

func (vm *VM) brIf() {
	taken := vm.code[vm.pc]
	notTaken := vm.code[vm.pc+1]
	if vm.popUint32() != 0 {
		vm.pc = int(taken)
	} else {
		vm.pc = int(notTaken)
	}
}

func (vm *VM) brZ() {
	target := vm.fetchInt()
	if vm.popUint32() == 0 {
		vm.pc = target
	}
}

func (vm *VM) brTable() {
	count := vm.fetchInt()
	idx := int(vm.popUint32())
	if idx > count-1 || idx < 0 {
		idx = count // the final entry is the default target
	}
	vm.pc = int(vm.code[vm.pc+idx])
}

func (vm *VM) copySlot() {
	dst := vm.fetchInt()
	src := vm.fetchInt()
	vm.stack[vm.fp+dst] = vm.stack[vm.fp+src]
}

func (vm *VM) setSp() {
	vm.sp = vm.fp + vm.fetchInt()
}

func (vm *VM) unreachable() {
	panic(TrapUnreachable)
}

func (vm *VM) call() {
	entry := vm.fetchInt()
	frameOffset := vm.fetchInt()
	vm.invoke(entry, vm.fp+frameOffset)
}

func (vm *VM) callHostOp() {
	index := vm.fetchInt()
	frameOffset := vm.fetchInt()
	vm.callHost(index, vm.fp+frameOffset)
}

func (vm *VM) callIndirect() {
	typeIndex := vm.fetchInt()
	tableIndex := vm.fetchInt()
	frameOffset := vm.fetchInt()

	fi := vm.resolveIndirect(typeIndex, tableIndex)
	meta := &vm.compiled.Funcs[fi]
	newFP := vm.fp + frameOffset
	if meta.Entry < 0 {
		vm.callHost(fi, newFP)
	} else {
		vm.invoke(meta.Entry, newFP)
	}
}

// resolveIndirect pops the element index and resolves it to a function
// index, trapping on out-of-bounds, null, or type-mismatched entries.
func (vm *VM) resolveIndirect(typeIndex, tableIndex int) int {
	elem := vm.popUint32()
	table := vm.tables[tableIndex]
	if uint64(elem) >= uint64(len(table)) {
		panic(TrapOOBTable)
	}
	fi := table[elem]
	if fi == nullTableEntry {
		panic(TrapUninitializedElement)
	}
	meta := &vm.compiled.Funcs[fi]
	if meta.Hash != vm.compiled.TypeHashes[typeIndex] {
		panic(TrapIndirectTypeMismatch)
	}
	return int(fi)
}

// returnCall replaces the current frame with the callee's, keeping the
// dispatch loop and frame pointer of the caller.
func (vm *VM) returnCall() {
	index := vm.fetchInt()
	argsSlot := vm.fetchInt()
	vm.tailCall(index, argsSlot)
}

func (vm *VM) returnCallIndirect() {
	typeIndex := vm.fetchInt()
	tableIndex := vm.fetchInt()
	argsSlot := vm.fetchInt()
	fi := vm.resolveIndirect(typeIndex, tableIndex)
	vm.tailCall(fi, argsSlot)
}

func (vm *VM) tailCall(index, argsSlot int) {
	meta := &vm.compiled.Funcs[index]
	src := vm.fp + argsSlot
	copy(vm.stack[vm.fp:vm.fp+meta.NumParams], vm.stack[src:src+meta.NumParams])

	if meta.Entry < 0 {
		vm.sp = vm.fp + meta.NumParams
		vm.callHost(index, vm.fp)
		vm.returned = true
		return
	}
	vm.pc = meta.Entry
}

func (vm *VM) drop() {
	vm.sp--
}

func (vm *VM) selectOp() {
	c := vm.popUint32()
	v2 := vm.pop()
	v1 := vm.pop()
	if c != 0 {
		vm.push(v1)
	} else {
		vm.push(v2)
	}
}

func (vm *VM) localGet() {
	slot := vm.fetchInt()
	vm.push(vm.stack[vm.fp+slot])
}

func (vm *VM) localSet() {
	slot := vm.fetchInt()
	vm.stack[vm.fp+slot] = vm.pop()
}

func (vm *VM) localTee() {
	slot := vm.fetchInt()
	vm.stack[vm.fp+slot] = vm.stack[vm.sp-1]
}

func (vm *VM) globalGet() {
	vm.push(vm.globals[vm.fetchInt()])
}

func (vm *VM) globalSet() {
	vm.globals[vm.fetchInt()] = vm.pop()
}
