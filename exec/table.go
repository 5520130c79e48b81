// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"math"

	"github.com/wasm5/wasm5/exec/internal/compile"
	ops "github.com/wasm5/wasm5/wasm/operators"
)

func init() {
	registerByte(ops.TableGet, (*VM).tableGet)
	registerByte(ops.TableSet, (*VM).tableSet)
	registerByte(ops.RefNull, (*VM).refNull)
	registerByte(ops.RefIsNull, (*VM).refIsNull)
	registerByte(ops.RefFunc, (*VM).refFunc)

	register(compile.PrefixedOp(ops.TableInit), (*VM).tableInit)
	register(compile.PrefixedOp(ops.ElemDrop), (*VM).elemDrop)
	register(compile.PrefixedOp(ops.TableCopy), (*VM).tableCopy)
	register(compile.PrefixedOp(ops.TableGrow), (*VM).tableGrow)
	register(compile.PrefixedOp(ops.TableSize), (*VM).tableSize)
	register(compile.PrefixedOp(ops.TableFill), (*VM).tableFill)
}

// refToEntry converts a reference slot value into its table encoding.
func refToEntry(v uint64) int64 {
	if v == RefNull {
		return nullTableEntry
	}
	return int64(v)
}

// entryToRef converts a table entry into its reference slot encoding.
func entryToRef(e int64) uint64 {
	if e == nullTableEntry {
		return RefNull
	}
	return uint64(e)
}

func (vm *VM) refNull() {
	vm.push(RefNull)
}

func (vm *VM) refIsNull() {
	vm.pushBool(vm.pop() == RefNull)
}

func (vm *VM) refFunc() {
	vm.push(vm.fetch())
}

func (vm *VM) tableGet() {
	table := vm.tables[vm.fetchInt()]
	i := vm.popUint32()
	if uint64(i) >= uint64(len(table)) {
		panic(TrapOOBTable)
	}
	vm.push(entryToRef(table[i]))
}

func (vm *VM) tableSet() {
	table := vm.tables[vm.fetchInt()]
	v := refToEntry(vm.pop())
	i := vm.popUint32()
	if uint64(i) >= uint64(len(table)) {
		panic(TrapOOBTable)
	}
	table[i] = v
}

func (vm *VM) tableInit() {
	elemIndex := vm.fetchInt()
	tableIndex := vm.fetchInt()

	n := uint64(vm.popUint32())
	src := uint64(vm.popUint32())
	dst := uint64(vm.popUint32())

	elem := vm.elems[elemIndex]
	table := vm.tables[tableIndex]
	if src+n > uint64(len(elem)) || dst+n > uint64(len(table)) {
		panic(TrapOOBTable)
	}
	copy(table[dst:dst+n], elem[src:src+n])
}

func (vm *VM) elemDrop() {
	vm.elems[vm.fetchInt()] = nil
}

func (vm *VM) tableCopy() {
	dstIndex := vm.fetchInt()
	srcIndex := vm.fetchInt()

	n := uint64(vm.popUint32())
	src := uint64(vm.popUint32())
	dst := uint64(vm.popUint32())

	srcTable := vm.tables[srcIndex]
	dstTable := vm.tables[dstIndex]
	if src+n > uint64(len(srcTable)) || dst+n > uint64(len(dstTable)) {
		panic(TrapOOBTable)
	}
	copy(dstTable[dst:dst+n], srcTable[src:src+n])
}

func (vm *VM) tableGrow() {
	tableIndex := vm.fetchInt()

	n := uint64(vm.popUint32())
	init := refToEntry(vm.pop())

	table := vm.tables[tableIndex]
	cur := uint64(len(table))
	if cur+n > uint64(vm.tabMax[tableIndex]) || cur+n > math.MaxUint32 {
		vm.pushInt32(-1)
		return
	}

	grown := make([]int64, cur+n)
	copy(grown, table)
	for i := cur; i < cur+n; i++ {
		grown[i] = init
	}
	vm.tables[tableIndex] = grown
	vm.pushInt32(int32(cur))
}

func (vm *VM) tableSize() {
	vm.pushInt32(int32(len(vm.tables[vm.fetchInt()])))
}

func (vm *VM) tableFill() {
	table := vm.tables[vm.fetchInt()]

	n := uint64(vm.popUint32())
	val := refToEntry(vm.pop())
	dst := uint64(vm.popUint32())

	if dst+n > uint64(len(table)) {
		panic(TrapOOBTable)
	}
	for i := dst; i < dst+n; i++ {
		table[i] = val
	}
}
