// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"encoding/binary"
	"math"

	"github.com/wasm5/wasm5/exec/internal/compile"
	ops "github.com/wasm5/wasm5/wasm/operators"
)

var endianess = binary.LittleEndian

func init() {
	registerByte(ops.I32Load, (*VM).i32Load)
	registerByte(ops.I64Load, (*VM).i64Load)
	registerByte(ops.F32Load, (*VM).f32Load)
	registerByte(ops.F64Load, (*VM).f64Load)
	registerByte(ops.I32Load8s, (*VM).i32Load8s)
	registerByte(ops.I32Load8u, (*VM).i32Load8u)
	registerByte(ops.I32Load16s, (*VM).i32Load16s)
	registerByte(ops.I32Load16u, (*VM).i32Load16u)
	registerByte(ops.I64Load8s, (*VM).i64Load8s)
	registerByte(ops.I64Load8u, (*VM).i64Load8u)
	registerByte(ops.I64Load16s, (*VM).i64Load16s)
	registerByte(ops.I64Load16u, (*VM).i64Load16u)
	registerByte(ops.I64Load32s, (*VM).i64Load32s)
	registerByte(ops.I64Load32u, (*VM).i64Load32u)
	registerByte(ops.I32Store, (*VM).i32Store)
	registerByte(ops.I64Store, (*VM).i64Store)
	registerByte(ops.F32Store, (*VM).f32Store)
	registerByte(ops.F64Store, (*VM).f64Store)
	registerByte(ops.I32Store8, (*VM).i32Store8)
	registerByte(ops.I32Store16, (*VM).i32Store16)
	registerByte(ops.I64Store8, (*VM).i64Store8)
	registerByte(ops.I64Store16, (*VM).i64Store16)
	registerByte(ops.I64Store32, (*VM).i64Store32)
	registerByte(ops.MemorySize, (*VM).memorySize)
	registerByte(ops.MemoryGrow, (*VM).memoryGrow)

	register(compile.PrefixedOp(ops.MemoryInit), (*VM).memoryInit)
	register(compile.PrefixedOp(ops.DataDrop), (*VM).dataDrop)
	register(compile.PrefixedOp(ops.MemoryCopy), (*VM).memoryCopy)
	register(compile.PrefixedOp(ops.MemoryFill), (*VM).memoryFill)
}

// memAddr consumes a memory operator's immediates (alignment hint, offset,
// memory index) and the base address operand, bounds-checking the access
// of the given width.
func (vm *VM) memAddr(width uint64) int {
	vm.pc++ // alignment hint
	offset := vm.fetch()
	vm.pc++ // memory index
	ea := uint64(vm.popUint32()) + offset
	if ea+width > uint64(len(vm.memory)) {
		panic(TrapOOBMemory)
	}
	return int(ea)
}

func (vm *VM) i32Load() {
	vm.pushUint32(endianess.Uint32(vm.memory[vm.memAddr(4):]))
}

func (vm *VM) i32Load8s() {
	vm.pushInt32(int32(int8(vm.memory[vm.memAddr(1)])))
}

func (vm *VM) i32Load8u() {
	vm.pushUint32(uint32(vm.memory[vm.memAddr(1)]))
}

func (vm *VM) i32Load16s() {
	vm.pushInt32(int32(int16(endianess.Uint16(vm.memory[vm.memAddr(2):]))))
}

func (vm *VM) i32Load16u() {
	vm.pushUint32(uint32(endianess.Uint16(vm.memory[vm.memAddr(2):])))
}

func (vm *VM) i64Load() {
	vm.pushUint64(endianess.Uint64(vm.memory[vm.memAddr(8):]))
}

func (vm *VM) i64Load8s() {
	vm.pushInt64(int64(int8(vm.memory[vm.memAddr(1)])))
}

func (vm *VM) i64Load8u() {
	vm.pushUint64(uint64(vm.memory[vm.memAddr(1)]))
}

func (vm *VM) i64Load16s() {
	vm.pushInt64(int64(int16(endianess.Uint16(vm.memory[vm.memAddr(2):]))))
}

func (vm *VM) i64Load16u() {
	vm.pushUint64(uint64(endianess.Uint16(vm.memory[vm.memAddr(2):])))
}

func (vm *VM) i64Load32s() {
	vm.pushInt64(int64(int32(endianess.Uint32(vm.memory[vm.memAddr(4):]))))
}

func (vm *VM) i64Load32u() {
	vm.pushUint64(uint64(endianess.Uint32(vm.memory[vm.memAddr(4):])))
}

func (vm *VM) f32Load() {
	vm.pushFloat32(math.Float32frombits(endianess.Uint32(vm.memory[vm.memAddr(4):])))
}

func (vm *VM) f64Load() {
	vm.pushFloat64(math.Float64frombits(endianess.Uint64(vm.memory[vm.memAddr(8):])))
}

func (vm *VM) i32Store() {
	v := vm.popUint32()
	endianess.PutUint32(vm.memory[vm.memAddr(4):], v)
}

func (vm *VM) i32Store8() {
	v := byte(vm.popUint32())
	vm.memory[vm.memAddr(1)] = v
}

func (vm *VM) i32Store16() {
	v := uint16(vm.popUint32())
	endianess.PutUint16(vm.memory[vm.memAddr(2):], v)
}

func (vm *VM) i64Store() {
	v := vm.popUint64()
	endianess.PutUint64(vm.memory[vm.memAddr(8):], v)
}

func (vm *VM) i64Store8() {
	v := byte(vm.popUint64())
	vm.memory[vm.memAddr(1)] = v
}

func (vm *VM) i64Store16() {
	v := uint16(vm.popUint64())
	endianess.PutUint16(vm.memory[vm.memAddr(2):], v)
}

func (vm *VM) i64Store32() {
	v := uint32(vm.popUint64())
	endianess.PutUint32(vm.memory[vm.memAddr(4):], v)
}

func (vm *VM) f32Store() {
	v := math.Float32bits(vm.popFloat32())
	endianess.PutUint32(vm.memory[vm.memAddr(4):], v)
}

func (vm *VM) f64Store() {
	v := math.Float64bits(vm.popFloat64())
	endianess.PutUint64(vm.memory[vm.memAddr(8):], v)
}

func (vm *VM) memorySize() {
	vm.pc++ // memory index
	vm.pushInt32(int32(len(vm.memory) / wasmPageSize))
}

func (vm *VM) memoryGrow() {
	vm.pc++ // memory index
	curPages := uint64(len(vm.memory) / wasmPageSize)
	n := uint64(vm.popUint32())

	newPages := curPages + n
	if newPages > 1<<16 || newPages > uint64(vm.memMax) {
		vm.pushInt32(-1)
		return
	}

	vm.memory = append(vm.memory, make([]byte, n*wasmPageSize)...)
	vm.pushInt32(int32(curPages))
}

func (vm *VM) memoryInit() {
	dataIndex := vm.fetchInt()
	vm.pc++ // memory index

	n := uint64(vm.popUint32())
	src := uint64(vm.popUint32())
	dst := uint64(vm.popUint32())

	data := vm.datas[dataIndex]
	if src+n > uint64(len(data)) || dst+n > uint64(len(vm.memory)) {
		panic(TrapOOBMemory)
	}
	copy(vm.memory[dst:dst+n], data[src:src+n])
}

func (vm *VM) dataDrop() {
	// the slot remains; the segment becomes empty
	vm.datas[vm.fetchInt()] = nil
}

func (vm *VM) memoryCopy() {
	n := uint64(vm.popUint32())
	src := uint64(vm.popUint32())
	dst := uint64(vm.popUint32())

	if src+n > uint64(len(vm.memory)) || dst+n > uint64(len(vm.memory)) {
		panic(TrapOOBMemory)
	}
	copy(vm.memory[dst:dst+n], vm.memory[src:src+n])
}

func (vm *VM) memoryFill() {
	n := uint64(vm.popUint32())
	val := byte(vm.popUint32())
	dst := uint64(vm.popUint32())

	if dst+n > uint64(len(vm.memory)) {
		panic(TrapOOBMemory)
	}
	for i := dst; i < dst+n; i++ {
		vm.memory[i] = val
	}
}
