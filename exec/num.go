// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"math"
	"math/bits"

	ops "github.com/wasm5/wasm5/wasm/operators"
)

func init() {
	registerByte(ops.Nop, (*VM).nop)
	registerByte(ops.I32Const, (*VM).constOp)
	registerByte(ops.I64Const, (*VM).constOp)
	registerByte(ops.F32Const, (*VM).constOp)
	registerByte(ops.F64Const, (*VM).constOp)

	registerByte(ops.I32Eqz, (*VM).i32Eqz)
	registerByte(ops.I32Eq, (*VM).i32Eq)
	registerByte(ops.I32Ne, (*VM).i32Ne)
	registerByte(ops.I32LtS, (*VM).i32LtS)
	registerByte(ops.I32LtU, (*VM).i32LtU)
	registerByte(ops.I32GtS, (*VM).i32GtS)
	registerByte(ops.I32GtU, (*VM).i32GtU)
	registerByte(ops.I32LeS, (*VM).i32LeS)
	registerByte(ops.I32LeU, (*VM).i32LeU)
	registerByte(ops.I32GeS, (*VM).i32GeS)
	registerByte(ops.I32GeU, (*VM).i32GeU)

	registerByte(ops.I64Eqz, (*VM).i64Eqz)
	registerByte(ops.I64Eq, (*VM).i64Eq)
	registerByte(ops.I64Ne, (*VM).i64Ne)
	registerByte(ops.I64LtS, (*VM).i64LtS)
	registerByte(ops.I64LtU, (*VM).i64LtU)
	registerByte(ops.I64GtS, (*VM).i64GtS)
	registerByte(ops.I64GtU, (*VM).i64GtU)
	registerByte(ops.I64LeS, (*VM).i64LeS)
	registerByte(ops.I64LeU, (*VM).i64LeU)
	registerByte(ops.I64GeS, (*VM).i64GeS)
	registerByte(ops.I64GeU, (*VM).i64GeU)

	registerByte(ops.I32Clz, (*VM).i32Clz)
	registerByte(ops.I32Ctz, (*VM).i32Ctz)
	registerByte(ops.I32Popcnt, (*VM).i32Popcnt)
	registerByte(ops.I32Add, (*VM).i32Add)
	registerByte(ops.I32Sub, (*VM).i32Sub)
	registerByte(ops.I32Mul, (*VM).i32Mul)
	registerByte(ops.I32DivS, (*VM).i32DivS)
	registerByte(ops.I32DivU, (*VM).i32DivU)
	registerByte(ops.I32RemS, (*VM).i32RemS)
	registerByte(ops.I32RemU, (*VM).i32RemU)
	registerByte(ops.I32And, (*VM).i32And)
	registerByte(ops.I32Or, (*VM).i32Or)
	registerByte(ops.I32Xor, (*VM).i32Xor)
	registerByte(ops.I32Shl, (*VM).i32Shl)
	registerByte(ops.I32ShrS, (*VM).i32ShrS)
	registerByte(ops.I32ShrU, (*VM).i32ShrU)
	registerByte(ops.I32Rotl, (*VM).i32Rotl)
	registerByte(ops.I32Rotr, (*VM).i32Rotr)

	registerByte(ops.I64Clz, (*VM).i64Clz)
	registerByte(ops.I64Ctz, (*VM).i64Ctz)
	registerByte(ops.I64Popcnt, (*VM).i64Popcnt)
	registerByte(ops.I64Add, (*VM).i64Add)
	registerByte(ops.I64Sub, (*VM).i64Sub)
	registerByte(ops.I64Mul, (*VM).i64Mul)
	registerByte(ops.I64DivS, (*VM).i64DivS)
	registerByte(ops.I64DivU, (*VM).i64DivU)
	registerByte(ops.I64RemS, (*VM).i64RemS)
	registerByte(ops.I64RemU, (*VM).i64RemU)
	registerByte(ops.I64And, (*VM).i64And)
	registerByte(ops.I64Or, (*VM).i64Or)
	registerByte(ops.I64Xor, (*VM).i64Xor)
	registerByte(ops.I64Shl, (*VM).i64Shl)
	registerByte(ops.I64ShrS, (*VM).i64ShrS)
	registerByte(ops.I64ShrU, (*VM).i64ShrU)
	registerByte(ops.I64Rotl, (*VM).i64Rotl)
	registerByte(ops.I64Rotr, (*VM).i64Rotr)
}

func (vm *VM) nop() {}

// constOp pushes the immediate cell verbatim; all four const operators
// share the bit-pattern encoding.
func (vm *VM) constOp() {
	vm.push(vm.fetch())
}

func (vm *VM) i32Eqz() { vm.pushBool(vm.popUint32() == 0) }

func (vm *VM) i32Eq() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushBool(a == b)
}

func (vm *VM) i32Ne() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushBool(a != b)
}

func (vm *VM) i32LtS() {
	b, a := vm.popInt32(), vm.popInt32()
	vm.pushBool(a < b)
}

func (vm *VM) i32LtU() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushBool(a < b)
}

func (vm *VM) i32GtS() {
	b, a := vm.popInt32(), vm.popInt32()
	vm.pushBool(a > b)
}

func (vm *VM) i32GtU() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushBool(a > b)
}

func (vm *VM) i32LeS() {
	b, a := vm.popInt32(), vm.popInt32()
	vm.pushBool(a <= b)
}

func (vm *VM) i32LeU() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushBool(a <= b)
}

func (vm *VM) i32GeS() {
	b, a := vm.popInt32(), vm.popInt32()
	vm.pushBool(a >= b)
}

func (vm *VM) i32GeU() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushBool(a >= b)
}

func (vm *VM) i64Eqz() { vm.pushBool(vm.popUint64() == 0) }

func (vm *VM) i64Eq() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushBool(a == b)
}

func (vm *VM) i64Ne() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushBool(a != b)
}

func (vm *VM) i64LtS() {
	b, a := vm.popInt64(), vm.popInt64()
	vm.pushBool(a < b)
}

func (vm *VM) i64LtU() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushBool(a < b)
}

func (vm *VM) i64GtS() {
	b, a := vm.popInt64(), vm.popInt64()
	vm.pushBool(a > b)
}

func (vm *VM) i64GtU() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushBool(a > b)
}

func (vm *VM) i64LeS() {
	b, a := vm.popInt64(), vm.popInt64()
	vm.pushBool(a <= b)
}

func (vm *VM) i64LeU() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushBool(a <= b)
}

func (vm *VM) i64GeS() {
	b, a := vm.popInt64(), vm.popInt64()
	vm.pushBool(a >= b)
}

func (vm *VM) i64GeU() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushBool(a >= b)
}

func (vm *VM) i32Clz()    { vm.pushUint32(uint32(bits.LeadingZeros32(vm.popUint32()))) }
func (vm *VM) i32Ctz()    { vm.pushUint32(uint32(bits.TrailingZeros32(vm.popUint32()))) }
func (vm *VM) i32Popcnt() { vm.pushUint32(uint32(bits.OnesCount32(vm.popUint32()))) }

func (vm *VM) i32Add() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushUint32(a + b)
}

func (vm *VM) i32Sub() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushUint32(a - b)
}

func (vm *VM) i32Mul() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushUint32(a * b)
}

func (vm *VM) i32DivS() {
	b, a := vm.popInt32(), vm.popInt32()
	if b == 0 {
		panic(TrapDivByZero)
	}
	if a == math.MinInt32 && b == -1 {
		panic(TrapIntOverflow)
	}
	vm.pushInt32(a / b)
}

func (vm *VM) i32DivU() {
	b, a := vm.popUint32(), vm.popUint32()
	if b == 0 {
		panic(TrapDivByZero)
	}
	vm.pushUint32(a / b)
}

func (vm *VM) i32RemS() {
	b, a := vm.popInt32(), vm.popInt32()
	if b == 0 {
		panic(TrapDivByZero)
	}
	vm.pushInt32(a % b)
}

func (vm *VM) i32RemU() {
	b, a := vm.popUint32(), vm.popUint32()
	if b == 0 {
		panic(TrapDivByZero)
	}
	vm.pushUint32(a % b)
}

func (vm *VM) i32And() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushUint32(a & b)
}

func (vm *VM) i32Or() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushUint32(a | b)
}

func (vm *VM) i32Xor() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushUint32(a ^ b)
}

func (vm *VM) i32Shl() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushUint32(a << (b & 31))
}

func (vm *VM) i32ShrS() {
	b, a := vm.popUint32(), vm.popInt32()
	vm.pushInt32(a >> (b & 31))
}

func (vm *VM) i32ShrU() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushUint32(a >> (b & 31))
}

func (vm *VM) i32Rotl() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushUint32(bits.RotateLeft32(a, int(b&31)))
}

func (vm *VM) i32Rotr() {
	b, a := vm.popUint32(), vm.popUint32()
	vm.pushUint32(bits.RotateLeft32(a, -int(b&31)))
}

func (vm *VM) i64Clz()    { vm.pushUint64(uint64(bits.LeadingZeros64(vm.popUint64()))) }
func (vm *VM) i64Ctz()    { vm.pushUint64(uint64(bits.TrailingZeros64(vm.popUint64()))) }
func (vm *VM) i64Popcnt() { vm.pushUint64(uint64(bits.OnesCount64(vm.popUint64()))) }

func (vm *VM) i64Add() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushUint64(a + b)
}

func (vm *VM) i64Sub() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushUint64(a - b)
}

func (vm *VM) i64Mul() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushUint64(a * b)
}

func (vm *VM) i64DivS() {
	b, a := vm.popInt64(), vm.popInt64()
	if b == 0 {
		panic(TrapDivByZero)
	}
	if a == math.MinInt64 && b == -1 {
		panic(TrapIntOverflow)
	}
	vm.pushInt64(a / b)
}

func (vm *VM) i64DivU() {
	b, a := vm.popUint64(), vm.popUint64()
	if b == 0 {
		panic(TrapDivByZero)
	}
	vm.pushUint64(a / b)
}

func (vm *VM) i64RemS() {
	b, a := vm.popInt64(), vm.popInt64()
	if b == 0 {
		panic(TrapDivByZero)
	}
	vm.pushInt64(a % b)
}

func (vm *VM) i64RemU() {
	b, a := vm.popUint64(), vm.popUint64()
	if b == 0 {
		panic(TrapDivByZero)
	}
	vm.pushUint64(a % b)
}

func (vm *VM) i64And() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushUint64(a & b)
}

func (vm *VM) i64Or() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushUint64(a | b)
}

func (vm *VM) i64Xor() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushUint64(a ^ b)
}

func (vm *VM) i64Shl() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushUint64(a << (b & 63))
}

func (vm *VM) i64ShrS() {
	b, a := vm.popUint64(), vm.popInt64()
	vm.pushInt64(a >> (b & 63))
}

func (vm *VM) i64ShrU() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushUint64(a >> (b & 63))
}

func (vm *VM) i64Rotl() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushUint64(bits.RotateLeft64(a, int(b&63)))
}

func (vm *VM) i64Rotr() {
	b, a := vm.popUint64(), vm.popUint64()
	vm.pushUint64(bits.RotateLeft64(a, -int(b&63)))
}
