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
	registerByte(ops.I32WrapI64, (*VM).i32WrapI64)
	registerByte(ops.I32TruncF32S, (*VM).i32TruncF32S)
	registerByte(ops.I32TruncF32U, (*VM).i32TruncF32U)
	registerByte(ops.I32TruncF64S, (*VM).i32TruncF64S)
	registerByte(ops.I32TruncF64U, (*VM).i32TruncF64U)
	registerByte(ops.I64ExtendI32S, (*VM).i64ExtendI32S)
	registerByte(ops.I64ExtendI32U, (*VM).i64ExtendI32U)
	registerByte(ops.I64TruncF32S, (*VM).i64TruncF32S)
	registerByte(ops.I64TruncF32U, (*VM).i64TruncF32U)
	registerByte(ops.I64TruncF64S, (*VM).i64TruncF64S)
	registerByte(ops.I64TruncF64U, (*VM).i64TruncF64U)
	registerByte(ops.F32ConvertI32S, (*VM).f32ConvertI32S)
	registerByte(ops.F32ConvertI32U, (*VM).f32ConvertI32U)
	registerByte(ops.F32ConvertI64S, (*VM).f32ConvertI64S)
	registerByte(ops.F32ConvertI64U, (*VM).f32ConvertI64U)
	registerByte(ops.F32DemoteF64, (*VM).f32DemoteF64)
	registerByte(ops.F64ConvertI32S, (*VM).f64ConvertI32S)
	registerByte(ops.F64ConvertI32U, (*VM).f64ConvertI32U)
	registerByte(ops.F64ConvertI64S, (*VM).f64ConvertI64S)
	registerByte(ops.F64ConvertI64U, (*VM).f64ConvertI64U)
	registerByte(ops.F64PromoteF32, (*VM).f64PromoteF32)
	registerByte(ops.I32ReinterpretF32, (*VM).nop) // the slot already holds the bits
	registerByte(ops.I64ReinterpretF64, (*VM).nop)
	registerByte(ops.F32ReinterpretI32, (*VM).nop)
	registerByte(ops.F64ReinterpretI64, (*VM).nop)
	registerByte(ops.I32Extend8S, (*VM).i32Extend8S)
	registerByte(ops.I32Extend16S, (*VM).i32Extend16S)
	registerByte(ops.I64Extend8S, (*VM).i64Extend8S)
	registerByte(ops.I64Extend16S, (*VM).i64Extend16S)
	registerByte(ops.I64Extend32S, (*VM).i64Extend32S)

	register(compile.PrefixedOp(ops.I32TruncSatF32S), (*VM).i32TruncSatF32S)
	register(compile.PrefixedOp(ops.I32TruncSatF32U), (*VM).i32TruncSatF32U)
	register(compile.PrefixedOp(ops.I32TruncSatF64S), (*VM).i32TruncSatF64S)
	register(compile.PrefixedOp(ops.I32TruncSatF64U), (*VM).i32TruncSatF64U)
	register(compile.PrefixedOp(ops.I64TruncSatF32S), (*VM).i64TruncSatF32S)
	register(compile.PrefixedOp(ops.I64TruncSatF32U), (*VM).i64TruncSatF32U)
	register(compile.PrefixedOp(ops.I64TruncSatF64S), (*VM).i64TruncSatF64S)
	register(compile.PrefixedOp(ops.I64TruncSatF64U), (*VM).i64TruncSatF64U)
}

// the exact float bounds of the integer ranges
var (
	two31 = math.Ldexp(1, 31)
	two32 = math.Ldexp(1, 32)
	two63 = math.Ldexp(1, 63)
	two64 = math.Ldexp(1, 64)
)

// truncS truncates f toward zero, trapping on NaN or when the result falls
// outside [min, max).
func truncS(f, min, max float64) float64 {
	if f != f {
		panic(TrapInvalidConversion)
	}
	t := math.Trunc(f)
	if t < min || t >= max {
		panic(TrapIntOverflow)
	}
	return t
}

func truncU(f, max float64) float64 {
	if f != f {
		panic(TrapInvalidConversion)
	}
	t := math.Trunc(f)
	if t <= -1 || t >= max {
		panic(TrapIntOverflow)
	}
	return t
}

func (vm *VM) i32WrapI64() { vm.pushUint32(uint32(vm.popUint64())) }

func (vm *VM) i32TruncF32S() {
	vm.pushInt32(int32(truncS(float64(vm.popFloat32()), -two31, two31)))
}

func (vm *VM) i32TruncF32U() {
	vm.pushUint32(uint32(truncU(float64(vm.popFloat32()), two32)))
}

func (vm *VM) i32TruncF64S() {
	vm.pushInt32(int32(truncS(vm.popFloat64(), -two31, two31)))
}

func (vm *VM) i32TruncF64U() {
	vm.pushUint32(uint32(truncU(vm.popFloat64(), two32)))
}

func (vm *VM) i64ExtendI32S() { vm.pushInt64(int64(vm.popInt32())) }
func (vm *VM) i64ExtendI32U() { vm.pushUint64(uint64(vm.popUint32())) }

func (vm *VM) i64TruncF32S() {
	vm.pushInt64(int64(truncS(float64(vm.popFloat32()), -two63, two63)))
}

func (vm *VM) i64TruncF32U() {
	vm.pushUint64(uint64(truncU(float64(vm.popFloat32()), two64)))
}

func (vm *VM) i64TruncF64S() {
	vm.pushInt64(int64(truncS(vm.popFloat64(), -two63, two63)))
}

func (vm *VM) i64TruncF64U() {
	vm.pushUint64(uint64(truncU(vm.popFloat64(), two64)))
}

func (vm *VM) f32ConvertI32S() { vm.pushFloat32(float32(vm.popInt32())) }
func (vm *VM) f32ConvertI32U() { vm.pushFloat32(float32(vm.popUint32())) }
func (vm *VM) f32ConvertI64S() { vm.pushFloat32(float32(vm.popInt64())) }
func (vm *VM) f32ConvertI64U() { vm.pushFloat32(float32(vm.popUint64())) }
func (vm *VM) f32DemoteF64()   { vm.pushFloat32(float32(vm.popFloat64())) }
func (vm *VM) f64ConvertI32S() { vm.pushFloat64(float64(vm.popInt32())) }
func (vm *VM) f64ConvertI32U() { vm.pushFloat64(float64(vm.popUint32())) }
func (vm *VM) f64ConvertI64S() { vm.pushFloat64(float64(vm.popInt64())) }
func (vm *VM) f64ConvertI64U() { vm.pushFloat64(float64(vm.popUint64())) }
func (vm *VM) f64PromoteF32()  { vm.pushFloat64(float64(vm.popFloat32())) }

func (vm *VM) i32Extend8S()  { vm.pushInt32(int32(int8(vm.popUint32()))) }
func (vm *VM) i32Extend16S() { vm.pushInt32(int32(int16(vm.popUint32()))) }
func (vm *VM) i64Extend8S()  { vm.pushInt64(int64(int8(vm.popUint64()))) }
func (vm *VM) i64Extend16S() { vm.pushInt64(int64(int16(vm.popUint64()))) }
func (vm *VM) i64Extend32S() { vm.pushInt64(int64(int32(vm.popUint64()))) }

func (vm *VM) i32TruncSatF32S() {
	f := float64(vm.popFloat32())
	if f != f {
		vm.pushInt32(0)
		return
	}
	t := math.Trunc(f)
	switch {
	case t < -two31:
		vm.pushInt32(math.MinInt32)
	case t >= two31:
		vm.pushInt32(math.MaxInt32)
	default:
		vm.pushInt32(int32(t))
	}
}

func (vm *VM) i32TruncSatF32U() {
	f := float64(vm.popFloat32())
	if f != f {
		vm.pushUint32(0)
		return
	}
	t := math.Trunc(f)
	switch {
	case t <= -1:
		vm.pushUint32(0)
	case t >= two32:
		vm.pushUint32(math.MaxUint32)
	default:
		vm.pushUint32(uint32(t))
	}
}

func (vm *VM) i32TruncSatF64S() {
	f := vm.popFloat64()
	if f != f {
		vm.pushInt32(0)
		return
	}
	t := math.Trunc(f)
	switch {
	case t < -two31:
		vm.pushInt32(math.MinInt32)
	case t >= two31:
		vm.pushInt32(math.MaxInt32)
	default:
		vm.pushInt32(int32(t))
	}
}

func (vm *VM) i32TruncSatF64U() {
	f := vm.popFloat64()
	if f != f {
		vm.pushUint32(0)
		return
	}
	t := math.Trunc(f)
	switch {
	case t <= -1:
		vm.pushUint32(0)
	case t >= two32:
		vm.pushUint32(math.MaxUint32)
	default:
		vm.pushUint32(uint32(t))
	}
}

func (vm *VM) i64TruncSatF32S() {
	f := float64(vm.popFloat32())
	if f != f {
		vm.pushInt64(0)
		return
	}
	t := math.Trunc(f)
	switch {
	case t < -two63:
		vm.pushInt64(math.MinInt64)
	case t >= two63:
		vm.pushInt64(math.MaxInt64)
	default:
		vm.pushInt64(int64(t))
	}
}

func (vm *VM) i64TruncSatF32U() {
	f := float64(vm.popFloat32())
	if f != f {
		vm.pushUint64(0)
		return
	}
	t := math.Trunc(f)
	switch {
	case t <= -1:
		vm.pushUint64(0)
	case t >= two64:
		vm.pushUint64(math.MaxUint64)
	default:
		vm.pushUint64(uint64(t))
	}
}

func (vm *VM) i64TruncSatF64S() {
	f := vm.popFloat64()
	if f != f {
		vm.pushInt64(0)
		return
	}
	t := math.Trunc(f)
	switch {
	case t < -two63:
		vm.pushInt64(math.MinInt64)
	case t >= two63:
		vm.pushInt64(math.MaxInt64)
	default:
		vm.pushInt64(int64(t))
	}
}

func (vm *VM) i64TruncSatF64U() {
	f := vm.popFloat64()
	if f != f {
		vm.pushUint64(0)
		return
	}
	t := math.Trunc(f)
	switch {
	case t <= -1:
		vm.pushUint64(0)
	case t >= two64:
		vm.pushUint64(math.MaxUint64)
	default:
		vm.pushUint64(uint64(t))
	}
}
