// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"math"

	ops "github.com/wasm5/wasm5/wasm/operators"
)

func init() {
	registerByte(ops.F32Eq, (*VM).f32Eq)
	registerByte(ops.F32Ne, (*VM).f32Ne)
	registerByte(ops.F32Lt, (*VM).f32Lt)
	registerByte(ops.F32Gt, (*VM).f32Gt)
	registerByte(ops.F32Le, (*VM).f32Le)
	registerByte(ops.F32Ge, (*VM).f32Ge)
	registerByte(ops.F64Eq, (*VM).f64Eq)
	registerByte(ops.F64Ne, (*VM).f64Ne)
	registerByte(ops.F64Lt, (*VM).f64Lt)
	registerByte(ops.F64Gt, (*VM).f64Gt)
	registerByte(ops.F64Le, (*VM).f64Le)
	registerByte(ops.F64Ge, (*VM).f64Ge)

	registerByte(ops.F32Abs, (*VM).f32Abs)
	registerByte(ops.F32Neg, (*VM).f32Neg)
	registerByte(ops.F32Ceil, (*VM).f32Ceil)
	registerByte(ops.F32Floor, (*VM).f32Floor)
	registerByte(ops.F32Trunc, (*VM).f32Trunc)
	registerByte(ops.F32Nearest, (*VM).f32Nearest)
	registerByte(ops.F32Sqrt, (*VM).f32Sqrt)
	registerByte(ops.F32Add, (*VM).f32Add)
	registerByte(ops.F32Sub, (*VM).f32Sub)
	registerByte(ops.F32Mul, (*VM).f32Mul)
	registerByte(ops.F32Div, (*VM).f32Div)
	registerByte(ops.F32Min, (*VM).f32Min)
	registerByte(ops.F32Max, (*VM).f32Max)
	registerByte(ops.F32Copysign, (*VM).f32Copysign)

	registerByte(ops.F64Abs, (*VM).f64Abs)
	registerByte(ops.F64Neg, (*VM).f64Neg)
	registerByte(ops.F64Ceil, (*VM).f64Ceil)
	registerByte(ops.F64Floor, (*VM).f64Floor)
	registerByte(ops.F64Trunc, (*VM).f64Trunc)
	registerByte(ops.F64Nearest, (*VM).f64Nearest)
	registerByte(ops.F64Sqrt, (*VM).f64Sqrt)
	registerByte(ops.F64Add, (*VM).f64Add)
	registerByte(ops.F64Sub, (*VM).f64Sub)
	registerByte(ops.F64Mul, (*VM).f64Mul)
	registerByte(ops.F64Div, (*VM).f64Div)
	registerByte(ops.F64Min, (*VM).f64Min)
	registerByte(ops.F64Max, (*VM).f64Max)
	registerByte(ops.F64Copysign, (*VM).f64Copysign)
}

// fmin implements the WASM min semantics: NaN-propagating, and -0 is
// smaller than +0.
func fmin(a, b float64) float64 {
	switch {
	case a != a || b != b:
		return math.NaN()
	case a == b:
		if math.Signbit(a) {
			return a
		}
		return b
	case a < b:
		return a
	default:
		return b
	}
}

func fmax(a, b float64) float64 {
	switch {
	case a != a || b != b:
		return math.NaN()
	case a == b:
		if math.Signbit(a) {
			return b
		}
		return a
	case a > b:
		return a
	default:
		return b
	}
}

func (vm *VM) f32Eq() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushBool(a == b)
}

func (vm *VM) f32Ne() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushBool(a != b)
}

func (vm *VM) f32Lt() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushBool(a < b)
}

func (vm *VM) f32Gt() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushBool(a > b)
}

func (vm *VM) f32Le() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushBool(a <= b)
}

func (vm *VM) f32Ge() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushBool(a >= b)
}

func (vm *VM) f64Eq() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushBool(a == b)
}

func (vm *VM) f64Ne() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushBool(a != b)
}

func (vm *VM) f64Lt() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushBool(a < b)
}

func (vm *VM) f64Gt() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushBool(a > b)
}

func (vm *VM) f64Le() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushBool(a <= b)
}

func (vm *VM) f64Ge() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushBool(a >= b)
}

func (vm *VM) f32Abs()   { vm.pushFloat32(float32(math.Abs(float64(vm.popFloat32())))) }
func (vm *VM) f32Neg()   { vm.pushFloat32(-vm.popFloat32()) }
func (vm *VM) f32Ceil()  { vm.pushFloat32(float32(math.Ceil(float64(vm.popFloat32())))) }
func (vm *VM) f32Floor() { vm.pushFloat32(float32(math.Floor(float64(vm.popFloat32())))) }
func (vm *VM) f32Trunc() { vm.pushFloat32(float32(math.Trunc(float64(vm.popFloat32())))) }
func (vm *VM) f32Nearest() {
	vm.pushFloat32(float32(math.RoundToEven(float64(vm.popFloat32()))))
}
func (vm *VM) f32Sqrt() { vm.pushFloat32(float32(math.Sqrt(float64(vm.popFloat32())))) }

func (vm *VM) f32Add() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushFloat32(a + b)
}

func (vm *VM) f32Sub() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushFloat32(a - b)
}

func (vm *VM) f32Mul() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushFloat32(a * b)
}

func (vm *VM) f32Div() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushFloat32(a / b)
}

func (vm *VM) f32Min() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushFloat32(float32(fmin(float64(a), float64(b))))
}

func (vm *VM) f32Max() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushFloat32(float32(fmax(float64(a), float64(b))))
}

func (vm *VM) f32Copysign() {
	b, a := vm.popFloat32(), vm.popFloat32()
	vm.pushFloat32(float32(math.Copysign(float64(a), float64(b))))
}

func (vm *VM) f64Abs()     { vm.pushFloat64(math.Abs(vm.popFloat64())) }
func (vm *VM) f64Neg()     { vm.pushFloat64(-vm.popFloat64()) }
func (vm *VM) f64Ceil()    { vm.pushFloat64(math.Ceil(vm.popFloat64())) }
func (vm *VM) f64Floor()   { vm.pushFloat64(math.Floor(vm.popFloat64())) }
func (vm *VM) f64Trunc()   { vm.pushFloat64(math.Trunc(vm.popFloat64())) }
func (vm *VM) f64Nearest() { vm.pushFloat64(math.RoundToEven(vm.popFloat64())) }
func (vm *VM) f64Sqrt()    { vm.pushFloat64(math.Sqrt(vm.popFloat64())) }

func (vm *VM) f64Add() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushFloat64(a + b)
}

func (vm *VM) f64Sub() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushFloat64(a - b)
}

func (vm *VM) f64Mul() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushFloat64(a * b)
}

func (vm *VM) f64Div() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushFloat64(a / b)
}

func (vm *VM) f64Min() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushFloat64(fmin(a, b))
}

func (vm *VM) f64Max() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushFloat64(fmax(a, b))
}

func (vm *VM) f64Copysign() {
	b, a := vm.popFloat64(), vm.popFloat64()
	vm.pushFloat64(math.Copysign(a, b))
}
