// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

var (
	I32Load    = newOp(0x28, "i32.load", sig(i32), sig(i32))
	I64Load    = newOp(0x29, "i64.load", sig(i32), sig(i64))
	F32Load    = newOp(0x2a, "f32.load", sig(i32), sig(f32))
	F64Load    = newOp(0x2b, "f64.load", sig(i32), sig(f64))
	I32Load8s  = newOp(0x2c, "i32.load8_s", sig(i32), sig(i32))
	I32Load8u  = newOp(0x2d, "i32.load8_u", sig(i32), sig(i32))
	I32Load16s = newOp(0x2e, "i32.load16_s", sig(i32), sig(i32))
	I32Load16u = newOp(0x2f, "i32.load16_u", sig(i32), sig(i32))
	I64Load8s  = newOp(0x30, "i64.load8_s", sig(i32), sig(i64))
	I64Load8u  = newOp(0x31, "i64.load8_u", sig(i32), sig(i64))
	I64Load16s = newOp(0x32, "i64.load16_s", sig(i32), sig(i64))
	I64Load16u = newOp(0x33, "i64.load16_u", sig(i32), sig(i64))
	I64Load32s = newOp(0x34, "i64.load32_s", sig(i32), sig(i64))
	I64Load32u = newOp(0x35, "i64.load32_u", sig(i32), sig(i64))

	I32Store   = newOp(0x36, "i32.store", sig(i32, i32), nil)
	I64Store   = newOp(0x37, "i64.store", sig(i32, i64), nil)
	F32Store   = newOp(0x38, "f32.store", sig(i32, f32), nil)
	F64Store   = newOp(0x39, "f64.store", sig(i32, f64), nil)
	I32Store8  = newOp(0x3a, "i32.store8", sig(i32, i32), nil)
	I32Store16 = newOp(0x3b, "i32.store16", sig(i32, i32), nil)
	I64Store8  = newOp(0x3c, "i64.store8", sig(i32, i64), nil)
	I64Store16 = newOp(0x3d, "i64.store16", sig(i32, i64), nil)
	I64Store32 = newOp(0x3e, "i64.store32", sig(i32, i64), nil)

	MemorySize = newOp(0x3f, "memory.size", nil, sig(i32))
	MemoryGrow = newOp(0x40, "memory.grow", sig(i32), sig(i32))
)
