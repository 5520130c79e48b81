// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

var (
	I32Eqz = newOp(0x45, "i32.eqz", sig(i32), sig(i32))
	I32Eq  = newOp(0x46, "i32.eq", sig(i32, i32), sig(i32))
	I32Ne  = newOp(0x47, "i32.ne", sig(i32, i32), sig(i32))
	I32LtS = newOp(0x48, "i32.lt_s", sig(i32, i32), sig(i32))
	I32LtU = newOp(0x49, "i32.lt_u", sig(i32, i32), sig(i32))
	I32GtS = newOp(0x4a, "i32.gt_s", sig(i32, i32), sig(i32))
	I32GtU = newOp(0x4b, "i32.gt_u", sig(i32, i32), sig(i32))
	I32LeS = newOp(0x4c, "i32.le_s", sig(i32, i32), sig(i32))
	I32LeU = newOp(0x4d, "i32.le_u", sig(i32, i32), sig(i32))
	I32GeS = newOp(0x4e, "i32.ge_s", sig(i32, i32), sig(i32))
	I32GeU = newOp(0x4f, "i32.ge_u", sig(i32, i32), sig(i32))

	I64Eqz = newOp(0x50, "i64.eqz", sig(i64), sig(i32))
	I64Eq  = newOp(0x51, "i64.eq", sig(i64, i64), sig(i32))
	I64Ne  = newOp(0x52, "i64.ne", sig(i64, i64), sig(i32))
	I64LtS = newOp(0x53, "i64.lt_s", sig(i64, i64), sig(i32))
	I64LtU = newOp(0x54, "i64.lt_u", sig(i64, i64), sig(i32))
	I64GtS = newOp(0x55, "i64.gt_s", sig(i64, i64), sig(i32))
	I64GtU = newOp(0x56, "i64.gt_u", sig(i64, i64), sig(i32))
	I64LeS = newOp(0x57, "i64.le_s", sig(i64, i64), sig(i32))
	I64LeU = newOp(0x58, "i64.le_u", sig(i64, i64), sig(i32))
	I64GeS = newOp(0x59, "i64.ge_s", sig(i64, i64), sig(i32))
	I64GeU = newOp(0x5a, "i64.ge_u", sig(i64, i64), sig(i32))

	F32Eq = newOp(0x5b, "f32.eq", sig(f32, f32), sig(i32))
	F32Ne = newOp(0x5c, "f32.ne", sig(f32, f32), sig(i32))
	F32Lt = newOp(0x5d, "f32.lt", sig(f32, f32), sig(i32))
	F32Gt = newOp(0x5e, "f32.gt", sig(f32, f32), sig(i32))
	F32Le = newOp(0x5f, "f32.le", sig(f32, f32), sig(i32))
	F32Ge = newOp(0x60, "f32.ge", sig(f32, f32), sig(i32))

	F64Eq = newOp(0x61, "f64.eq", sig(f64, f64), sig(i32))
	F64Ne = newOp(0x62, "f64.ne", sig(f64, f64), sig(i32))
	F64Lt = newOp(0x63, "f64.lt", sig(f64, f64), sig(i32))
	F64Gt = newOp(0x64, "f64.gt", sig(f64, f64), sig(i32))
	F64Le = newOp(0x65, "f64.le", sig(f64, f64), sig(i32))
	F64Ge = newOp(0x66, "f64.ge", sig(f64, f64), sig(i32))
)
