// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

var (
	I32WrapI64    = newOp(0xa7, "i32.wrap_i64", sig(i64), sig(i32))
	I32TruncF32S  = newOp(0xa8, "i32.trunc_f32_s", sig(f32), sig(i32))
	I32TruncF32U  = newOp(0xa9, "i32.trunc_f32_u", sig(f32), sig(i32))
	I32TruncF64S  = newOp(0xaa, "i32.trunc_f64_s", sig(f64), sig(i32))
	I32TruncF64U  = newOp(0xab, "i32.trunc_f64_u", sig(f64), sig(i32))
	I64ExtendI32S = newOp(0xac, "i64.extend_i32_s", sig(i32), sig(i64))
	I64ExtendI32U = newOp(0xad, "i64.extend_i32_u", sig(i32), sig(i64))
	I64TruncF32S  = newOp(0xae, "i64.trunc_f32_s", sig(f32), sig(i64))
	I64TruncF32U  = newOp(0xaf, "i64.trunc_f32_u", sig(f32), sig(i64))
	I64TruncF64S  = newOp(0xb0, "i64.trunc_f64_s", sig(f64), sig(i64))
	I64TruncF64U  = newOp(0xb1, "i64.trunc_f64_u", sig(f64), sig(i64))

	F32ConvertI32S = newOp(0xb2, "f32.convert_i32_s", sig(i32), sig(f32))
	F32ConvertI32U = newOp(0xb3, "f32.convert_i32_u", sig(i32), sig(f32))
	F32ConvertI64S = newOp(0xb4, "f32.convert_i64_s", sig(i64), sig(f32))
	F32ConvertI64U = newOp(0xb5, "f32.convert_i64_u", sig(i64), sig(f32))
	F32DemoteF64   = newOp(0xb6, "f32.demote_f64", sig(f64), sig(f32))
	F64ConvertI32S = newOp(0xb7, "f64.convert_i32_s", sig(i32), sig(f64))
	F64ConvertI32U = newOp(0xb8, "f64.convert_i32_u", sig(i32), sig(f64))
	F64ConvertI64S = newOp(0xb9, "f64.convert_i64_s", sig(i64), sig(f64))
	F64ConvertI64U = newOp(0xba, "f64.convert_i64_u", sig(i64), sig(f64))
	F64PromoteF32  = newOp(0xbb, "f64.promote_f32", sig(f32), sig(f64))

	I32ReinterpretF32 = newOp(0xbc, "i32.reinterpret_f32", sig(f32), sig(i32))
	I64ReinterpretF64 = newOp(0xbd, "i64.reinterpret_f64", sig(f64), sig(i64))
	F32ReinterpretI32 = newOp(0xbe, "f32.reinterpret_i32", sig(i32), sig(f32))
	F64ReinterpretI64 = newOp(0xbf, "f64.reinterpret_i64", sig(i64), sig(f64))

	I32Extend8S  = newOp(0xc0, "i32.extend8_s", sig(i32), sig(i32))
	I32Extend16S = newOp(0xc1, "i32.extend16_s", sig(i32), sig(i32))
	I64Extend8S  = newOp(0xc2, "i64.extend8_s", sig(i64), sig(i64))
	I64Extend16S = newOp(0xc3, "i64.extend16_s", sig(i64), sig(i64))
	I64Extend32S = newOp(0xc4, "i64.extend32_s", sig(i64), sig(i64))
)
