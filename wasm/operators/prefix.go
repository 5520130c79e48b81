// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

// Operators under the 0xfc prefix: non-trapping float-to-int conversions,
// bulk memory, and table operations.
var (
	I32TruncSatF32S = newPrefixedOp(0, "i32.trunc_sat_f32_s", sig(f32), sig(i32))
	I32TruncSatF32U = newPrefixedOp(1, "i32.trunc_sat_f32_u", sig(f32), sig(i32))
	I32TruncSatF64S = newPrefixedOp(2, "i32.trunc_sat_f64_s", sig(f64), sig(i32))
	I32TruncSatF64U = newPrefixedOp(3, "i32.trunc_sat_f64_u", sig(f64), sig(i32))
	I64TruncSatF32S = newPrefixedOp(4, "i64.trunc_sat_f32_s", sig(f32), sig(i64))
	I64TruncSatF32U = newPrefixedOp(5, "i64.trunc_sat_f32_u", sig(f32), sig(i64))
	I64TruncSatF64S = newPrefixedOp(6, "i64.trunc_sat_f64_s", sig(f64), sig(i64))
	I64TruncSatF64U = newPrefixedOp(7, "i64.trunc_sat_f64_u", sig(f64), sig(i64))

	MemoryInit = newPrefixedOp(8, "memory.init", sig(i32, i32, i32), nil)
	DataDrop   = newPrefixedOp(9, "data.drop", nil, nil)
	MemoryCopy = newPrefixedOp(10, "memory.copy", sig(i32, i32, i32), nil)
	MemoryFill = newPrefixedOp(11, "memory.fill", sig(i32, i32, i32), nil)

	TableInit = newPrefixedOp(12, "table.init", sig(i32, i32, i32), nil)
	ElemDrop  = newPrefixedOp(13, "elem.drop", nil, nil)
	TableCopy = newPrefixedOp(14, "table.copy", sig(i32, i32, i32), nil)
	TableGrow = newPrefixedPolymorphicOp(15, "table.grow")
	TableSize = newPrefixedOp(16, "table.size", nil, sig(i32))
	TableFill = newPrefixedPolymorphicOp(17, "table.fill")
)
