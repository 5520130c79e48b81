// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

var (
	I32Const = newOp(0x41, "i32.const", nil, sig(i32))
	I64Const = newOp(0x42, "i64.const", nil, sig(i64))
	F32Const = newOp(0x43, "f32.const", nil, sig(f32))
	F64Const = newOp(0x44, "f64.const", nil, sig(f64))
)
