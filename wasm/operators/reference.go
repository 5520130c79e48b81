// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

var (
	TableGet = newPolymorphicOp(0x25, "table.get")
	TableSet = newPolymorphicOp(0x26, "table.set")

	RefNull   = newPolymorphicOp(0xd0, "ref.null")
	RefIsNull = newPolymorphicOp(0xd1, "ref.is_null")
	RefFunc   = newPolymorphicOp(0xd2, "ref.func")
)
