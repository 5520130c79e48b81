// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

var (
	Unreachable        = newPolymorphicOp(0x00, "unreachable")
	Nop                = newOp(0x01, "nop", nil, nil)
	Block              = newPolymorphicOp(0x02, "block")
	Loop               = newPolymorphicOp(0x03, "loop")
	If                 = newPolymorphicOp(0x04, "if")
	Else               = newPolymorphicOp(0x05, "else")
	End                = newPolymorphicOp(0x0b, "end")
	Br                 = newPolymorphicOp(0x0c, "br")
	BrIf               = newPolymorphicOp(0x0d, "br_if")
	BrTable            = newPolymorphicOp(0x0e, "br_table")
	Return             = newPolymorphicOp(0x0f, "return")
	Call               = newPolymorphicOp(0x10, "call")
	CallIndirect       = newPolymorphicOp(0x11, "call_indirect")
	ReturnCall         = newPolymorphicOp(0x12, "return_call")
	ReturnCallIndirect = newPolymorphicOp(0x13, "return_call_indirect")
)
