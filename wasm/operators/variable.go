// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

var (
	LocalGet  = newPolymorphicOp(0x20, "local.get")
	LocalSet  = newPolymorphicOp(0x21, "local.set")
	LocalTee  = newPolymorphicOp(0x22, "local.tee")
	GlobalGet = newPolymorphicOp(0x23, "global.get")
	GlobalSet = newPolymorphicOp(0x24, "global.set")
)
