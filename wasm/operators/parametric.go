// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

var (
	Drop        = newPolymorphicOp(0x1a, "drop")
	Select      = newPolymorphicOp(0x1b, "select")
	SelectTyped = newPolymorphicOp(0x1c, "select") // with an explicit type annotation
)
