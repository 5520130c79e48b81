// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	ops "github.com/wasm5/wasm5/wasm/operators"
)

// The compiled code stream is a flat array of 64-bit cells. Each
// instruction occupies one opcode cell followed by zero or more immediate
// cells. Plain value and memory operators reuse their single-byte WASM
// opcode as the cell opcode; structured control flow is lowered to the
// internal operations below, which occupy the space above 0xff.
const (
	// OpEntry starts a function: entry, numLocals, numParams, frameSize.
	// The interpreter checks frameSize slots of headroom, zeroes the
	// non-argument locals and sets sp = fp + numLocals.
	OpEntry uint64 = 0x100 + iota
	// OpEnd ends a function: end, numResults. The top numResults operands
	// are copied to fp[0..numResults-1] and control returns to the caller.
	OpEnd
	// OpBr jumps unconditionally: br, target.
	OpBr
	// OpBrIf pops an i32 condition: br_if, takenTarget, notTakenTarget.
	OpBrIf
	// OpBrZ pops an i32 condition and jumps when it is zero: br_z, target.
	// The not-taken path falls through. Emitted for the false edge of if.
	OpBrZ
	// OpBrTable pops an i32 index: br_table, count, target0..targetCount.
	// Indices at or above count select the final (default) target.
	OpBrTable
	// OpCopySlot moves one slot: copy_slot, dstSlot, srcSlot (fp-relative).
	// Emitted in resolution preludes to place branch results.
	OpCopySlot
	// OpSetSp sets the stack pointer: set_sp, slot (fp-relative).
	OpSetSp
	// OpCall calls a defined function: call, entry, frameOffset.
	OpCall
	// OpCallHost calls an imported function: call_host, hostIndex, frameOffset.
	OpCallHost
	// OpCallIndirect calls through a table: call_indirect, typeIndex,
	// tableIndex, frameOffset. The element index is popped from the stack.
	OpCallIndirect
	// OpReturnCall replaces the current frame: return_call, funcIndex, argsSlot.
	OpReturnCall
	// OpReturnCallIndirect: return_call_indirect, typeIndex, tableIndex, argsSlot.
	OpReturnCallIndirect

	numInternalOps
)

// prefixedBase is where 0xfc-prefixed operators live in the compiled
// opcode space.
const prefixedBase uint64 = 0x140

// PrefixedOp maps a 0xfc sub-opcode into the compiled opcode space.
func PrefixedOp(sub uint32) uint64 { return prefixedBase + uint64(sub) }

// NumOps is the size of the interpreter's handler table.
const NumOps = int(prefixedBase) + 32

var internalOpNames = map[uint64]string{
	OpEntry:              "entry",
	OpEnd:                "end",
	OpBr:                 "br",
	OpBrIf:               "br_if",
	OpBrZ:                "br_z",
	OpBrTable:            "br_table",
	OpCopySlot:           "copy_slot",
	OpSetSp:              "set_sp",
	OpCall:               "call",
	OpCallHost:           "call_host",
	OpCallIndirect:       "call_indirect",
	OpReturnCall:         "return_call",
	OpReturnCallIndirect: "return_call_indirect",
}

// OpName returns a printable name for a compiled opcode cell.
func OpName(op uint64) string {
	if n, ok := internalOpNames[op]; ok {
		return n
	}
	if op >= prefixedBase {
		if o, err := ops.NewPrefixed(uint32(op - prefixedBase)); err == nil {
			return o.Name
		}
		return "<invalid>"
	}
	if op < 0x100 {
		if o, err := ops.New(byte(op)); err == nil {
			return o.Name
		}
	}
	return "<invalid>"
}
