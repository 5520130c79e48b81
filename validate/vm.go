// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/wasm5/wasm5/wasm"
	"github.com/wasm5/wasm5/wasm/leb128"
)

// unknownType is the synthesized value type produced when popping from a
// polymorphic (unreachable) stack.
const unknownType = wasm.ValueType(0)

func equalType(a, b wasm.ValueType) bool {
	if a == unknownType || b == unknownType {
		return true
	}
	return a == b
}

// mockVM is a minimal implementation of a virtual machine used to validate
// WebAssembly code: it tracks the types of the operand stack rather than
// values.
type mockVM struct {
	origLength int // the original length of the bytecode stream
	code       *bytes.Reader

	stack      []wasm.ValueType
	ctrlFrames []frame // a stack of encountered blocks

	curSig *wasm.FunctionSig
	module *wasm.Module
	locals []wasm.ValueType

	// functions that may be referenced by ref.func inside this body
	declared map[uint32]struct{}
}

// a frame represents a structured control instruction and its associated
// block.
type frame struct {
	pc          int              // the pc of the instruction declaring the frame
	labelTypes  []wasm.ValueType // types of values expected by branches to this frame's label
	endTypes    []wasm.ValueType // types of values left on the stack when the frame ends
	params      []wasm.ValueType // parameter types of the block, re-typed by else arms
	startHeight int              // height of the stack when the frame was entered

	op byte // opcode of the operator starting the block

	// polymorphic is set after an unconditional transfer (unreachable, br,
	// br_table, return, return_call). While set, popping below startHeight
	// synthesizes the requested type instead of failing.
	polymorphic bool
}

func (vm *mockVM) fetchVarUint() (uint32, error) {
	return leb128.ReadVarUint32(vm.code)
}

func (vm *mockVM) fetchVarInt() (int32, error) {
	return leb128.ReadVarint32(vm.code)
}

func (vm *mockVM) fetchVarInt64() (int64, error) {
	return leb128.ReadVarint64(vm.code)
}

func (vm *mockVM) fetchBlockType() (wasm.BlockType, error) {
	b, err := leb128.ReadVarint33(vm.code)
	return wasm.BlockType(b), err
}

func (vm *mockVM) fetchByte() (byte, error) {
	return vm.code.ReadByte()
}

func (vm *mockVM) fetchUint32() (uint32, error) {
	var buf [4]byte
	_, err := io.ReadFull(vm.code, buf[:])
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (vm *mockVM) fetchUint64() (uint64, error) {
	var buf [8]byte
	_, err := io.ReadFull(vm.code, buf[:])
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (vm *mockVM) fetchValueType() (wasm.ValueType, error) {
	v, err := leb128.ReadVarint32(vm.code)
	return wasm.ValueType(v), err
}

func (vm *mockVM) pushFrame(op byte, labelTypes, endTypes []wasm.ValueType) {
	vm.ctrlFrames = append(vm.ctrlFrames, frame{
		pc:          vm.pc(),
		startHeight: len(vm.stack),
		labelTypes:  labelTypes,
		endTypes:    endTypes,
		op:          op,
	})
}

// getFrameFromDepth returns a frame by its relative nesting depth, the
// label addressing used by branch instructions.
func (vm *mockVM) getFrameFromDepth(depth int) *frame {
	if depth >= len(vm.ctrlFrames) {
		return nil
	}

	return &vm.ctrlFrames[len(vm.ctrlFrames)-1-depth]
}

// popFrame validates the frame's end types against the residual stack and
// removes the frame.
func (vm *mockVM) popFrame() (*frame, error) {
	top := vm.topFrame()
	if top == nil {
		return nil, verr(KindTypeMismatch, "end with no matching block")
	}

	for i := len(top.endTypes) - 1; i >= 0; i-- {
		ret := top.endTypes[i]
		if _, err := vm.popExpect(ret); err != nil {
			return nil, err
		}
	}
	if len(vm.stack) != top.startHeight && !top.polymorphic {
		return nil, verr(KindTypeMismatch, "unbalanced stack at end of block (%d values left over)", len(vm.stack)-top.startHeight)
	}
	if len(vm.stack) > top.startHeight {
		vm.stack = vm.stack[:top.startHeight]
	}
	popped := *top
	vm.ctrlFrames = vm.ctrlFrames[:len(vm.ctrlFrames)-1]

	return &popped, nil
}

func (vm *mockVM) topFrame() *frame {
	if len(vm.ctrlFrames) == 0 {
		return nil
	}
	return &vm.ctrlFrames[len(vm.ctrlFrames)-1]
}

// popOperand returns the type of the top of the stack. If the stack is at
// the current frame's base height and the frame is polymorphic, an operand
// of unknown type is synthesized.
func (vm *mockVM) popOperand() (wasm.ValueType, error) {
	top := vm.topFrame()
	if len(vm.stack) == top.startHeight {
		if top.polymorphic {
			return unknownType, nil
		}
		return 0, ErrStackUnderflow
	}
	nl := len(vm.stack) - 1
	t := vm.stack[nl]
	vm.stack = vm.stack[:nl]
	return t, nil
}

// popExpect pops an operand and checks it against the wanted type.
func (vm *mockVM) popExpect(want wasm.ValueType) (wasm.ValueType, error) {
	got, err := vm.popOperand()
	if err != nil {
		return got, err
	}
	if !equalType(got, want) {
		return got, typeMismatch(want, got)
	}
	return got, nil
}

func (vm *mockVM) pushOperand(t wasm.ValueType) {
	vm.stack = append(vm.stack, t)
}

// popMatching pops the given types in reverse order, checking each against
// the operand on top of the stack.
func (vm *mockVM) popMatching(types []wasm.ValueType) error {
	for i := len(types) - 1; i >= 0; i-- {
		if _, err := vm.popExpect(types[i]); err != nil {
			return err
		}
	}
	return nil
}

// setUnreachable marks the current frame polymorphic and clears its portion
// of the stack.
func (vm *mockVM) setUnreachable() {
	frame := vm.topFrame()
	frame.polymorphic = true
	vm.stack = vm.stack[:frame.startHeight]
}

func (vm *mockVM) pc() int {
	return vm.origLength - vm.code.Len()
}
