// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package operators provides all operators used by WebAssembly bytecode,
// together with their parameter and return type signatures.
package operators

import (
	"fmt"

	"github.com/wasm5/wasm5/wasm"
)

var (
	ops         [256]Op // all single-byte operators, indexed by opcode
	prefixedOps [32]Op  // operators under the 0xfc prefix, indexed by sub-opcode
)

// Prefix bytes for multi-byte opcodes.
const (
	PrefixMisc   byte = 0xfc // saturating truncation, bulk memory, table ops
	PrefixSIMD   byte = 0xfd
	PrefixThread byte = 0xfe
)

// Op describes a WASM operator.
type Op struct {
	Code   byte   // The single-byte opcode, or the prefix byte for extended operators
	Sub    uint32 // The sub-opcode for extended operators
	IsPref bool

	Name string

	// Whether this operator's stack signature depends on context (control
	// flow, immediates, or operand types). Polymorphic operators are
	// type-checked by dedicated validator logic instead of Args/Returns.
	Polymorphic bool

	Args    []wasm.ValueType
	Returns []wasm.ValueType
}

func (o Op) String() string { return o.Name }

// IsValid reports whether the operator is defined.
func (o Op) IsValid() bool { return o.Name != "" }

func newOp(code byte, name string, args []wasm.ValueType, returns []wasm.ValueType) byte {
	if ops[code].IsValid() {
		panic(fmt.Errorf("operators: duplicate opcode %#x (%s)", code, name))
	}
	ops[code] = Op{
		Code:    code,
		Name:    name,
		Args:    args,
		Returns: returns,
	}
	return code
}

func newPolymorphicOp(code byte, name string) byte {
	if ops[code].IsValid() {
		panic(fmt.Errorf("operators: duplicate opcode %#x (%s)", code, name))
	}
	ops[code] = Op{
		Code:        code,
		Name:        name,
		Polymorphic: true,
	}
	return code
}

func newPrefixedOp(sub uint32, name string, args []wasm.ValueType, returns []wasm.ValueType) uint32 {
	if prefixedOps[sub].IsValid() {
		panic(fmt.Errorf("operators: duplicate prefixed opcode %d (%s)", sub, name))
	}
	prefixedOps[sub] = Op{
		Code:    PrefixMisc,
		Sub:     sub,
		IsPref:  true,
		Name:    name,
		Args:    args,
		Returns: returns,
	}
	return sub
}

func newPrefixedPolymorphicOp(sub uint32, name string) uint32 {
	if prefixedOps[sub].IsValid() {
		panic(fmt.Errorf("operators: duplicate prefixed opcode %d (%s)", sub, name))
	}
	prefixedOps[sub] = Op{
		Code:        PrefixMisc,
		Sub:         sub,
		IsPref:      true,
		Name:        name,
		Polymorphic: true,
	}
	return sub
}

// InvalidOpcodeError is returned when an undefined opcode is looked up.
type InvalidOpcodeError byte

func (e InvalidOpcodeError) Error() string {
	return fmt.Sprintf("operators: invalid opcode %#x", byte(e))
}

// InvalidPrefixedOpcodeError is returned when an undefined 0xfc sub-opcode
// is looked up.
type InvalidPrefixedOpcodeError uint32

func (e InvalidPrefixedOpcodeError) Error() string {
	return fmt.Sprintf("operators: invalid 0xfc opcode %d", uint32(e))
}

// New returns the operator with the given single-byte opcode.
func New(code byte) (Op, error) {
	op := ops[code]
	if !op.IsValid() {
		return op, InvalidOpcodeError(code)
	}
	return op, nil
}

// NewPrefixed returns the operator with the given sub-opcode under the
// 0xfc prefix.
func NewPrefixed(sub uint32) (Op, error) {
	if sub >= uint32(len(prefixedOps)) {
		return Op{}, InvalidPrefixedOpcodeError(sub)
	}
	op := prefixedOps[sub]
	if !op.IsValid() {
		return op, InvalidPrefixedOpcodeError(sub)
	}
	return op, nil
}

// shorthands used by the signature tables
var (
	i32 = wasm.ValueTypeI32
	i64 = wasm.ValueTypeI64
	f32 = wasm.ValueTypeF32
	f64 = wasm.ValueTypeF64

	sig = func(ts ...wasm.ValueType) []wasm.ValueType { return ts }
)
