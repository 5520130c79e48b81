// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"fmt"
	"io"

	"github.com/wasm5/wasm5/wasm/leb128"
)

// ValueType represents the type of a valid value in Wasm.
// The constants mirror the signed LEB128 encoding of the binary format
// (e.g. i32 is byte 0x7f, which decodes to -0x01).
type ValueType int8

const (
	ValueTypeI32       ValueType = -0x01
	ValueTypeI64       ValueType = -0x02
	ValueTypeF32       ValueType = -0x03
	ValueTypeF64       ValueType = -0x04
	ValueTypeV128      ValueType = -0x05
	ValueTypeFuncref   ValueType = -0x10
	ValueTypeExternref ValueType = -0x11
)

var valueTypeStrMap = map[ValueType]string{
	ValueTypeI32:       "i32",
	ValueTypeI64:       "i64",
	ValueTypeF32:       "f32",
	ValueTypeF64:       "f64",
	ValueTypeV128:      "v128",
	ValueTypeFuncref:   "funcref",
	ValueTypeExternref: "externref",
}

func (t ValueType) String() string {
	str, ok := valueTypeStrMap[t]
	if !ok {
		str = fmt.Sprintf("<unknown value_type %d>", int8(t))
	}
	return str
}

// IsNum reports whether t is one of the numeric types.
func (t ValueType) IsNum() bool {
	switch t {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return true
	}
	return false
}

// IsRef reports whether t is a reference type.
func (t ValueType) IsRef() bool {
	return t == ValueTypeFuncref || t == ValueTypeExternref
}

// TypeFunc is the type constructor byte for function types (0x60).
const TypeFunc int = -0x20

type InvalidValueTypeError int8

func (e InvalidValueTypeError) Error() string {
	return fmt.Sprintf("wasm: invalid value type %#x", uint8(e))
}

func readValueType(r io.Reader) (ValueType, error) {
	v, err := leb128.ReadVarint32(r)
	if err != nil {
		return 0, err
	}
	t := ValueType(v)
	switch t {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64,
		ValueTypeV128, ValueTypeFuncref, ValueTypeExternref:
		return t, nil
	}
	return t, InvalidValueTypeError(v)
}

func readRefType(r io.Reader) (ValueType, error) {
	t, err := readValueType(r)
	if err != nil {
		return t, err
	}
	if !t.IsRef() {
		return t, InvalidValueTypeError(t)
	}
	return t, nil
}

// BlockType is the raw signed 33-bit block type immediate of a structured
// control instruction. A non-negative value is an index into the type
// section; negative values encode an empty signature or a single result
// value type.
type BlockType int64

// BlockTypeEmpty is the block type of a block producing no values.
const BlockTypeEmpty BlockType = -0x40

func readBlockType(r io.Reader) (BlockType, error) {
	b, err := leb128.ReadVarint33(r)
	return BlockType(b), err
}

// TypeIndex returns the type-section index encoded by b, if any.
func (b BlockType) TypeIndex() (uint32, bool) {
	if b >= 0 {
		return uint32(b), true
	}
	return 0, false
}

// Result returns the single result value type encoded by b, if any.
func (b BlockType) Result() (ValueType, bool) {
	if b < 0 && b != BlockTypeEmpty {
		return ValueType(b), true
	}
	return 0, false
}

func (b BlockType) String() string {
	switch {
	case b == BlockTypeEmpty:
		return "<empty block>"
	case b >= 0:
		return fmt.Sprintf("<type %d>", int64(b))
	default:
		return ValueType(b).String()
	}
}

// FunctionSig describes the signature of a declared function in a WASM module.
type FunctionSig struct {
	// value for the 'func' type constructor
	Form int8
	// The parameter types of the function
	ParamTypes  []ValueType
	ReturnTypes []ValueType
}

func (f FunctionSig) String() string {
	return fmt.Sprintf("<func %v -> %v>", f.ParamTypes, f.ReturnTypes)
}

// Equal reports whether f and other describe the same function type.
func (f *FunctionSig) Equal(other *FunctionSig) bool {
	if len(f.ParamTypes) != len(other.ParamTypes) || len(f.ReturnTypes) != len(other.ReturnTypes) {
		return false
	}
	for i, t := range f.ParamTypes {
		if other.ParamTypes[i] != t {
			return false
		}
	}
	for i, t := range f.ReturnTypes {
		if other.ReturnTypes[i] != t {
			return false
		}
	}
	return true
}

type InvalidTypeConstructorError struct {
	Wanted int
	Got    int
}

func (e InvalidTypeConstructorError) Error() string {
	return fmt.Sprintf("wasm: invalid type constructor: wanted %d, got %d", e.Wanted, e.Got)
}

func readFunctionSig(r io.Reader) (FunctionSig, error) {
	f := FunctionSig{}

	form, err := leb128.ReadVarint32(r)
	if err != nil {
		return f, err
	}
	if int(form) != TypeFunc {
		return f, InvalidTypeConstructorError{TypeFunc, int(form)}
	}
	f.Form = int8(form)

	paramCount, err := leb128.ReadVarUint32(r)
	if err != nil {
		return f, err
	}
	f.ParamTypes = make([]ValueType, paramCount)

	for i := range f.ParamTypes {
		f.ParamTypes[i], err = readValueType(r)
		if err != nil {
			return f, err
		}
	}

	returnCount, err := leb128.ReadVarUint32(r)
	if err != nil {
		return f, err
	}

	f.ReturnTypes = make([]ValueType, returnCount)
	for i := range f.ReturnTypes {
		vt, err := readValueType(r)
		if err != nil {
			return f, err
		}
		f.ReturnTypes[i] = vt
	}

	return f, nil
}

// GlobalVar describes the type and mutability of a declared global variable.
type GlobalVar struct {
	Type    ValueType // Type of the value stored by the variable
	Mutable bool      // Whether the value of the variable can be changed by global.set
}

func readGlobalVar(r io.Reader) (*GlobalVar, error) {
	g := &GlobalVar{}
	var err error

	g.Type, err = readValueType(r)
	if err != nil {
		return nil, err
	}

	m, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	if m > 1 {
		return nil, fmt.Errorf("wasm: invalid mutability flag %d", m)
	}

	g.Mutable = m == 1

	return g, nil
}

// Table describes a table in a Wasm module.
type Table struct {
	// The type of elements: funcref or externref
	ElementType ValueType
	Limits      ResizableLimits
}

func readTable(r io.Reader) (*Table, error) {
	t := Table{}
	var err error

	t.ElementType, err = readRefType(r)
	if err != nil {
		return nil, err
	}

	lims, err := readResizableLimits(r)
	if err != nil {
		return nil, err
	}

	t.Limits = *lims
	return &t, err
}

// Memory describes a linear memory in a Wasm module.
type Memory struct {
	Limits ResizableLimits
}

func readMemory(r io.Reader) (*Memory, error) {
	lim, err := readResizableLimits(r)
	if err != nil {
		return nil, err
	}

	return &Memory{*lim}, nil
}

// External describes the kind of the entry being imported or exported.
type External uint8

const (
	ExternalFunction External = 0
	ExternalTable    External = 1
	ExternalMemory   External = 2
	ExternalGlobal   External = 3
)

func (e External) String() string {
	switch e {
	case ExternalFunction:
		return "function"
	case ExternalTable:
		return "table"
	case ExternalMemory:
		return "memory"
	case ExternalGlobal:
		return "global"
	default:
		return "<unknown external_kind>"
	}
}

func readExternal(r io.Reader) (External, error) {
	bytes, err := readBytes(r, 1)
	if err != nil {
		return 0, err
	}
	return External(bytes[0]), nil
}

// ResizableLimits describe the limits of a table or linear memory.
type ResizableLimits struct {
	Flags   uint32 // 1 if the Maximum field is valid
	Initial uint32 // initial length (in units of table elements or wasm pages)
	Maximum uint32 // If flags&1, the maximum size of the table or memory
}

// HasMax reports whether a maximum was declared.
func (lim ResizableLimits) HasMax() bool { return lim.Flags&0x1 != 0 }

func readResizableLimits(r io.Reader) (*ResizableLimits, error) {
	lim := &ResizableLimits{}
	f, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}

	lim.Flags = f
	lim.Initial, err = leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}

	if lim.HasMax() {
		m, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		lim.Maximum = m
	}
	return lim, nil
}
