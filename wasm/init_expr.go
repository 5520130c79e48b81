// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/wasm5/wasm5/wasm/leb128"
)

const (
	i32Const  byte = 0x41
	i64Const  byte = 0x42
	f32Const  byte = 0x43
	f64Const  byte = 0x44
	globalGet byte = 0x23
	refNull   byte = 0xd0
	refFunc   byte = 0xd2
	end       byte = 0x0b
)

// NullRef is the 64-bit slot encoding of a null reference value. Non-null
// funcref values are plain function indices; externref values are opaque
// host-provided handles.
const NullRef uint64 = 0xffffffffffffffff

var ErrEmptyInitExpr = errors.New("wasm: initializer expression produces no value")

type InvalidInitExprOpError byte

func (e InvalidInitExprOpError) Error() string {
	return fmt.Sprintf("wasm: invalid opcode in initializer expression: %#x", byte(e))
}

type InvalidGlobalIndexError uint32

func (e InvalidGlobalIndexError) Error() string {
	return fmt.Sprintf("wasm: invalid index to global index space: %#x", uint32(e))
}

// readInitExpr reads a constant expression, delimited by the end opcode,
// and returns its raw bytes (end included for later re-reading, except the
// terminator itself is kept so evaluators can detect completion).
func readInitExpr(r io.Reader) ([]byte, error) {
	b := make([]byte, 1)
	buf := new(bytes.Buffer)
	r = io.TeeReader(r, buf)

outer:
	for {
		_, err := io.ReadFull(r, b)
		if err != nil {
			return nil, err
		}

		switch b[0] {
		case i32Const:
			if _, err := leb128.ReadVarint32(r); err != nil {
				return nil, err
			}
		case i64Const:
			if _, err := leb128.ReadVarint64(r); err != nil {
				return nil, err
			}
		case f32Const:
			var i uint32
			if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
				return nil, err
			}
		case f64Const:
			var i uint64
			if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
				return nil, err
			}
		case globalGet:
			if _, err := leb128.ReadVarUint32(r); err != nil {
				return nil, err
			}
		case refNull:
			if _, err := readValueType(r); err != nil {
				return nil, err
			}
		case refFunc:
			if _, err := leb128.ReadVarUint32(r); err != nil {
				return nil, err
			}
		case end:
			break outer
		default:
			return nil, InvalidInitExprOpError(b[0])
		}
	}

	if buf.Len() <= 1 {
		return nil, ErrEmptyInitExpr
	}

	return buf.Bytes(), nil
}

// readRefInitExpr reads a constant expression that must produce a reference
// value directly, i.e. a single ref.func or ref.null instruction. It returns
// the function index, or RefNullIndex for a null reference.
func readRefInitExpr(r io.Reader) (int64, error) {
	b := make([]byte, 1)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}

	var idx int64
	switch b[0] {
	case refNull:
		if _, err := readValueType(r); err != nil {
			return 0, err
		}
		idx = RefNullIndex
	case refFunc:
		i, err := leb128.ReadVarUint32(r)
		if err != nil {
			return 0, err
		}
		idx = int64(i)
	default:
		return 0, InvalidInitExprOpError(b[0])
	}

	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	if b[0] != end {
		return 0, InvalidInitExprOpError(b[0])
	}
	return idx, nil
}

// ExecInitExpr executes a constant expression and returns the produced
// 64-bit slot value and its type. globals holds the evaluated values of the
// global index space read by global.get; it may be shorter than the index
// space when evaluation happens before all globals are known.
func (m *Module) ExecInitExpr(expr []byte, globals []uint64) (uint64, ValueType, error) {
	var stack []uint64
	var lastVal ValueType
	r := bytes.NewReader(expr)

	if r.Len() == 0 {
		return 0, 0, ErrEmptyInitExpr
	}

	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return 0, 0, err
		}
		switch b {
		case i32Const:
			i, err := leb128.ReadVarint32(r)
			if err != nil {
				return 0, 0, err
			}
			stack = append(stack, uint64(uint32(i)))
			lastVal = ValueTypeI32
		case i64Const:
			i, err := leb128.ReadVarint64(r)
			if err != nil {
				return 0, 0, err
			}
			stack = append(stack, uint64(i))
			lastVal = ValueTypeI64
		case f32Const:
			var i uint32
			if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
				return 0, 0, err
			}
			stack = append(stack, uint64(i))
			lastVal = ValueTypeF32
		case f64Const:
			var i uint64
			if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
				return 0, 0, err
			}
			stack = append(stack, i)
			lastVal = ValueTypeF64
		case globalGet:
			index, err := leb128.ReadVarUint32(r)
			if err != nil {
				return 0, 0, err
			}
			globalVar := m.GetGlobal(int(index))
			if globalVar == nil || int(index) >= len(globals) {
				return 0, 0, InvalidGlobalIndexError(index)
			}
			stack = append(stack, globals[index])
			lastVal = globalVar.Type.Type
		case refNull:
			t, err := readValueType(r)
			if err != nil {
				return 0, 0, err
			}
			stack = append(stack, NullRef)
			lastVal = t
		case refFunc:
			index, err := leb128.ReadVarUint32(r)
			if err != nil {
				return 0, 0, err
			}
			stack = append(stack, uint64(index))
			lastVal = ValueTypeFuncref
		case end:
		default:
			return 0, 0, InvalidInitExprOpError(b)
		}
	}

	if len(stack) == 0 {
		return 0, 0, ErrEmptyInitExpr
	}
	return stack[len(stack)-1], lastVal, nil
}
