// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm provides functions for disassembling WebAssembly bytecode
// into a stream of operators with decoded immediates, the input form of the
// code compiler.
package disasm

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/wasm5/wasm5/wasm"
	"github.com/wasm5/wasm5/wasm/leb128"
	ops "github.com/wasm5/wasm5/wasm/operators"
)

// Instr describes an instruction, consisting of an operator, with its
// appropriate immediate value(s).
type Instr struct {
	Op ops.Op

	// Immediates are arguments to an operator in the bytecode stream itself.
	// Valid value types are:
	// - (u)(int/float)(32/64)
	// - wasm.BlockType, wasm.ValueType, []wasm.ValueType
	Immediates []interface{}
}

// Disassemble disassembles a raw function body into its instruction
// sequence. The terminating end opcode of the body must already have been
// stripped by the module parser.
func Disassemble(code []byte) ([]Instr, error) {
	reader := bytes.NewReader(code)
	var out []Instr

	for {
		op, err := reader.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		var opStr ops.Op
		if op == ops.PrefixMisc {
			sub, err := leb128.ReadVarUint32(reader)
			if err != nil {
				return nil, err
			}
			if opStr, err = ops.NewPrefixed(sub); err != nil {
				return nil, err
			}
		} else if op == ops.PrefixSIMD || op == ops.PrefixThread {
			return nil, ops.InvalidOpcodeError(op)
		} else {
			if opStr, err = ops.New(op); err != nil {
				return nil, err
			}
		}

		instr := Instr{Op: opStr}
		if instr.Immediates, err = readImmediates(reader, opStr); err != nil {
			return nil, err
		}

		out = append(out, instr)
	}

	return out, nil
}

func readImmediates(r *bytes.Reader, op ops.Op) ([]interface{}, error) {
	var imm []interface{}

	if op.IsPref {
		return readPrefixedImmediates(r, op)
	}

	switch op.Code {
	case ops.Block, ops.Loop, ops.If:
		bt, err := leb128.ReadVarint33(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, wasm.BlockType(bt))

	case ops.Br, ops.BrIf:
		depth, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, depth)

	case ops.BrTable:
		targetCount, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, targetCount)
		for i := uint32(0); i <= targetCount; i++ { // targets plus the default
			entry, err := leb128.ReadVarUint32(r)
			if err != nil {
				return nil, err
			}
			imm = append(imm, entry)
		}

	case ops.Call, ops.ReturnCall, ops.RefFunc:
		index, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, index)

	case ops.CallIndirect, ops.ReturnCallIndirect:
		typeIndex, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		tableIndex, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, typeIndex, tableIndex)

	case ops.LocalGet, ops.LocalSet, ops.LocalTee, ops.GlobalGet, ops.GlobalSet,
		ops.TableGet, ops.TableSet:
		index, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, index)

	case ops.SelectTyped:
		count, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		types := make([]wasm.ValueType, count)
		for i := range types {
			v, err := leb128.ReadVarint32(r)
			if err != nil {
				return nil, err
			}
			types[i] = wasm.ValueType(v)
		}
		imm = append(imm, types)

	case ops.RefNull:
		v, err := leb128.ReadVarint32(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, wasm.ValueType(v))

	case ops.I32Const:
		i, err := leb128.ReadVarint32(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, i)

	case ops.I64Const:
		i, err := leb128.ReadVarint64(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, i)

	case ops.F32Const:
		var i uint32
		if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
			return nil, err
		}
		imm = append(imm, math.Float32frombits(i))

	case ops.F64Const:
		var i uint64
		if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
			return nil, err
		}
		imm = append(imm, math.Float64frombits(i))

	case ops.I32Load, ops.I64Load, ops.F32Load, ops.F64Load, ops.I32Load8s, ops.I32Load8u,
		ops.I32Load16s, ops.I32Load16u, ops.I64Load8s, ops.I64Load8u, ops.I64Load16s,
		ops.I64Load16u, ops.I64Load32s, ops.I64Load32u, ops.I32Store, ops.I64Store,
		ops.F32Store, ops.F64Store, ops.I32Store8, ops.I32Store16, ops.I64Store8,
		ops.I64Store16, ops.I64Store32:
		// memory_immediate: alignment hint and offset
		align, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		offset, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, align, offset)

	case ops.MemorySize, ops.MemoryGrow:
		res, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		imm = append(imm, res)
	}

	return imm, nil
}

func readPrefixedImmediates(r *bytes.Reader, op ops.Op) ([]interface{}, error) {
	var idx [2]uint32
	var n int

	switch op.Sub {
	case ops.MemoryInit, ops.TableInit, ops.TableCopy:
		n = 2
	case ops.DataDrop, ops.ElemDrop, ops.MemoryFill, ops.TableGrow, ops.TableSize, ops.TableFill:
		n = 1
	case ops.MemoryCopy:
		n = 2
	default:
		n = 0 // saturating truncations carry no immediates
	}

	var imm []interface{}
	for i := 0; i < n; i++ {
		v, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		idx[i] = v
		imm = append(imm, idx[i])
	}
	return imm, nil
}
