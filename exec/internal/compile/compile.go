// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compile is used internally by exec to convert the structured
// WebAssembly instruction stream into a flat array of 64-bit cells
// interleaving operation handlers and immediates.
//
// Structured control flow is lowered to absolute jumps between cell
// indices. Forward targets (the end of a block, the else arm of an if) are
// patched once the target is reached; branches into a loop jump back to
// the loop's head. A branch that must first move its result values into
// the slots the target expects goes through a synthesized resolution
// prelude of copy_slot and set_sp cells ending in an unconditional br.
//
// Operands live in statically assigned frame slots: the operand at depth d
// occupies slot numLocals+d, so the compiler tracks the stack depth per
// instruction and call sites know exactly where a callee's arguments
// start. That distance is the call's frameOffset immediate, letting the
// interpreter place the callee frame so the arguments are already in the
// callee's first slots.
package compile

import (
	"fmt"
	"math"

	"github.com/wasm5/wasm5/disasm"
	"github.com/wasm5/wasm5/wasm"
	ops "github.com/wasm5/wasm5/wasm/operators"
)

// FuncMeta is the per-function metadata of a compiled module.
type FuncMeta struct {
	Entry      int // cell index of the entry cell; -1 for imported functions
	NumParams  int
	NumLocals  int // parameters included
	NumResults int
	FrameSize  int // locals plus the maximum operand stack depth
	Sig        *wasm.FunctionSig
	Hash       TypeHash
}

// Compiled is the result of compiling a validated module: one shared code
// array, per-function metadata, and the signature hashes used by
// call_indirect.
type Compiled struct {
	Code       []uint64
	Funcs      []FuncMeta
	TypeHashes []TypeHash
}

type callFixup struct {
	cell      int
	funcIndex int
}

// Compile translates every function body of a validated module into the
// shared code array. Validation is a precondition: compilation of a
// validated module cannot fail except on malformed input slipping through.
func Compile(m *wasm.Module) (*Compiled, error) {
	c := &Compiled{}

	if m.Types != nil {
		c.TypeHashes = make([]TypeHash, len(m.Types.Entries))
		for i := range m.Types.Entries {
			c.TypeHashes[i] = HashSig(&m.Types.Entries[i])
		}
	}

	var fixups []callFixup
	c.Funcs = make([]FuncMeta, len(m.FunctionIndexSpace))
	for i := range m.FunctionIndexSpace {
		fn := &m.FunctionIndexSpace[i]
		meta := FuncMeta{
			Entry:      -1,
			NumParams:  len(fn.Sig.ParamTypes),
			NumLocals:  len(fn.Sig.ParamTypes),
			NumResults: len(fn.Sig.ReturnTypes),
			Sig:        fn.Sig,
			Hash:       HashSig(fn.Sig),
		}
		if !fn.IsHost() {
			f := &funcCompiler{c: c, m: m, sig: fn.Sig, fixups: &fixups}
			if err := f.compile(fn.Body, &meta); err != nil {
				return nil, fmt.Errorf("compile: function %d: %w", i, err)
			}
		}
		c.Funcs[i] = meta
	}

	for _, fx := range fixups {
		c.Code[fx.cell] = uint64(c.Funcs[fx.funcIndex].Entry)
	}

	return c, nil
}

// cblock tracks one structured control frame during compilation.
type cblock struct {
	op         byte // Block, Loop, If, Else; 0 for the function frame
	startDepth int  // operand depth below the block's parameters
	params     int
	results    int
	arity      int // label arity: params for loops, results otherwise

	loop     bool
	loopHead int

	elsePatch int   // cell awaiting the else/end target of an if; -1 when none
	patches   []int // cells awaiting this block's end target
}

type funcCompiler struct {
	c      *Compiled
	m      *wasm.Module
	sig    *wasm.FunctionSig
	fixups *[]callFixup

	numLocals  int
	numResults int

	depth    int
	maxDepth int
	blocks   []cblock

	// Set after an unconditional transfer: the remainder of the current
	// block is dead and not emitted. skipNest counts nested blocks opened
	// inside the dead region.
	dead     bool
	skipNest int
}

func (f *funcCompiler) emit(cells ...uint64) int {
	at := len(f.c.Code)
	f.c.Code = append(f.c.Code, cells...)
	return at
}

func (f *funcCompiler) pc() int { return len(f.c.Code) }

func (f *funcCompiler) checkMax() {
	if f.depth > f.maxDepth {
		f.maxDepth = f.depth
	}
}

func (f *funcCompiler) compile(body *wasm.FunctionBody, meta *FuncMeta) error {
	f.numLocals = meta.NumParams
	for _, l := range body.Locals {
		f.numLocals += int(l.Count)
	}
	f.numResults = meta.NumResults

	instrs, err := disasm.Disassemble(body.Code)
	if err != nil {
		return err
	}

	entry := f.emit(OpEntry, uint64(f.numLocals), uint64(meta.NumParams), 0)

	f.blocks = []cblock{{
		results:   f.numResults,
		arity:     f.numResults,
		elsePatch: -1,
	}}

	for i := range instrs {
		if err := f.compileInstr(&instrs[i]); err != nil {
			return err
		}
		f.checkMax()
	}

	if len(f.blocks) != 1 {
		return fmt.Errorf("unbalanced control frames at end of body")
	}
	// fallthrough return
	f.emit(OpEnd, uint64(f.numResults))

	meta.Entry = entry
	meta.NumLocals = f.numLocals
	meta.FrameSize = f.numLocals + f.maxDepth
	f.c.Code[entry+3] = uint64(meta.FrameSize)
	return nil
}

func (f *funcCompiler) compileInstr(instr *disasm.Instr) error {
	op := instr.Op

	if f.dead {
		if !op.IsPref {
			switch op.Code {
			case ops.Block, ops.Loop, ops.If:
				f.skipNest++
			case ops.Else:
				if f.skipNest == 0 {
					return f.compileElse(false)
				}
			case ops.End:
				if f.skipNest > 0 {
					f.skipNest--
				} else {
					return f.compileEnd()
				}
			}
		}
		return nil
	}

	if op.IsPref {
		return f.compilePrefixed(instr)
	}

	switch op.Code {
	case ops.Nop:
		// erased

	case ops.Unreachable:
		f.emit(uint64(ops.Unreachable))
		f.dead = true

	case ops.Block, ops.Loop:
		np, nr, err := f.blockArity(instr.Immediates[0].(wasm.BlockType))
		if err != nil {
			return err
		}
		b := cblock{
			op:         op.Code,
			startDepth: f.depth - np,
			params:     np,
			results:    nr,
			arity:      nr,
			elsePatch:  -1,
		}
		if op.Code == ops.Loop {
			b.loop = true
			b.loopHead = f.pc()
			b.arity = np
		}
		f.blocks = append(f.blocks, b)

	case ops.If:
		np, nr, err := f.blockArity(instr.Immediates[0].(wasm.BlockType))
		if err != nil {
			return err
		}
		f.depth-- // condition
		elsePatch := f.emit(OpBrZ, 0) + 1
		f.blocks = append(f.blocks, cblock{
			op:         ops.If,
			startDepth: f.depth - np,
			params:     np,
			results:    nr,
			arity:      nr,
			elsePatch:  elsePatch,
		})

	case ops.Else:
		return f.compileElse(true)

	case ops.End:
		return f.compileEnd()

	case ops.Br:
		label := instr.Immediates[0].(uint32)
		idx := len(f.blocks) - 1 - int(label)
		if idx == 0 {
			f.emit(OpEnd, uint64(f.numResults))
		} else {
			f.emitJumpTo(&f.blocks[idx])
		}
		f.dead = true

	case ops.BrIf:
		f.compileBrIf(instr.Immediates[0].(uint32))

	case ops.BrTable:
		f.compileBrTable(instr.Immediates)

	case ops.Return:
		f.emit(OpEnd, uint64(f.numResults))
		f.dead = true

	case ops.Call:
		index := instr.Immediates[0].(uint32)
		sig := f.m.GetFunction(int(index)).Sig
		na, nr := len(sig.ParamTypes), len(sig.ReturnTypes)
		frameOffset := f.numLocals + f.depth - na
		if int(index) < f.m.NumImportedFuncs {
			f.emit(OpCallHost, uint64(index), uint64(frameOffset))
		} else {
			cell := f.emit(OpCall, 0, uint64(frameOffset)) + 1
			*f.fixups = append(*f.fixups, callFixup{cell: cell, funcIndex: int(index)})
		}
		f.depth += nr - na

	case ops.CallIndirect:
		typeIndex := instr.Immediates[0].(uint32)
		tableIndex := instr.Immediates[1].(uint32)
		sig := &f.m.Types.Entries[typeIndex]
		na, nr := len(sig.ParamTypes), len(sig.ReturnTypes)
		f.depth-- // element index
		frameOffset := f.numLocals + f.depth - na
		f.emit(OpCallIndirect, uint64(typeIndex), uint64(tableIndex), uint64(frameOffset))
		f.depth += nr - na

	case ops.ReturnCall:
		index := instr.Immediates[0].(uint32)
		sig := f.m.GetFunction(int(index)).Sig
		argsSlot := f.numLocals + f.depth - len(sig.ParamTypes)
		f.emit(OpReturnCall, uint64(index), uint64(argsSlot))
		f.dead = true

	case ops.ReturnCallIndirect:
		typeIndex := instr.Immediates[0].(uint32)
		tableIndex := instr.Immediates[1].(uint32)
		sig := &f.m.Types.Entries[typeIndex]
		f.depth-- // element index
		argsSlot := f.numLocals + f.depth - len(sig.ParamTypes)
		f.emit(OpReturnCallIndirect, uint64(typeIndex), uint64(tableIndex), uint64(argsSlot))
		f.dead = true

	case ops.Drop:
		f.emit(uint64(ops.Drop))
		f.depth--

	case ops.Select, ops.SelectTyped:
		f.emit(uint64(ops.Select))
		f.depth -= 2

	case ops.LocalGet:
		f.emit(uint64(op.Code), uint64(instr.Immediates[0].(uint32)))
		f.depth++

	case ops.LocalSet:
		f.emit(uint64(op.Code), uint64(instr.Immediates[0].(uint32)))
		f.depth--

	case ops.LocalTee:
		f.emit(uint64(op.Code), uint64(instr.Immediates[0].(uint32)))

	case ops.GlobalGet:
		f.emit(uint64(op.Code), uint64(instr.Immediates[0].(uint32)))
		f.depth++

	case ops.GlobalSet:
		f.emit(uint64(op.Code), uint64(instr.Immediates[0].(uint32)))
		f.depth--

	case ops.TableGet:
		f.emit(uint64(op.Code), uint64(instr.Immediates[0].(uint32)))

	case ops.TableSet:
		f.emit(uint64(op.Code), uint64(instr.Immediates[0].(uint32)))
		f.depth -= 2

	case ops.I32Const:
		f.emit(uint64(op.Code), uint64(uint32(instr.Immediates[0].(int32))))
		f.depth++

	case ops.I64Const:
		f.emit(uint64(op.Code), uint64(instr.Immediates[0].(int64)))
		f.depth++

	case ops.F32Const:
		f.emit(uint64(op.Code), uint64(math.Float32bits(instr.Immediates[0].(float32))))
		f.depth++

	case ops.F64Const:
		f.emit(uint64(op.Code), math.Float64bits(instr.Immediates[0].(float64)))
		f.depth++

	case ops.RefNull:
		f.emit(uint64(op.Code))
		f.depth++

	case ops.RefIsNull:
		f.emit(uint64(op.Code))

	case ops.RefFunc:
		f.emit(uint64(op.Code), uint64(instr.Immediates[0].(uint32)))
		f.depth++

	case ops.I32Load, ops.I64Load, ops.F32Load, ops.F64Load, ops.I32Load8s, ops.I32Load8u,
		ops.I32Load16s, ops.I32Load16u, ops.I64Load8s, ops.I64Load8u, ops.I64Load16s,
		ops.I64Load16u, ops.I64Load32s, ops.I64Load32u, ops.I32Store, ops.I64Store,
		ops.F32Store, ops.F64Store, ops.I32Store8, ops.I32Store16, ops.I64Store8,
		ops.I64Store16, ops.I64Store32:
		align := instr.Immediates[0].(uint32)
		offset := instr.Immediates[1].(uint32)
		f.emit(uint64(op.Code), uint64(align), uint64(offset), 0)
		f.depth += len(op.Returns) - len(op.Args)

	case ops.MemorySize:
		f.emit(uint64(op.Code), 0)
		f.depth++

	case ops.MemoryGrow:
		f.emit(uint64(op.Code), 0)

	default:
		// fixed-signature value operators carry no immediates
		f.emit(uint64(op.Code))
		f.depth += len(op.Returns) - len(op.Args)
	}

	return nil
}

func (f *funcCompiler) compilePrefixed(instr *disasm.Instr) error {
	op := instr.Op
	code := PrefixedOp(op.Sub)

	switch op.Sub {
	case ops.MemoryInit:
		f.emit(code, uint64(instr.Immediates[0].(uint32)), 0)
		f.depth -= 3
	case ops.DataDrop:
		f.emit(code, uint64(instr.Immediates[0].(uint32)))
	case ops.MemoryCopy, ops.MemoryFill:
		f.emit(code)
		f.depth -= 3
	case ops.TableInit:
		f.emit(code, uint64(instr.Immediates[0].(uint32)), uint64(instr.Immediates[1].(uint32)))
		f.depth -= 3
	case ops.ElemDrop:
		f.emit(code, uint64(instr.Immediates[0].(uint32)))
	case ops.TableCopy:
		f.emit(code, uint64(instr.Immediates[0].(uint32)), uint64(instr.Immediates[1].(uint32)))
		f.depth -= 3
	case ops.TableGrow:
		f.emit(code, uint64(instr.Immediates[0].(uint32)))
		f.depth--
	case ops.TableSize:
		f.emit(code, uint64(instr.Immediates[0].(uint32)))
		f.depth++
	case ops.TableFill:
		f.emit(code, uint64(instr.Immediates[0].(uint32)))
		f.depth -= 3
	default:
		// saturating truncations
		f.emit(code)
		f.depth += len(op.Returns) - len(op.Args)
	}
	return nil
}

// compileElse terminates the then arm of an if. live indicates whether the
// arm can fall through, requiring a jump over the else arm.
func (f *funcCompiler) compileElse(live bool) error {
	b := &f.blocks[len(f.blocks)-1]
	if b.op != ops.If {
		return fmt.Errorf("else outside of if")
	}
	if live {
		cell := f.emit(OpBr, 0) + 1
		b.patches = append(b.patches, cell)
	}
	// the false edge of the if lands at the start of the else arm
	f.c.Code[b.elsePatch] = uint64(f.pc())
	b.elsePatch = -1
	b.op = ops.Else
	f.depth = b.startDepth + b.params
	f.dead = false
	return nil
}

// compileEnd closes the innermost block and patches every branch awaiting
// its target.
func (f *funcCompiler) compileEnd() error {
	if len(f.blocks) <= 1 {
		return fmt.Errorf("unmatched end")
	}
	b := f.blocks[len(f.blocks)-1]
	f.blocks = f.blocks[:len(f.blocks)-1]

	end := uint64(f.pc())
	if b.elsePatch >= 0 { // if with no else: false edge falls to the end
		f.c.Code[b.elsePatch] = end
	}
	for _, cell := range b.patches {
		f.c.Code[cell] = end
	}
	f.depth = b.startDepth + b.results
	f.dead = false
	return nil
}

// emitJumpTo emits the transfer to a block label, preceded by a resolution
// prelude when the branch's result values are not already in the slots the
// target expects.
func (f *funcCompiler) emitJumpTo(b *cblock) {
	if f.depth-b.arity != b.startDepth {
		dst := f.numLocals + b.startDepth
		src := f.numLocals + f.depth - b.arity
		for i := 0; i < b.arity; i++ {
			f.emit(OpCopySlot, uint64(dst+i), uint64(src+i))
		}
		f.emit(OpSetSp, uint64(dst+b.arity))
	}
	if b.loop {
		f.emit(OpBr, uint64(b.loopHead))
	} else {
		cell := f.emit(OpBr, 0) + 1
		b.patches = append(b.patches, cell)
	}
}

func (f *funcCompiler) compileBrIf(label uint32) {
	f.depth-- // condition
	idx := len(f.blocks) - 1 - int(label)
	group := f.emit(OpBrIf, 0, 0)
	taken, notTaken := group+1, group+2

	if idx == 0 {
		f.c.Code[taken] = uint64(f.pc())
		f.emit(OpEnd, uint64(f.numResults))
	} else {
		b := &f.blocks[idx]
		switch {
		case f.depth-b.arity != b.startDepth:
			f.c.Code[taken] = uint64(f.pc())
			f.emitJumpTo(b)
		case b.loop:
			f.c.Code[taken] = uint64(b.loopHead)
		default:
			b.patches = append(b.patches, taken)
		}
	}
	f.c.Code[notTaken] = uint64(f.pc())
}

func (f *funcCompiler) compileBrTable(imm []interface{}) {
	f.depth-- // selector
	count := imm[0].(uint32)

	f.emit(OpBrTable, uint64(count))
	tableStart := f.pc()
	for i := uint32(0); i <= count; i++ {
		f.emit(0)
	}

	for i := uint32(0); i <= count; i++ {
		label := imm[1+i].(uint32)
		idx := len(f.blocks) - 1 - int(label)
		slot := tableStart + int(i)
		if idx == 0 {
			f.c.Code[slot] = uint64(f.pc())
			f.emit(OpEnd, uint64(f.numResults))
			continue
		}
		b := &f.blocks[idx]
		switch {
		case f.depth-b.arity != b.startDepth:
			f.c.Code[slot] = uint64(f.pc())
			f.emitJumpTo(b)
		case b.loop:
			f.c.Code[slot] = uint64(b.loopHead)
		default:
			b.patches = append(b.patches, slot)
		}
	}
	f.dead = true
}

func (f *funcCompiler) blockArity(bt wasm.BlockType) (np, nr int, err error) {
	params, results, err := f.m.BlockSig(bt)
	if err != nil {
		return 0, 0, err
	}
	return len(params), len(results), nil
}
