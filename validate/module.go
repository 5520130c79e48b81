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
	ops "github.com/wasm5/wasm5/wasm/operators"
)

// VerifyModule verifies the given module according to WebAssembly
// verification specs: module-level structural rules first, then every
// function body.
func VerifyModule(module *wasm.Module) error {
	if err := verifyMemories(module); err != nil {
		return err
	}
	if err := verifyTables(module); err != nil {
		return err
	}
	if err := verifyGlobals(module); err != nil {
		return err
	}
	if err := verifyExports(module); err != nil {
		return err
	}
	if err := verifyElements(module); err != nil {
		return err
	}
	if err := verifyData(module); err != nil {
		return err
	}
	if err := verifyStart(module); err != nil {
		return err
	}

	declared := declaredFuncs(module)

	logger.Debugf("validating %d function bodies", len(module.FunctionIndexSpace)-module.NumImportedFuncs)
	for i := module.NumImportedFuncs; i < len(module.FunctionIndexSpace); i++ {
		fn := module.FunctionIndexSpace[i]
		if vm, err := verifyBody(fn.Sig, fn.Body, module, declared); err != nil {
			return Error{vm.pc(), i, err}
		}
	}

	return nil
}

func verifyLimits(lim wasm.ResizableLimits, limit uint64, what string) error {
	if uint64(lim.Initial) > limit {
		return verr(KindOutOfBounds, "%s minimum %d larger than implementation limit", what, lim.Initial)
	}
	if lim.HasMax() {
		if uint64(lim.Maximum) > limit {
			return verr(KindOutOfBounds, "%s maximum %d larger than implementation limit", what, lim.Maximum)
		}
		if lim.Maximum < lim.Initial {
			return verr(KindSizeMinGreaterThanMax, "%s minimum %d greater than maximum %d", what, lim.Initial, lim.Maximum)
		}
	}
	return nil
}

func verifyMemories(module *wasm.Module) error {
	if len(module.MemoryIndexSpace) > 1 {
		return verr(KindMultipleMemories, "%d memories declared, at most one is allowed", len(module.MemoryIndexSpace))
	}
	for _, mem := range module.MemoryIndexSpace {
		if err := verifyLimits(mem.Limits, maxPages, "memory size"); err != nil {
			return err
		}
	}
	return nil
}

func verifyTables(module *wasm.Module) error {
	for _, table := range module.TableIndexSpace {
		if err := verifyLimits(table.Limits, 1<<32-1, "table size"); err != nil {
			return err
		}
	}
	return nil
}

func verifyGlobals(module *wasm.Module) error {
	for _, g := range module.GlobalIndexSpace {
		if g.Init == nil {
			continue // imported
		}
		if err := checkConstExpr(module, g.Init, g.Type.Type); err != nil {
			return err
		}
	}
	return nil
}

func verifyExports(module *wasm.Module) error {
	if module.Export == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(module.Export.Entries))
	for _, e := range module.Export.Entries {
		if _, dup := seen[e.FieldStr]; dup {
			return verr(KindDuplicateExport, "duplicate export name %q", e.FieldStr)
		}
		seen[e.FieldStr] = struct{}{}

		switch e.Kind {
		case wasm.ExternalFunction:
			if module.GetFunction(int(e.Index)) == nil {
				return verr(KindUnknownFunction, "export %q of invalid function index %d", e.FieldStr, e.Index)
			}
		case wasm.ExternalTable:
			if module.GetTable(int(e.Index)) == nil {
				return verr(KindUnknownTable, "export %q of invalid table index %d", e.FieldStr, e.Index)
			}
		case wasm.ExternalMemory:
			if module.GetMemory(int(e.Index)) == nil {
				return verr(KindUnknownMemory, "export %q of invalid memory index %d", e.FieldStr, e.Index)
			}
		case wasm.ExternalGlobal:
			if module.GetGlobal(int(e.Index)) == nil {
				return verr(KindUnknownGlobal, "export %q of invalid global index %d", e.FieldStr, e.Index)
			}
		}
	}
	return nil
}

func verifyElements(module *wasm.Module) error {
	if module.Elements == nil {
		return nil
	}
	for i, seg := range module.Elements.Entries {
		if seg.Mode == wasm.ElemModeActive {
			table := module.GetTable(int(seg.TableIndex))
			if table == nil {
				return verr(KindUnknownTable, "element segment %d targets invalid table %d", i, seg.TableIndex)
			}
			if table.ElementType != seg.Type {
				return typeMismatch(table.ElementType, seg.Type)
			}
			if err := checkConstExpr(module, seg.Offset, wasm.ValueTypeI32); err != nil {
				return err
			}
		}
		if seg.Type == wasm.ValueTypeFuncref {
			for _, idx := range seg.Indices {
				if idx == wasm.RefNullIndex {
					continue
				}
				if module.GetFunction(int(idx)) == nil {
					return verr(KindUnknownFunction, "element segment %d references invalid function %d", i, idx)
				}
			}
		}
	}
	return nil
}

func verifyData(module *wasm.Module) error {
	if module.DataCount != nil {
		n := 0
		if module.Data != nil {
			n = len(module.Data.Entries)
		}
		if int(module.DataCount.Count) != n {
			return verr(KindUnknownDataSegment, "data count section declares %d segments, data section has %d", module.DataCount.Count, n)
		}
	}
	if module.Data == nil {
		return nil
	}
	for i, seg := range module.Data.Entries {
		if seg.Mode != wasm.DataModeActive {
			continue
		}
		if module.GetMemory(int(seg.MemIndex)) == nil {
			return verr(KindUnknownMemory, "data segment %d targets invalid memory %d", i, seg.MemIndex)
		}
		if err := checkConstExpr(module, seg.Offset, wasm.ValueTypeI32); err != nil {
			return err
		}
	}
	return nil
}

func verifyStart(module *wasm.Module) error {
	if module.Start == nil {
		return nil
	}
	fn := module.GetFunction(int(module.Start.Index))
	if fn == nil {
		return verr(KindInvalidStartFunction, "invalid start function index %d", module.Start.Index)
	}
	if len(fn.Sig.ParamTypes) != 0 || len(fn.Sig.ReturnTypes) != 0 {
		return verr(KindInvalidStartFunction, "start function must have type () -> (), got %v", fn.Sig)
	}
	return nil
}

// declaredFuncs collects the set of function indices that may be the target
// of a ref.func instruction inside function bodies: functions referenced by
// element segments of any mode, by global initializers, or by exports.
func declaredFuncs(module *wasm.Module) map[uint32]struct{} {
	declared := make(map[uint32]struct{})

	if module.Elements != nil {
		for _, seg := range module.Elements.Entries {
			for _, idx := range seg.Indices {
				if idx >= 0 {
					declared[uint32(idx)] = struct{}{}
				}
			}
		}
	}
	for _, g := range module.GlobalIndexSpace {
		for _, idx := range refFuncsInExpr(g.Init) {
			declared[idx] = struct{}{}
		}
	}
	if module.Export != nil {
		for _, e := range module.Export.Entries {
			if e.Kind == wasm.ExternalFunction {
				declared[e.Index] = struct{}{}
			}
		}
	}
	return declared
}

// checkConstExpr checks that expr is a constant expression producing
// exactly one value of the wanted type. Only *.const, ref.null, ref.func
// and global.get of an immutable imported global are constant.
func checkConstExpr(module *wasm.Module, expr []byte, want wasm.ValueType) error {
	r := bytes.NewReader(expr)
	var produced []wasm.ValueType

	for {
		op, err := r.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		switch op {
		case ops.I32Const:
			if _, err := leb128.ReadVarint32(r); err != nil {
				return err
			}
			produced = append(produced, wasm.ValueTypeI32)
		case ops.I64Const:
			if _, err := leb128.ReadVarint64(r); err != nil {
				return err
			}
			produced = append(produced, wasm.ValueTypeI64)
		case ops.F32Const:
			var v uint32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return err
			}
			produced = append(produced, wasm.ValueTypeF32)
		case ops.F64Const:
			var v uint64
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return err
			}
			produced = append(produced, wasm.ValueTypeF64)
		case ops.GlobalGet:
			index, err := leb128.ReadVarUint32(r)
			if err != nil {
				return err
			}
			g := module.GetGlobal(int(index))
			if g == nil {
				return verr(KindUnknownGlobal, "invalid global index %d in constant expression", index)
			}
			if int(index) >= module.NumImportedGlobals {
				return verr(KindConstantExpressionRequired, "global.get of module-defined global %d in constant expression", index)
			}
			if g.Type.Mutable {
				return verr(KindMutableGlobalInConstExpr, "global.get of mutable global %d in constant expression", index)
			}
			produced = append(produced, g.Type.Type)
		case ops.RefNull:
			t, err := leb128.ReadVarint32(r)
			if err != nil {
				return err
			}
			if !wasm.ValueType(t).IsRef() {
				return typeMismatch(wasm.ValueTypeFuncref, wasm.ValueType(t))
			}
			produced = append(produced, wasm.ValueType(t))
		case ops.RefFunc:
			index, err := leb128.ReadVarUint32(r)
			if err != nil {
				return err
			}
			if module.GetFunction(int(index)) == nil {
				return verr(KindUnknownFunction, "ref.func of invalid function index %d in constant expression", index)
			}
			produced = append(produced, wasm.ValueTypeFuncref)
		case ops.End:
		default:
			return verr(KindConstantExpressionRequired, "non-constant opcode %#x in initializer expression", op)
		}
	}

	if len(produced) != 1 {
		return verr(KindTypeMismatch, "constant expression must produce exactly one value, got %d", len(produced))
	}
	if produced[0] != want {
		return typeMismatch(want, produced[0])
	}
	return nil
}

// refFuncsInExpr returns the function indices referenced by ref.func
// instructions inside a constant expression.
func refFuncsInExpr(expr []byte) []uint32 {
	if expr == nil {
		return nil
	}
	r := bytes.NewReader(expr)
	var out []uint32
	for {
		op, err := r.ReadByte()
		if err != nil {
			return out
		}
		switch op {
		case ops.I32Const:
			if _, err := leb128.ReadVarint32(r); err != nil {
				return out
			}
		case ops.I64Const:
			if _, err := leb128.ReadVarint64(r); err != nil {
				return out
			}
		case ops.F32Const:
			var v uint32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return out
			}
		case ops.F64Const:
			var v uint64
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return out
			}
		case ops.GlobalGet, ops.RefNull:
			if _, err := leb128.ReadVarint32(r); err != nil {
				return out
			}
		case ops.RefFunc:
			idx, err := leb128.ReadVarUint32(r)
			if err != nil {
				return out
			}
			out = append(out, idx)
		case ops.End:
		default:
			return out
		}
	}
}
