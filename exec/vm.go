// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exec provides functions for executing compiled WebAssembly code.
package exec

import (
	"errors"
	"fmt"
	"math"

	"github.com/wasm5/wasm5/exec/internal/compile"
	"github.com/wasm5/wasm5/wasm"
)

var (
	// ErrMultipleLinearMemories is returned by NewVM when the module has
	// more than one entry in the linear memory space.
	ErrMultipleLinearMemories = errors.New("exec: more than one linear memory in module")
	// ErrInvalidArgumentCount is returned by (*VM).ExecCode when an invalid
	// number of arguments to the WebAssembly function are passed to it.
	ErrInvalidArgumentCount = errors.New("exec: invalid number of arguments to function")
	// ErrUnsupportedImport is returned by NewVM for memory and table
	// imports, which have no host-side counterpart.
	ErrUnsupportedImport = errors.New("exec: memory and table imports are not supported")
)

// InvalidFunctionIndexError is returned by (*VM).ExecCode when the function
// index provided is invalid.
type InvalidFunctionIndexError int64

func (e InvalidFunctionIndexError) Error() string {
	return fmt.Sprintf("exec: invalid index to function index space: %d", int64(e))
}

// UnresolvedImportError is returned by NewVM when an import has no binding.
type UnresolvedImportError struct {
	ModuleName string
	FieldName  string
}

func (e UnresolvedImportError) Error() string {
	return fmt.Sprintf("exec: unresolved import %s.%s", e.ModuleName, e.FieldName)
}

// ExportNotFoundError is returned by (*VM).ExecExport for an unknown name.
type ExportNotFoundError string

func (e ExportNotFoundError) Error() string {
	return fmt.Sprintf("exec: no exported function %q", string(e))
}

// As per the WebAssembly spec:
// https://webassembly.github.io/spec/core/exec/runtime.html#memory-instances
const wasmPageSize = 65536 // (64 KiB)

// RefNull is the slot encoding of a null reference.
const RefNull = wasm.NullRef

const (
	// stackSlots is the size of the operand stack buffer acquired by each
	// top-level ExecCode invocation.
	stackSlots = 64 * 1024
	// maxCallDepth bounds native recursion of the dispatcher.
	maxCallDepth = 1024
	// nullTableEntry encodes a null reference inside a table.
	nullTableEntry int64 = -1
)

// VM is the execution context for executing compiled WebAssembly code.
// A VM is a single instance: it owns its linear memory, globals, tables
// and segment state, and is not safe for concurrent use.
type VM struct {
	module   *wasm.Module
	compiled *compile.Compiled

	code  []uint64
	stack []uint64
	pc    int
	fp    int
	sp    int

	memory  []byte
	memMax  uint32 // maximum page count
	globals []uint64
	tables  [][]int64
	tabMax  []uint32
	elems   [][]int64 // element segments; dropped segments are nil
	datas   [][]byte  // data segments; dropped segments are nil

	hosts []HostFunction // bindings of imported functions
	proc  *Process

	depth    int
	returned bool
}

// handlers is the dispatch table of the interpreter, indexed by the opcode
// cell of the compiled code stream.
var handlers [compile.NumOps]func(*VM)

func register(op uint64, h func(*VM)) {
	if handlers[op] != nil {
		panic(fmt.Errorf("exec: duplicate handler for opcode %#x", op))
	}
	handlers[op] = h
}

func registerByte(op byte, h func(*VM)) {
	register(uint64(op), h)
}

// Option configures a VM under construction.
type Option func(*vmConfig)

type vmConfig struct {
	hostModules   map[string]map[string]HostFunction
	globalImports map[string]uint64
}

// WithHostModule binds a named import module to a set of host functions.
func WithHostModule(name string, funcs map[string]HostFunction) Option {
	return func(cfg *vmConfig) {
		if cfg.hostModules == nil {
			cfg.hostModules = make(map[string]map[string]HostFunction)
		}
		cfg.hostModules[name] = funcs
	}
}

// WithGlobalImport provides the value of an imported global.
func WithGlobalImport(module, field string, value uint64) Option {
	return func(cfg *vmConfig) {
		if cfg.globalImports == nil {
			cfg.globalImports = make(map[string]uint64)
		}
		cfg.globalImports[module+"."+field] = value
	}
}

// NewVM creates a new VM from a given, already validated module. If the
// module defines a start function, it is executed before NewVM returns.
func NewVM(module *wasm.Module, opts ...Option) (*VM, error) {
	var cfg vmConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	compiled, err := compile.Compile(module)
	if err != nil {
		return nil, err
	}

	vm := &VM{
		module:   module,
		compiled: compiled,
		code:     compiled.Code,
	}
	vm.proc = &Process{vm: vm}

	if err := vm.bindImports(&cfg); err != nil {
		return nil, err
	}
	if err := vm.initGlobals(&cfg); err != nil {
		return nil, err
	}
	if err := vm.initMemory(); err != nil {
		return nil, err
	}
	if err := vm.initTables(); err != nil {
		return nil, err
	}

	logger.Debugw("instance created",
		"funcs", len(compiled.Funcs),
		"code cells", len(compiled.Code),
		"memory pages", len(vm.memory)/wasmPageSize,
	)

	if module.Start != nil {
		if _, err := vm.ExecCode(int64(module.Start.Index)); err != nil {
			return nil, err
		}
	}

	return vm, nil
}

func (vm *VM) bindImports(cfg *vmConfig) error {
	if vm.module.Import == nil {
		return nil
	}
	vm.hosts = make([]HostFunction, vm.module.NumImportedFuncs)

	var funcIndex int
	for _, imp := range vm.module.Import.Entries {
		switch imp.Kind {
		case wasm.ExternalFunction:
			mod := cfg.hostModules[imp.ModuleName]
			fn, ok := mod[imp.FieldName]
			if !ok {
				return UnresolvedImportError{imp.ModuleName, imp.FieldName}
			}
			vm.hosts[funcIndex] = fn
			funcIndex++
		case wasm.ExternalGlobal:
			if _, ok := cfg.globalImports[imp.ModuleName+"."+imp.FieldName]; !ok {
				return UnresolvedImportError{imp.ModuleName, imp.FieldName}
			}
		case wasm.ExternalMemory, wasm.ExternalTable:
			return ErrUnsupportedImport
		}
	}
	return nil
}

func (vm *VM) initGlobals(cfg *vmConfig) error {
	vm.globals = make([]uint64, len(vm.module.GlobalIndexSpace))

	var importIndex int
	if vm.module.Import != nil {
		for _, imp := range vm.module.Import.Entries {
			if imp.Kind != wasm.ExternalGlobal {
				continue
			}
			vm.globals[importIndex] = cfg.globalImports[imp.ModuleName+"."+imp.FieldName]
			importIndex++
		}
	}

	for i := vm.module.NumImportedGlobals; i < len(vm.module.GlobalIndexSpace); i++ {
		g := vm.module.GlobalIndexSpace[i]
		val, _, err := vm.module.ExecInitExpr(g.Init, vm.globals)
		if err != nil {
			return err
		}
		vm.globals[i] = val
	}
	return nil
}

func (vm *VM) initMemory() error {
	vm.datas = make([][]byte, 0)
	if vm.module.Data != nil {
		vm.datas = make([][]byte, len(vm.module.Data.Entries))
	}

	if len(vm.module.MemoryIndexSpace) > 1 {
		return ErrMultipleLinearMemories
	}
	if len(vm.module.MemoryIndexSpace) == 1 {
		lim := vm.module.MemoryIndexSpace[0].Limits
		vm.memory = make([]byte, uint64(lim.Initial)*wasmPageSize)
		vm.memMax = 1 << 16
		if lim.HasMax() {
			vm.memMax = lim.Maximum
		}
	}

	if vm.module.Data == nil {
		return nil
	}
	for i, seg := range vm.module.Data.Entries {
		if seg.Mode == wasm.DataModePassive {
			vm.datas[i] = seg.Data
			continue
		}
		val, _, err := vm.module.ExecInitExpr(seg.Offset, vm.globals)
		if err != nil {
			return err
		}
		offset := uint64(uint32(val))
		if offset+uint64(len(seg.Data)) > uint64(len(vm.memory)) {
			return &TrapError{TrapOOBMemory}
		}
		copy(vm.memory[offset:], seg.Data)
		// an applied active segment behaves as if dropped
	}
	return nil
}

func (vm *VM) initTables() error {
	vm.tables = make([][]int64, len(vm.module.TableIndexSpace))
	vm.tabMax = make([]uint32, len(vm.module.TableIndexSpace))
	for i, t := range vm.module.TableIndexSpace {
		table := make([]int64, t.Limits.Initial)
		for j := range table {
			table[j] = nullTableEntry
		}
		vm.tables[i] = table
		vm.tabMax[i] = math.MaxUint32
		if t.Limits.HasMax() {
			vm.tabMax[i] = t.Limits.Maximum
		}
	}

	if vm.module.Elements == nil {
		return nil
	}
	vm.elems = make([][]int64, len(vm.module.Elements.Entries))
	for i, seg := range vm.module.Elements.Entries {
		switch seg.Mode {
		case wasm.ElemModePassive:
			vm.elems[i] = seg.Indices
		case wasm.ElemModeActive:
			val, _, err := vm.module.ExecInitExpr(seg.Offset, vm.globals)
			if err != nil {
				return err
			}
			offset := uint64(uint32(val))
			table := vm.tables[seg.TableIndex]
			if offset+uint64(len(seg.Indices)) > uint64(len(table)) {
				return &TrapError{TrapOOBTable}
			}
			copy(table[offset:], seg.Indices)
		case wasm.ElemModeDeclarative:
			// only declares function references
		}
	}
	return nil
}

// Module returns the module this VM instantiates.
func (vm *VM) Module() *wasm.Module { return vm.module }

// Memory returns the linear memory of the instance, or nil when the module
// declares none. The slice is invalidated by memory.grow.
func (vm *VM) Memory() []byte { return vm.memory }

// GlobalByIndex returns the current value of a global.
func (vm *VM) GlobalByIndex(i int) (uint64, bool) {
	if i < 0 || i >= len(vm.globals) {
		return 0, false
	}
	return vm.globals[i], true
}

// fetch reads the next immediate cell.
func (vm *VM) fetch() uint64 {
	v := vm.code[vm.pc]
	vm.pc++
	return v
}

func (vm *VM) fetchInt() int {
	return int(vm.fetch())
}

func (vm *VM) push(v uint64) {
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() uint64 {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) pushBool(v bool) {
	if v {
		vm.pushUint64(1)
	} else {
		vm.pushUint64(0)
	}
}

func (vm *VM) popUint64() uint64  { return vm.pop() }
func (vm *VM) popInt64() int64    { return int64(vm.pop()) }
func (vm *VM) popFloat64() float64 {
	return math.Float64frombits(vm.pop())
}
func (vm *VM) popUint32() uint32 { return uint32(vm.pop()) }
func (vm *VM) popInt32() int32   { return int32(uint32(vm.pop())) }
func (vm *VM) popFloat32() float32 {
	return math.Float32frombits(uint32(vm.pop()))
}

func (vm *VM) pushUint64(v uint64)   { vm.push(v) }
func (vm *VM) pushInt64(v int64)     { vm.push(uint64(v)) }
func (vm *VM) pushFloat64(v float64) { vm.push(math.Float64bits(v)) }
func (vm *VM) pushUint32(v uint32)   { vm.push(uint64(v)) }
func (vm *VM) pushInt32(v int32)     { vm.push(uint64(uint32(v))) }
func (vm *VM) pushFloat32(v float32) { vm.push(uint64(math.Float32bits(v))) }

// run dispatches handler cells until the current frame returns.
func (vm *VM) run() {
	for {
		op := vm.code[vm.pc]
		vm.pc++
		handlers[op](vm)
		if vm.returned {
			vm.returned = false
			return
		}
	}
}

// invoke runs the function whose entry cell is at entry, with its frame
// starting at newFP. On return the caller's pc and fp are restored; sp is
// left at the callee's result window.
func (vm *VM) invoke(entry, newFP int) {
	if vm.depth >= maxCallDepth {
		panic(TrapStackOverflow)
	}
	vm.depth++
	savedPC, savedFP := vm.pc, vm.fp
	vm.pc, vm.fp = entry, newFP
	vm.run()
	vm.pc, vm.fp = savedPC, savedFP
	vm.depth--
}

// ExecCode calls the function with the given index and arguments and
// returns its results. fnIndex must be a valid index into the function
// index space of the VM's module. Traps are returned as *TrapError;
// a proc_exit request surfaces as *ExitError.
func (vm *VM) ExecCode(fnIndex int64, args ...uint64) (res []uint64, err error) {
	if fnIndex < 0 || int(fnIndex) >= len(vm.compiled.Funcs) {
		return nil, InvalidFunctionIndexError(fnIndex)
	}
	meta := &vm.compiled.Funcs[fnIndex]
	if len(args) != meta.NumParams {
		return nil, ErrInvalidArgumentCount
	}

	defer func() {
		if r := recover(); r != nil {
			switch t := r.(type) {
			case Trap:
				res, err = nil, &TrapError{t}
			case *ExitError:
				res, err = nil, t
			default:
				panic(r)
			}
		}
		vm.stack = nil
	}()

	vm.stack = make([]uint64, stackSlots)
	vm.pc, vm.fp, vm.sp, vm.depth = 0, 0, 0, 0
	copy(vm.stack, args)

	if meta.Entry < 0 {
		vm.sp = meta.NumParams
		vm.callHost(int(fnIndex), 0)
	} else {
		vm.invoke(meta.Entry, 0)
	}

	res = make([]uint64, meta.NumResults)
	copy(res, vm.stack[:meta.NumResults])
	return res, nil
}

// ExecExport calls an exported function by name.
func (vm *VM) ExecExport(name string, args ...uint64) ([]uint64, error) {
	fn := vm.exportedFunc(name)
	if fn < 0 {
		return nil, ExportNotFoundError(name)
	}
	return vm.ExecCode(fn, args...)
}

// ExportedFunction returns the index and signature of an exported function.
func (vm *VM) ExportedFunction(name string) (int64, *wasm.FunctionSig, bool) {
	fn := vm.exportedFunc(name)
	if fn < 0 {
		return 0, nil, false
	}
	return fn, vm.compiled.Funcs[fn].Sig, true
}

func (vm *VM) exportedFunc(name string) int64 {
	if vm.module.Export == nil {
		return -1
	}
	e := vm.module.Export.ByName(name)
	if e == nil || e.Kind != wasm.ExternalFunction {
		return -1
	}
	return int64(e.Index)
}
