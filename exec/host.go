// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"errors"
	"io"
)

// HostFunction is the binding of an imported function. args holds the
// call's argument slots in declaration order (i32/f32 values zero- or
// bit-extended to 64 bits). The function returns the single result slot
// (ignored for void signatures) and a trap code; a non-zero trap unwinds
// the calling execution.
type HostFunction func(proc *Process, args []uint64) (uint64, Trap)

// Process is the interface host functions use to access the calling
// instance. It implements io.ReaderAt and io.WriterAt over the instance's
// linear memory.
type Process struct {
	vm *VM
}

// NewProcess exposes an instance to host-side code outside of a call.
func NewProcess(vm *VM) *Process { return &Process{vm: vm} }

// ReadAt implements the io.ReaderAt interface: it copies memory at the
// given offset into p.
func (proc *Process) ReadAt(p []byte, off int64) (int, error) {
	mem := proc.vm.memory
	if off < 0 || off > int64(len(mem)) {
		return 0, errors.New("exec: read offset out of bounds")
	}

	n := copy(p, mem[off:])
	var err error
	if n < len(p) {
		err = io.ErrShortBuffer
	}
	return n, err
}

// WriteAt implements the io.WriterAt interface: it copies p into memory at
// the given offset.
func (proc *Process) WriteAt(p []byte, off int64) (int, error) {
	mem := proc.vm.memory
	if off < 0 || off > int64(len(mem)) {
		return 0, errors.New("exec: write offset out of bounds")
	}

	n := copy(mem[off:], p)
	var err error
	if n < len(p) {
		err = io.ErrShortBuffer
	}
	return n, err
}

// Memory returns the instance's linear memory. The slice is invalidated
// when the program grows its memory.
func (proc *Process) Memory() []byte { return proc.vm.memory }

// MemSize returns the current size of the linear memory in bytes.
func (proc *Process) MemSize() int { return len(proc.vm.memory) }

// InRange reports whether [off, off+length) lies inside the linear memory.
func (proc *Process) InRange(off, length uint32) bool {
	return uint64(off)+uint64(length) <= uint64(len(proc.vm.memory))
}

// Exit terminates the current execution with the given status code, as the
// WASI proc_exit call does. It does not return.
func (proc *Process) Exit(code uint32) {
	panic(&ExitError{Code: code})
}

// callHost marshals the argument window at newFP, invokes the binding of
// imported function index, and places the result.
func (vm *VM) callHost(index, newFP int) {
	meta := &vm.compiled.Funcs[index]
	fn := vm.hosts[index]
	args := vm.stack[newFP : newFP+meta.NumParams]

	res, trap := fn(vm.proc, args)
	if trap != TrapNone {
		panic(trap)
	}
	if meta.NumResults > 0 {
		vm.stack[newFP] = res
	}
	vm.sp = newFP + meta.NumResults
}
