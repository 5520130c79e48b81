// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm5/wasm5/exec"
	"github.com/wasm5/wasm5/validate"
	"github.com/wasm5/wasm5/wasm"
)

// memOnlyVM builds an instance with one page of memory and no functions,
// as a scratch target for direct host-call tests.
func memOnlyVM(t *testing.T) (*exec.VM, *exec.Process) {
	t.Helper()
	m := &wasm.Module{
		Memory: &wasm.SectionMemories{Entries: []wasm.Memory{{
			Limits: wasm.ResizableLimits{Initial: 1},
		}}},
	}
	m.MemoryIndexSpace = m.Memory.Entries

	require.NoError(t, validate.VerifyModule(m))
	vm, err := exec.NewVM(m)
	require.NoError(t, err)
	return vm, exec.NewProcess(vm)
}

func TestArgsGet(t *testing.T) {
	_, proc := memOnlyVM(t)
	h := NewHost(WithArgs("a", "bc"))

	res, trap := h.Funcs()["args_sizes_get"](proc, []uint64{0, 4})
	require.Equal(t, exec.TrapNone, trap)
	require.Equal(t, uint64(ErrnoSuccess), res)

	mem := proc.Memory()
	require.Equal(t, uint32(2), le.Uint32(mem[0:]))
	require.Equal(t, uint32(5), le.Uint32(mem[4:])) // "a\0" + "bc\0"

	res, _ = h.Funcs()["args_get"](proc, []uint64{8, 16})
	require.Equal(t, uint64(ErrnoSuccess), res)
	require.Equal(t, uint32(16), le.Uint32(mem[8:]))
	require.Equal(t, uint32(18), le.Uint32(mem[12:]))
	require.Equal(t, []byte("a\x00bc\x00"), mem[16:21])
}

func TestClockTimeGet(t *testing.T) {
	_, proc := memOnlyVM(t)
	h := NewHost()

	res, _ := h.Funcs()["clock_time_get"](proc, []uint64{uint64(ClockMonotonic), 1, 0})
	require.Equal(t, uint64(ErrnoSuccess), res)
	first := le.Uint64(proc.Memory()[0:])

	res, _ = h.Funcs()["clock_time_get"](proc, []uint64{uint64(ClockMonotonic), 1, 8})
	require.Equal(t, uint64(ErrnoSuccess), res)
	second := le.Uint64(proc.Memory()[8:])
	require.GreaterOrEqual(t, second, first)

	res, _ = h.Funcs()["clock_time_get"](proc, []uint64{99, 1, 0})
	require.Equal(t, uint64(ErrnoInval), res)
}

func TestRandomGet(t *testing.T) {
	_, proc := memOnlyVM(t)
	h := NewHost()

	res, _ := h.Funcs()["random_get"](proc, []uint64{0, 16})
	require.Equal(t, uint64(ErrnoSuccess), res)

	// a fault is reported for out-of-bounds buffers
	res, _ = h.Funcs()["random_get"](proc, []uint64{65535, 2})
	require.Equal(t, uint64(ErrnoFault), res)
}

func TestProcExitPanicsWithExitError(t *testing.T) {
	_, proc := memOnlyVM(t)
	h := NewHost()

	var got interface{}
	func() {
		defer func() { got = recover() }()
		h.Funcs()["proc_exit"](proc, []uint64{3})
	}()
	require.Equal(t, &exec.ExitError{Code: 3}, got)
}

func TestUnknownImportStubbed(t *testing.T) {
	_, proc := memOnlyVM(t)
	h := NewHost()

	funcs := h.BindModule([]string{"fd_write", "sock_accept"})
	require.Contains(t, funcs, "fd_write")

	res, trap := funcs["sock_accept"](proc, nil)
	require.Equal(t, exec.TrapNone, trap)
	require.Equal(t, uint64(ErrnoNosys), res)
}

func TestPathOpenAndRead(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.txt"), []byte("hi"), 0o644))

	_, proc := memOnlyVM(t)
	h := NewHost(WithPreopenDir("/", dir))

	// prestat for the preopen at fd 3
	res, _ := h.Funcs()["fd_prestat_get"](proc, []uint64{3, 0})
	require.Equal(t, uint64(ErrnoSuccess), res)
	require.Equal(t, uint32(1), le.Uint32(proc.Memory()[4:])) // len("/")

	// write the guest path into memory at 64
	copy(proc.Memory()[64:], "x.txt")

	// path_open(3, 0, path, 5, 0, fd_read rights, 0, 0, fd out at 128)
	res, _ = h.Funcs()["path_open"](proc, []uint64{3, 0, 64, 5, 0, RightFdRead, 0, 0, 128})
	require.Equal(t, uint64(ErrnoSuccess), res)
	fd := le.Uint32(proc.Memory()[128:])
	require.GreaterOrEqual(t, fd, firstDynamicFD)

	// iovec at 160: buf at 192, len 16
	le.PutUint32(proc.Memory()[160:], 192)
	le.PutUint32(proc.Memory()[164:], 16)

	res, _ = h.Funcs()["fd_read"](proc, []uint64{uint64(fd), 160, 1, 176})
	require.Equal(t, uint64(ErrnoSuccess), res)
	require.Equal(t, uint32(2), le.Uint32(proc.Memory()[176:]))
	require.Equal(t, []byte("hi"), proc.Memory()[192:194])

	res, _ = h.Funcs()["fd_close"](proc, []uint64{uint64(fd)})
	require.Equal(t, uint64(ErrnoSuccess), res)

	// closing again reports a bad fd
	res, _ = h.Funcs()["fd_close"](proc, []uint64{uint64(fd)})
	require.Equal(t, uint64(ErrnoBadf), res)

	// opening a missing file reports ENOENT
	copy(proc.Memory()[64:], "y.txt")
	res, _ = h.Funcs()["path_open"](proc, []uint64{3, 0, 64, 5, 0, RightFdRead, 0, 0, 128})
	require.Equal(t, uint64(ErrnoNoent), res)
}

func TestPathEscapeRefused(t *testing.T) {
	dir := t.TempDir()
	_, proc := memOnlyVM(t)
	h := NewHost(WithPreopenDir("/", dir))

	path := "../escape"
	copy(proc.Memory()[64:], path)
	res, _ := h.Funcs()["path_open"](proc, []uint64{3, 0, 64, uint64(len(path)), 0, RightFdRead, 0, 0, 128})
	require.Equal(t, uint64(ErrnoAcces), res)
}

// TestFdWriteToPreopenFile runs the full pipeline: a module importing
// fd_write writes "Hello, WASI!" to fd 3 and the bytes land in the
// preopened file.
func TestFdWriteToPreopenFile(t *testing.T) {
	out, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer out.Close()

	fdWriteSig := wasm.FunctionSig{
		Form:        int8(wasm.TypeFunc),
		ParamTypes:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32},
		ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32},
	}
	mainSig := wasm.FunctionSig{Form: int8(wasm.TypeFunc)}

	m := &wasm.Module{
		Types: &wasm.SectionTypes{Entries: []wasm.FunctionSig{fdWriteSig, mainSig}},
		Import: &wasm.SectionImports{Entries: []wasm.ImportEntry{{
			ModuleName: ModuleName,
			FieldName:  "fd_write",
			Kind:       wasm.ExternalFunction,
			Type:       wasm.FuncImport{Type: 0},
		}}},
		Function: &wasm.SectionFunctions{Types: []uint32{1}},
		Code: &wasm.SectionCode{Bodies: []wasm.FunctionBody{{Code: []byte{
			0x41, 0x03, // i32.const 3 (fd)
			0x41, 0x10, // i32.const 16 (iovec ptr)
			0x41, 0x01, // i32.const 1 (iovec count)
			0x41, 0x20, // i32.const 32 (nwritten ptr)
			0x10, 0x00, // call fd_write
			0x1a, // drop errno
		}}}},
		Memory: &wasm.SectionMemories{Entries: []wasm.Memory{{
			Limits: wasm.ResizableLimits{Initial: 1},
		}}},
		Data: &wasm.SectionData{Entries: []wasm.DataSegment{
			{Mode: wasm.DataModeActive, Offset: []byte{0x41, 0x00, 0x0b}, Data: []byte("Hello, WASI!")},
			// iovec at 16: buf_ptr=0, buf_len=12
			{Mode: wasm.DataModeActive, Offset: []byte{0x41, 0x10, 0x0b}, Data: []byte{0, 0, 0, 0, 12, 0, 0, 0}},
		}},
	}
	m.MemoryIndexSpace = m.Memory.Entries
	m.FunctionIndexSpace = []wasm.Function{
		{Sig: &m.Types.Entries[0]},
		{Sig: &m.Types.Entries[1], Body: &m.Code.Bodies[0]},
	}
	m.NumImportedFuncs = 1

	require.NoError(t, validate.VerifyModule(m))

	h := NewHost(WithFile(3, out))
	vm, err := exec.NewVM(m, exec.WithHostModule(ModuleName, h.BindModule([]string{"fd_write"})))
	require.NoError(t, err)

	_, err = vm.ExecCode(1)
	require.NoError(t, err)

	content, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	require.Equal(t, []byte("Hello, WASI!"), content)
}
