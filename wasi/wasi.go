// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wasi implements a minimal WASI preview-1 host: enough of the
// snapshot-01 system interface for _start programs to perform file I/O,
// read clocks and exit.
package wasi

import (
	"crypto/rand"
	"io"
	"os"

	"github.com/wasm5/wasm5/exec"
)

// ModuleName is the import module name served by this package.
const ModuleName = "wasi_snapshot_preview1"

// BindModule returns host bindings for every function the module imports
// from wasi_snapshot_preview1. Unknown functions are bound to a stub
// returning ENOSYS, so that linking never fails on an exotic import the
// program may not actually call.
func (h *Host) BindModule(imports []string) map[string]exec.HostFunction {
	known := h.funcs()
	out := make(map[string]exec.HostFunction, len(imports))
	for _, name := range imports {
		if fn, ok := known[name]; ok {
			out[name] = fn
		} else {
			logger.Debugf("stubbing unknown wasi import %s", name)
			out[name] = stubNosys
		}
	}
	return out
}

// Funcs returns all implemented bindings, for embedders that want the
// whole surface.
func (h *Host) Funcs() map[string]exec.HostFunction {
	return h.funcs()
}

func stubNosys(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	return uint64(ErrnoNosys), exec.TrapNone
}

func (h *Host) funcs() map[string]exec.HostFunction {
	return map[string]exec.HostFunction{
		"args_get":              h.argsGet,
		"args_sizes_get":        h.argsSizesGet,
		"environ_get":           h.environGet,
		"environ_sizes_get":     h.environSizesGet,
		"clock_res_get":         h.clockResGet,
		"clock_time_get":        h.clockTimeGet,
		"fd_close":              h.fdClose,
		"fd_fdstat_get":         h.fdFdstatGet,
		"fd_fdstat_set_flags":   h.fdFdstatSetFlags,
		"fd_filestat_get":       h.fdFilestatGet,
		"fd_prestat_get":        h.fdPrestatGet,
		"fd_prestat_dir_name":   h.fdPrestatDirName,
		"fd_read":               h.fdRead,
		"fd_readdir":            h.fdReaddir,
		"fd_seek":               h.fdSeek,
		"fd_tell":               h.fdTell,
		"fd_write":              h.fdWrite,
		"path_create_directory": h.pathCreateDirectory,
		"path_filestat_get":     h.pathFilestatGet,
		"path_open":             h.pathOpen,
		"path_readlink":         h.pathReadlink,
		"path_remove_directory": h.pathRemoveDirectory,
		"path_unlink_file":      h.pathUnlinkFile,
		"proc_exit":             h.procExit,
		"random_get":            h.randomGet,
		"sched_yield":           h.schedYield,
	}
}

// memRange bounds-checks [ptr, ptr+n) against the instance memory and
// returns the backing slice.
func memRange(proc *exec.Process, ptr, n uint32) ([]byte, Errno) {
	mem := proc.Memory()
	if uint64(ptr)+uint64(n) > uint64(len(mem)) {
		return nil, ErrnoFault
	}
	return mem[ptr : ptr+n], ErrnoSuccess
}

func ret(errno Errno) (uint64, exec.Trap) {
	return uint64(errno), exec.TrapNone
}

func (h *Host) argsGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	return writeStringList(proc, h.args, uint32(args[0]), uint32(args[1]))
}

func (h *Host) argsSizesGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	return writeStringListSizes(proc, h.args, uint32(args[0]), uint32(args[1]))
}

func (h *Host) environGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	return writeStringList(proc, h.env, uint32(args[0]), uint32(args[1]))
}

func (h *Host) environSizesGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	return writeStringListSizes(proc, h.env, uint32(args[0]), uint32(args[1]))
}

// writeStringList lays out NUL-terminated strings at bufPtr and their
// pointers at listPtr, the shared shape of args_get and environ_get.
func writeStringList(proc *exec.Process, list []string, listPtr, bufPtr uint32) (uint64, exec.Trap) {
	for _, s := range list {
		ptrs, errno := memRange(proc, listPtr, 4)
		if errno != ErrnoSuccess {
			return ret(errno)
		}
		le.PutUint32(ptrs, bufPtr)
		listPtr += 4

		buf, errno := memRange(proc, bufPtr, uint32(len(s))+1)
		if errno != ErrnoSuccess {
			return ret(errno)
		}
		copy(buf, s)
		buf[len(s)] = 0
		bufPtr += uint32(len(s)) + 1
	}
	return ret(ErrnoSuccess)
}

func writeStringListSizes(proc *exec.Process, list []string, countPtr, sizePtr uint32) (uint64, exec.Trap) {
	var total uint32
	for _, s := range list {
		total += uint32(len(s)) + 1
	}

	buf, errno := memRange(proc, countPtr, 4)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	le.PutUint32(buf, uint32(len(list)))

	if buf, errno = memRange(proc, sizePtr, 4); errno != ErrnoSuccess {
		return ret(errno)
	}
	le.PutUint32(buf, total)
	return ret(ErrnoSuccess)
}

func (h *Host) clockResGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	id := uint32(args[0])
	if id != ClockRealtime && id != ClockMonotonic {
		return ret(ErrnoInval)
	}
	buf, errno := memRange(proc, uint32(args[1]), 8)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	le.PutUint64(buf, 1) // nanosecond resolution
	return ret(ErrnoSuccess)
}

func (h *Host) clockTimeGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	id := uint32(args[0])
	ns, errno := clockTime(id)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	buf, errno := memRange(proc, uint32(args[2]), 8)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	le.PutUint64(buf, ns)
	return ret(ErrnoSuccess)
}

func (h *Host) fdClose(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	fd := uint32(args[0])
	e, errno := h.fd(fd)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if e.preopen || fd < 3 {
		return ret(ErrnoBadf)
	}
	delete(h.fds, fd)
	if e.file != nil {
		if err := e.file.Close(); err != nil {
			return ret(errnoFromErr(err))
		}
	}
	return ret(ErrnoSuccess)
}

func (h *Host) fdFdstatGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	e, errno := h.fd(uint32(args[0]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	buf, errno := memRange(proc, uint32(args[1]), 24)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	putFdstat(buf, e.filetype, e.flags, e.rightsBase, e.rightsInheriting)
	return ret(ErrnoSuccess)
}

func (h *Host) fdFdstatSetFlags(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	e, errno := h.fd(uint32(args[0]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	e.flags = uint16(args[1])
	return ret(ErrnoSuccess)
}

func (h *Host) fdFilestatGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	e, errno := h.fd(uint32(args[0]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	buf, errno := memRange(proc, uint32(args[1]), 64)
	if errno != ErrnoSuccess {
		return ret(errno)
	}

	var fi os.FileInfo
	var err error
	if e.file != nil {
		fi, err = e.file.Stat()
	} else {
		fi, err = os.Stat(e.path)
	}
	if err != nil {
		return ret(errnoFromErr(err))
	}
	writeFileInfo(buf, fi)
	return ret(ErrnoSuccess)
}

func (h *Host) fdPrestatGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	e, errno := h.fd(uint32(args[0]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if !e.preopen {
		return ret(ErrnoBadf)
	}
	buf, errno := memRange(proc, uint32(args[1]), 8)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	putPrestat(buf, uint32(len(e.guestPath)))
	return ret(ErrnoSuccess)
}

func (h *Host) fdPrestatDirName(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	e, errno := h.fd(uint32(args[0]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if !e.preopen {
		return ret(ErrnoBadf)
	}
	buf, errno := memRange(proc, uint32(args[1]), uint32(args[2]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if int(args[2]) < len(e.guestPath) {
		return ret(ErrnoNametoolong)
	}
	copy(buf, e.guestPath)
	return ret(ErrnoSuccess)
}

// iovecs decodes an iovec array into its memory windows.
func iovecs(proc *exec.Process, ptr, count uint32) ([][]byte, Errno) {
	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		iov, errno := memRange(proc, ptr+i*iovecSize, iovecSize)
		if errno != ErrnoSuccess {
			return nil, errno
		}
		buf, errno := memRange(proc, le.Uint32(iov), le.Uint32(iov[4:]))
		if errno != ErrnoSuccess {
			return nil, errno
		}
		out = append(out, buf)
	}
	return out, ErrnoSuccess
}

func (h *Host) fdRead(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	e, errno := h.fd(uint32(args[0]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if e.file == nil {
		return ret(ErrnoBadf)
	}
	bufs, errno := iovecs(proc, uint32(args[1]), uint32(args[2]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}

	var total uint32
	for _, buf := range bufs {
		if len(buf) == 0 {
			continue
		}
		n, err := e.file.Read(buf)
		total += uint32(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return ret(errnoFromErr(err))
		}
		if n < len(buf) {
			break
		}
	}

	out, errno := memRange(proc, uint32(args[3]), 4)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	le.PutUint32(out, total)
	return ret(ErrnoSuccess)
}

func (h *Host) fdWrite(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	e, errno := h.fd(uint32(args[0]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if e.file == nil {
		return ret(ErrnoBadf)
	}
	bufs, errno := iovecs(proc, uint32(args[1]), uint32(args[2]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}

	var total uint32
	for _, buf := range bufs {
		n, err := e.file.Write(buf)
		total += uint32(n)
		if err != nil {
			return ret(errnoFromErr(err))
		}
	}

	out, errno := memRange(proc, uint32(args[3]), 4)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	le.PutUint32(out, total)
	return ret(ErrnoSuccess)
}

func (h *Host) fdReaddir(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	e, errno := h.fd(uint32(args[0]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if e.filetype != FiletypeDirectory {
		return ret(ErrnoNotdir)
	}

	if e.dirents == nil {
		entries, err := os.ReadDir(e.path)
		if err != nil {
			return ret(errnoFromErr(err))
		}
		e.dirents = entries
	}

	buf, errno := memRange(proc, uint32(args[1]), uint32(args[2]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	cookie := args[3]

	var used int
	for i := int(cookie); i < len(e.dirents); i++ {
		entry := e.dirents[i]
		name := entry.Name()

		var header [direntSize]byte
		putDirent(header[:], uint64(i)+1, uint64(i)+1, uint32(len(name)), filetypeFromMode(entry.Type()))

		n := copy(buf[used:], header[:])
		used += n
		if n < direntSize {
			break // truncated entry signals a full buffer
		}
		n = copy(buf[used:], name)
		used += n
		if n < len(name) {
			break
		}
	}

	out, errno := memRange(proc, uint32(args[4]), 4)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	le.PutUint32(out, uint32(used))
	return ret(ErrnoSuccess)
}

func (h *Host) fdSeek(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	e, errno := h.fd(uint32(args[0]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if e.file == nil || e.filetype == FiletypeCharacterDevice {
		return ret(ErrnoSpipe)
	}

	whence := int(uint32(args[2]))
	if whence > io.SeekEnd {
		return ret(ErrnoInval)
	}
	pos, err := e.file.Seek(int64(args[1]), whence)
	if err != nil {
		return ret(errnoFromErr(err))
	}

	out, errno := memRange(proc, uint32(args[3]), 8)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	le.PutUint64(out, uint64(pos))
	return ret(ErrnoSuccess)
}

func (h *Host) fdTell(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	e, errno := h.fd(uint32(args[0]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if e.file == nil {
		return ret(ErrnoSpipe)
	}
	pos, err := e.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return ret(errnoFromErr(err))
	}
	out, errno := memRange(proc, uint32(args[1]), 8)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	le.PutUint64(out, uint64(pos))
	return ret(ErrnoSuccess)
}

// guestString reads a guest path string.
func guestString(proc *exec.Process, ptr, length uint32) (string, Errno) {
	buf, errno := memRange(proc, ptr, length)
	if errno != ErrnoSuccess {
		return "", errno
	}
	return string(buf), ErrnoSuccess
}

func (h *Host) pathCreateDirectory(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	path, errno := guestString(proc, uint32(args[1]), uint32(args[2]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	host, errno := h.resolvePath(uint32(args[0]), path)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if err := os.Mkdir(host, 0o755); err != nil {
		return ret(errnoFromErr(err))
	}
	return ret(ErrnoSuccess)
}

func (h *Host) pathFilestatGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	// args[1] is lookupflags; symlinks are always followed
	path, errno := guestString(proc, uint32(args[2]), uint32(args[3]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	host, errno := h.resolvePath(uint32(args[0]), path)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	buf, errno := memRange(proc, uint32(args[4]), 64)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	fi, err := os.Stat(host)
	if err != nil {
		return ret(errnoFromErr(err))
	}
	writeFileInfo(buf, fi)
	return ret(ErrnoSuccess)
}

func (h *Host) pathOpen(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	dirFD := uint32(args[0])
	// args[1] is dirflags
	path, errno := guestString(proc, uint32(args[2]), uint32(args[3]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	oflags := uint32(args[4])
	rightsBase := args[5]
	rightsInheriting := args[6]
	fdflags := uint16(args[7])

	host, errno := h.resolvePath(dirFD, path)
	if errno != ErrnoSuccess {
		return ret(errno)
	}

	flags := os.O_RDONLY
	if rightsBase&RightFdWrite != 0 {
		if rightsBase&RightFdRead != 0 {
			flags = os.O_RDWR
		} else {
			flags = os.O_WRONLY
		}
	}
	if oflags&OflagCreat != 0 {
		flags |= os.O_CREATE
	}
	if oflags&OflagExcl != 0 {
		flags |= os.O_EXCL
	}
	if oflags&OflagTrunc != 0 {
		flags |= os.O_TRUNC
	}
	if fdflags&FdflagAppend != 0 {
		flags |= os.O_APPEND
	}

	f, err := os.OpenFile(host, flags, 0o644)
	if err != nil {
		return ret(errnoFromErr(err))
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return ret(errnoFromErr(err))
	}
	if oflags&OflagDirectory != 0 && !fi.IsDir() {
		f.Close()
		return ret(ErrnoNotdir)
	}

	fd := h.allocFD(&fdEntry{
		file:             f,
		path:             host,
		filetype:         filetypeFromMode(fi.Mode()),
		flags:            fdflags,
		rightsBase:       rightsBase,
		rightsInheriting: rightsInheriting,
	})

	out, errno := memRange(proc, uint32(args[8]), 4)
	if errno != ErrnoSuccess {
		h.fds[fd].file.Close()
		delete(h.fds, fd)
		return ret(errno)
	}
	le.PutUint32(out, fd)
	return ret(ErrnoSuccess)
}

func (h *Host) pathReadlink(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	path, errno := guestString(proc, uint32(args[1]), uint32(args[2]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	host, errno := h.resolvePath(uint32(args[0]), path)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	target, err := os.Readlink(host)
	if err != nil {
		return ret(errnoFromErr(err))
	}
	buf, errno := memRange(proc, uint32(args[3]), uint32(args[4]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	n := copy(buf, target)
	out, errno := memRange(proc, uint32(args[5]), 4)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	le.PutUint32(out, uint32(n))
	return ret(ErrnoSuccess)
}

func (h *Host) pathRemoveDirectory(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	path, errno := guestString(proc, uint32(args[1]), uint32(args[2]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	host, errno := h.resolvePath(uint32(args[0]), path)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	fi, err := os.Lstat(host)
	if err != nil {
		return ret(errnoFromErr(err))
	}
	if !fi.IsDir() {
		return ret(ErrnoNotdir)
	}
	if err := os.Remove(host); err != nil {
		return ret(errnoFromErr(err))
	}
	return ret(ErrnoSuccess)
}

func (h *Host) pathUnlinkFile(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	path, errno := guestString(proc, uint32(args[1]), uint32(args[2]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	host, errno := h.resolvePath(uint32(args[0]), path)
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	fi, err := os.Lstat(host)
	if err != nil {
		return ret(errnoFromErr(err))
	}
	if fi.IsDir() {
		return ret(ErrnoIsdir)
	}
	if err := os.Remove(host); err != nil {
		return ret(errnoFromErr(err))
	}
	return ret(ErrnoSuccess)
}

func (h *Host) procExit(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	proc.Exit(uint32(args[0]))
	return 0, exec.TrapNone // unreachable
}

func (h *Host) randomGet(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	buf, errno := memRange(proc, uint32(args[0]), uint32(args[1]))
	if errno != ErrnoSuccess {
		return ret(errno)
	}
	if _, err := rand.Read(buf); err != nil {
		return ret(ErrnoIo)
	}
	return ret(ErrnoSuccess)
}

func (h *Host) schedYield(proc *exec.Process, args []uint64) (uint64, exec.Trap) {
	return ret(ErrnoSuccess)
}
