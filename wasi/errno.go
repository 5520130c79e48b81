// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasi

import (
	"errors"
	"io"
	"io/fs"
	"syscall"
)

// Errno is a WASI preview-1 error number.
// See https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#-errno-enumu16
type Errno uint32

const (
	ErrnoSuccess     Errno = 0
	ErrnoAcces       Errno = 2
	ErrnoBadf        Errno = 8
	ErrnoExist       Errno = 20
	ErrnoFault       Errno = 21
	ErrnoInval       Errno = 28
	ErrnoIo          Errno = 29
	ErrnoIsdir       Errno = 31
	ErrnoNametoolong Errno = 37
	ErrnoNfile       Errno = 41
	ErrnoNoent       Errno = 44
	ErrnoNospc       Errno = 51
	ErrnoNosys       Errno = 52
	ErrnoNotdir      Errno = 54
	ErrnoNotempty    Errno = 55
	ErrnoPerm        Errno = 63
	ErrnoRofs        Errno = 69
	ErrnoSpipe       Errno = 70
)

var errnoNames = map[Errno]string{
	ErrnoSuccess:     "ESUCCESS",
	ErrnoAcces:       "EACCES",
	ErrnoBadf:        "EBADF",
	ErrnoExist:       "EEXIST",
	ErrnoFault:       "EFAULT",
	ErrnoInval:       "EINVAL",
	ErrnoIo:          "EIO",
	ErrnoIsdir:       "EISDIR",
	ErrnoNametoolong: "ENAMETOOLONG",
	ErrnoNfile:       "ENFILE",
	ErrnoNoent:       "ENOENT",
	ErrnoNospc:       "ENOSPC",
	ErrnoNosys:       "ENOSYS",
	ErrnoNotdir:      "ENOTDIR",
	ErrnoNotempty:    "ENOTEMPTY",
	ErrnoPerm:        "EPERM",
	ErrnoRofs:        "EROFS",
	ErrnoSpipe:       "ESPIPE",
}

func (e Errno) String() string {
	if n, ok := errnoNames[e]; ok {
		return n
	}
	return "E?"
}

// errnoFromErr maps a host error onto the WASI errno space.
func errnoFromErr(err error) Errno {
	if err == nil {
		return ErrnoSuccess
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrnoNoent
	case errors.Is(err, fs.ErrExist):
		return ErrnoExist
	case errors.Is(err, fs.ErrPermission):
		return ErrnoAcces
	case errors.Is(err, io.EOF):
		return ErrnoSuccess
	}

	var se syscall.Errno
	if errors.As(err, &se) {
		switch se {
		case syscall.ENOTDIR:
			return ErrnoNotdir
		case syscall.EISDIR:
			return ErrnoIsdir
		case syscall.ENOTEMPTY:
			return ErrnoNotempty
		case syscall.ENOSPC:
			return ErrnoNospc
		case syscall.EROFS:
			return ErrnoRofs
		case syscall.ESPIPE:
			return ErrnoSpipe
		case syscall.ENAMETOOLONG:
			return ErrnoNametoolong
		case syscall.ENFILE, syscall.EMFILE:
			return ErrnoNfile
		case syscall.EPERM:
			return ErrnoPerm
		case syscall.EINVAL:
			return ErrnoInval
		}
	}
	return ErrnoIo
}
