// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasi

import (
	"encoding/binary"
	"io/fs"
)

var le = binary.LittleEndian

// WASI preview-1 file types.
const (
	FiletypeUnknown         uint8 = 0
	FiletypeBlockDevice     uint8 = 1
	FiletypeCharacterDevice uint8 = 2
	FiletypeDirectory       uint8 = 3
	FiletypeRegularFile     uint8 = 4
	FiletypeSocketDgram     uint8 = 5
	FiletypeSocketStream    uint8 = 6
	FiletypeSymbolicLink    uint8 = 7
)

// Clock IDs. Only REALTIME and MONOTONIC are served.
const (
	ClockRealtime  uint32 = 0
	ClockMonotonic uint32 = 1
)

// path_open oflags.
const (
	OflagCreat     uint32 = 1
	OflagDirectory uint32 = 2
	OflagExcl      uint32 = 4
	OflagTrunc     uint32 = 8
)

// fdflags.
const (
	FdflagAppend   uint16 = 1
	FdflagDsync    uint16 = 2
	FdflagNonblock uint16 = 4
	FdflagRsync    uint16 = 8
	FdflagSync     uint16 = 16
)

// Rights bits. The host grants everything it can serve; rights are
// reported, not enforced beyond what the filesystem itself refuses.
const (
	RightFdRead  uint64 = 1 << 1
	RightFdSeek  uint64 = 1 << 2
	RightFdWrite uint64 = 1 << 6
	RightsAll    uint64 = (1 << 30) - 1
)

// prestat tag for directories.
const preopentypeDir uint32 = 0

// iovec / ciovec: { buf_ptr: u32, buf_len: u32 }, 8 bytes.
const iovecSize = 8

// fdstat is 24 bytes:
// filetype u8, pad u8, flags u16, pad u32, rights_base u64, rights_inheriting u64.
func putFdstat(buf []byte, filetype uint8, flags uint16, rightsBase, rightsInheriting uint64) {
	for i := 0; i < 24; i++ {
		buf[i] = 0
	}
	buf[0] = filetype
	le.PutUint16(buf[2:], flags)
	le.PutUint64(buf[8:], rightsBase)
	le.PutUint64(buf[16:], rightsInheriting)
}

// prestat is 8 bytes: tag u32 (0 = dir), name_len u32.
func putPrestat(buf []byte, nameLen uint32) {
	le.PutUint32(buf, preopentypeDir)
	le.PutUint32(buf[4:], nameLen)
}

// filestat is 64 bytes:
// dev u64, ino u64, filetype u8, pad [7]u8, nlink u64, size u64,
// atim u64 (ns), mtim u64 (ns), ctim u64 (ns).
func putFilestat(buf []byte, dev, ino uint64, filetype uint8, nlink, size, atim, mtim, ctim uint64) {
	for i := 0; i < 64; i++ {
		buf[i] = 0
	}
	le.PutUint64(buf, dev)
	le.PutUint64(buf[8:], ino)
	buf[16] = filetype
	le.PutUint64(buf[24:], nlink)
	le.PutUint64(buf[32:], size)
	le.PutUint64(buf[40:], atim)
	le.PutUint64(buf[48:], mtim)
	le.PutUint64(buf[56:], ctim)
}

// direntSize is the fixed header of a dirent:
// next u64, ino u64, namlen u32, type u8, pad [3]u8.
const direntSize = 24

func putDirent(buf []byte, next, ino uint64, namlen uint32, filetype uint8) {
	for i := 0; i < direntSize; i++ {
		buf[i] = 0
	}
	le.PutUint64(buf, next)
	le.PutUint64(buf[8:], ino)
	le.PutUint32(buf[16:], namlen)
	buf[20] = filetype
}

func filetypeFromMode(mode fs.FileMode) uint8 {
	switch {
	case mode.IsRegular():
		return FiletypeRegularFile
	case mode.IsDir():
		return FiletypeDirectory
	case mode&fs.ModeSymlink != 0:
		return FiletypeSymbolicLink
	case mode&fs.ModeDevice != 0:
		if mode&fs.ModeCharDevice != 0 {
			return FiletypeCharacterDevice
		}
		return FiletypeBlockDevice
	case mode&fs.ModeSocket != 0:
		return FiletypeSocketStream
	default:
		return FiletypeUnknown
	}
}
