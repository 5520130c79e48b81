// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package leb128 provides functions for reading integer values encoded in the
// Little Endian Base 128 (LEB128) format: https://en.wikipedia.org/wiki/LEB128
package leb128

import (
	"errors"
	"io"
)

// ErrOverflow is returned when an encoded value does not fit the
// requested integer width.
var ErrOverflow = errors.New("leb128: value overflows integer width")

// ReadVarUint32 reads a LEB128 encoded unsigned 32-bit integer from r, and
// returns the integer value, and the error (if any).
func ReadVarUint32(r io.Reader) (uint32, error) {
	n, _, err := ReadVarUint32Size(r)
	return n, err
}

// ReadVarUint32Size reads a LEB128 encoded unsigned 32-bit integer from r,
// and returns the integer value, the number of bytes consumed, and the
// error (if any).
func ReadVarUint32Size(r io.Reader) (res uint32, size int, err error) {
	var (
		b     = make([]byte, 1)
		shift uint
	)
	for {
		if _, err = io.ReadFull(r, b); err != nil {
			return res, size, err
		}
		size++

		cur := uint32(b[0])
		if shift == 28 && cur&0xf0 != 0 {
			return res, size, ErrOverflow
		}
		res |= (cur & 0x7f) << shift
		if cur&0x80 == 0 {
			return res, size, nil
		}
		if shift += 7; shift >= 35 {
			return res, size, ErrOverflow
		}
	}
}

// ReadVarint32 reads a LEB128 encoded signed 32-bit integer from r, and
// returns the integer value, and the error (if any).
func ReadVarint32(r io.Reader) (int32, error) {
	n, err := readVarint(r, 32)
	return int32(n), err
}

// ReadVarint33 reads a LEB128 encoded signed 33-bit integer from r. The
// 33-bit width is used by block type immediates, where non-negative values
// are type indices and negative values encode value types.
func ReadVarint33(r io.Reader) (int64, error) {
	return readVarint(r, 33)
}

// ReadVarint64 reads a LEB128 encoded signed 64-bit integer from r, and
// returns the integer value, and the error (if any).
func ReadVarint64(r io.Reader) (int64, error) {
	return readVarint(r, 64)
}

func readVarint(r io.Reader, width uint) (int64, error) {
	var (
		b     = make([]byte, 1)
		shift uint
		sign  int64 = -1
		res   int64
		err   error
	)

	for {
		if _, err = io.ReadFull(r, b); err != nil {
			return res, err
		}

		cur := int64(b[0])
		res |= (cur & 0x7f) << shift
		shift += 7
		sign <<= 7
		if cur&0x80 == 0 {
			break
		}
		if shift >= width+7 {
			return res, ErrOverflow
		}
	}

	if ((sign >> 1) & res) != 0 {
		res |= sign
	}
	return res, nil
}
