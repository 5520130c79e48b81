// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package readpos provides an io.Reader that keeps track of the number of
// bytes read from the underlying reader.
package readpos

import (
	"io"
)

// ReadPos implements io.Reader and io.ByteReader, recording the current
// position in CurPos.
type ReadPos struct {
	R      io.Reader
	CurPos int64
}

// Read implements the io.Reader interface.
func (r *ReadPos) Read(p []byte) (int, error) {
	n, err := r.R.Read(p)
	r.CurPos += int64(n)
	return n, err
}

// ReadByte implements the io.ByteReader interface.
func (r *ReadPos) ReadByte() (byte, error) {
	var p [1]byte
	_, err := io.ReadFull(r.R, p[:])
	if err != nil {
		return 0, err
	}
	r.CurPos++
	return p[0], nil
}
