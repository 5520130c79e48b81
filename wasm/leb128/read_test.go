// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leb128

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadVarUint32(t *testing.T) {
	for _, tc := range []struct {
		bytes []byte
		want  uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x04}, 4},
		{[]byte{0x80, 0x7f}, 16256},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xffffffff},
	} {
		got, err := ReadVarUint32(bytes.NewReader(tc.bytes))
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestReadVarUint32Size(t *testing.T) {
	got, size, err := ReadVarUint32Size(bytes.NewReader([]byte{0xe5, 0x8e, 0x26, 0xaa}))
	require.NoError(t, err)
	require.Equal(t, uint32(624485), got)
	require.Equal(t, 3, size)
}

func TestReadVarUint32Overflow(t *testing.T) {
	_, err := ReadVarUint32(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x1f}))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestReadVarint32(t *testing.T) {
	for _, tc := range []struct {
		bytes []byte
		want  int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x10}, 16},
		{[]byte{0x7f}, -1},
		{[]byte{0x7e}, -2},
		{[]byte{0x9b, 0xf1, 0x59}, -624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x07}, 2147483647},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, -2147483648},
	} {
		got, err := ReadVarint32(bytes.NewReader(tc.bytes))
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestReadVarint64(t *testing.T) {
	for _, tc := range []struct {
		bytes []byte
		want  int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, -1},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}, 9223372036854775807},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f}, -9223372036854775808},
	} {
		got, err := ReadVarint64(bytes.NewReader(tc.bytes))
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestReadVarint33BlockTypes(t *testing.T) {
	// block type immediates: -64 is the empty signature, other negative
	// values encode value types, non-negative values are type indices.
	for _, tc := range []struct {
		bytes []byte
		want  int64
	}{
		{[]byte{0x40}, -64},
		{[]byte{0x7f}, -1},
		{[]byte{0x7c}, -4},
		{[]byte{0x00}, 0},
		{[]byte{0x2a}, 42},
	} {
		got, err := ReadVarint33(bytes.NewReader(tc.bytes))
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}
