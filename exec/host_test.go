// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var tooBigABuffer = []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 0}

func TestProcessNormalWrite(t *testing.T) {
	vm := &VM{memory: make([]byte, 300)}
	proc := &Process{vm: vm}

	n, err := proc.WriteAt(tooBigABuffer, 0)
	require.NoError(t, err)
	require.Equal(t, len(tooBigABuffer), n)
}

func TestProcessWriteBoundary(t *testing.T) {
	vm := &VM{memory: []byte{1, 2, 3}}
	proc := &Process{vm: vm}

	n, err := proc.WriteAt(tooBigABuffer, 0)
	require.Error(t, err)
	require.Equal(t, len(vm.memory), n)
}

func TestProcessReadBoundary(t *testing.T) {
	vm := &VM{memory: []byte{1, 2, 3}}
	proc := &Process{vm: vm}

	buf := make([]byte, 300)
	n, err := proc.ReadAt(buf, 0)
	require.Error(t, err)
	require.Equal(t, len(vm.memory), n)
}

func TestProcessReadEmpty(t *testing.T) {
	vm := &VM{memory: []byte{}}
	proc := &Process{vm: vm}

	buf := make([]byte, 300)
	n, err := proc.ReadAt(buf, 0)
	require.Error(t, err)
	require.Equal(t, 0, n)
}

func TestProcessWriteOffset(t *testing.T) {
	vm := &VM{memory: make([]byte, 300)}
	proc := &Process{vm: vm}

	n, err := proc.WriteAt(tooBigABuffer, 2)
	require.NoError(t, err)
	require.Equal(t, len(tooBigABuffer), n)
	require.Equal(t, byte(0), vm.memory[0])
	require.Equal(t, byte(0), vm.memory[1])
	require.Equal(t, tooBigABuffer[0], vm.memory[2])
}

func TestProcessInRange(t *testing.T) {
	vm := &VM{memory: make([]byte, 16)}
	proc := &Process{vm: vm}

	require.True(t, proc.InRange(0, 16))
	require.True(t, proc.InRange(15, 1))
	require.False(t, proc.InRange(15, 2))
	require.False(t, proc.InRange(0xffffffff, 2))
}
