// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"fmt"
)

type InvalidTableIndexError uint32

func (e InvalidTableIndexError) Error() string {
	return fmt.Sprintf("wasm: invalid table to table index space: %d", uint32(e))
}

type InvalidLinearMemoryIndexError uint32

func (e InvalidLinearMemoryIndexError) Error() string {
	return fmt.Sprintf("wasm: invalid linear memory index: %d", uint32(e))
}

type InvalidDataSegmentIndexError uint32

func (e InvalidDataSegmentIndexError) Error() string {
	return fmt.Sprintf("wasm: invalid data segment index: %d", uint32(e))
}

type InvalidElementSegmentIndexError uint32

func (e InvalidElementSegmentIndexError) Error() string {
	return fmt.Sprintf("wasm: invalid element segment index: %d", uint32(e))
}
