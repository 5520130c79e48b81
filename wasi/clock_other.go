// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !unix

package wasi

import (
	"time"
)

var monotonicBase = time.Now()

func clockTime(id uint32) (uint64, Errno) {
	switch id {
	case ClockRealtime:
		return uint64(time.Now().UnixNano()), ErrnoSuccess
	case ClockMonotonic:
		return uint64(time.Since(monotonicBase)), ErrnoSuccess
	default:
		return 0, ErrnoInval
	}
}
