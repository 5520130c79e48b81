// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package wasi

import (
	"golang.org/x/sys/unix"
)

// clockTime reads the requested clock in nanoseconds.
func clockTime(id uint32) (uint64, Errno) {
	var cid int32
	switch id {
	case ClockRealtime:
		cid = unix.CLOCK_REALTIME
	case ClockMonotonic:
		cid = unix.CLOCK_MONOTONIC
	default:
		return 0, ErrnoInval
	}

	var ts unix.Timespec
	if err := unix.ClockGettime(cid, &ts); err != nil {
		return 0, ErrnoIo
	}
	return uint64(ts.Nano()), ErrnoSuccess
}
