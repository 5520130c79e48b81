// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package wasi

import (
	"os"
)

// writeFileInfo fills a 64-byte filestat from the portable file info.
func writeFileInfo(buf []byte, fi os.FileInfo) {
	mtim := uint64(fi.ModTime().UnixNano())
	putFilestat(buf, 0, 0, filetypeFromMode(fi.Mode()), 1, uint64(fi.Size()), mtim, mtim, mtim)
}
