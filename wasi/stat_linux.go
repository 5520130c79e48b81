// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package wasi

import (
	"os"
	"syscall"
)

// writeFileInfo fills a 64-byte filestat from host stat data.
func writeFileInfo(buf []byte, fi os.FileInfo) {
	ft := filetypeFromMode(fi.Mode())
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		putFilestat(buf,
			uint64(st.Dev), st.Ino, ft, uint64(st.Nlink), uint64(st.Size),
			uint64(st.Atim.Nano()), uint64(st.Mtim.Nano()), uint64(st.Ctim.Nano()))
		return
	}
	mtim := uint64(fi.ModTime().UnixNano())
	putFilestat(buf, 0, 0, ft, 1, uint64(fi.Size()), mtim, mtim, mtim)
}
