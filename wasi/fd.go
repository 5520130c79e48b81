// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasi

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// firstDynamicFD is where fds allocated by path_open start. 0-2 are the
// stdio streams, 3 and up are preopened directories.
const firstDynamicFD uint32 = 8

// fdEntry is one slot of the fd table.
type fdEntry struct {
	file      *os.File
	path      string // host path
	guestPath string // the name a preopen is exposed under
	preopen   bool

	filetype         uint8
	flags            uint16
	rightsBase       uint64
	rightsInheriting uint64

	dirents []fs.DirEntry // fd_readdir cache, filled on first use
}

// Host is a WASI preview-1 host: command line, environment, clock access,
// and a file descriptor table with preopened directories.
type Host struct {
	args []string
	env  []string

	fds    map[uint32]*fdEntry
	nextFD uint32
}

// HostOption configures a Host under construction.
type HostOption func(*Host)

// WithArgs sets the command line reported by args_get.
func WithArgs(args ...string) HostOption {
	return func(h *Host) { h.args = args }
}

// WithEnviron sets the environment reported by environ_get, as KEY=VALUE
// strings.
func WithEnviron(env ...string) HostOption {
	return func(h *Host) { h.env = env }
}

// WithPreopenDir registers a host directory as a preopened fd. The guest
// sees it under the given name. Preopens take fds 3, 4, ... in
// registration order.
func WithPreopenDir(guestPath, hostPath string) HostOption {
	return func(h *Host) {
		fd := h.nextFD
		h.nextFD++
		h.fds[fd] = &fdEntry{
			path:             hostPath,
			guestPath:        guestPath,
			preopen:          true,
			filetype:         FiletypeDirectory,
			rightsBase:       RightsAll,
			rightsInheriting: RightsAll,
		}
	}
}

// WithFile binds an arbitrary fd to an open host file. Embedders and
// tests use it to route guest I/O without going through path_open.
func WithFile(fd uint32, f *os.File) HostOption {
	return func(h *Host) {
		h.fds[fd] = &fdEntry{
			file:       f,
			path:       f.Name(),
			filetype:   FiletypeRegularFile,
			rightsBase: RightsAll,
		}
		if fd >= h.nextFD {
			h.nextFD = fd + 1
		}
	}
}

// NewHost creates a Host with stdio bound to the process's own streams.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		fds:    make(map[uint32]*fdEntry),
		nextFD: 3,
	}
	h.fds[0] = &fdEntry{file: os.Stdin, filetype: FiletypeCharacterDevice, rightsBase: RightsAll}
	h.fds[1] = &fdEntry{file: os.Stdout, filetype: FiletypeCharacterDevice, rightsBase: RightsAll}
	h.fds[2] = &fdEntry{file: os.Stderr, filetype: FiletypeCharacterDevice, rightsBase: RightsAll}

	for _, opt := range opts {
		opt(h)
	}
	if h.nextFD < firstDynamicFD {
		h.nextFD = firstDynamicFD
	}
	return h
}

// allocFD inserts a new entry and returns its fd.
func (h *Host) allocFD(e *fdEntry) uint32 {
	for {
		fd := h.nextFD
		h.nextFD++
		if _, taken := h.fds[fd]; !taken {
			h.fds[fd] = e
			return fd
		}
	}
}

func (h *Host) fd(fd uint32) (*fdEntry, Errno) {
	e, ok := h.fds[fd]
	if !ok {
		return nil, ErrnoBadf
	}
	return e, ErrnoSuccess
}

// resolvePath maps a guest path relative to a directory fd onto a host
// path, refusing escapes from the directory's tree.
func (h *Host) resolvePath(dirFD uint32, guestPath string) (string, Errno) {
	e, errno := h.fd(dirFD)
	if errno != ErrnoSuccess {
		return "", errno
	}
	if e.filetype != FiletypeDirectory {
		return "", ErrnoNotdir
	}

	base := e.path
	joined := filepath.Join(base, filepath.FromSlash(guestPath))
	if joined != base && !strings.HasPrefix(joined, base+string(filepath.Separator)) {
		return "", ErrnoAcces
	}
	return joined, ErrnoSuccess
}
