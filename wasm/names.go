// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"bytes"
	"io"

	"github.com/wasm5/wasm5/wasm/leb128"
)

// CustomSectionName is the name of the custom section carrying debug names.
const CustomSectionName = "name"

const nameSubsectionFunctions = 1

// Custom returns the custom section with the given name, or nil.
func (m *Module) Custom(name string) *Section {
	for i, s := range m.Other {
		if s.Name == name {
			return &m.Other[i]
		}
	}
	return nil
}

// populateNames fills in Function.Name for entries named by the "name"
// custom section. Malformed name payloads are ignored: the section is
// advisory.
func (m *Module) populateNames() error {
	s := m.Custom(CustomSectionName)
	if s == nil {
		return nil
	}

	names, err := readFunctionNames(bytes.NewReader(s.Bytes))
	if err != nil {
		logger.Debugf("ignoring malformed name section: %v", err)
		return nil
	}
	for i := range m.FunctionIndexSpace {
		if n, ok := names[uint32(i)]; ok && m.FunctionIndexSpace[i].Name == "" {
			m.FunctionIndexSpace[i].Name = n
		}
	}
	return nil
}

func readFunctionNames(r *bytes.Reader) (map[uint32]string, error) {
	for {
		id, err := r.ReadByte()
		if err == io.EOF {
			return nil, nil
		} else if err != nil {
			return nil, err
		}
		size, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		if id != nameSubsectionFunctions {
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}

		count, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		names := make(map[uint32]string, count)
		for i := uint32(0); i < count; i++ {
			idx, err := leb128.ReadVarUint32(r)
			if err != nil {
				return nil, err
			}
			name, err := readStringUint(r)
			if err != nil {
				return nil, err
			}
			names[idx] = name
		}
		return names, nil
	}
}
