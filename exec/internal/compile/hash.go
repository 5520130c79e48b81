// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"github.com/wasm5/wasm5/wasm"
)

// TypeHash is the pair of 64-bit signature hashes identifying a function
// type at indirect call sites. Lo weights the parameter and result counts,
// Hi weights the position of each concrete value type, so that types
// differing only in arity or only in type order still hash apart. Two
// types are treated as equal when both halves match.
type TypeHash struct {
	Lo, Hi uint64
}

const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

// HashSig reduces a function signature to its TypeHash.
func HashSig(sig *wasm.FunctionSig) TypeHash {
	lo := fnvOffset
	lo ^= uint64(len(sig.ParamTypes)) + 1
	lo *= fnvPrime
	lo ^= uint64(len(sig.ReturnTypes)) + 1
	lo *= fnvPrime
	for _, t := range sig.ParamTypes {
		lo ^= uint64(uint8(t))
		lo *= fnvPrime
	}
	for _, t := range sig.ReturnTypes {
		lo ^= uint64(uint8(t))
		lo *= fnvPrime
	}

	hi := fnvOffset
	for i, t := range sig.ParamTypes {
		hi ^= uint64(i+1) * uint64(uint8(t))
		hi *= fnvPrime
	}
	hi ^= fnvPrime
	for i, t := range sig.ReturnTypes {
		hi ^= uint64(i+1) * uint64(uint8(t))
		hi *= fnvPrime
	}
	return TypeHash{Lo: lo, Hi: hi}
}
