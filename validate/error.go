// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"fmt"

	"github.com/wasm5/wasm5/wasm"
)

// ErrorKind is the stable tag of a validation failure.
type ErrorKind uint8

const (
	KindTypeMismatch ErrorKind = iota
	KindUnknownFunction
	KindUnknownType
	KindUnknownLocal
	KindUnknownGlobal
	KindUnknownLabel
	KindUnknownTable
	KindUnknownMemory
	KindUnknownDataSegment
	KindUnknownElementSegment
	KindInvalidResultArity
	KindAlignmentTooLarge
	KindOutOfBounds
	KindConstantExpressionRequired
	KindMutableGlobalInConstExpr
	KindDuplicateExport
	KindMultipleMemories
	KindSizeMinGreaterThanMax
	KindUndeclaredFunctionReference
	KindInvalidStartFunction
)

var kindNames = map[ErrorKind]string{
	KindTypeMismatch:                "type-mismatch",
	KindUnknownFunction:             "unknown-function",
	KindUnknownType:                 "unknown-type",
	KindUnknownLocal:                "unknown-local",
	KindUnknownGlobal:               "unknown-global",
	KindUnknownLabel:                "unknown-label",
	KindUnknownTable:                "unknown-table",
	KindUnknownMemory:               "unknown-memory",
	KindUnknownDataSegment:          "unknown-data-segment",
	KindUnknownElementSegment:       "unknown-element-segment",
	KindInvalidResultArity:          "invalid-result-arity",
	KindAlignmentTooLarge:           "alignment-too-large",
	KindOutOfBounds:                 "out-of-bounds",
	KindConstantExpressionRequired:  "constant-expression-required",
	KindMutableGlobalInConstExpr:    "mutable-global-in-const-expr",
	KindDuplicateExport:             "duplicate-export",
	KindMultipleMemories:            "multiple-memories",
	KindSizeMinGreaterThanMax:       "size-minimum-greater-than-maximum",
	KindUndeclaredFunctionReference: "undeclared-function-reference",
	KindInvalidStartFunction:        "invalid-start-function",
}

func (k ErrorKind) String() string {
	n, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("<unknown error kind %d>", uint8(k))
	}
	return n
}

// ValidationError is a single validation failure, carrying its stable kind
// tag and a human-readable detail string.
type ValidationError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate: %s: %s", e.Kind, e.Detail)
}

func verr(kind ErrorKind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Error wraps validation errors with information about where the error
// was encountered.
type Error struct {
	Offset   int // Byte offset in the bytecode vector where the error occurs.
	Function int // Index into the function index space for the offending function.
	Err      error
}

func (e Error) Error() string {
	return fmt.Sprintf("error while validating function %d at offset %d: %v", e.Function, e.Offset, e.Err)
}

func (e Error) Unwrap() error { return e.Err }

func typeStr(v wasm.ValueType) string {
	if v == unknownType {
		return "anytype"
	}
	return v.String()
}

func typeMismatch(wanted, got wasm.ValueType) *ValidationError {
	return verr(KindTypeMismatch, "invalid type, got: %v, wanted: %v", typeStr(got), typeStr(wanted))
}

// ErrStackUnderflow is the detail raised when an instruction consumes a
// value, but there are no values left in the current frame.
var ErrStackUnderflow = verr(KindTypeMismatch, "stack underflow")
