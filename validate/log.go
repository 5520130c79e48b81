// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"go.uber.org/zap"
)

var logger = zap.NewNop().Sugar()

// SetLogger installs l as the package logger. Validation is silent by
// default.
func SetLogger(l *zap.Logger) {
	logger = l.Sugar()
}
