// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logger

import (
	"io"
	"sync/atomic"
)

var defLogger atomic.Pointer[Logger]

func init() {
	SetDefault(NewSlog(Options{Level: InfoLevel}))
}

// Default returns the process-wide logger
func Default() Logger {
	return *defLogger.Load()
}

// SetDefault replaces the process-wide logger
func SetDefault(l Logger) {
	defLogger.Store(&l)
}

// NewNop returns a logger that discards everything
func NewNop() Logger {
	return NewSlog(Options{Level: FatalLevel, Output: io.Discard})
}

func Debug(msg string, keysAndValues ...any) {
	Default().Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	Default().Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	Default().Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	Default().Error(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...any) {
	Default().Fatal(msg, keysAndValues...)
}

func With(keyValues ...any) Logger {
	return Default().With(keyValues...)
}
