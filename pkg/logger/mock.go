// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logger

import (
	"sync/atomic"

	"github.com/stretchr/testify/mock"
)

// MockLogger records log calls for assertions in tests. Each call is
// reported to testify as the method name with (msg, keysAndValues), so
// expectations read log.On("Warn", "response dropped", mock.Anything).
// With returns the same mock; fields added through it are not recorded.
type MockLogger struct {
	mock.Mock
	level atomic.Int32
}

var _ Logger = (*MockLogger)(nil)

// NewMockLogger returns a MockLogger that accepts any Debug and Info call.
// Warn and Error expectations must be set by the test.
func NewMockLogger() *MockLogger {
	m := &MockLogger{}
	m.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.On("Info", mock.Anything, mock.Anything).Maybe()
	return m
}

// ExpectWarn expects one Warn call with msg and any fields
func (m *MockLogger) ExpectWarn(msg string) *mock.Call {
	return m.On("Warn", msg, mock.Anything).Once()
}

// ExpectError expects one Error call with msg and any fields
func (m *MockLogger) ExpectError(msg string) *mock.Call {
	return m.On("Error", msg, mock.Anything).Once()
}

var mockMethods = map[Level]string{
	DebugLevel: "Debug",
	InfoLevel:  "Info",
	WarnLevel:  "Warn",
	ErrorLevel: "Error",
	FatalLevel: "Fatal",
}

func (m *MockLogger) record(level Level, msg string, keysAndValues []any) {
	m.MethodCalled(mockMethods[level], msg, keysAndValues)
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.record(DebugLevel, msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.record(InfoLevel, msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.record(WarnLevel, msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.record(ErrorLevel, msg, keysAndValues)
}

// Fatal is recorded like any other level; it never exits
func (m *MockLogger) Fatal(msg string, keysAndValues ...any) {
	m.record(FatalLevel, msg, keysAndValues)
}

// Level is a plain setting, not an expectation. The zero value is InfoLevel.
func (m *MockLogger) Level() Level {
	return Level(m.level.Load())
}

func (m *MockLogger) SetLevel(level Level) {
	m.level.Store(int32(level))
}

func (m *MockLogger) With(keyValues ...any) Logger {
	return m
}
