// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transceiver moves OpenTherm frames between the session and the
// line. A Transceiver carries at most one request at a time and reports the
// outcome of each one through a ResponseHandler invoked from Process.
package transceiver

import (
	"errors"

	"github.com/Thermoquad/boilerstat/pkg/opentherm"
)

var (
	ErrAlreadyStarted = errors.New("transceiver already started")
	ErrNoHandler      = errors.New("response handler is nil")
)

// ResponseHandler receives the outcome of a request. The frame is zero on
// timeout.
type ResponseHandler func(frame opentherm.Frame, status opentherm.ResponseStatus)

// Transceiver is the master side of the OpenTherm line
type Transceiver interface {
	// Begin binds the response handler and makes the transceiver ready.
	Begin(handler ResponseHandler) error
	// IsReady reports whether a new request may be sent.
	IsReady() bool
	// SendRequestAsync starts sending f. It returns false when the
	// transceiver is not ready or the request could not be written.
	SendRequestAsync(f opentherm.Frame) bool
	// Process advances timeouts and delivers completed responses to the
	// handler. It must be called regularly from the owning goroutine.
	Process()
	// End releases the line. No further requests are accepted.
	End() error
}
