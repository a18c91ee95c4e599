// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transceiver

import "sync/atomic"

// Status is the state of the request/response cycle
type Status uint32

const (
	NotInitialized Status = iota
	Ready
	Delay
	RequestSending
	ResponseWaiting
	ResponseReady
	ResponseInvalid
)

func (s Status) String() string {
	switch s {
	case NotInitialized:
		return "NotInitialized"
	case Ready:
		return "Ready"
	case Delay:
		return "Delay"
	case RequestSending:
		return "RequestSending"
	case ResponseWaiting:
		return "ResponseWaiting"
	case ResponseReady:
		return "ResponseReady"
	case ResponseInvalid:
		return "ResponseInvalid"
	default:
		return "Unknown"
	}
}

// AtomicStatus is shared between the reader goroutine and the tick
// goroutine
type AtomicStatus struct {
	state atomic.Uint32
}

func (st *AtomicStatus) String() string {
	return st.Get().String()
}

// Get returns the current status.
func (st *AtomicStatus) Get() Status {
	return Status(st.state.Load())
}

// Set sets the status unconditionally.
func (st *AtomicStatus) Set(s Status) {
	st.state.Store(uint32(s))
}

func (st *AtomicStatus) Is(s Status) bool {
	return st.Get() == s
}

// Transition moves from one status to another and reports whether the
// status was still from.
func (st *AtomicStatus) Transition(from, to Status) bool {
	return st.state.CompareAndSwap(uint32(from), uint32(to))
}
