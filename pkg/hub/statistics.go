// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hub

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/boilerstat/pkg/opentherm"
)

// Statistics counts request outcomes. Counters are written by the tick
// goroutine and may be read from any goroutine.
type Statistics struct {
	startTime atomic.Int64

	requestsSent  atomic.Uint64
	sendFailures  atomic.Uint64
	buildFailures atomic.Uint64
	responsesOK   atomic.Uint64
	invalid       atomic.Uint64
	timeouts      atomic.Uint64
	unexpected    atomic.Uint64

	lastRequest  atomic.Uint32
	lastResponse atomic.Uint32
	lastStatus   atomic.Uint32
}

// StatsSnapshot is a point-in-time copy of Statistics
type StatsSnapshot struct {
	Elapsed time.Duration

	RequestsSent  uint64
	SendFailures  uint64
	BuildFailures uint64
	ResponsesOK   uint64
	Invalid       uint64
	Timeouts      uint64
	Unexpected    uint64

	LastRequest  opentherm.Frame
	LastResponse opentherm.Frame
	LastStatus   opentherm.ResponseStatus

	// Rates (calculated)
	RequestRate float64 // requests/sec
	ErrorRate   float64 // errors/sec
}

func NewStatistics() *Statistics {
	s := &Statistics{}
	s.startTime.Store(time.Now().UnixNano())
	return s
}

func (s *Statistics) recordSent(f opentherm.Frame) {
	s.requestsSent.Add(1)
	s.lastRequest.Store(uint32(f))
}

func (s *Statistics) recordResponse(f opentherm.Frame, status opentherm.ResponseStatus) {
	s.lastResponse.Store(uint32(f))
	s.lastStatus.Store(uint32(status))
}

// Snapshot copies the counters and calculates rates up to now
func (s *Statistics) Snapshot(now time.Time) StatsSnapshot {
	snap := StatsSnapshot{
		Elapsed:       now.Sub(time.Unix(0, s.startTime.Load())),
		RequestsSent:  s.requestsSent.Load(),
		SendFailures:  s.sendFailures.Load(),
		BuildFailures: s.buildFailures.Load(),
		ResponsesOK:   s.responsesOK.Load(),
		Invalid:       s.invalid.Load(),
		Timeouts:      s.timeouts.Load(),
		Unexpected:    s.unexpected.Load(),
		LastRequest:   opentherm.Frame(s.lastRequest.Load()),
		LastResponse:  opentherm.Frame(s.lastResponse.Load()),
		LastStatus:    opentherm.ResponseStatus(s.lastStatus.Load()),
	}

	if elapsed := snap.Elapsed.Seconds(); elapsed > 0 {
		snap.RequestRate = float64(snap.RequestsSent) / elapsed
		snap.ErrorRate = float64(snap.Errors()) / elapsed
	}
	return snap
}

// Errors is the number of requests that did not yield a usable response
func (s StatsSnapshot) Errors() uint64 {
	return s.SendFailures + s.BuildFailures + s.Invalid + s.Timeouts + s.Unexpected
}

// Reset zeroes all counters and restarts the rate window
func (s *Statistics) Reset() {
	s.startTime.Store(time.Now().UnixNano())
	s.requestsSent.Store(0)
	s.sendFailures.Store(0)
	s.buildFailures.Store(0)
	s.responsesOK.Store(0)
	s.invalid.Store(0)
	s.timeouts.Store(0)
	s.unexpected.Store(0)
}

// String returns a formatted statistics summary
func (s StatsSnapshot) String() string {
	percent := func(n uint64) float64 {
		if s.RequestsSent == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.RequestsSent)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", s.Elapsed.Seconds())
	fmt.Fprintf(&b, "Requests Sent:   %8d\n", s.RequestsSent)
	fmt.Fprintf(&b, "Responses OK:    %8d (%.1f%%)\n", s.ResponsesOK, percent(s.ResponsesOK))
	if s.Invalid > 0 {
		fmt.Fprintf(&b, "Invalid:         %8d (%.1f%%)\n", s.Invalid, percent(s.Invalid))
	}
	if s.Timeouts > 0 {
		fmt.Fprintf(&b, "Timeouts:        %8d (%.1f%%)\n", s.Timeouts, percent(s.Timeouts))
	}
	if s.Unexpected > 0 {
		fmt.Fprintf(&b, "Unexpected IDs:  %8d\n", s.Unexpected)
	}
	if s.BuildFailures > 0 {
		fmt.Fprintf(&b, "Build Failures:  %8d\n", s.BuildFailures)
	}
	if s.SendFailures > 0 {
		fmt.Fprintf(&b, "Send Failures:   %8d\n", s.SendFailures)
	}
	fmt.Fprintf(&b, "Request Rate:    %8.1f req/sec\n", s.RequestRate)
	fmt.Fprintf(&b, "Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	b.WriteString("================================\n")
	return b.String()
}
