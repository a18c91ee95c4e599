// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LinkStatistics tracks packet statistics and error rates on the adapter
// link. It is not safe for concurrent use.
type LinkStatistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalPackets  uint64
	ValidPackets  uint64
	CRCErrors     uint64
	DecodeErrors  uint64
	Anomalies     uint64
	BadParity     uint64
	ParityErrors  uint64 // reported by the adapter
	NoResponses   uint64 // reported by the adapter
	AdapterErrors uint64

	// Rates (calculated)
	PacketRate float64 // packets/sec
	ErrorRate  float64 // errors/sec
}

func NewLinkStatistics() *LinkStatistics {
	now := time.Now()
	return &LinkStatistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update counts one decoder result
func (s *LinkStatistics) Update(packet *Packet, decodeErr error, validationErrors []ValidationError) {
	s.TotalPackets++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		if errors.Is(decodeErr, ErrCRCMismatch) {
			s.CRCErrors++
		} else {
			s.DecodeErrors++
		}
		return
	}

	for _, v := range validationErrors {
		s.Anomalies++
		if v.Type == AnomalyBadParity {
			s.BadParity++
		}
	}
	if len(validationErrors) == 0 {
		s.ValidPackets++
	}

	switch packet.Type() {
	case MsgFrameResponse:
		switch packet.LineStatus() {
		case LineParityError:
			s.ParityErrors++
		case LineNoResponse:
			s.NoResponses++
		}
	case MsgError:
		s.AdapterErrors++
	}
}

// CalculateRates calculates packet and error rates
func (s *LinkStatistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.PacketRate = float64(s.TotalPackets) / elapsed
		s.ErrorRate = float64(s.CRCErrors+s.DecodeErrors+s.Anomalies) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *LinkStatistics) String() string {
	s.CalculateRates()

	percent := func(n uint64) float64 {
		if s.TotalPackets == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalPackets)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Link Statistics (%.0f seconds) ===\n", time.Since(s.StartTime).Seconds())
	fmt.Fprintf(&b, "Total Packets:   %8d\n", s.TotalPackets)
	fmt.Fprintf(&b, "Valid Packets:   %8d (%.1f%%)\n", s.ValidPackets, percent(s.ValidPackets))
	if s.CRCErrors > 0 {
		fmt.Fprintf(&b, "CRC Errors:      %8d (%.1f%%)\n", s.CRCErrors, percent(s.CRCErrors))
	}
	if s.DecodeErrors > 0 {
		fmt.Fprintf(&b, "Decode Errors:   %8d (%.1f%%)\n", s.DecodeErrors, percent(s.DecodeErrors))
	}
	if s.Anomalies > 0 {
		fmt.Fprintf(&b, "Anomalies:       %8d (%.1f%%)\n", s.Anomalies, percent(s.Anomalies))
		if s.BadParity > 0 {
			fmt.Fprintf(&b, "  Bad Parity:       %5d\n", s.BadParity)
		}
	}
	if s.ParityErrors > 0 {
		fmt.Fprintf(&b, "Line Parity Errs:%8d\n", s.ParityErrors)
	}
	if s.NoResponses > 0 {
		fmt.Fprintf(&b, "No Response:     %8d\n", s.NoResponses)
	}
	if s.AdapterErrors > 0 {
		fmt.Fprintf(&b, "Adapter Errors:  %8d\n", s.AdapterErrors)
	}
	fmt.Fprintf(&b, "Packet Rate:     %8.1f pkts/sec\n", s.PacketRate)
	fmt.Fprintf(&b, "Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	b.WriteString("=====================================\n")
	return b.String()
}

// Reset resets all statistics counters
func (s *LinkStatistics) Reset() {
	*s = *NewLinkStatistics()
}
