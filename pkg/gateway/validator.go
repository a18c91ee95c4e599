// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package gateway

import (
	"fmt"

	"github.com/Thermoquad/boilerstat/pkg/opentherm"
)

// AnomalyType classifies a packet that decoded but does not make sense
type AnomalyType int

const (
	AnomalyParseError AnomalyType = iota
	AnomalyUnknownType
	AnomalyMissingFrame
	AnomalyBadParity
	AnomalyWrongDirection
	AnomalyUnknownLineStatus
	AnomalyUnknownErrorCode
)

// ValidationError describes one anomaly in a packet
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidatePacket checks a decoded packet against the message definitions.
// An empty result means the packet is well formed.
func ValidatePacket(p *Packet) []ValidationError {
	if err := p.ParseError(); err != nil {
		return []ValidationError{{
			Type:    AnomalyParseError,
			Message: fmt.Sprintf("CBOR parse error: %v", err),
		}}
	}

	switch p.Type() {
	case MsgFrameRequest:
		return validateFrame(p, false)
	case MsgFrameResponse:
		errs := validateFrame(p, true)
		if s := p.LineStatus(); s > LineNoResponse {
			errs = append(errs, ValidationError{
				Type:    AnomalyUnknownLineStatus,
				Message: fmt.Sprintf("Unknown line status %d", s),
				Details: map[string]interface{}{"line_status": uint8(s)},
			})
		}
		return errs
	case MsgError:
		code, ok := p.ErrorCode()
		if !ok || code < ErrorBusy || code > ErrorLineFault {
			return []ValidationError{{
				Type:    AnomalyUnknownErrorCode,
				Message: fmt.Sprintf("Unknown error code %d", code),
				Details: map[string]interface{}{"code": uint8(code)},
			}}
		}
		return nil
	default:
		return []ValidationError{{
			Type:    AnomalyUnknownType,
			Message: fmt.Sprintf("Unknown message type 0x%02X", p.Type()),
			Details: map[string]interface{}{"msg_type": p.Type()},
		}}
	}
}

// validateFrame checks the embedded OpenTherm frame. Requests must carry a
// master message type and responses a slave one. A response the adapter
// marked as NO_RESPONSE carries no frame to check.
func validateFrame(p *Packet, response bool) []ValidationError {
	if response && p.LineStatus() == LineNoResponse {
		return nil
	}

	f, ok := p.Frame()
	if !ok {
		return []ValidationError{{
			Type:    AnomalyMissingFrame,
			Message: "Packet carries no OpenTherm frame",
		}}
	}

	var errs []ValidationError
	if !f.HasValidParity() && !(response && p.LineStatus() == LineParityError) {
		errs = append(errs, ValidationError{
			Type:    AnomalyBadParity,
			Message: fmt.Sprintf("Frame 0x%08X has bad parity", uint32(f)),
			Details: map[string]interface{}{"frame": uint32(f)},
		})
	}

	fromSlave := f.Type() >= opentherm.ReadAck
	if fromSlave != response {
		errs = append(errs, ValidationError{
			Type:    AnomalyWrongDirection,
			Message: fmt.Sprintf("%s frame in %s", f.Type(), FormatMessageType(p.Type())),
			Details: map[string]interface{}{"frame_type": uint8(f.Type())},
		})
	}
	return errs
}
