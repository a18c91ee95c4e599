// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package gateway

import (
	"fmt"

	"github.com/Thermoquad/boilerstat/pkg/opentherm"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	timestamp := p.Timestamp().Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n", timestamp, FormatMessageType(p.Type()), p.Type(), p.Length())

	if err := p.ParseError(); err != nil {
		return result + fmt.Sprintf("  Parse error: %v\n", err)
	}

	switch p.Type() {
	case MsgFrameRequest:
		if f, ok := p.Frame(); ok {
			result += fmt.Sprintf("  Frame: %s\n", opentherm.FormatFrame(f))
		}
	case MsgFrameResponse:
		if f, ok := p.Frame(); ok {
			result += fmt.Sprintf("  Frame: %s\n", opentherm.FormatFrame(f))
		}
		result += fmt.Sprintf("  Line: %s\n", FormatLineStatus(p.LineStatus()))
	case MsgError:
		if code, ok := p.ErrorCode(); ok {
			result += fmt.Sprintf("  Error: %s (%d)\n", FormatErrorCode(code), code)
		}
	}

	return result
}

// FormatMessageType returns the human-readable name for a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgFrameRequest:
		return "FRAME_REQUEST"
	case MsgFrameResponse:
		return "FRAME_RESPONSE"
	case MsgError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FormatLineStatus returns the human-readable name for a line status
func FormatLineStatus(s LineStatus) string {
	switch s {
	case LineOK:
		return "OK"
	case LineParityError:
		return "PARITY_ERROR"
	case LineNoResponse:
		return "NO_RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// FormatErrorCode returns the human-readable name for an adapter error code
func FormatErrorCode(c ErrorCode) string {
	switch c {
	case ErrorBusy:
		return "BUSY"
	case ErrorInvalidCmd:
		return "INVALID_CMD"
	case ErrorLineFault:
		return "LINE_FAULT"
	default:
		return "UNKNOWN"
	}
}
