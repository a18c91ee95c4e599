// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package gateway

import "github.com/Thermoquad/boilerstat/pkg/opentherm"

// NewFrameRequest creates a FRAME_REQUEST packet (0x10).
// The adapter puts the frame on the OpenTherm line and answers with a
// FRAME_RESPONSE once the slave replies or the line times out.
func NewFrameRequest(f opentherm.Frame) *Packet {
	return NewPacketWithPayload(MsgFrameRequest, map[int]interface{}{
		KeyFrame: uint64(f),
	})
}

// NewFrameResponse creates a FRAME_RESPONSE packet (0x30).
// Used by tests and adapter simulators.
func NewFrameResponse(f opentherm.Frame, status LineStatus) *Packet {
	return NewPacketWithPayload(MsgFrameResponse, map[int]interface{}{
		KeyFrame:      uint64(f),
		KeyLineStatus: uint64(status),
	})
}

// NewErrorPacket creates an ERROR packet (0xE0)
func NewErrorPacket(code ErrorCode) *Packet {
	return NewPacketWithPayload(MsgError, map[int]interface{}{
		KeyErrorCode: uint64(code),
	})
}
