// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package gateway implements the serial link protocol spoken between
// boilerstat and an OpenTherm gateway adapter.
//
// The adapter owns the physical OpenTherm line (Manchester encoding, bit
// timing, the edge interrupt). boilerstat hands it whole 32-bit frames and
// receives whole frames back. Each link packet is framed with START/END
// bytes, byte-stuffed, and protected by CRC-16-CCITT:
//
//	START | stuff(length | cbor([msg_type, payload_map]) | crc_hi | crc_lo) | END
package gateway

// Protocol framing bytes
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// Packet size limits
const (
	MaxPacketSize  = 64 // length + payload + crc, before stuffing
	MaxPayloadSize = 61
)

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Message types
const (
	MsgFrameRequest  = 0x10 // host -> adapter, {0: frame}
	MsgFrameResponse = 0x30 // adapter -> host, {0: frame, 1: line status}
	MsgError         = 0xE0 // adapter -> host, {0: error code}
)

// Payload map keys
const (
	KeyFrame      = 0
	KeyLineStatus = 1
	KeyErrorCode  = 0
)

// LineStatus is the adapter's verdict on the bits it sampled from the line
type LineStatus uint8

// Line status values
const (
	LineOK          LineStatus = 0x00
	LineParityError LineStatus = 0x01
	LineNoResponse  LineStatus = 0x02
)

// ErrorCode values carried by MsgError
type ErrorCode uint8

// Error code values
const (
	ErrorBusy       ErrorCode = 0x01 // a request is already on the line
	ErrorInvalidCmd ErrorCode = 0x02
	ErrorLineFault  ErrorCode = 0x03 // line stuck high or low
)

// Decoder states (internal)
const (
	stateIdle = iota
	stateLength
	statePayload
	stateCRC1
	stateCRC2
	stateEnd
)
