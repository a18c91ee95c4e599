// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package gateway

import (
	"errors"
	"fmt"
	"time"
)

// ErrCRCMismatch is returned by the decoder when a packet fails its checksum
var ErrCRCMismatch = errors.New("CRC mismatch")

// Decoder implements the link packet decoder state machine.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	state      int
	buffer     []byte // unstuffed length + payload, for CRC
	escapeNext bool
	packet     *Packet
	rawBuffer  []byte // Accumulate raw bytes including framing
}

// NewDecoder creates a new link decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:     stateIdle,
		buffer:    make([]byte, 0, MaxPacketSize),
		rawBuffer: make([]byte, 0, MaxPacketSize*2),
	}
}

// Reset resets the decoder state to idle
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.buffer = d.buffer[:0]
	d.escapeNext = false
	d.packet = nil
	d.rawBuffer = d.rawBuffer[:0]
}

// GetRawBytes returns the accumulated raw bytes of the packet in progress
func (d *Decoder) GetRawBytes() []byte {
	return d.rawBuffer
}

// InPacket reports whether the decoder has seen a START byte and is
// collecting a packet
func (d *Decoder) InPacket() bool {
	return d.state != stateIdle
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed packet, or nil if the packet is incomplete.
// Returns an error if decoding fails; the decoder is then reset.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	// Framing bytes are never escaped, so they always resynchronise
	switch b {
	case StartByte:
		d.Reset()
		d.rawBuffer = append(d.rawBuffer, b)
		d.state = stateLength
		return nil, nil

	case EndByte:
		if d.state == stateIdle {
			return nil, nil
		}
		state := d.state
		packet := d.packet
		data := d.buffer
		if state != stateEnd {
			d.Reset()
			return nil, fmt.Errorf("unexpected END byte in state %d", state)
		}

		calculated := CalculateCRC(data)
		d.Reset()
		if packet.crc != calculated {
			return nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrCRCMismatch, calculated, packet.crc)
		}
		packet.timestamp = time.Now()
		return packet, nil
	}

	if d.state == stateIdle {
		// Line noise between packets
		return nil, nil
	}

	d.rawBuffer = append(d.rawBuffer, b)

	if b == EscByte {
		if d.escapeNext {
			d.Reset()
			return nil, errors.New("double escape byte")
		}
		d.escapeNext = true
		return nil, nil
	}
	if d.escapeNext {
		b ^= EscXor
		d.escapeNext = false
	}

	switch d.state {
	case stateLength:
		if b > MaxPayloadSize {
			d.Reset()
			return nil, fmt.Errorf("invalid length: %d (max %d)", b, MaxPayloadSize)
		}
		d.packet = &Packet{length: b, cborPayload: make([]byte, 0, b)}
		d.buffer = append(d.buffer, b)
		if b == 0 {
			d.state = stateCRC1
		} else {
			d.state = statePayload
		}
		return nil, nil

	case statePayload:
		d.packet.cborPayload = append(d.packet.cborPayload, b)
		d.buffer = append(d.buffer, b)
		if len(d.packet.cborPayload) >= int(d.packet.length) {
			d.state = stateCRC1
		}
		return nil, nil

	case stateCRC1:
		d.packet.crc = uint16(b) << 8
		d.state = stateCRC2
		return nil, nil

	case stateCRC2:
		d.packet.crc |= uint16(b)
		d.state = stateEnd
		return nil, nil

	case stateEnd:
		d.Reset()
		return nil, fmt.Errorf("expected END byte, got 0x%02X", b)

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}
