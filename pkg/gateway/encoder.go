// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package gateway

import (
	"errors"
	"fmt"
)

// EncodePacket creates a complete wire-formatted link packet.
// Returns the packet bytes ready for transmission, including framing and byte stuffing.
func EncodePacket(msgType uint8, payloadMap map[int]interface{}) ([]byte, error) {
	cborPayload, err := encodeCBORPayload(msgType, payloadMap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR payload: %w", err)
	}

	if len(cborPayload) > MaxPayloadSize {
		return nil, fmt.Errorf("CBOR payload too large: %d bytes (max %d)", len(cborPayload), MaxPayloadSize)
	}

	// length byte + payload, then CRC over both (big-endian)
	data := make([]byte, 0, 1+len(cborPayload)+2)
	data = append(data, uint8(len(cborPayload)))
	data = append(data, cborPayload...)
	crc := CalculateCRC(data)
	data = append(data, byte(crc>>8), byte(crc))

	stuffed := stuffBytes(data)

	packet := make([]byte, 0, len(stuffed)+2)
	packet = append(packet, StartByte)
	packet = append(packet, stuffed...)
	packet = append(packet, EndByte)

	return packet, nil
}

// MustEncodePacket encodes an existing Packet back to wire format.
// Panics on encoding error; use EncodePacket for error handling.
func MustEncodePacket(p *Packet) []byte {
	data, err := EncodePacket(p.Type(), p.PayloadMap())
	if err != nil {
		panic(fmt.Sprintf("gateway: encode error: %v", err))
	}
	return data
}

// DecodePacket decodes one complete wire-formatted packet
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) == 0 {
		return nil, errors.New("empty packet")
	}
	d := NewDecoder()
	for _, b := range data {
		p, err := d.DecodeByte(b)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return nil, errors.New("incomplete packet")
}

// stuffBytes applies byte stuffing to escape special bytes.
// Special bytes (START, END, ESC) are replaced with ESC + (byte XOR EscXor).
func stuffBytes(data []byte) []byte {
	result := make([]byte, 0, len(data)*2)
	for _, b := range data {
		if b == StartByte || b == EndByte || b == EscByte {
			result = append(result, EscByte, b^EscXor)
		} else {
			result = append(result, b)
		}
	}
	return result
}

// UnstuffBytes removes byte stuffing from escaped data.
// This is the inverse of stuffBytes.
func UnstuffBytes(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data))
	escapeNext := false

	for _, b := range data {
		switch {
		case escapeNext:
			result = append(result, b^EscXor)
			escapeNext = false
		case b == EscByte:
			escapeNext = true
		default:
			result = append(result, b)
		}
	}

	if escapeNext {
		return nil, errors.New("incomplete escape sequence at end of data")
	}
	return result, nil
}
