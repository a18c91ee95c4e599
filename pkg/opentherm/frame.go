// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import "math/bits"

// Frame is a single 32-bit OpenTherm message
type Frame uint32

// BuildFrame assembles a frame from its fields and sets the parity bit so the
// total number of set bits is even
func BuildFrame(msgType MessageType, id MessageID, data uint16) Frame {
	f := Frame(uint32(data) | uint32(id)<<idShift | uint32(msgType&typeMask)<<typeShift)
	if f.Parity() {
		f |= 1 << parityBit
	}
	return f
}

// Type returns the message type field
func (f Frame) Type() MessageType {
	return MessageType((uint32(f) >> typeShift) & typeMask)
}

// ID returns the data-id field
func (f Frame) ID() MessageID {
	return MessageID((uint32(f) >> idShift) & idMask)
}

// Data returns the 16-bit data value
func (f Frame) Data() uint16 {
	return uint16(uint32(f) & payloadMask)
}

// Parity reports whether the frame has an odd number of set bits
func (f Frame) Parity() bool {
	return bits.OnesCount32(uint32(f))%2 == 1
}

// HasValidParity reports whether the parity bit makes the bit count even
func (f Frame) HasValidParity() bool {
	return !f.Parity()
}

// IsValidResponse reports whether f is a well-formed acknowledgement from a
// slave: correct parity and a READ_ACK or WRITE_ACK message type
func (f Frame) IsValidResponse() bool {
	if !f.HasValidParity() {
		return false
	}
	t := f.Type()
	return t == ReadAck || t == WriteAck
}

// DecodeSigned16 returns the data value as a raw two's complement integer
func DecodeSigned16(f Frame) int16 {
	return int16(f.Data())
}

// DecodeFixedPoint returns the data value as signed f8.8 fixed point
func DecodeFixedPoint(f Frame) float64 {
	return float64(int16(f.Data())) / 256
}

// DecodeHighByteSigned returns the high byte of the data value as signed
func DecodeHighByteSigned(f Frame) int8 {
	return int8(uint8(f.Data() >> 8))
}

// DecodeLowByteSigned returns the low byte of the data value as signed
func DecodeLowByteSigned(f Frame) int8 {
	return int8(uint8(f.Data()))
}

// DecodeUint16 returns the data value as an unsigned counter
func DecodeUint16(f Frame) uint16 {
	return f.Data()
}

// DecodeFlag tests a single bit anywhere in the 32-bit word. Bits past 31
// are never set.
func DecodeFlag(f Frame, bit uint) bool {
	if bit > 31 {
		return false
	}
	return uint32(f)&(1<<bit) != 0
}

// EncodeFixedPoint converts v to f8.8 fixed point, truncating toward zero.
// The range is not validated; values outside [-128, 128) wrap.
func EncodeFixedPoint(v float64) uint16 {
	return uint16(int32(v * 256))
}

// StatusRequestData packs the master status flags into the high byte of a
// Status request data value
func StatusRequestData(chEnable, dhwEnable, coolingEnable, otcActive, ch2Active bool) uint16 {
	var flags uint16
	if chEnable {
		flags |= MasterCHEnable
	}
	if dhwEnable {
		flags |= MasterDHWEnable
	}
	if coolingEnable {
		flags |= MasterCoolingEnable
	}
	if otcActive {
		flags |= MasterOTCActive
	}
	if ch2Active {
		flags |= MasterCH2Enable
	}
	return flags << 8
}
