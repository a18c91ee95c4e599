// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package gateway

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Thermoquad/boilerstat/pkg/opentherm"
	"github.com/fxamacker/cbor/v2"
)

// ============================================================
// CRC Tests
// ============================================================

func TestCalculateCRC_Empty(t *testing.T) {
	crc := CalculateCRC([]byte{})
	if crc != crcInitial {
		t.Errorf("CRC of empty data should be initial value, got 0x%04X", crc)
	}
}

func TestCalculateCRC_CheckValue(t *testing.T) {
	// Standard CRC-16-CCITT (FALSE) check value
	crc := CalculateCRC([]byte("123456789"))
	if crc != 0x29B1 {
		t.Errorf("CRC mismatch: expected 0x29B1, got 0x%04X", crc)
	}
}

// ============================================================
// CBOR Parsing Tests
// ============================================================

func TestParseCBORMessage_Empty(t *testing.T) {
	if _, _, err := ParseCBORMessage([]byte{}); err == nil {
		t.Error("Expected error for empty CBOR payload")
	}
}

func TestParseCBORMessage_FrameResponse(t *testing.T) {
	data, err := cbor.Marshal([]interface{}{uint64(MsgFrameResponse), map[int]interface{}{
		KeyFrame:      uint64(0xC0192D00),
		KeyLineStatus: uint64(LineOK),
	}})
	if err != nil {
		t.Fatal(err)
	}

	msgType, payload, err := ParseCBORMessage(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if msgType != MsgFrameResponse {
		t.Errorf("Expected MsgFrameResponse (0x30), got 0x%02X", msgType)
	}
	frame, ok := GetMapUint(payload, KeyFrame)
	if !ok || frame != 0xC0192D00 {
		t.Errorf("frame = 0x%X, %v; want 0xC0192D00, true", frame, ok)
	}
}

func TestParseCBORMessage_WrongShape(t *testing.T) {
	tests := []struct {
		name string
		msg  interface{}
	}{
		{"not an array", map[int]int{1: 2}},
		{"three elements", []interface{}{uint64(1), nil, nil}},
		{"string type", []interface{}{"x", nil}},
		{"type out of range", []interface{}{uint64(300), nil}},
		{"payload not a map", []interface{}{uint64(1), "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := cbor.Marshal(tt.msg)
			if err != nil {
				t.Fatal(err)
			}
			if _, _, err := ParseCBORMessage(data); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestGetMapUint(t *testing.T) {
	m := map[int]interface{}{0: uint64(42), 1: int64(7), 2: int64(-1), 3: "x"}

	if v, ok := GetMapUint(m, 0); !ok || v != 42 {
		t.Errorf("GetMapUint(0) = %d, %v; want 42, true", v, ok)
	}
	if v, ok := GetMapUint(m, 1); !ok || v != 7 {
		t.Errorf("GetMapUint(1) = %d, %v; want 7, true", v, ok)
	}
	if _, ok := GetMapUint(m, 2); ok {
		t.Error("GetMapUint(2) should reject negative values")
	}
	if _, ok := GetMapUint(m, 3); ok {
		t.Error("GetMapUint(3) should reject strings")
	}
	if _, ok := GetMapUint(nil, 0); ok {
		t.Error("GetMapUint(nil, 0) should return false for nil map")
	}
}

// ============================================================
// Encoder / Decoder Tests
// ============================================================

func TestEncodePacket_RoundTrip(t *testing.T) {
	frames := []opentherm.Frame{
		opentherm.BuildFrame(opentherm.ReadData, opentherm.Status, 0x0300),
		opentherm.BuildFrame(opentherm.WriteData, opentherm.TSet, 0x4000),
		opentherm.Frame(0x7E7F7D00), // every special byte in the frame
		opentherm.Frame(0xFFFFFFFF),
	}

	for _, f := range frames {
		wire := MustEncodePacket(NewFrameRequest(f))
		p, err := DecodePacket(wire)
		if err != nil {
			t.Fatalf("DecodePacket(0x%08X) failed: %v", uint32(f), err)
		}
		if p.Type() != MsgFrameRequest {
			t.Errorf("Type() = 0x%02X, want 0x%02X", p.Type(), MsgFrameRequest)
		}
		got, ok := p.Frame()
		if !ok || got != f {
			t.Errorf("Frame() = 0x%08X, %v; want 0x%08X", uint32(got), ok, uint32(f))
		}
	}
}

func TestEncodePacket_FramingBytesOnlyAtEnds(t *testing.T) {
	wire := MustEncodePacket(NewFrameRequest(opentherm.Frame(0x7E7F7D7E)))

	if wire[0] != StartByte || wire[len(wire)-1] != EndByte {
		t.Fatalf("packet not framed: % X", wire)
	}
	inner := wire[1 : len(wire)-1]
	if bytes.IndexByte(inner, StartByte) >= 0 || bytes.IndexByte(inner, EndByte) >= 0 {
		t.Errorf("unescaped framing byte inside packet: % X", wire)
	}
}

func TestFrameResponse_LineStatus(t *testing.T) {
	f := opentherm.BuildFrame(opentherm.ReadAck, opentherm.Tboiler, 0x2D00)
	p, err := DecodePacket(MustEncodePacket(NewFrameResponse(f, LineParityError)))
	if err != nil {
		t.Fatal(err)
	}
	if p.LineStatus() != LineParityError {
		t.Errorf("LineStatus() = %d, want %d", p.LineStatus(), LineParityError)
	}
}

func TestErrorPacket(t *testing.T) {
	p, err := DecodePacket(MustEncodePacket(NewErrorPacket(ErrorBusy)))
	if err != nil {
		t.Fatal(err)
	}
	code, ok := p.ErrorCode()
	if !ok || code != ErrorBusy {
		t.Errorf("ErrorCode() = %d, %v; want %d, true", code, ok, ErrorBusy)
	}
}

func TestDecodePacket_Empty(t *testing.T) {
	if _, err := DecodePacket(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestDecodePacket_Incomplete(t *testing.T) {
	wire := MustEncodePacket(NewFrameRequest(0x12345678))
	if _, err := DecodePacket(wire[:len(wire)-1]); err == nil {
		t.Error("expected error for truncated packet")
	}
}

func TestDecoder_CRCMismatch(t *testing.T) {
	wire := MustEncodePacket(NewFrameRequest(0x00190000))
	// wire[2] is the CBOR array header (0x82), flipping bit 0 keeps it unescaped
	wire[2] ^= 0x01

	_, err := DecodePacket(wire)
	if !errors.Is(err, ErrCRCMismatch) {
		t.Errorf("expected ErrCRCMismatch, got %v", err)
	}
}

func TestDecoder_InvalidLength(t *testing.T) {
	d := NewDecoder()
	d.DecodeByte(StartByte)
	if _, err := d.DecodeByte(MaxPayloadSize + 1); err == nil {
		t.Error("expected error for oversize length")
	}
}

func TestDecoder_StartByteResynchronises(t *testing.T) {
	good := MustEncodePacket(NewFrameRequest(0x00190000))

	// a truncated packet followed by a full one
	stream := append([]byte{StartByte, 0x05, 0x82}, good...)

	d := NewDecoder()
	var got *Packet
	for _, b := range stream {
		p, err := d.DecodeByte(b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != nil {
			got = p
		}
	}
	if got == nil {
		t.Fatal("decoder did not recover on START byte")
	}
	if f, _ := got.Frame(); f != 0x00190000 {
		t.Errorf("Frame() = 0x%08X, want 0x00190000", uint32(f))
	}
}

func TestDecoder_NoiseBetweenPackets(t *testing.T) {
	d := NewDecoder()
	for _, b := range []byte{0x00, 0x55, EndByte, 0xAA, EscByte} {
		p, err := d.DecodeByte(b)
		if p != nil || err != nil {
			t.Fatalf("noise byte 0x%02X produced (%v, %v)", b, p, err)
		}
	}
	if len(d.GetRawBytes()) != 0 {
		t.Errorf("idle decoder kept %d raw bytes", len(d.GetRawBytes()))
	}
}

func TestDecoder_Reset(t *testing.T) {
	d := NewDecoder()
	d.DecodeByte(StartByte)
	d.DecodeByte(0x05)
	d.Reset()

	if d.state != stateIdle || len(d.buffer) != 0 || d.packet != nil || d.escapeNext {
		t.Error("Reset did not clear decoder state")
	}
}

// ============================================================
// Stuffing Tests
// ============================================================

func TestStuffUnstuffRoundTrip(t *testing.T) {
	data := []byte{0x00, StartByte, 0x01, EndByte, EscByte, EscByte, 0xFF}
	stuffed := stuffBytes(data)
	if len(stuffed) != len(data)+4 {
		t.Errorf("stuffed length = %d, want %d", len(stuffed), len(data)+4)
	}
	back, err := UnstuffBytes(stuffed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back, data) {
		t.Errorf("round trip = % X, want % X", back, data)
	}
}

func TestUnstuffBytes_IncompleteEscape(t *testing.T) {
	if _, err := UnstuffBytes([]byte{0x01, EscByte}); err == nil {
		t.Error("expected error for trailing escape")
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatPacket(t *testing.T) {
	f := opentherm.BuildFrame(opentherm.ReadAck, opentherm.Tboiler, 0x2D00)
	p, err := DecodePacket(MustEncodePacket(NewFrameResponse(f, LineOK)))
	if err != nil {
		t.Fatal(err)
	}

	out := FormatPacket(p)
	for _, want := range []string{"FRAME_RESPONSE", "Tboiler", "Line: OK"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatPacket output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatMessageType(t *testing.T) {
	tests := map[uint8]string{
		MsgFrameRequest:  "FRAME_REQUEST",
		MsgFrameResponse: "FRAME_RESPONSE",
		MsgError:         "ERROR",
		0x99:             "UNKNOWN",
	}
	for msgType, want := range tests {
		if got := FormatMessageType(msgType); got != want {
			t.Errorf("FormatMessageType(0x%02X) = %q, want %q", msgType, got, want)
		}
	}
}

func TestDecoder_InPacket(t *testing.T) {
	d := NewDecoder()
	if d.InPacket() {
		t.Error("new decoder should be idle")
	}

	wire := MustEncodePacket(NewFrameRequest(0x00190000))
	d.DecodeByte(wire[0])
	if !d.InPacket() {
		t.Error("decoder should be collecting after START")
	}

	var packet *Packet
	for _, b := range wire[1:] {
		p, err := d.DecodeByte(b)
		if err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if p != nil {
			packet = p
		}
	}
	if packet == nil {
		t.Fatal("expected a packet")
	}
	if d.InPacket() {
		t.Error("decoder should be idle after END")
	}
}
