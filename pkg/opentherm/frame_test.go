// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import (
	"math"
	"strings"
	"testing"
)

// ============================================================
// Frame Construction Tests
// ============================================================

func TestBuildFrame_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		msgType  MessageType
		id       MessageID
		data     uint16
		expected Frame
	}{
		{
			name:     "status request CH and DHW enabled",
			msgType:  ReadData,
			id:       Status,
			data:     StatusRequestData(true, true, false, false, false),
			expected: 0x00000300,
		},
		{
			name:     "write TSet 64.0 sets parity",
			msgType:  WriteData,
			id:       TSet,
			data:     EncodeFixedPoint(64.0),
			expected: 0x90014000,
		},
		{
			name:     "write TSet 45.0",
			msgType:  WriteData,
			id:       TSet,
			data:     EncodeFixedPoint(45.0),
			expected: 0x10012D00,
		},
		{
			name:     "read Tboiler sets parity",
			msgType:  ReadData,
			id:       Tboiler,
			data:     0,
			expected: 0x80190000,
		},
		{
			name:     "read ack max id",
			msgType:  ReadAck,
			id:       MessageID(0xFF),
			data:     0xFFFF,
			expected: 0xC0FFFFFF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := BuildFrame(tt.msgType, tt.id, tt.data)
			if f != tt.expected {
				t.Errorf("BuildFrame = 0x%08X, want 0x%08X", uint32(f), uint32(tt.expected))
			}
			if !f.HasValidParity() {
				t.Errorf("frame 0x%08X has invalid parity", uint32(f))
			}
			if f.Type() != tt.msgType {
				t.Errorf("Type() = %v, want %v", f.Type(), tt.msgType)
			}
			if f.ID() != tt.id {
				t.Errorf("ID() = %v, want %v", f.ID(), tt.id)
			}
			if f.Data() != tt.data {
				t.Errorf("Data() = 0x%04X, want 0x%04X", f.Data(), tt.data)
			}
		})
	}
}

func TestIsValidResponse(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  bool
	}{
		{"read ack", BuildFrame(ReadAck, Tboiler, 0x2D00), true},
		{"write ack", BuildFrame(WriteAck, TSet, 0x2D00), true},
		{"data invalid", BuildFrame(DataInvalid, Tboiler, 0), false},
		{"unknown data id", BuildFrame(UnknownDataID, Tboiler, 0), false},
		{"read data is a request", BuildFrame(ReadData, Tboiler, 0), false},
		{"parity flipped", BuildFrame(ReadAck, Tboiler, 0x2D00) ^ (1 << 31), false},
		{"payload bit flipped", BuildFrame(ReadAck, Tboiler, 0x2D00) ^ 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.IsValidResponse(); got != tt.want {
				t.Errorf("IsValidResponse(0x%08X) = %v, want %v", uint32(tt.frame), got, tt.want)
			}
		})
	}
}

// ============================================================
// Codec Tests
// ============================================================

func TestDecodeFixedPoint(t *testing.T) {
	tests := []struct {
		data uint16
		want float64
	}{
		{0x0000, 0},
		{0x2D00, 45.0},
		{0x2D80, 45.5},
		{0x0001, 1.0 / 256},
		{0xFF00, -1.0},
		{0xFFFF, -1.0 / 256},
		{0x8000, -128.0},
		{0x7FFF, 127.99609375},
	}

	for _, tt := range tests {
		f := BuildFrame(ReadAck, Tboiler, tt.data)
		if got := DecodeFixedPoint(f); got != tt.want {
			t.Errorf("DecodeFixedPoint(0x%04X) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestFixedPoint_RoundTripAllValues(t *testing.T) {
	for v := math.MinInt16; v <= math.MaxInt16; v++ {
		want := float64(v) / 256
		f := BuildFrame(ReadAck, Tboiler, EncodeFixedPoint(want))
		got := DecodeFixedPoint(f)
		if math.Abs(got-want) >= 1.0/256 {
			t.Fatalf("round trip of %v gave %v", want, got)
		}
	}
}

func TestEncodeFixedPoint_Truncates(t *testing.T) {
	tests := []struct {
		in   float64
		want uint16
	}{
		{45.0, 0x2D00},
		{45.5, 0x2D80},
		{45.001, 0x2D00},
		{-1.0, 0xFF00},
		{0, 0},
	}

	for _, tt := range tests {
		if got := EncodeFixedPoint(tt.in); got != tt.want {
			t.Errorf("EncodeFixedPoint(%v) = 0x%04X, want 0x%04X", tt.in, got, tt.want)
		}
	}
}

func TestDecodeSigned16(t *testing.T) {
	tests := []struct {
		data uint16
		want int16
	}{
		{0x0000, 0},
		{0x00C8, 200},
		{0xFFFF, -1},
		{0xFFD8, -40},
		{0x8000, math.MinInt16},
	}

	for _, tt := range tests {
		f := BuildFrame(ReadAck, Texhaust, tt.data)
		if got := DecodeSigned16(f); got != tt.want {
			t.Errorf("DecodeSigned16(0x%04X) = %d, want %d", tt.data, got, tt.want)
		}
	}
}

func TestDecodeUint16(t *testing.T) {
	f := BuildFrame(ReadAck, BurnerStarts, 0xFFFE)
	if got := DecodeUint16(f); got != 0xFFFE {
		t.Errorf("DecodeUint16 = %d, want %d", got, 0xFFFE)
	}
}

func TestDecodeByteSigned(t *testing.T) {
	// upper bound 80, lower bound -10
	f := BuildFrame(ReadAck, MaxTSetUBMaxTSetLB, uint16(80)<<8|uint16(uint8(0xF6)))

	if got := DecodeHighByteSigned(f); got != 80 {
		t.Errorf("DecodeHighByteSigned = %d, want 80", got)
	}
	if got := DecodeLowByteSigned(f); got != -10 {
		t.Errorf("DecodeLowByteSigned = %d, want -10", got)
	}
}

func TestDecodeByteSigned_Independent(t *testing.T) {
	for hi := 0; hi < 256; hi++ {
		for lo := 0; lo < 256; lo += 17 {
			data := uint16(hi)<<8 | uint16(lo)
			f := BuildFrame(ReadAck, TdhwSetUBTdhwSetLB, data)
			// flip everything outside the data value
			g := f ^ 0xFFFF0000

			if DecodeHighByteSigned(f) != int8(uint8(hi)) || DecodeHighByteSigned(g) != int8(uint8(hi)) {
				t.Fatalf("high byte of 0x%04X decoded wrong", data)
			}
			if DecodeLowByteSigned(f) != int8(uint8(lo)) || DecodeLowByteSigned(g) != int8(uint8(lo)) {
				t.Fatalf("low byte of 0x%04X decoded wrong", data)
			}
		}
	}
}

func TestDecodeFlag(t *testing.T) {
	f := Frame(0x80000021)

	if !DecodeFlag(f, 0) {
		t.Error("bit 0 should be set")
	}
	if DecodeFlag(f, 1) {
		t.Error("bit 1 should be clear")
	}
	if !DecodeFlag(f, 5) {
		t.Error("bit 5 should be set")
	}
	if !DecodeFlag(f, 31) {
		t.Error("bit 31 should be set")
	}
	if DecodeFlag(f, 32) {
		t.Error("bit 32 is outside the frame")
	}
}

func TestStatusRequestData(t *testing.T) {
	tests := []struct {
		name                    string
		ch, dhw, cool, otc, ch2 bool
		want                    uint16
	}{
		{"none", false, false, false, false, false, 0x0000},
		{"ch only", true, false, false, false, false, 0x0100},
		{"dhw only", false, true, false, false, false, 0x0200},
		{"cooling only", false, false, true, false, false, 0x0400},
		{"otc only", false, false, false, true, false, 0x0800},
		{"ch2 only", false, false, false, false, true, 0x1000},
		{"all", true, true, true, true, true, 0x1F00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusRequestData(tt.ch, tt.dhw, tt.cool, tt.otc, tt.ch2)
			if got != tt.want {
				t.Errorf("StatusRequestData = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}

// ============================================================
// Naming Tests
// ============================================================

func TestParseMessageID(t *testing.T) {
	tests := []struct {
		in      string
		want    MessageID
		wantErr bool
	}{
		{"Status", Status, false},
		{"tset", TSet, false},
		{"  BurnerStarts ", BurnerStarts, false},
		{"25", Tboiler, false},
		{"0x39", MaxTSet, false},
		{"", 0, true},
		{"NoSuchThing", 0, true},
		{"256", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMessageID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessageID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMessageID(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMessageIDString(t *testing.T) {
	if Tboiler.String() != "Tboiler" {
		t.Errorf("Tboiler.String() = %q", Tboiler.String())
	}
	if MessageID(200).String() != "ID200" {
		t.Errorf("MessageID(200).String() = %q", MessageID(200).String())
	}
}

func TestFormatFrame(t *testing.T) {
	out := FormatFrame(BuildFrame(ReadAck, Tboiler, 0x2D00))
	for _, want := range []string{"READ_ACK", "Tboiler", "data=0x2D00", "parity=ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatFrame output %q missing %q", out, want)
		}
	}

	out = FormatFrame(BuildFrame(ReadAck, Tboiler, 0x2D00) ^ 1)
	if !strings.Contains(out, "parity=BAD") {
		t.Errorf("FormatFrame output %q should flag bad parity", out)
	}
}

func TestDescribeFrame_Status(t *testing.T) {
	f := BuildFrame(ReadAck, Status, 0x0300|1<<SlaveFlameOn)
	out := DescribeFrame(f)
	for _, want := range []string{"ch_enable=true", "dhw_enable=true", "flame_on=true", "fault=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("DescribeFrame output missing %q:\n%s", want, out)
		}
	}
}
