// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import (
	"fmt"
	"strings"
)

// FormatFrame formats a frame into a single human-readable line
func FormatFrame(f Frame) string {
	parity := "ok"
	if !f.HasValidParity() {
		parity = "BAD"
	}
	return fmt.Sprintf("0x%08X %s %s (%d) data=0x%04X parity=%s",
		uint32(f), f.Type(), f.ID(), uint8(f.ID()), f.Data(), parity)
}

// DescribeFrame returns a multi-line dump of every field and every value
// interpretation of a frame
func DescribeFrame(f Frame) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Frame:    0x%08X\n", uint32(f))
	fmt.Fprintf(&b, "  Parity: %v (valid=%v)\n", DecodeFlag(f, parityBit), f.HasValidParity())
	fmt.Fprintf(&b, "  Type:   %s (%d)\n", f.Type(), uint8(f.Type()))
	fmt.Fprintf(&b, "  ID:     %s (%d)\n", f.ID(), uint8(f.ID()))
	fmt.Fprintf(&b, "  Data:   0x%04X\n", f.Data())
	fmt.Fprintf(&b, "    f8.8: %.3f\n", DecodeFixedPoint(f))
	fmt.Fprintf(&b, "    u16:  %d\n", DecodeUint16(f))
	fmt.Fprintf(&b, "    s16:  %d\n", DecodeSigned16(f))
	fmt.Fprintf(&b, "    s8/s8: %d / %d\n", DecodeHighByteSigned(f), DecodeLowByteSigned(f))
	fmt.Fprintf(&b, "    flags: %08b %08b\n", uint8(f.Data()>>8), uint8(f.Data()))

	if f.ID() == Status {
		b.WriteString(formatStatusFlags(f))
	}

	return b.String()
}

// formatStatusFlags lists the master and slave status flags of a Status frame
func formatStatusFlags(f Frame) string {
	master := []struct {
		bit  uint
		name string
	}{
		{8, "ch_enable"},
		{9, "dhw_enable"},
		{10, "cooling_enable"},
		{11, "otc_active"},
		{12, "ch2_enable"},
	}
	slave := []struct {
		bit  uint
		name string
	}{
		{SlaveFault, "fault"},
		{SlaveCHActive, "ch_active"},
		{SlaveDHWActive, "dhw_active"},
		{SlaveFlameOn, "flame_on"},
		{SlaveCooling, "cooling_active"},
		{SlaveCH2Active, "ch2_active"},
		{SlaveDiagnostic, "diagnostic"},
	}

	var b strings.Builder
	b.WriteString("  Master status:")
	for _, fl := range master {
		fmt.Fprintf(&b, " %s=%v", fl.name, DecodeFlag(f, fl.bit))
	}
	b.WriteString("\n  Slave status:")
	for _, fl := range slave {
		fmt.Fprintf(&b, " %s=%v", fl.name, DecodeFlag(f, fl.bit))
	}
	b.WriteString("\n")
	return b.String()
}
