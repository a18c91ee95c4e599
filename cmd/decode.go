// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/boilerstat/pkg/gateway"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
)

var decodeLink bool

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>...",
	Short: "Decode OpenTherm frames or adapter packets given in hex",
	Long: `Decode one or more 32-bit OpenTherm frames given in hex (with or without
0x prefix) and print every field and every interpretation of the data value.

With --link, the arguments are the raw bytes of gateway adapter packets
instead. Spaces and colons between bytes are ignored. Every complete packet
in the byte stream is decoded, validated and printed.

Does not need a connection.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVar(&decodeLink, "link", false, "Decode adapter packet bytes instead of frames")
}

func runDecode(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if decodeLink {
		return decodeLinkBytes(out, strings.Join(args, ""))
	}
	for _, arg := range args {
		f, err := parseFrame(arg)
		if err != nil {
			return err
		}
		fmt.Fprint(out, opentherm.DescribeFrame(f))
	}
	return nil
}

// parseFrame parses a 32-bit frame in hex
func parseFrame(s string) (opentherm.Frame, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid frame %q: want up to 8 hex digits", s)
	}
	return opentherm.Frame(v), nil
}

// decodeLinkBytes decodes every packet found in a hex byte string
func decodeLinkBytes(out io.Writer, s string) error {
	s = strings.NewReplacer(" ", "", ":", "", "0x", "", "0X", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid packet bytes: %w", err)
	}

	decoder := gateway.NewDecoder()
	found := 0
	for _, b := range data {
		packet, err := decoder.DecodeByte(b)
		if err != nil {
			fmt.Fprintf(out, "Decode error: %v\n", err)
			continue
		}
		if packet == nil {
			continue
		}
		found++
		fmt.Fprint(out, gateway.FormatPacket(packet))
		for _, v := range gateway.ValidatePacket(packet) {
			fmt.Fprintf(out, "  Issue: %s\n", v.Message)
		}
		if f, ok := packet.Frame(); ok {
			fmt.Fprint(out, opentherm.DescribeFrame(f))
		}
	}
	if found == 0 {
		return fmt.Errorf("no complete packet in %d bytes", len(data))
	}
	return nil
}
