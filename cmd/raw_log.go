// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/boilerstat/pkg/gateway"
	"github.com/Thermoquad/boilerstat/pkg/logger"
)

var (
	errorsOnly    bool
	statsInterval int
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw adapter packet log in human-readable format",
	Long: `Continuously decode and display gateway adapter packets as they arrive.

Each packet is shown with timestamp, message type, the embedded OpenTherm
frame and the adapter's line status. Packets are validated as they arrive:
CRC errors, decode failures, frames with bad parity and frames travelling in
the wrong direction are highlighted.

Decode errors before the first valid packet are counted silently while the
decoder synchronises. Use --errors-only to hide well-formed packets and
--stats-interval to print periodic link statistics.

This command only listens. Run it against an adapter that is being driven by
another master, or a bridge that mirrors the line.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&errorsOnly, "errors-only", false, "Only show packets with errors")
	rawLogCmd.Flags().IntVar(&statsInterval, "stats-interval", 0, "Statistics interval in seconds (0 disables)")
}

// linkLog decodes the adapter byte stream and prints what it sees
type linkLog struct {
	out        io.Writer
	errorsOnly bool

	decoder      *gateway.Decoder
	stats        *gateway.LinkStatistics
	synchronized bool
	skipped      int
}

func newLinkLog(out io.Writer, errorsOnly bool) *linkLog {
	return &linkLog{
		out:        out,
		errorsOnly: errorsOnly,
		decoder:    gateway.NewDecoder(),
		stats:      gateway.NewLinkStatistics(),
	}
}

// feed processes a chunk of bytes read from the connection
func (l *linkLog) feed(data []byte) {
	for _, b := range data {
		noise := !l.decoder.InPacket() && b != gateway.StartByte
		packet, err := l.decoder.DecodeByte(b)
		if noise && !l.synchronized {
			l.skipped++
		}
		if err != nil {
			if !l.synchronized {
				l.skipped++
				continue
			}
			l.stats.Update(nil, err, nil)
			l.printDecodeError(err)
			continue
		}
		if packet == nil {
			continue
		}

		if !l.synchronized {
			l.synchronized = true
			if l.skipped > 0 {
				fmt.Fprintf(l.out, "[SYNC] Synchronized after skipping %d invalid bytes\n\n", l.skipped)
			} else {
				fmt.Fprintf(l.out, "[SYNC] Synchronized\n\n")
			}
		}

		validationErrors := gateway.ValidatePacket(packet)
		l.stats.Update(packet, nil, validationErrors)

		if len(validationErrors) > 0 {
			l.printValidationErrors(packet, validationErrors)
		} else if !l.errorsOnly {
			fmt.Fprint(l.out, gateway.FormatPacket(packet))
		}
	}
}

func (l *linkLog) printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	kind := "DECODE ERROR"
	if errors.Is(err, gateway.ErrCRCMismatch) {
		kind = "CRC ERROR"
	}
	fmt.Fprintf(l.out, "[%s] \033[1;31m%s:\033[0m %v\n", timestamp, kind, err)
	fmt.Fprintf(l.out, "  >>> DECODE FAILED <<<\n\n")
}

func (l *linkLog) printValidationErrors(packet *gateway.Packet, errs []gateway.ValidationError) {
	fmt.Fprint(l.out, gateway.FormatPacket(packet))
	for i, e := range errs {
		color := "1;33"
		if e.Type == gateway.AnomalyParseError || e.Type == gateway.AnomalyMissingFrame {
			color = "1;31"
		}
		fmt.Fprintf(l.out, "  Issue %d: \033[%sm%s\033[0m\n", i+1, color, e.Message)
	}
	fmt.Fprintf(l.out, "  >>> PACKET REJECTED <<<\n\n")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, connInfo, err := OpenConnection(ctx, settings.Connection)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Boilerstat - Raw Packet Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	if errorsOnly {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	l := newLinkLog(os.Stdout, errorsOnly)

	data := make(chan []byte, 10)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				readErr <- err
				return
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			data <- chunk
		}
	}()

	var statsTick <-chan time.Time
	if statsInterval > 0 {
		t := time.NewTicker(time.Duration(statsInterval) * time.Second)
		defer t.Stop()
		statsTick = t.C
	}

	for {
		select {
		case chunk := <-data:
			l.feed(chunk)
		case <-statsTick:
			fmt.Println()
			fmt.Print(l.stats.String())
			fmt.Println()
		case err := <-readErr:
			if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
				logger.Info("connection closed")
				fmt.Print(l.stats.String())
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		case <-ctx.Done():
			fmt.Println()
			fmt.Print(l.stats.String())
			return nil
		}
	}
}
