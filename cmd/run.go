// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/boilerstat/pkg/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the OpenTherm master session",
	Long: `Run the OpenTherm master session until interrupted.

Sends the initial requests once, then cycles the repeating requests, one
request per free slot on the line. Every decoded response is published to
the enabled sensors: the log at debug level, and MQTT when [mqtt] broker is
configured.

The connection to the gateway adapter is re-opened with exponential backoff
when it drops.

Supports both serial and WebSocket connections.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logger.Default()

	s, err := newSession(settings, log)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = s.run(ctx)

	if stats, ok := s.stats(); ok {
		fmt.Fprint(os.Stderr, stats.String())
	}
	return err
}
