// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/boilerstat/pkg/hub"
	"github.com/Thermoquad/boilerstat/pkg/logger"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
	"github.com/Thermoquad/boilerstat/pkg/transceiver"
)

var (
	probeID      string
	probeTimeout int
	probeSet     float64
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Send a single OpenTherm request and print the response",
	Long: `Send one OpenTherm request through the gateway adapter and wait for the
boiler's response.

The request is built the same way the run command builds it: Status carries
the master flags from the configuration, TSet and TsetCH2 write the configured
setpoint (or --set), and every other supported id is a read.

Exit codes:
  0 - Valid response received
  1 - Timeout or invalid response
  2 - Connection error

Useful for checking the wiring to a boiler before starting a session.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVar(&probeID, "id", "Status", "Message id to request (name or number)")
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 5, "Timeout in seconds to wait for a response")
	probeCmd.Flags().Float64Var(&probeSet, "set", 0, "Setpoint to write for TSet/TsetCH2 (overrides the config)")
}

var errProbeTimeout = errors.New("no response before timeout")

// probeResult is the outcome of a single request
type probeResult struct {
	request  opentherm.Frame
	response opentherm.Frame
	status   opentherm.ResponseStatus
}

// probe sends request on xcvr and drives Process until the response handler
// fires or ctx is done
func probe(ctx context.Context, xcvr transceiver.Transceiver, request opentherm.Frame, tick time.Duration) (probeResult, error) {
	result := probeResult{request: request}
	done := make(chan struct{})

	handler := func(f opentherm.Frame, status opentherm.ResponseStatus) {
		result.response = f
		result.status = status
		close(done)
	}
	if err := xcvr.Begin(handler); err != nil {
		return result, err
	}
	defer xcvr.End()

	if !xcvr.SendRequestAsync(request) {
		return result, fmt.Errorf("failed to send %s", opentherm.FormatFrame(request))
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return result, errProbeTimeout
		case <-ticker.C:
			xcvr.Process()
			select {
			case <-done:
				return result, nil
			default:
			}
		}
	}
}

// probeRequest builds the request frame for id from the current settings
func probeRequest(id opentherm.MessageID, override *float64) (opentherm.Frame, error) {
	hubCfg, err := settings.SessionConfig()
	if err != nil {
		return 0, err
	}

	ch := hub.NewInput("t_set")
	ch2 := hub.NewInput("t_set_ch2")
	if settings.Hub.TSet != nil {
		ch.Set(*settings.Hub.TSet)
	}
	if settings.Hub.TSetCH2 != nil {
		ch2.Set(*settings.Hub.TSetCH2)
	}
	if override != nil {
		ch.Set(*override)
		ch2.Set(*override)
	}

	b := hub.NewBuilder(hubCfg.Flags, hub.SetpointTable{
		opentherm.TSet:    hub.NewInputChain(ch),
		opentherm.TsetCH2: hub.NewInputChain(ch2),
	})
	return b.Build(id)
}

func runProbe(cmd *cobra.Command, args []string) error {
	id, err := opentherm.ParseMessageID(probeID)
	if err != nil {
		return err
	}
	var override *float64
	if cmd.Flags().Changed("set") {
		override = &probeSet
	}
	request, err := probeRequest(id, override)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(probeTimeout)*time.Second)
	defer cancel()

	conn, connInfo, err := OpenConnection(ctx, settings.Connection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Boilerstat - Probe\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	fmt.Printf("Request: %s\n\n", opentherm.FormatFrame(request))

	gw := transceiver.NewGateway(conn, logger.Default().With("component", "transceiver"),
		transceiver.WithResponseTimeout(settings.Hub.ResponseTimeout.Duration),
		transceiver.WithInterFrameDelay(settings.Hub.InterFrameDelay.Duration),
	)

	result, err := probe(ctx, gw, request, settings.Hub.TickInterval.Duration)
	switch {
	case errors.Is(err, errProbeTimeout):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No response within %d seconds\n", probeTimeout)
		os.Exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	switch result.status {
	case opentherm.StatusSuccess:
		fmt.Printf("SUCCESS: %s\n", opentherm.FormatFrame(result.response))
		fmt.Print(opentherm.DescribeFrame(result.response))
		os.Exit(0)
	case opentherm.StatusTimeout:
		fmt.Fprintf(os.Stderr, "TIMEOUT: Boiler did not answer within %s\n", settings.Hub.ResponseTimeout.Duration)
	default:
		fmt.Fprintf(os.Stderr, "INVALID: %s\n", opentherm.FormatFrame(result.response))
		fmt.Fprint(os.Stderr, opentherm.DescribeFrame(result.response))
	}
	os.Exit(1)
	return nil
}
