// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/boilerstat/pkg/config"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
)

var configCheck bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print an example configuration or check the current one",
	Long: `Print an example TOML configuration file to stdout.

With --check, load the file given by --config, apply the flag overrides, and
print the effective session: connection, request lists, master flags and the
enabled sensors. Every problem in the file is reported at once.`,
	Args: cobra.NoArgs,
	// Printing the example must work with a broken config file
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configCheck, "check", false, "Validate the configuration and print the effective session")
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !configCheck {
		example, err := config.Example()
		if err != nil {
			return err
		}
		fmt.Fprint(out, example)
		return nil
	}

	if err := loadSettings(cmd, args); err != nil {
		return err
	}
	return printSession(out, settings)
}

// printSession prints the hub configuration derived from cfg
func printSession(out io.Writer, cfg config.Config) error {
	hubCfg, err := cfg.SessionConfig()
	if err != nil {
		return err
	}

	conn := "none"
	switch {
	case cfg.Connection.URL != "":
		conn = cfg.Connection.URL
	case cfg.Connection.Port != "":
		conn = fmt.Sprintf("%s @ %d baud", cfg.Connection.Port, cfg.Connection.Baud)
	}

	fmt.Fprintf(out, "Connection:         %s\n", conn)
	fmt.Fprintf(out, "Pins:               in=%d out=%d\n", hubCfg.InPin, hubCfg.OutPin)
	fmt.Fprintf(out, "Initial requests:   %s\n", formatIDs(hubCfg.InitialRequests))
	fmt.Fprintf(out, "Repeating requests: %s\n", formatIDs(hubCfg.RepeatingRequests))
	fmt.Fprintf(out, "Master flags:       ch=%v dhw=%v cooling=%v otc=%v ch2=%v\n",
		hubCfg.Flags.CHEnable, hubCfg.Flags.DHWEnable, hubCfg.Flags.CoolingEnable,
		hubCfg.Flags.OTCActive, hubCfg.Flags.CH2Active)
	fmt.Fprintf(out, "Sensors:            %d\n", len(hubCfg.Sensors))
	fmt.Fprintf(out, "Binary sensors:     %d\n", len(hubCfg.BinarySensors))
	if cfg.MQTT.Broker != "" {
		fmt.Fprintf(out, "MQTT:               %s (prefix %s)\n", cfg.MQTT.Broker, cfg.MQTT.TopicPrefix)
	}
	return nil
}

func formatIDs(ids []opentherm.MessageID) string {
	if len(ids) == 0 {
		return "-"
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ", ")
}
