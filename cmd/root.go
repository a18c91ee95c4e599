// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/boilerstat/pkg/config"
	"github.com/Thermoquad/boilerstat/pkg/logger"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Configuration and logging flags
	configPath string
	logLevel   string
	logFormat  string
)

// settings is the merged result of the config file and the flags
var settings config.Config

var rootCmd = &cobra.Command{
	Use:   "boilerstat",
	Short: "OpenTherm master for boiler gateway adapters",
	Long: `Boilerstat - An OpenTherm master that talks to a boiler through a gateway adapter.

Polls the boiler with a configurable schedule of OpenTherm requests, writes
heating setpoints, and publishes every decoded value as telemetry (log, MQTT,
or the monitor TUI).

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Settings are read from --config (TOML, see "boilerstat config") and may be
overridden by flags. For WebSocket authentication, the password is read from
the BOILERSTAT_PASSWORD environment variable, or prompted interactively if
not set. The --password flag is intentionally not provided to avoid leaking
credentials in shell history.`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Configuration and logging flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console, json)")
}

// loadSettings reads the config file, applies flag overrides, and installs
// the default logger
func loadSettings(cmd *cobra.Command, args []string) error {
	settings = config.Default()
	if configPath != "" {
		cfg, err := config.Load(configPath, logger.Default())
		if err != nil {
			return err
		}
		settings = cfg
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		settings.Connection.Port = portName
		settings.Connection.URL = ""
	}
	if flags.Changed("baud") {
		settings.Connection.Baud = baudRate
	}
	if flags.Changed("url") {
		settings.Connection.URL = wsURL
		settings.Connection.Port = ""
	}
	if flags.Changed("username") {
		settings.Connection.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		settings.Connection.NoSSLVerify = wsNoSSLVerify
	}
	if logLevel != "" {
		settings.Log.Level = logLevel
	}
	if logFormat != "" {
		settings.Log.Format = logFormat
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	log, err := newLogger(settings.Log, os.Stderr)
	if err != nil {
		return err
	}
	logger.SetDefault(log)
	return nil
}

func newLogger(c config.Log, out io.Writer) (logger.Logger, error) {
	level, err := logger.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return logger.NewSlog(logger.Options{
		Level:  level,
		Format: logger.Format(c.Format),
		Output: out,
	}), nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
