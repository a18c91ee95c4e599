// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the boilerstat TOML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Thermoquad/boilerstat/pkg/hub"
	"github.com/Thermoquad/boilerstat/pkg/logger"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
	"github.com/Thermoquad/boilerstat/pkg/telemetry"
	"github.com/Thermoquad/boilerstat/pkg/transceiver"
)

// Duration is a time.Duration written as a Go duration string ("100ms")
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Connection struct {
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
}

// Pins are the adapter's OpenTherm GPIOs, reported at startup
type Pins struct {
	In  int `toml:"in"`
	Out int `toml:"out"`
}

type Hub struct {
	TickInterval      Duration `toml:"tick_interval"`
	ResponseTimeout   Duration `toml:"response_timeout"`
	InterFrameDelay   Duration `toml:"inter_frame_delay"`
	InitialRequests   []string `toml:"initial_requests"`
	RepeatingRequests []string `toml:"repeating_requests"`

	CHEnable      bool `toml:"ch_enable"`
	DHWEnable     bool `toml:"dhw_enable"`
	CoolingEnable bool `toml:"cooling_enable"`
	OTCActive     bool `toml:"otc_active"`
	CH2Active     bool `toml:"ch2_active"`

	TSet    *float64 `toml:"t_set"`
	TSetCH2 *float64 `toml:"t_set_ch2"`

	Sensors       []string `toml:"sensors"`
	BinarySensors []string `toml:"binary_sensors"`
}

type MQTT struct {
	Broker      string `toml:"broker"`
	ClientID    string `toml:"client_id"`
	TopicPrefix string `toml:"topic_prefix"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the whole configuration file
type Config struct {
	Connection Connection `toml:"connection"`
	Pins       Pins       `toml:"pins"`
	Hub        Hub        `toml:"hub"`
	MQTT       MQTT       `toml:"mqtt"`
	Log        Log        `toml:"log"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Connection: Connection{Baud: 115200},
		Pins:       Pins{In: 4, Out: 5},
		Hub: Hub{
			TickInterval:    Duration{hub.DefaultTickInterval},
			ResponseTimeout: Duration{transceiver.DefaultResponseTimeout},
			InterFrameDelay: Duration{transceiver.DefaultInterFrameDelay},
			CHEnable:        true,
			DHWEnable:       true,
		},
		MQTT: MQTT{ClientID: "boilerstat", TopicPrefix: "boilerstat"},
		Log:  Log{Level: "info", Format: string(logger.FormatConsole)},
	}
}

// Load reads path over the defaults. Keys the file sets that boilerstat
// does not know are logged as warnings.
func Load(path string, log logger.Logger) (Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	for _, key := range meta.Undecoded() {
		log.Warn("unknown config key", "key", key.String(), "file", path)
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once
func (c Config) Validate() error {
	var errs []error

	if c.Connection.Port != "" && c.Connection.URL != "" {
		errs = append(errs, errors.New("connection: port and url are mutually exclusive"))
	}
	if c.Connection.Baud <= 0 {
		errs = append(errs, fmt.Errorf("connection: invalid baud %d", c.Connection.Baud))
	}

	for name, d := range map[string]Duration{
		"tick_interval":     c.Hub.TickInterval,
		"response_timeout":  c.Hub.ResponseTimeout,
		"inter_frame_delay": c.Hub.InterFrameDelay,
	} {
		if d.Duration <= 0 {
			errs = append(errs, fmt.Errorf("hub: %s must be positive", name))
		}
	}

	if _, err := parseRequests("initial_requests", c.Hub.InitialRequests); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseRequests("repeating_requests", c.Hub.RepeatingRequests); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SensorKinds(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.BinarySensorKinds(); err != nil {
		errs = append(errs, err)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	switch logger.Format(c.Log.Format) {
	case logger.FormatJSON, logger.FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func parseRequests(field string, names []string) ([]opentherm.MessageID, error) {
	ids := make([]opentherm.MessageID, 0, len(names))
	var errs []error
	for _, name := range names {
		id, err := opentherm.ParseMessageID(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("hub: %s: %w", field, err))
			continue
		}
		if !hub.Supports(id) {
			errs = append(errs, fmt.Errorf("hub: %s: %s cannot be requested", field, id))
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// SensorKinds returns the enabled numeric kinds. An empty list enables all.
func (c Config) SensorKinds() ([]telemetry.SensorKind, error) {
	if len(c.Hub.Sensors) == 0 {
		return telemetry.SensorKinds(), nil
	}
	kinds := make([]telemetry.SensorKind, 0, len(c.Hub.Sensors))
	var errs []error
	for _, name := range c.Hub.Sensors {
		k, err := telemetry.ParseSensorKind(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("hub: sensors: %w", err))
			continue
		}
		kinds = append(kinds, k)
	}
	return kinds, errors.Join(errs...)
}

// BinarySensorKinds returns the enabled boolean kinds. An empty list
// enables all.
func (c Config) BinarySensorKinds() ([]telemetry.BinarySensorKind, error) {
	if len(c.Hub.BinarySensors) == 0 {
		return telemetry.BinarySensorKinds(), nil
	}
	kinds := make([]telemetry.BinarySensorKind, 0, len(c.Hub.BinarySensors))
	var errs []error
	for _, name := range c.Hub.BinarySensors {
		k, err := telemetry.ParseBinarySensorKind(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("hub: binary_sensors: %w", err))
			continue
		}
		kinds = append(kinds, k)
	}
	return kinds, errors.Join(errs...)
}

// SessionConfig converts the [hub] and [pins] sections. When no repeating
// requests are listed they are derived from the enabled sensors, plus the
// setpoint write of each enabled or configured heating circuit.
func (c Config) SessionConfig() (hub.Config, error) {
	if err := c.Validate(); err != nil {
		return hub.Config{}, err
	}

	initial, _ := parseRequests("initial_requests", c.Hub.InitialRequests)
	repeating, _ := parseRequests("repeating_requests", c.Hub.RepeatingRequests)
	sensors, _ := c.SensorKinds()
	binarySensors, _ := c.BinarySensorKinds()

	if len(repeating) == 0 {
		repeating = hub.RequestsFor(sensors, binarySensors)
		if c.Hub.TSet != nil || c.Hub.CHEnable {
			repeating = append(repeating, opentherm.TSet)
		}
		if c.Hub.TSetCH2 != nil || c.Hub.CH2Active {
			repeating = append(repeating, opentherm.TsetCH2)
		}
	}

	return hub.Config{
		InitialRequests:   initial,
		RepeatingRequests: repeating,
		Flags: hub.MasterFlags{
			CHEnable:      c.Hub.CHEnable,
			DHWEnable:     c.Hub.DHWEnable,
			CoolingEnable: c.Hub.CoolingEnable,
			OTCActive:     c.Hub.OTCActive,
			CH2Active:     c.Hub.CH2Active,
		},
		Sensors:       sensors,
		BinarySensors: binarySensors,
		InPin:         c.Pins.In,
		OutPin:        c.Pins.Out,
	}, nil
}

// MQTTOptions converts the [mqtt] section
func (c Config) MQTTOptions() telemetry.MQTTOptions {
	return telemetry.MQTTOptions{
		Broker:      c.MQTT.Broker,
		ClientID:    c.MQTT.ClientID,
		TopicPrefix: c.MQTT.TopicPrefix,
		Username:    c.MQTT.Username,
		Password:    c.MQTT.Password,
	}
}

// Example renders an example configuration file
func Example() (string, error) {
	cfg := Default()
	cfg.Connection.Port = "/dev/ttyUSB0"
	cfg.Hub.InitialRequests = []string{"SConfigSMemberIDcode", "RBPflags", "MaxTSetUBMaxTSetLB"}
	cfg.Hub.RepeatingRequests = []string{"Status", "TSet", "Tboiler", "Tret", "RelModLevel", "Toutside"}
	tset := 55.0
	cfg.Hub.TSet = &tset
	cfg.MQTT.Broker = "tcp://localhost:1883"

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("encode example config: %w", err)
	}
	return buf.String(), nil
}
