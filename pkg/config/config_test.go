// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/boilerstat/pkg/logger"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
	"github.com/Thermoquad/boilerstat/pkg/telemetry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boilerstat.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[connection]
url = "ws://gateway.local/ws"

[hub]
response_timeout = "800ms"
initial_requests = ["SConfigSMemberIDcode", "0x03"]
repeating_requests = ["Status", "tset", "25"]
t_set = 62.5
cooling_enable = true

[log]
level = "debug"
`)

	cfg, err := Load(path, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "ws://gateway.local/ws", cfg.Connection.URL)
	assert.Equal(t, 115200, cfg.Connection.Baud, "default kept")
	assert.Equal(t, 800*time.Millisecond, cfg.Hub.ResponseTimeout.Duration)
	assert.Equal(t, 100*time.Millisecond, cfg.Hub.InterFrameDelay.Duration)
	require.NotNil(t, cfg.Hub.TSet)
	assert.Equal(t, 62.5, *cfg.Hub.TSet)
	assert.Nil(t, cfg.Hub.TSetCH2)
	assert.True(t, cfg.Hub.CHEnable)
	assert.True(t, cfg.Hub.CoolingEnable)

	sc, err := cfg.SessionConfig()
	require.NoError(t, err)
	assert.Equal(t, []opentherm.MessageID{opentherm.SConfigSMemberIDcode, opentherm.SConfigSMemberIDcode}, sc.InitialRequests)
	assert.Equal(t, []opentherm.MessageID{opentherm.Status, opentherm.TSet, opentherm.Tboiler}, sc.RepeatingRequests)
	assert.True(t, sc.Flags.CoolingEnable)
	assert.Equal(t, 4, sc.InPin)
}

func TestLoad_WarnsOnUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[hub]
tick_interval = "20ms"
tick_intervall = "20ms"
`)

	log := logger.NewMockLogger()
	log.On("Warn", "unknown config key", mock.MatchedBy(func(kv []any) bool {
		return len(kv) >= 2 && kv[1] == "hub.tick_intervall"
	})).Once()

	cfg, err := Load(path, log)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, cfg.Hub.TickInterval.Duration)
	log.AssertExpectations(t)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), logger.NewNop())
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `[hub]
inter_frame_delay = "soon"
`), logger.NewNop())
	assert.Error(t, err)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Connection.Port = "/dev/ttyUSB0"
	cfg.Connection.URL = "ws://x"
	cfg.Hub.TickInterval.Duration = 0
	cfg.Hub.InitialRequests = []string{"NoSuchThing"}
	cfg.Hub.RepeatingRequests = []string{"Command"}
	cfg.Hub.Sensors = []string{"t_boiler", "t_nowhere"}
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"mutually exclusive",
		"tick_interval",
		"NoSuchThing",
		"Command cannot be requested",
		"t_nowhere",
		"xml",
	} {
		assert.Contains(t, err.Error(), want)
	}

	_, err = cfg.SessionConfig()
	assert.Error(t, err)
}

func TestSessionConfig_DerivesRepeatingFromSensors(t *testing.T) {
	cfg := Default()
	cfg.Hub.Sensors = []string{"t_boiler", "max_t_set_ub"}
	cfg.Hub.BinarySensors = []string{"flame_on"}
	v := 50.0
	cfg.Hub.TSet = &v

	sc, err := cfg.SessionConfig()
	require.NoError(t, err)
	assert.Equal(t, []opentherm.MessageID{
		opentherm.Status, opentherm.Tboiler, opentherm.MaxTSetUBMaxTSetLB, opentherm.TSet,
	}, sc.RepeatingRequests)
	assert.Equal(t, []telemetry.SensorKind{telemetry.TBoiler, telemetry.MaxTSetUB}, sc.Sensors)
}

func TestSessionConfig_SchedulesSetpointOfEnabledCircuits(t *testing.T) {
	sc, err := Default().SessionConfig()
	require.NoError(t, err)
	assert.Contains(t, sc.RepeatingRequests, opentherm.TSet)
	assert.NotContains(t, sc.RepeatingRequests, opentherm.TsetCH2)

	cfg := Default()
	cfg.Hub.CHEnable = false
	cfg.Hub.CH2Active = true
	sc, err = cfg.SessionConfig()
	require.NoError(t, err)
	assert.NotContains(t, sc.RepeatingRequests, opentherm.TSet)
	assert.Contains(t, sc.RepeatingRequests, opentherm.TsetCH2)

	// an explicit list is taken as is
	cfg = Default()
	cfg.Hub.RepeatingRequests = []string{"Status"}
	sc, err = cfg.SessionConfig()
	require.NoError(t, err)
	assert.Equal(t, []opentherm.MessageID{opentherm.Status}, sc.RepeatingRequests)
}

func TestSensorKinds_EmptyEnablesAll(t *testing.T) {
	kinds, err := Default().SensorKinds()
	require.NoError(t, err)
	assert.Len(t, kinds, len(telemetry.SensorKinds()))

	binary, err := Default().BinarySensorKinds()
	require.NoError(t, err)
	assert.Len(t, binary, len(telemetry.BinarySensorKinds()))
}

func TestExample_RoundTrips(t *testing.T) {
	out, err := Example()
	require.NoError(t, err)
	assert.Contains(t, out, "[connection]")
	assert.Contains(t, out, `response_timeout = "1s"`)

	var cfg Config
	_, err = toml.Decode(out, &cfg)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/dev/ttyUSB0", cfg.Connection.Port)
	require.NotNil(t, cfg.Hub.TSet)
	assert.Equal(t, 55.0, *cfg.Hub.TSet)
}

func TestMQTTOptions(t *testing.T) {
	cfg := Default()
	cfg.MQTT.Broker = "tcp://broker:1883"
	opts := cfg.MQTTOptions()
	assert.Equal(t, "tcp://broker:1883", opts.Broker)
	assert.Equal(t, "boilerstat", opts.TopicPrefix)
}
