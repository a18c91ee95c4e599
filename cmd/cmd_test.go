// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"

	"github.com/Thermoquad/boilerstat/pkg/config"
	"github.com/Thermoquad/boilerstat/pkg/gateway"
	"github.com/Thermoquad/boilerstat/pkg/hub"
	"github.com/Thermoquad/boilerstat/pkg/logger"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
	"github.com/Thermoquad/boilerstat/pkg/transceiver"
)

// ============================================================
// Monitor helpers
// ============================================================

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "0s", formatAge(300*time.Millisecond))
	assert.Equal(t, "59s", formatAge(59*time.Second))
	assert.Equal(t, "stale", formatAge(time.Minute))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{2*time.Minute + 3*time.Second, "2m 3s"},
		{2*time.Hour + 5*time.Minute + 9*time.Second, "2h 5m"},
		{49 * time.Hour, "2d 1h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatElapsed(tt.d))
	}
}

func TestEventLogger_ForwardsWarningsAndErrors(t *testing.T) {
	events := make(chan eventLogEntry, 4)
	log := newEventLogger(logger.NewNop(), events).With("component", "hub")

	log.Info("ignored")
	log.Warn("response dropped", "id", "Tboiler")
	log.Error("failed")

	require.Len(t, events, 2)
	e := <-events
	assert.Equal(t, "response dropped id=Tboiler", e.message)
	assert.False(t, e.isError)
	e = <-events
	assert.True(t, e.isError)
}

func TestEventLogger_DropsWhenFull(t *testing.T) {
	events := make(chan eventLogEntry, 1)
	log := newEventLogger(logger.NewNop(), events)

	log.Warn("first")
	log.Warn("second")

	require.Len(t, events, 1)
	assert.Equal(t, "first", (<-events).message)
}

// ============================================================
// Raw log
// ============================================================

func TestLinkLog_SynchronizesAfterNoise(t *testing.T) {
	var out bytes.Buffer
	l := newLinkLog(&out, false)

	wire := gateway.MustEncodePacket(gateway.NewFrameRequest(opentherm.BuildFrame(opentherm.ReadData, opentherm.Tboiler, 0)))
	l.feed(append([]byte{0x01, 0x02, 0x03}, wire...))

	assert.Contains(t, out.String(), "[SYNC] Synchronized after skipping 3 invalid bytes")
	assert.Contains(t, out.String(), "FRAME_REQUEST")
	assert.Equal(t, uint64(1), l.stats.ValidPackets)
	assert.Zero(t, l.stats.DecodeErrors)
}

func TestLinkLog_CleanStartHasNothingToSkip(t *testing.T) {
	var out bytes.Buffer
	l := newLinkLog(&out, false)

	l.feed(gateway.MustEncodePacket(gateway.NewFrameRequest(0x00190000)))
	// noise after sync is not counted
	l.feed([]byte{0x01, 0x02})

	assert.Contains(t, out.String(), "[SYNC] Synchronized\n")
	assert.Zero(t, l.skipped)
}

func TestLinkLog_ErrorsOnly(t *testing.T) {
	var out bytes.Buffer
	l := newLinkLog(&out, true)

	ack := opentherm.BuildFrame(opentherm.ReadAck, opentherm.Tboiler, 0x2D00)
	l.feed(gateway.MustEncodePacket(gateway.NewFrameResponse(ack, gateway.LineOK)))
	assert.NotContains(t, out.String(), "FRAME_RESPONSE")

	l.feed(gateway.MustEncodePacket(gateway.NewFrameResponse(ack^1, gateway.LineOK)))
	assert.Contains(t, out.String(), "FRAME_RESPONSE")
	assert.Contains(t, out.String(), "bad parity")
	assert.Contains(t, out.String(), "PACKET REJECTED")
	assert.Equal(t, uint64(1), l.stats.Anomalies)
}

func TestLinkLog_CRCErrorAfterSync(t *testing.T) {
	var out bytes.Buffer
	l := newLinkLog(&out, true)

	good := gateway.MustEncodePacket(gateway.NewFrameRequest(0x00190000))
	bad := gateway.MustEncodePacket(gateway.NewFrameRequest(0x00190000))
	bad[2] ^= 0x01

	l.feed(good)
	l.feed(bad)

	assert.Contains(t, out.String(), "CRC ERROR")
	assert.Equal(t, uint64(1), l.stats.CRCErrors)
}

// ============================================================
// Monitor setpoint entry
// ============================================================

func TestMonitor_ApplySetpoint(t *testing.T) {
	s, err := newSession(config.Default(), logger.NewNop())
	require.NoError(t, err)
	require.True(t, s.schedules(opentherm.TSet))

	m := initialMonitorModel(s)
	m.setpoint.SetValue("45")
	m.applySetpoint()

	v, ok := s.chSetpoint.State()
	require.True(t, ok)
	assert.Equal(t, 45.0, v)
	require.Len(t, m.events, 1)
	assert.False(t, m.events[0].isError)
}

func TestMonitor_ApplySetpointRefusedWhenTSetNotScheduled(t *testing.T) {
	cfg := config.Default()
	cfg.Hub.RepeatingRequests = []string{"Status", "Tboiler"}
	s, err := newSession(cfg, logger.NewNop())
	require.NoError(t, err)

	m := initialMonitorModel(s)
	m.setpoint.SetValue("45")
	m.applySetpoint()

	_, ok := s.chSetpoint.State()
	assert.False(t, ok)
	require.Len(t, m.events, 1)
	assert.True(t, m.events[0].isError)
	assert.Contains(t, m.events[0].message, "repeating_requests")
}

// ============================================================
// Decode
// ============================================================

func TestParseFrame(t *testing.T) {
	for _, in := range []string{"0xC0192D00", "c0192d00", " 0XC0192D00 "} {
		f, err := parseFrame(in)
		require.NoError(t, err, in)
		assert.Equal(t, opentherm.Frame(0xC0192D00), f)
	}

	_, err := parseFrame("1C0192D00")
	assert.Error(t, err)
	_, err = parseFrame("zz")
	assert.Error(t, err)
}

func TestDecodeLinkBytes(t *testing.T) {
	ack := opentherm.BuildFrame(opentherm.ReadAck, opentherm.Tboiler, 0x2D00)
	wire := gateway.MustEncodePacket(gateway.NewFrameResponse(ack, gateway.LineOK))

	var out bytes.Buffer
	require.NoError(t, decodeLinkBytes(&out, hex.EncodeToString(wire)))
	assert.Contains(t, out.String(), "FRAME_RESPONSE")
	assert.Contains(t, out.String(), "f8.8: 45.000")
	assert.NotContains(t, out.String(), "Issue")

	out.Reset()
	assert.Error(t, decodeLinkBytes(&out, "7E01"))
	assert.Error(t, decodeLinkBytes(&out, "not hex"))
}

// ============================================================
// Probe
// ============================================================

// scriptedTransceiver answers the first request on the next Process call
type scriptedTransceiver struct {
	handler  transceiver.ResponseHandler
	sent     []opentherm.Frame
	respond  bool
	response opentherm.Frame
	status   opentherm.ResponseStatus
	refuse   bool
	ended    bool
}

func (s *scriptedTransceiver) Begin(h transceiver.ResponseHandler) error {
	s.handler = h
	return nil
}

func (s *scriptedTransceiver) IsReady() bool { return len(s.sent) == 0 }

func (s *scriptedTransceiver) SendRequestAsync(f opentherm.Frame) bool {
	if s.refuse {
		return false
	}
	s.sent = append(s.sent, f)
	return true
}

func (s *scriptedTransceiver) Process() {
	if s.respond && len(s.sent) == 1 {
		s.respond = false
		s.handler(s.response, s.status)
	}
}

func (s *scriptedTransceiver) End() error {
	s.ended = true
	return nil
}

func TestProbe_Success(t *testing.T) {
	request := opentherm.BuildFrame(opentherm.ReadData, opentherm.Tboiler, 0)
	ack := opentherm.BuildFrame(opentherm.ReadAck, opentherm.Tboiler, 0x2D00)
	x := &scriptedTransceiver{respond: true, response: ack, status: opentherm.StatusSuccess}

	result, err := probe(context.Background(), x, request, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []opentherm.Frame{request}, x.sent)
	assert.Equal(t, ack, result.response)
	assert.Equal(t, opentherm.StatusSuccess, result.status)
	assert.True(t, x.ended)
}

func TestProbe_TransceiverTimeout(t *testing.T) {
	x := &scriptedTransceiver{respond: true, status: opentherm.StatusTimeout}

	result, err := probe(context.Background(), x, 0x00190000, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, opentherm.StatusTimeout, result.status)
	assert.Zero(t, result.response)
}

func TestProbe_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	x := &scriptedTransceiver{}

	_, err := probe(ctx, x, 0x00190000, time.Millisecond)
	assert.ErrorIs(t, err, errProbeTimeout)
	assert.True(t, x.ended)
}

func TestProbe_SendRefused(t *testing.T) {
	x := &scriptedTransceiver{refuse: true}

	_, err := probe(context.Background(), x, 0x00190000, time.Millisecond)
	assert.Error(t, err)
}

func TestProbeRequest(t *testing.T) {
	saved := settings
	defer func() { settings = saved }()
	settings = config.Default()

	f, err := probeRequest(opentherm.Status, nil)
	require.NoError(t, err)
	assert.Equal(t, opentherm.Frame(0x00000300), f)

	v := 45.0
	f, err = probeRequest(opentherm.TSet, &v)
	require.NoError(t, err)
	assert.Equal(t, opentherm.Frame(0x10012D00), f)

	// no setpoint configured writes 0.0
	f, err = probeRequest(opentherm.TSet, nil)
	require.NoError(t, err)
	assert.Equal(t, opentherm.Frame(0x10010000), f)

	_, err = probeRequest(opentherm.MessageID(200), nil)
	assert.ErrorIs(t, err, hub.ErrUnknownRequest)
}

// ============================================================
// Config and ports
// ============================================================

func TestPrintSession(t *testing.T) {
	cfg := config.Default()
	cfg.Connection.Port = "/dev/ttyUSB0"
	cfg.Hub.RepeatingRequests = []string{"Status", "Tboiler"}

	var out bytes.Buffer
	require.NoError(t, printSession(&out, cfg))
	assert.Contains(t, out.String(), "/dev/ttyUSB0 @ 115200 baud")
	assert.Contains(t, out.String(), "Repeating requests: Status, Tboiler")
	assert.Contains(t, out.String(), "ch=true dhw=true cooling=false")

	cfg.Hub.RepeatingRequests = []string{"NoSuchThing"}
	assert.Error(t, printSession(&out, cfg))
}

func TestPrintPorts(t *testing.T) {
	var out bytes.Buffer
	printPorts(&out, nil)
	assert.Equal(t, "No serial ports found\n", out.String())

	out.Reset()
	printPorts(&out, []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523", SerialNumber: "A1", Product: "USB Serial"},
	})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "/dev/ttyS0", lines[0])
	assert.Equal(t, `/dev/ttyUSB0  USB 1a86:7523 serial=A1 "USB Serial"`, lines[1])
}
