// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/Thermoquad/boilerstat/pkg/config"
	"github.com/Thermoquad/boilerstat/pkg/hub"
	"github.com/Thermoquad/boilerstat/pkg/logger"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
	"github.com/Thermoquad/boilerstat/pkg/telemetry"
	"github.com/Thermoquad/boilerstat/pkg/transceiver"
)

// session owns everything that survives a reconnect: telemetry sinks,
// setpoint inputs, and the hub configuration
type session struct {
	cfg    config.Config
	hubCfg hub.Config
	log    logger.Logger

	registry *telemetry.Registry
	snapshot *telemetry.Snapshot
	mqtt     *telemetry.MQTTSink

	chSetpoint  *hub.Input
	ch2Setpoint *hub.Input
	setpoints   hub.SetpointTable

	current   atomic.Pointer[hub.Hub]
	connInfo  atomic.Pointer[string]
	connected atomic.Bool
}

func newSession(cfg config.Config, log logger.Logger) (*session, error) {
	hubCfg, err := cfg.SessionConfig()
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:         cfg,
		hubCfg:      hubCfg,
		log:         log,
		registry:    telemetry.NewRegistry(),
		snapshot:    telemetry.NewSnapshot(),
		chSetpoint:  hub.NewInput("t_set"),
		ch2Setpoint: hub.NewInput("t_set_ch2"),
	}

	if cfg.Hub.TSet != nil {
		s.chSetpoint.Set(*cfg.Hub.TSet)
	}
	if cfg.Hub.TSetCH2 != nil {
		s.ch2Setpoint.Set(*cfg.Hub.TSetCH2)
	}
	s.setpoints = hub.SetpointTable{
		opentherm.TSet:    hub.NewInputChain(s.chSetpoint),
		opentherm.TsetCH2: hub.NewInputChain(s.ch2Setpoint),
	}

	sinks := telemetry.Fanout{s.snapshot, telemetry.NewLogSink(log.With("component", "telemetry"))}
	if cfg.MQTT.Broker != "" {
		m, err := telemetry.NewMQTTSink(cfg.MQTTOptions(), log.With("component", "mqtt"))
		if err != nil {
			return nil, err
		}
		s.mqtt = m
		sinks = append(sinks, m)
	}

	for _, k := range hubCfg.Sensors {
		s.registry.BindSensor(k, sinks...)
	}
	for _, k := range hubCfg.BinarySensors {
		s.registry.BindBinarySensor(k, sinks...)
	}

	return s, nil
}

// run keeps a hub running until ctx is done, reconnecting whenever the
// adapter connection drops
func (s *session) run(ctx context.Context) error {
	for {
		conn, info, err := openWithBackoff(ctx, s.cfg.Connection, s.log)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.connInfo.Store(&info)
		s.log.Info("connected", "connection", info)

		err = s.runOnce(ctx, conn)
		s.connected.Store(false)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		s.log.Warn("connection lost, reconnecting", "connection", info)
	}
}

func (s *session) runOnce(ctx context.Context, conn Connection) error {
	gw := transceiver.NewGateway(conn, s.log.With("component", "transceiver"),
		transceiver.WithResponseTimeout(s.cfg.Hub.ResponseTimeout.Duration),
		transceiver.WithInterFrameDelay(s.cfg.Hub.InterFrameDelay.Duration),
	)
	h := hub.New(s.hubCfg, gw, s.registry, s.setpoints, s.log.With("component", "hub"))
	if err := h.Start(); err != nil {
		_ = conn.Close()
		return err
	}
	s.current.Store(h)
	s.connected.Store(true)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-gw.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	return h.Run(runCtx, s.cfg.Hub.TickInterval.Duration)
}

// stats returns the statistics of the current connection
func (s *session) stats() (hub.StatsSnapshot, bool) {
	h := s.current.Load()
	if h == nil {
		return hub.StatsSnapshot{}, false
	}
	return h.Stats(), true
}

// schedules reports whether id is in the repeating request list
func (s *session) schedules(id opentherm.MessageID) bool {
	return slices.Contains(s.hubCfg.RepeatingRequests, id)
}

func (s *session) connectionInfo() string {
	if p := s.connInfo.Load(); p != nil {
		return *p
	}
	return "connecting..."
}

func (s *session) close() {
	if s.mqtt != nil {
		s.mqtt.Close()
	}
}
