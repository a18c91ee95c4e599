// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hub runs an OpenTherm master session: it decides which data-id to
// request on each free slot of the line, builds the request frame, and turns
// each response into telemetry.
//
// All scheduling, building and dispatching happens on the goroutine that
// calls Tick. The transceiver delivers responses synchronously from its
// Process method, which Tick calls first.
package hub

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/boilerstat/pkg/logger"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
	"github.com/Thermoquad/boilerstat/pkg/telemetry"
	"github.com/Thermoquad/boilerstat/pkg/transceiver"
)

// DefaultTickInterval is how often Run calls Tick
const DefaultTickInterval = 10 * time.Millisecond

// Config describes one session
type Config struct {
	InitialRequests   []opentherm.MessageID
	RepeatingRequests []opentherm.MessageID
	Flags             MasterFlags

	// Enabled kinds, reported by DumpConfig only
	Sensors       []telemetry.SensorKind
	BinarySensors []telemetry.BinarySensorKind

	// Gateway GPIO numbers, reported by DumpConfig only
	InPin  int
	OutPin int
}

// Hub is the session controller
type Hub struct {
	cfg        Config
	xcvr       transceiver.Transceiver
	scheduler  *Scheduler
	builder    *Builder
	dispatcher *Dispatcher
	stats      *Statistics
	setpoints  SetpointSource
	log        logger.Logger

	stopped atomic.Bool
}

func New(cfg Config, xcvr transceiver.Transceiver, sink telemetry.Sink, setpoints SetpointSource, log logger.Logger) *Hub {
	stats := NewStatistics()
	return &Hub{
		cfg:        cfg,
		xcvr:       xcvr,
		scheduler:  NewScheduler(cfg.InitialRequests, cfg.RepeatingRequests),
		builder:    NewBuilder(cfg.Flags, setpoints),
		dispatcher: NewDispatcher(sink, log, stats),
		stats:      stats,
		setpoints:  setpoints,
		log:        log,
	}
}

// Start binds the dispatcher to the transceiver and logs the configuration
func (h *Hub) Start() error {
	if err := h.xcvr.Begin(h.dispatcher.Dispatch); err != nil {
		return fmt.Errorf("starting transceiver: %w", err)
	}
	h.DumpConfig()
	return nil
}

// Tick advances the session by one step. When the line is free it sends the
// next scheduled request.
func (h *Hub) Tick() {
	if h.stopped.Load() {
		return
	}

	h.xcvr.Process()
	if !h.xcvr.IsReady() {
		return
	}

	id := h.scheduler.Next()
	f, err := h.builder.Build(id)
	if err != nil {
		h.stats.buildFailures.Add(1)
		h.log.Error("failed to build request", "id", id.String(), "error", err)
		return
	}

	if !h.xcvr.SendRequestAsync(f) {
		h.stats.sendFailures.Add(1)
		h.log.Warn("request not sent", "frame", opentherm.FormatFrame(f))
		return
	}
	h.stats.recordSent(f)
}

// Stop ends the session. Tick does nothing afterwards.
func (h *Hub) Stop() error {
	if h.stopped.Swap(true) {
		return nil
	}
	h.log.Info("stopping session")
	return h.xcvr.End()
}

// Run calls Tick every interval until ctx is done, then stops the session
func (h *Hub) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return h.Stop()
		case <-ticker.C:
			h.Tick()
		}
	}
}

// Stats returns a copy of the session statistics
func (h *Hub) Stats() StatsSnapshot {
	return h.stats.Snapshot(time.Now())
}

// DumpConfig logs the session configuration
func (h *Hub) DumpConfig() {
	f := h.cfg.Flags
	h.log.Info("opentherm hub",
		"in_pin", h.cfg.InPin,
		"out_pin", h.cfg.OutPin,
		"initial_requests", joinIDs(h.scheduler.Initial()),
		"repeating_requests", joinIDs(h.scheduler.Repeating()),
		"ch_enable", f.CHEnable,
		"dhw_enable", f.DHWEnable,
		"cooling_enable", f.CoolingEnable,
		"otc_active", f.OTCActive,
		"ch2_active", f.CH2Active,
		"sensors", joinKinds(h.cfg.Sensors),
		"binary_sensors", joinKinds(h.cfg.BinarySensors),
	)

	for _, id := range []opentherm.MessageID{opentherm.TSet, opentherm.TsetCH2} {
		if h.setpoints == nil {
			break
		}
		if v, ok := h.setpoints.Setpoint(id); ok {
			h.log.Info("setpoint", "id", id.String(), "value", v)
		}
	}
}

func joinIDs(ids []opentherm.MessageID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ",")
}

func joinKinds[K ~string](kinds []K) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}
