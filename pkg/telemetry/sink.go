// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/Thermoquad/boilerstat/pkg/logger"
)

// Sink receives published readings. Implementations must not block; they
// are called from the session tick.
type Sink interface {
	PublishSensor(kind SensorKind, value float64)
	PublishBinarySensor(kind BinarySensorKind, value bool)
}

// Fanout publishes to every sink in order
type Fanout []Sink

func (f Fanout) PublishSensor(kind SensorKind, value float64) {
	for _, s := range f {
		s.PublishSensor(kind, value)
	}
}

func (f Fanout) PublishBinarySensor(kind BinarySensorKind, value bool) {
	for _, s := range f {
		s.PublishBinarySensor(kind, value)
	}
}

// Registry routes each enabled kind to its sinks. Publishing a kind that
// was never bound does nothing.
type Registry struct {
	sensors       *xsync.MapOf[SensorKind, Fanout]
	binarySensors *xsync.MapOf[BinarySensorKind, Fanout]
}

var _ Sink = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		sensors:       xsync.NewMapOf[SensorKind, Fanout](),
		binarySensors: xsync.NewMapOf[BinarySensorKind, Fanout](),
	}
}

// BindSensor adds sinks for a numeric kind
func (r *Registry) BindSensor(kind SensorKind, sinks ...Sink) {
	r.sensors.Compute(kind, func(old Fanout, _ bool) (Fanout, bool) {
		return append(append(Fanout(nil), old...), sinks...), false
	})
}

// BindBinarySensor adds sinks for a boolean kind
func (r *Registry) BindBinarySensor(kind BinarySensorKind, sinks ...Sink) {
	r.binarySensors.Compute(kind, func(old Fanout, _ bool) (Fanout, bool) {
		return append(append(Fanout(nil), old...), sinks...), false
	})
}

// BindAll binds every known kind to the given sinks
func (r *Registry) BindAll(sinks ...Sink) {
	for _, k := range sensorKinds {
		r.BindSensor(k, sinks...)
	}
	for _, k := range binarySensorKinds {
		r.BindBinarySensor(k, sinks...)
	}
}

func (r *Registry) SensorEnabled(kind SensorKind) bool {
	_, ok := r.sensors.Load(kind)
	return ok
}

func (r *Registry) BinarySensorEnabled(kind BinarySensorKind) bool {
	_, ok := r.binarySensors.Load(kind)
	return ok
}

func (r *Registry) PublishSensor(kind SensorKind, value float64) {
	if sinks, ok := r.sensors.Load(kind); ok {
		sinks.PublishSensor(kind, value)
	}
}

func (r *Registry) PublishBinarySensor(kind BinarySensorKind, value bool) {
	if sinks, ok := r.binarySensors.Load(kind); ok {
		sinks.PublishBinarySensor(kind, value)
	}
}

// LogSink debug-logs every value
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) PublishSensor(kind SensorKind, value float64) {
	s.log.Debug("sensor", "kind", string(kind), "value", value)
}

func (s *LogSink) PublishBinarySensor(kind BinarySensorKind, value bool) {
	s.log.Debug("binary sensor", "kind", string(kind), "value", value)
}
