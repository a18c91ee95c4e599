// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Reading is the latest numeric value of a kind
type Reading struct {
	Kind    SensorKind
	Value   float64
	Updated time.Time
}

// BinaryReading is the latest boolean value of a kind
type BinaryReading struct {
	Kind    BinarySensorKind
	Value   bool
	Updated time.Time
}

// Snapshot keeps the latest value of every kind published to it. It is
// written by the session tick and read concurrently by the monitor.
type Snapshot struct {
	sensors       *xsync.MapOf[SensorKind, Reading]
	binarySensors *xsync.MapOf[BinarySensorKind, BinaryReading]
	now           func() time.Time
}

var _ Sink = (*Snapshot)(nil)

func NewSnapshot() *Snapshot {
	return &Snapshot{
		sensors:       xsync.NewMapOf[SensorKind, Reading](),
		binarySensors: xsync.NewMapOf[BinarySensorKind, BinaryReading](),
		now:           time.Now,
	}
}

func (s *Snapshot) PublishSensor(kind SensorKind, value float64) {
	s.sensors.Store(kind, Reading{Kind: kind, Value: value, Updated: s.now()})
}

func (s *Snapshot) PublishBinarySensor(kind BinarySensorKind, value bool) {
	s.binarySensors.Store(kind, BinaryReading{Kind: kind, Value: value, Updated: s.now()})
}

func (s *Snapshot) Sensor(kind SensorKind) (Reading, bool) {
	return s.sensors.Load(kind)
}

func (s *Snapshot) BinarySensor(kind BinarySensorKind) (BinaryReading, bool) {
	return s.binarySensors.Load(kind)
}

// Sensors returns all numeric readings sorted by kind
func (s *Snapshot) Sensors() []Reading {
	out := make([]Reading, 0, s.sensors.Size())
	s.sensors.Range(func(_ SensorKind, r Reading) bool {
		out = append(out, r)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// BinarySensors returns all boolean readings sorted by kind
func (s *Snapshot) BinarySensors() []BinaryReading {
	out := make([]BinaryReading, 0, s.binarySensors.Size())
	s.binarySensors.Range(func(_ BinarySensorKind, r BinaryReading) bool {
		out = append(out, r)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
