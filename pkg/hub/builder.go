// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hub

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/boilerstat/pkg/opentherm"
)

// ErrUnknownRequest is returned for data-ids the builder has no rule for
var ErrUnknownRequest = errors.New("unknown request")

// MasterFlags are the master status bits sent with every Status request
type MasterFlags struct {
	CHEnable      bool
	DHWEnable     bool
	CoolingEnable bool
	OTCActive     bool
	CH2Active     bool
}

// Builder turns a data-id into the request frame for it
type Builder struct {
	flags     MasterFlags
	setpoints SetpointSource
}

func NewBuilder(flags MasterFlags, setpoints SetpointSource) *Builder {
	return &Builder{flags: flags, setpoints: setpoints}
}

type buildRule func(b *Builder, id opentherm.MessageID) opentherm.Frame

func buildStatus(b *Builder, id opentherm.MessageID) opentherm.Frame {
	f := b.flags
	return opentherm.BuildFrame(opentherm.ReadData, id,
		opentherm.StatusRequestData(f.CHEnable, f.DHWEnable, f.CoolingEnable, f.OTCActive, f.CH2Active))
}

func buildSetpoint(b *Builder, id opentherm.MessageID) opentherm.Frame {
	var v float64
	if b.setpoints != nil {
		// absent reads as 0.0
		v, _ = b.setpoints.Setpoint(id)
	}
	return opentherm.BuildFrame(opentherm.WriteData, id, opentherm.EncodeFixedPoint(v))
}

func buildRead(_ *Builder, id opentherm.MessageID) opentherm.Frame {
	return opentherm.BuildFrame(opentherm.ReadData, id, 0)
}

var buildTable = map[opentherm.MessageID]buildRule{
	opentherm.Status:  buildStatus,
	opentherm.TSet:    buildSetpoint,
	opentherm.TsetCH2: buildSetpoint,

	opentherm.RelModLevel:                buildRead,
	opentherm.CHPressure:                 buildRead,
	opentherm.DHWFlowRate:                buildRead,
	opentherm.Tboiler:                    buildRead,
	opentherm.Tdhw:                       buildRead,
	opentherm.Toutside:                   buildRead,
	opentherm.Tret:                       buildRead,
	opentherm.Tstorage:                   buildRead,
	opentherm.Tcollector:                 buildRead,
	opentherm.TflowCH2:                   buildRead,
	opentherm.Tdhw2:                      buildRead,
	opentherm.Texhaust:                   buildRead,
	opentherm.BurnerStarts:               buildRead,
	opentherm.CHPumpStarts:               buildRead,
	opentherm.DHWPumpValveStarts:         buildRead,
	opentherm.DHWBurnerStarts:            buildRead,
	opentherm.BurnerOperationHours:       buildRead,
	opentherm.CHPumpOperationHours:       buildRead,
	opentherm.DHWPumpValveOperationHours: buildRead,
	opentherm.DHWBurnerOperationHours:    buildRead,
	opentherm.TdhwSetUBTdhwSetLB:         buildRead,
	opentherm.MaxTSetUBMaxTSetLB:         buildRead,
	opentherm.TdhwSet:                    buildRead,
	opentherm.MaxTSet:                    buildRead,
	opentherm.SConfigSMemberIDcode:       buildRead,
	opentherm.RBPflags:                   buildRead,
}

// Build returns the request frame for id. For ids without a rule it returns
// the zero frame and an error wrapping ErrUnknownRequest; that frame must
// not be sent.
func (b *Builder) Build(id opentherm.MessageID) (opentherm.Frame, error) {
	rule, ok := buildTable[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s (%d)", ErrUnknownRequest, id, uint8(id))
	}
	return rule(b, id), nil
}

// Supports reports whether Build has a rule for id
func Supports(id opentherm.MessageID) bool {
	_, ok := buildTable[id]
	return ok
}
