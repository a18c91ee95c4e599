// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hub

import (
	"github.com/Thermoquad/boilerstat/pkg/logger"
	"github.com/Thermoquad/boilerstat/pkg/opentherm"
	"github.com/Thermoquad/boilerstat/pkg/telemetry"
)

// Dispatcher decodes valid responses and publishes their values
type Dispatcher struct {
	sink  telemetry.Sink
	log   logger.Logger
	stats *Statistics
}

func NewDispatcher(sink telemetry.Sink, log logger.Logger, stats *Statistics) *Dispatcher {
	if stats == nil {
		stats = NewStatistics()
	}
	return &Dispatcher{sink: sink, log: log, stats: stats}
}

type flagBit struct {
	bit  uint
	kind telemetry.BinarySensorKind
}

type dispatchRule func(d *Dispatcher, f opentherm.Frame)

func publishFlags(flags ...flagBit) dispatchRule {
	return func(d *Dispatcher, f opentherm.Frame) {
		for _, fl := range flags {
			d.sink.PublishBinarySensor(fl.kind, opentherm.DecodeFlag(f, fl.bit))
		}
	}
}

func publishFixedPoint(kind telemetry.SensorKind) dispatchRule {
	return func(d *Dispatcher, f opentherm.Frame) {
		d.sink.PublishSensor(kind, opentherm.DecodeFixedPoint(f))
	}
}

func publishSigned16(kind telemetry.SensorKind) dispatchRule {
	return func(d *Dispatcher, f opentherm.Frame) {
		d.sink.PublishSensor(kind, float64(opentherm.DecodeSigned16(f)))
	}
}

func publishCounter(kind telemetry.SensorKind) dispatchRule {
	return func(d *Dispatcher, f opentherm.Frame) {
		d.sink.PublishSensor(kind, float64(opentherm.DecodeUint16(f)))
	}
}

func publishBytePair(upper, lower telemetry.SensorKind) dispatchRule {
	return func(d *Dispatcher, f opentherm.Frame) {
		d.sink.PublishSensor(upper, float64(opentherm.DecodeHighByteSigned(f)))
		d.sink.PublishSensor(lower, float64(opentherm.DecodeLowByteSigned(f)))
	}
}

func logSetpointAck(d *Dispatcher, f opentherm.Frame) {
	d.log.Debug("setpoint acknowledged", "id", f.ID().String(), "value", opentherm.DecodeFixedPoint(f))
}

var dispatchTable = map[opentherm.MessageID]dispatchRule{
	opentherm.Status: publishFlags(
		flagBit{opentherm.SlaveFault, telemetry.FaultIndication},
		flagBit{opentherm.SlaveCHActive, telemetry.CHActive},
		flagBit{opentherm.SlaveDHWActive, telemetry.DHWActive},
		flagBit{opentherm.SlaveFlameOn, telemetry.FlameOn},
		flagBit{opentherm.SlaveCooling, telemetry.CoolingActive},
		flagBit{opentherm.SlaveCH2Active, telemetry.CH2Active},
		flagBit{opentherm.SlaveDiagnostic, telemetry.DiagnosticIndication},
	),
	opentherm.TSet:    logSetpointAck,
	opentherm.TsetCH2: logSetpointAck,

	opentherm.RelModLevel: publishFixedPoint(telemetry.RelModLevel),
	opentherm.CHPressure:  publishFixedPoint(telemetry.CHPressure),
	opentherm.DHWFlowRate: publishFixedPoint(telemetry.DHWFlowRate),
	opentherm.Tboiler:     publishFixedPoint(telemetry.TBoiler),
	opentherm.Tdhw:        publishFixedPoint(telemetry.TDHW),
	opentherm.Toutside:    publishFixedPoint(telemetry.TOutside),
	opentherm.Tret:        publishFixedPoint(telemetry.TRet),
	opentherm.Tstorage:    publishFixedPoint(telemetry.TStorage),
	opentherm.TflowCH2:    publishFixedPoint(telemetry.TFlowCH2),
	opentherm.Tdhw2:       publishFixedPoint(telemetry.TDHW2),
	opentherm.TdhwSet:     publishFixedPoint(telemetry.TDHWSet),
	opentherm.MaxTSet:     publishFixedPoint(telemetry.MaxTSet),

	opentherm.Tcollector: publishSigned16(telemetry.TCollector),
	opentherm.Texhaust:   publishSigned16(telemetry.TExhaust),

	opentherm.BurnerStarts:               publishCounter(telemetry.BurnerStarts),
	opentherm.CHPumpStarts:               publishCounter(telemetry.CHPumpStarts),
	opentherm.DHWPumpValveStarts:         publishCounter(telemetry.DHWPumpValveStarts),
	opentherm.DHWBurnerStarts:            publishCounter(telemetry.DHWBurnerStarts),
	opentherm.BurnerOperationHours:       publishCounter(telemetry.BurnerOperationHours),
	opentherm.CHPumpOperationHours:       publishCounter(telemetry.CHPumpOperationHours),
	opentherm.DHWPumpValveOperationHours: publishCounter(telemetry.DHWPumpValveOperationHours),
	opentherm.DHWBurnerOperationHours:    publishCounter(telemetry.DHWBurnerOperationHours),

	opentherm.TdhwSetUBTdhwSetLB: publishBytePair(telemetry.TDHWSetUB, telemetry.TDHWSetLB),
	opentherm.MaxTSetUBMaxTSetLB: publishBytePair(telemetry.MaxTSetUB, telemetry.MaxTSetLB),

	opentherm.SConfigSMemberIDcode: publishFlags(
		flagBit{0, telemetry.DHWPresent},
		flagBit{1, telemetry.ControlTypeOnOff},
		flagBit{2, telemetry.CoolingSupported},
		flagBit{3, telemetry.DHWStorageTank},
		flagBit{4, telemetry.MasterPumpControlAllowed},
		flagBit{5, telemetry.CH2Present},
	),
	opentherm.RBPflags: publishFlags(
		flagBit{0, telemetry.DHWSetpointTransferEnabled},
		flagBit{1, telemetry.MaxCHSetpointTransferEnabled},
		flagBit{8, telemetry.DHWSetpointRW},
		flagBit{9, telemetry.MaxCHSetpointRW},
	),
}

// Dispatch is the transceiver's response handler
func (d *Dispatcher) Dispatch(f opentherm.Frame, status opentherm.ResponseStatus) {
	d.stats.recordResponse(f, status)

	if status != opentherm.StatusSuccess || !f.IsValidResponse() {
		if status == opentherm.StatusTimeout {
			d.stats.timeouts.Add(1)
		} else {
			d.stats.invalid.Add(1)
		}
		d.log.Warn("response dropped",
			"status", status.String(), "frame", opentherm.FormatFrame(f))
		return
	}

	d.log.Debug("response received", "frame", opentherm.FormatFrame(f))

	rule, ok := dispatchTable[f.ID()]
	if !ok {
		d.stats.unexpected.Add(1)
		d.log.Warn("unexpected response", "id", f.ID().String(), "data", f.Data())
		return
	}

	d.stats.responsesOK.Add(1)
	rule(d, f)
}
