// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hub

import (
	"sort"

	"github.com/Thermoquad/boilerstat/pkg/opentherm"
	"github.com/Thermoquad/boilerstat/pkg/telemetry"
)

var sensorRequests = map[telemetry.SensorKind]opentherm.MessageID{
	telemetry.RelModLevel:                opentherm.RelModLevel,
	telemetry.CHPressure:                 opentherm.CHPressure,
	telemetry.DHWFlowRate:                opentherm.DHWFlowRate,
	telemetry.TBoiler:                    opentherm.Tboiler,
	telemetry.TDHW:                       opentherm.Tdhw,
	telemetry.TOutside:                   opentherm.Toutside,
	telemetry.TRet:                       opentherm.Tret,
	telemetry.TStorage:                   opentherm.Tstorage,
	telemetry.TCollector:                 opentherm.Tcollector,
	telemetry.TFlowCH2:                   opentherm.TflowCH2,
	telemetry.TDHW2:                      opentherm.Tdhw2,
	telemetry.TExhaust:                   opentherm.Texhaust,
	telemetry.TDHWSet:                    opentherm.TdhwSet,
	telemetry.MaxTSet:                    opentherm.MaxTSet,
	telemetry.BurnerStarts:               opentherm.BurnerStarts,
	telemetry.CHPumpStarts:               opentherm.CHPumpStarts,
	telemetry.DHWPumpValveStarts:         opentherm.DHWPumpValveStarts,
	telemetry.DHWBurnerStarts:            opentherm.DHWBurnerStarts,
	telemetry.BurnerOperationHours:       opentherm.BurnerOperationHours,
	telemetry.CHPumpOperationHours:       opentherm.CHPumpOperationHours,
	telemetry.DHWPumpValveOperationHours: opentherm.DHWPumpValveOperationHours,
	telemetry.DHWBurnerOperationHours:    opentherm.DHWBurnerOperationHours,
	telemetry.TDHWSetUB:                  opentherm.TdhwSetUBTdhwSetLB,
	telemetry.TDHWSetLB:                  opentherm.TdhwSetUBTdhwSetLB,
	telemetry.MaxTSetUB:                  opentherm.MaxTSetUBMaxTSetLB,
	telemetry.MaxTSetLB:                  opentherm.MaxTSetUBMaxTSetLB,
}

var binarySensorRequests = map[telemetry.BinarySensorKind]opentherm.MessageID{
	telemetry.FaultIndication:              opentherm.Status,
	telemetry.CHActive:                     opentherm.Status,
	telemetry.DHWActive:                    opentherm.Status,
	telemetry.FlameOn:                      opentherm.Status,
	telemetry.CoolingActive:                opentherm.Status,
	telemetry.CH2Active:                    opentherm.Status,
	telemetry.DiagnosticIndication:         opentherm.Status,
	telemetry.DHWPresent:                   opentherm.SConfigSMemberIDcode,
	telemetry.ControlTypeOnOff:             opentherm.SConfigSMemberIDcode,
	telemetry.CoolingSupported:             opentherm.SConfigSMemberIDcode,
	telemetry.DHWStorageTank:               opentherm.SConfigSMemberIDcode,
	telemetry.MasterPumpControlAllowed:     opentherm.SConfigSMemberIDcode,
	telemetry.CH2Present:                   opentherm.SConfigSMemberIDcode,
	telemetry.DHWSetpointTransferEnabled:   opentherm.RBPflags,
	telemetry.MaxCHSetpointTransferEnabled: opentherm.RBPflags,
	telemetry.DHWSetpointRW:                opentherm.RBPflags,
	telemetry.MaxCHSetpointRW:              opentherm.RBPflags,
}

// RequestsFor returns the data-ids that must be polled to keep the given
// kinds up to date, in ascending id order without duplicates
func RequestsFor(sensors []telemetry.SensorKind, binarySensors []telemetry.BinarySensorKind) []opentherm.MessageID {
	seen := make(map[opentherm.MessageID]bool)
	for _, k := range sensors {
		if id, ok := sensorRequests[k]; ok {
			seen[id] = true
		}
	}
	for _, k := range binarySensors {
		if id, ok := binarySensorRequests[k]; ok {
			seen[id] = true
		}
	}

	ids := make([]opentherm.MessageID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
