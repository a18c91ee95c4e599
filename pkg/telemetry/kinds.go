// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package telemetry defines the named numeric and boolean readings a boiler
// session produces and the sinks they are published to.
package telemetry

import (
	"fmt"
	"strings"
)

// SensorKind names a numeric reading
type SensorKind string

// BinarySensorKind names a boolean reading
type BinarySensorKind string

// Numeric readings
const (
	RelModLevel                SensorKind = "rel_mod_level"
	CHPressure                 SensorKind = "ch_pressure"
	DHWFlowRate                SensorKind = "dhw_flow_rate"
	TBoiler                    SensorKind = "t_boiler"
	TDHW                       SensorKind = "t_dhw"
	TOutside                   SensorKind = "t_outside"
	TRet                       SensorKind = "t_ret"
	TStorage                   SensorKind = "t_storage"
	TCollector                 SensorKind = "t_collector"
	TFlowCH2                   SensorKind = "t_flow_ch2"
	TDHW2                      SensorKind = "t_dhw2"
	TExhaust                   SensorKind = "t_exhaust"
	TDHWSet                    SensorKind = "t_dhw_set"
	MaxTSet                    SensorKind = "max_t_set"
	BurnerStarts               SensorKind = "burner_starts"
	CHPumpStarts               SensorKind = "ch_pump_starts"
	DHWPumpValveStarts         SensorKind = "dhw_pump_valve_starts"
	DHWBurnerStarts            SensorKind = "dhw_burner_starts"
	BurnerOperationHours       SensorKind = "burner_operation_hours"
	CHPumpOperationHours       SensorKind = "ch_pump_operation_hours"
	DHWPumpValveOperationHours SensorKind = "dhw_pump_valve_operation_hours"
	DHWBurnerOperationHours    SensorKind = "dhw_burner_operation_hours"
	TDHWSetUB                  SensorKind = "t_dhw_set_ub"
	TDHWSetLB                  SensorKind = "t_dhw_set_lb"
	MaxTSetUB                  SensorKind = "max_t_set_ub"
	MaxTSetLB                  SensorKind = "max_t_set_lb"
)

// Boolean readings
const (
	FaultIndication              BinarySensorKind = "fault_indication"
	CHActive                     BinarySensorKind = "ch_active"
	DHWActive                    BinarySensorKind = "dhw_active"
	FlameOn                      BinarySensorKind = "flame_on"
	CoolingActive                BinarySensorKind = "cooling_active"
	CH2Active                    BinarySensorKind = "ch2_active"
	DiagnosticIndication         BinarySensorKind = "diagnostic_indication"
	DHWPresent                   BinarySensorKind = "dhw_present"
	ControlTypeOnOff             BinarySensorKind = "control_type_on_off"
	CoolingSupported             BinarySensorKind = "cooling_supported"
	DHWStorageTank               BinarySensorKind = "dhw_storage_tank"
	MasterPumpControlAllowed     BinarySensorKind = "master_pump_control_allowed"
	CH2Present                   BinarySensorKind = "ch2_present"
	DHWSetpointTransferEnabled   BinarySensorKind = "dhw_setpoint_transfer_enabled"
	MaxCHSetpointTransferEnabled BinarySensorKind = "max_ch_setpoint_transfer_enabled"
	DHWSetpointRW                BinarySensorKind = "dhw_setpoint_rw"
	MaxCHSetpointRW              BinarySensorKind = "max_ch_setpoint_rw"
)

var sensorKinds = []SensorKind{
	RelModLevel, CHPressure, DHWFlowRate, TBoiler, TDHW, TOutside, TRet,
	TStorage, TCollector, TFlowCH2, TDHW2, TExhaust, TDHWSet, MaxTSet,
	BurnerStarts, CHPumpStarts, DHWPumpValveStarts, DHWBurnerStarts,
	BurnerOperationHours, CHPumpOperationHours, DHWPumpValveOperationHours,
	DHWBurnerOperationHours, TDHWSetUB, TDHWSetLB, MaxTSetUB, MaxTSetLB,
}

var binarySensorKinds = []BinarySensorKind{
	FaultIndication, CHActive, DHWActive, FlameOn, CoolingActive, CH2Active,
	DiagnosticIndication, DHWPresent, ControlTypeOnOff, CoolingSupported,
	DHWStorageTank, MasterPumpControlAllowed, CH2Present,
	DHWSetpointTransferEnabled, MaxCHSetpointTransferEnabled, DHWSetpointRW,
	MaxCHSetpointRW,
}

// SensorKinds returns every numeric kind in a stable order
func SensorKinds() []SensorKind {
	return append([]SensorKind(nil), sensorKinds...)
}

// BinarySensorKinds returns every boolean kind in a stable order
func BinarySensorKinds() []BinarySensorKind {
	return append([]BinarySensorKind(nil), binarySensorKinds...)
}

// ParseSensorKind validates a numeric kind name
func ParseSensorKind(s string) (SensorKind, error) {
	k := SensorKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range sensorKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sensor %q", s)
}

// ParseBinarySensorKind validates a boolean kind name
func ParseBinarySensorKind(s string) (BinarySensorKind, error) {
	k := BinarySensorKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range binarySensorKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown binary sensor %q", s)
}
