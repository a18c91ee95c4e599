// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import (
	"fmt"
	"strconv"
	"strings"
)

var messageIDNames = map[MessageID]string{
	Status:                     "Status",
	TSet:                       "TSet",
	MConfigMMemberIDcode:       "MConfigMMemberIDcode",
	SConfigSMemberIDcode:       "SConfigSMemberIDcode",
	Command:                    "Command",
	ASFflags:                   "ASFflags",
	RBPflags:                   "RBPflags",
	CoolingControl:             "CoolingControl",
	TsetCH2:                    "TsetCH2",
	TrOverride:                 "TrOverride",
	TSP:                        "TSP",
	TSPindexTSPvalue:           "TSPindexTSPvalue",
	FHBsize:                    "FHBsize",
	FHBindexFHBvalue:           "FHBindexFHBvalue",
	MaxRelModLevelSetting:      "MaxRelModLevelSetting",
	MaxCapacityMinModLevel:     "MaxCapacityMinModLevel",
	TrSet:                      "TrSet",
	RelModLevel:                "RelModLevel",
	CHPressure:                 "CHPressure",
	DHWFlowRate:                "DHWFlowRate",
	DayTime:                    "DayTime",
	Date:                       "Date",
	Year:                       "Year",
	TrSetCH2:                   "TrSetCH2",
	Tr:                         "Tr",
	Tboiler:                    "Tboiler",
	Tdhw:                       "Tdhw",
	Toutside:                   "Toutside",
	Tret:                       "Tret",
	Tstorage:                   "Tstorage",
	Tcollector:                 "Tcollector",
	TflowCH2:                   "TflowCH2",
	Tdhw2:                      "Tdhw2",
	Texhaust:                   "Texhaust",
	TdhwSetUBTdhwSetLB:         "TdhwSetUBTdhwSetLB",
	MaxTSetUBMaxTSetLB:         "MaxTSetUBMaxTSetLB",
	HcratioUBHcratioLB:         "HcratioUBHcratioLB",
	TdhwSet:                    "TdhwSet",
	MaxTSet:                    "MaxTSet",
	Hcratio:                    "Hcratio",
	RemoteOverrideFunction:     "RemoteOverrideFunction",
	OEMDiagnosticCode:          "OEMDiagnosticCode",
	BurnerStarts:               "BurnerStarts",
	CHPumpStarts:               "CHPumpStarts",
	DHWPumpValveStarts:         "DHWPumpValveStarts",
	DHWBurnerStarts:            "DHWBurnerStarts",
	BurnerOperationHours:       "BurnerOperationHours",
	CHPumpOperationHours:       "CHPumpOperationHours",
	DHWPumpValveOperationHours: "DHWPumpValveOperationHours",
	DHWBurnerOperationHours:    "DHWBurnerOperationHours",
	OpenThermVersionMaster:     "OpenThermVersionMaster",
	OpenThermVersionSlave:      "OpenThermVersionSlave",
	MasterVersion:              "MasterVersion",
	SlaveVersion:               "SlaveVersion",
}

var messageIDsByName = func() map[string]MessageID {
	m := make(map[string]MessageID, len(messageIDNames))
	for id, name := range messageIDNames {
		m[strings.ToLower(name)] = id
	}
	return m
}()

// String returns the symbolic name of a data-id, or ID<n> for ids without one
func (id MessageID) String() string {
	if name, ok := messageIDNames[id]; ok {
		return name
	}
	return fmt.Sprintf("ID%d", uint8(id))
}

// ParseMessageID accepts a symbolic data-id name (case-insensitive) or a
// decimal or 0x-prefixed hex number
func ParseMessageID(s string) (MessageID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty message id")
	}
	if id, ok := messageIDsByName[strings.ToLower(s)]; ok {
		return id, nil
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown message id %q", s)
	}
	return MessageID(n), nil
}

// String returns the protocol name of a message type
func (t MessageType) String() string {
	switch t {
	case ReadData:
		return "READ_DATA"
	case WriteData:
		return "WRITE_DATA"
	case InvalidData:
		return "INVALID_DATA"
	case Reserved:
		return "RESERVED"
	case ReadAck:
		return "READ_ACK"
	case WriteAck:
		return "WRITE_ACK"
	case DataInvalid:
		return "DATA_INVALID"
	case UnknownDataID:
		return "UNKNOWN_DATA_ID"
	default:
		return "UNKNOWN"
	}
}

func (s ResponseStatus) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusSuccess:
		return "SUCCESS"
	case StatusInvalid:
		return "INVALID"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}
