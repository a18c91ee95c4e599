// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package opentherm implements the OpenTherm frame format used between a
// heating controller (master) and a boiler (slave).
//
// A frame is a single 32-bit word: parity in bit 31, the message type in
// bits 30-28, the data-id in bits 23-16 and a 16-bit data value. This package
// provides frame construction, parity, and the value codecs the protocol
// defines (f8.8 fixed point, u16, s16, paired s8 and flag bits).
package opentherm

// MessageType is the 3-bit message type field of a frame
type MessageType uint8

// Master to slave message types
const (
	ReadData    MessageType = 0
	WriteData   MessageType = 1
	InvalidData MessageType = 2
	Reserved    MessageType = 3
)

// Slave to master message types
const (
	ReadAck       MessageType = 4
	WriteAck      MessageType = 5
	DataInvalid   MessageType = 6
	UnknownDataID MessageType = 7
)

// MessageID is the data-id of a frame
type MessageID uint8

// Data-ids defined by OpenTherm v2.2
const (
	Status                     MessageID = 0
	TSet                       MessageID = 1
	MConfigMMemberIDcode       MessageID = 2
	SConfigSMemberIDcode       MessageID = 3
	Command                    MessageID = 4
	ASFflags                   MessageID = 5
	RBPflags                   MessageID = 6
	CoolingControl             MessageID = 7
	TsetCH2                    MessageID = 8
	TrOverride                 MessageID = 9
	TSP                        MessageID = 10
	TSPindexTSPvalue           MessageID = 11
	FHBsize                    MessageID = 12
	FHBindexFHBvalue           MessageID = 13
	MaxRelModLevelSetting      MessageID = 14
	MaxCapacityMinModLevel     MessageID = 15
	TrSet                      MessageID = 16
	RelModLevel                MessageID = 17
	CHPressure                 MessageID = 18
	DHWFlowRate                MessageID = 19
	DayTime                    MessageID = 20
	Date                       MessageID = 21
	Year                       MessageID = 22
	TrSetCH2                   MessageID = 23
	Tr                         MessageID = 24
	Tboiler                    MessageID = 25
	Tdhw                       MessageID = 26
	Toutside                   MessageID = 27
	Tret                       MessageID = 28
	Tstorage                   MessageID = 29
	Tcollector                 MessageID = 30
	TflowCH2                   MessageID = 31
	Tdhw2                      MessageID = 32
	Texhaust                   MessageID = 33
	TdhwSetUBTdhwSetLB         MessageID = 48
	MaxTSetUBMaxTSetLB         MessageID = 49
	HcratioUBHcratioLB         MessageID = 50
	TdhwSet                    MessageID = 56
	MaxTSet                    MessageID = 57
	Hcratio                    MessageID = 58
	RemoteOverrideFunction     MessageID = 100
	OEMDiagnosticCode          MessageID = 115
	BurnerStarts               MessageID = 116
	CHPumpStarts               MessageID = 117
	DHWPumpValveStarts         MessageID = 118
	DHWBurnerStarts            MessageID = 119
	BurnerOperationHours       MessageID = 120
	CHPumpOperationHours       MessageID = 121
	DHWPumpValveOperationHours MessageID = 122
	DHWBurnerOperationHours    MessageID = 123
	OpenThermVersionMaster     MessageID = 124
	OpenThermVersionSlave      MessageID = 125
	MasterVersion              MessageID = 126
	SlaveVersion               MessageID = 127
)

// ResponseStatus is the validity of a received response, as reported by the
// transceiver
type ResponseStatus uint8

// Response status values
const (
	StatusNone ResponseStatus = iota
	StatusSuccess
	StatusInvalid
	StatusTimeout
)

// Frame field layout
const (
	parityBit   = 31
	typeShift   = 28
	typeMask    = 0x7
	idShift     = 16
	idMask      = 0xFF
	payloadMask = 0xFFFF
)

// Master status flags (ID 0, high byte of the request payload)
const (
	MasterCHEnable      = 1 << 0
	MasterDHWEnable     = 1 << 1
	MasterCoolingEnable = 1 << 2
	MasterOTCActive     = 1 << 3
	MasterCH2Enable     = 1 << 4
)

// Slave status flag bit positions (ID 0, low byte of the response payload)
const (
	SlaveFault      = 0
	SlaveCHActive   = 1
	SlaveDHWActive  = 2
	SlaveFlameOn    = 3
	SlaveCooling    = 4
	SlaveCH2Active  = 5
	SlaveDiagnostic = 6
)
