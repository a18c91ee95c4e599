// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package gateway

// crcTable holds the CRC-16-CCITT remainder for every leading byte
var crcTable = func() [256]uint16 {
	var table [256]uint16
	for n := range table {
		crc := uint16(n) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
		table[n] = crc
	}
	return table
}()

// CalculateCRC computes CRC-16-CCITT (poly 0x1021, init 0xFFFF) over data
func CalculateCRC(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>8)^b]
	}
	return crc
}
