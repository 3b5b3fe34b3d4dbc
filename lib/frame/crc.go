// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

// Checksum returns the CRC-16/CCITT-FALSE checksum of data:
// polynomial 0x1021, initial value 0xFFFF, most significant bit first,
// no reflection, no final XOR. This matches the device firmware's
// frame checksum. Known answer: Checksum([]byte("123456789")) ==
// 0x29B1.
func Checksum(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
