// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import "testing"

func TestChecksumKnownAnswer(t *testing.T) {
	// The standard CRC-16/CCITT-FALSE check value.
	if got := Checksum([]byte("123456789")); got != 0x29B1 {
		t.Errorf("Checksum(\"123456789\") = %#04x, want 0x29b1", got)
	}
}

func TestChecksumEmptyIsInit(t *testing.T) {
	// No bytes processed leaves the initial value.
	if got := Checksum(nil); got != 0xFFFF {
		t.Errorf("Checksum(nil) = %#04x, want 0xffff", got)
	}
}

func TestChecksumSensitiveToEveryByte(t *testing.T) {
	data := []byte{0xA5, 0x5A, 0x01, 0x07, 0x02, 0x00, 0x00, 0x40}
	base := Checksum(data)

	for i := range data {
		flipped := make([]byte, len(data))
		copy(flipped, data)
		flipped[i] ^= 0x01
		if Checksum(flipped) == base {
			t.Errorf("flipping byte %d did not change the checksum", i)
		}
	}
}
