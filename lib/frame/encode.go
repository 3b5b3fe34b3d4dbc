// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import "encoding/binary"

// Frame holds the field values AppendFrame encodes into one wire
// frame. The CRC is computed during encoding, not supplied.
type Frame struct {
	ProtocolVersion uint8
	Sequence        uint8
	Label           uint8

	// ConfidenceQ15 is the signed Q15 confidence fraction, i.e.
	// round(confidence * 32768) clamped to the int16 range.
	ConfidenceQ15 int16

	TimestampMs uint32
}

// AppendFrame appends the wire encoding of f in the given layout to
// dst and returns the extended slice. The appended bytes always form a
// complete frame of the layout's full length, ending with a checksum
// valid for the preceding bytes. Decoding the result yields a record
// with no anomalies.
func AppendFrame(dst []byte, layout Layout, f Frame) []byte {
	start := len(dst)
	dst = append(dst, HeaderByte0, HeaderByte1, f.ProtocolVersion, f.Sequence, f.Label)
	if layout == LayoutPadded {
		dst = append(dst, 0) // reserved
	}
	dst = binary.LittleEndian.AppendUint16(dst, uint16(f.ConfidenceQ15))
	dst = binary.LittleEndian.AppendUint32(dst, f.TimestampMs)
	return binary.LittleEndian.AppendUint16(dst, Checksum(dst[start:]))
}
