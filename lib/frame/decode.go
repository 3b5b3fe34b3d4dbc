// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeErrorKind classifies why Decode rejected a frame.
type DecodeErrorKind int

const (
	// TooShort means the frame is below the 8-byte minimum.
	TooShort DecodeErrorKind = iota

	// CRCMismatch means the computed checksum did not match the
	// received one and the decoder enforces CRC.
	CRCMismatch
)

// DecodeError reports a rejected frame. Tolerated problems never
// produce a DecodeError; they surface as Anomaly flags on the Record.
type DecodeError struct {
	// Kind classifies the rejection.
	Kind DecodeErrorKind

	// Length is the observed frame length in bytes.
	Length int

	// Received and Computed carry the two checksum values for
	// CRCMismatch rejections.
	Received uint16
	Computed uint16
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case TooShort:
		return fmt.Sprintf("frame too short: %d bytes, need at least %d", e.Length, MinLength)
	case CRCMismatch:
		return fmt.Sprintf("frame CRC mismatch: received %#04x, computed %#04x", e.Received, e.Computed)
	default:
		return fmt.Sprintf("frame rejected: %d bytes", e.Length)
	}
}

// Field offsets per layout. The compact layout omits the reserved byte
// at offset 5, shifting everything after the label down by one.
var layoutOffsets = [2]struct{ confidence, timestamp, crc int }{
	LayoutPadded:  {confidence: 6, timestamp: 8, crc: 12},
	LayoutCompact: {confidence: 5, timestamp: 7, crc: 11},
}

// Decoder decodes frames under a configurable validation policy. The
// zero value is the tolerant default used by the package-level Decode.
type Decoder struct {
	// EnforceCRC rejects frames whose computed checksum does not
	// match the received one. When false (the default) a mismatch
	// only sets AnomalyCRCMismatch on the record. Frames too short to
	// carry a CRC skip verification and are never rejected on CRC
	// grounds.
	EnforceCRC bool
}

// Decode decodes one wire frame with the tolerant default policy.
func Decode(data []byte) (Record, error) {
	return Decoder{}.Decode(data)
}

// Decode decodes one wire frame. The layout is selected from the
// observed length: 14 bytes or more means padded, anything shorter
// means compact. Fields past the end of a short frame decode as zero
// with AnomalyTruncated set.
func (d Decoder) Decode(data []byte) (Record, error) {
	if len(data) < MinLength {
		return Record{}, &DecodeError{Kind: TooShort, Length: len(data)}
	}

	layout := LayoutCompact
	if len(data) >= PaddedLength {
		layout = LayoutPadded
	}
	offsets := layoutOffsets[layout]

	record := Record{
		ProtocolVersion: data[2],
		Sequence:        data[3],
		Label:           data[4],
		Layout:          layout,
	}

	if data[0] != HeaderByte0 || data[1] != HeaderByte1 {
		record.Anomalies |= AnomalyHeaderMismatch
	}

	switch {
	case record.Label > MaxLabel:
		record.Anomalies |= AnomalyLabelRange
	case record.Label > MaxKnownLabel:
		record.Anomalies |= AnomalyReservedLabel
	}

	if len(data) >= offsets.confidence+2 {
		raw := int16(binary.LittleEndian.Uint16(data[offsets.confidence:]))
		record.Confidence = float64(raw) / 32768.0
		record.ConfidencePercent = confidencePercent(record.Confidence)
	} else {
		record.Anomalies |= AnomalyTruncated
	}

	if len(data) >= offsets.timestamp+4 {
		record.TimestampMs = binary.LittleEndian.Uint32(data[offsets.timestamp:])
	} else {
		record.Anomalies |= AnomalyTruncated
	}

	if len(data) >= offsets.crc+2 {
		record.CRC = binary.LittleEndian.Uint16(data[offsets.crc:])
		computed := Checksum(data[:offsets.crc])
		if computed != record.CRC {
			if d.EnforceCRC {
				return Record{}, &DecodeError{
					Kind:     CRCMismatch,
					Length:   len(data),
					Received: record.CRC,
					Computed: computed,
				}
			}
			record.Anomalies |= AnomalyCRCMismatch
		}
	} else {
		record.Anomalies |= AnomalyTruncated
	}

	return record, nil
}

// confidencePercent folds the signed Q15 fraction into the 0–100
// display range: magnitude, scaled, rounded to nearest, clamped. The
// most negative raw value (-32768) maps to exactly 100.
func confidencePercent(fraction float64) uint8 {
	percent := math.Round(math.Abs(fraction) * 100)
	if percent > 100 {
		percent = 100
	}
	return uint8(percent)
}
