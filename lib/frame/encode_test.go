// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"bytes"
	"testing"
)

func TestAppendFrameLengths(t *testing.T) {
	f := Frame{ProtocolVersion: 1, Sequence: 5, Label: 2}

	if got := len(AppendFrame(nil, LayoutPadded, f)); got != PaddedLength {
		t.Errorf("padded length = %d, want %d", got, PaddedLength)
	}
	if got := len(AppendFrame(nil, LayoutCompact, f)); got != CompactLength {
		t.Errorf("compact length = %d, want %d", got, CompactLength)
	}
}

func TestAppendFrameByteLayout(t *testing.T) {
	data := AppendFrame(nil, LayoutPadded, Frame{
		ProtocolVersion: 1,
		Sequence:        7,
		Label:           2,
		ConfidenceQ15:   16384,
		TimestampMs:     0x01020304,
	})

	wantPrefix := []byte{
		0xA5, 0x5A, // header sentinel
		0x01, 0x07, 0x02, // version, sequence, label
		0x00,       // reserved
		0x00, 0x40, // confidence 16384 LE
		0x04, 0x03, 0x02, 0x01, // timestamp LE
	}
	if !bytes.Equal(data[:12], wantPrefix) {
		t.Errorf("frame prefix = % x, want % x", data[:12], wantPrefix)
	}

	// Compact layout drops the reserved byte, shifting the tail.
	compact := AppendFrame(nil, LayoutCompact, Frame{
		ProtocolVersion: 1,
		Sequence:        7,
		Label:           2,
		ConfidenceQ15:   16384,
		TimestampMs:     0x01020304,
	})
	wantCompactPrefix := []byte{
		0xA5, 0x5A,
		0x01, 0x07, 0x02,
		0x00, 0x40,
		0x04, 0x03, 0x02, 0x01,
	}
	if !bytes.Equal(compact[:11], wantCompactPrefix) {
		t.Errorf("compact prefix = % x, want % x", compact[:11], wantCompactPrefix)
	}
}

func TestAppendFrameExtendsDst(t *testing.T) {
	prefix := []byte{0xDE, 0xAD}
	data := AppendFrame(prefix, LayoutPadded, Frame{Label: 1})

	if !bytes.Equal(data[:2], prefix) {
		t.Errorf("dst prefix clobbered: % x", data[:2])
	}
	if len(data) != 2+PaddedLength {
		t.Errorf("length = %d, want %d", len(data), 2+PaddedLength)
	}

	// The CRC is computed over the frame bytes only, so the appended
	// frame must decode cleanly on its own.
	record, err := Decode(data[2:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if record.Anomalies != 0 {
		t.Errorf("Anomalies = %v, want none", record.Anomalies)
	}
}

func TestAppendFrameChecksumCoversPrecedingBytes(t *testing.T) {
	data := AppendFrame(nil, LayoutPadded, Frame{Sequence: 1, Label: 3, ConfidenceQ15: -100})

	record, err := Decoder{EnforceCRC: true}.Decode(data)
	if err != nil {
		t.Fatalf("strict Decode of encoded frame: %v", err)
	}
	if record.Anomalies.Has(AnomalyCRCMismatch) {
		t.Error("encoded frame carries an invalid CRC")
	}
}
