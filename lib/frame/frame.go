// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"strconv"
	"strings"
)

// Wire format constants shared by Decode and AppendFrame.
const (
	// HeaderByte0 and HeaderByte1 form the frame sentinel.
	HeaderByte0 = 0xA5
	HeaderByte1 = 0x5A

	// MinLength is the shortest frame Decode accepts. Anything shorter
	// cannot carry a trustworthy label and is rejected outright.
	MinLength = 8

	// PaddedLength is the full size of the padded (current) wire
	// revision, which carries a reserved byte at offset 5.
	PaddedLength = 14

	// CompactLength is the full size of the compact (legacy) wire
	// revision.
	CompactLength = 13
)

// Fault labels 0 through 3 are the classes the device's classifier is
// trained on. Labels 4 through MaxLabel are reserved for future
// classes and decode as "unknown-N"; anything above MaxLabel is
// flagged out of range but still passed through.
const (
	LabelNormal       = 0
	LabelImbalance    = 1
	LabelMisalignment = 2
	LabelBearingFault = 3

	// MaxKnownLabel is the highest label that participates in class
	// distribution statistics.
	MaxKnownLabel = 3

	// MaxLabel is the highest label value the wire protocol reserves.
	MaxLabel = 11
)

var labelNames = [MaxKnownLabel + 1]string{
	LabelNormal:       "normal",
	LabelImbalance:    "imbalance",
	LabelMisalignment: "misalignment",
	LabelBearingFault: "bearing-fault",
}

// LabelName returns the display name for a fault label: the class name
// for known labels, "unknown-N" for everything else.
func LabelName(label uint8) string {
	if label <= MaxKnownLabel {
		return labelNames[label]
	}
	return "unknown-" + strconv.Itoa(int(label))
}

// Layout identifies which wire revision a frame was decoded with.
type Layout int

const (
	// LayoutPadded is the 14-byte revision with a reserved byte at
	// offset 5. Selected when the observed frame is 14 bytes or more.
	LayoutPadded Layout = iota

	// LayoutCompact is the 13-byte revision without the reserved
	// byte. Selected when the observed frame is shorter than 14 bytes.
	LayoutCompact
)

// String returns "padded" or "compact".
func (l Layout) String() string {
	if l == LayoutCompact {
		return "compact"
	}
	return "padded"
}

// Anomaly is a bitset of problems observed while decoding a frame.
// Anomalies never block decoding; they travel with the Record so that
// downstream consumers can count, log, or display them.
type Anomaly uint8

const (
	// AnomalyHeaderMismatch: the first two bytes were not A5 5A.
	AnomalyHeaderMismatch Anomaly = 1 << iota

	// AnomalyTruncated: the frame ended before one or more fields;
	// the missing fields decoded as zero.
	AnomalyTruncated

	// AnomalyReservedLabel: the label is in the reserved range 4–11.
	AnomalyReservedLabel

	// AnomalyLabelRange: the label is above the reserved range.
	AnomalyLabelRange

	// AnomalyCRCMismatch: the received CRC did not match the CRC
	// computed over the frame bytes.
	AnomalyCRCMismatch
)

var anomalyNames = []struct {
	flag Anomaly
	name string
}{
	{AnomalyHeaderMismatch, "header-mismatch"},
	{AnomalyTruncated, "truncated"},
	{AnomalyReservedLabel, "reserved-label"},
	{AnomalyLabelRange, "label-out-of-range"},
	{AnomalyCRCMismatch, "crc-mismatch"},
}

// Has reports whether flag is set.
func (a Anomaly) Has(flag Anomaly) bool { return a&flag != 0 }

// String returns the set flags joined with commas, or "none". Suitable
// for log attributes.
func (a Anomaly) String() string {
	if a == 0 {
		return "none"
	}
	var names []string
	for _, entry := range anomalyNames {
		if a.Has(entry.flag) {
			names = append(names, entry.name)
		}
	}
	return strings.Join(names, ",")
}

// Record is the decoded form of one telemetry frame. Records are
// immutable by convention: the decoder constructs one per frame and
// nothing downstream mutates it.
type Record struct {
	// ProtocolVersion is the firmware protocol revision byte.
	ProtocolVersion uint8

	// Sequence is the device's frame counter. It wraps modulo 256;
	// the aggregator derives loss from gaps in it.
	Sequence uint8

	// Label is the fault class emitted by the on-device classifier.
	Label uint8

	// Confidence is the classifier confidence as the signed Q15
	// fraction from the wire, approximately in [-1, 1].
	Confidence float64

	// ConfidencePercent is the display form of Confidence: the
	// magnitude scaled to 0–100, rounded to nearest, clamped.
	ConfidencePercent uint8

	// TimestampMs is the device-relative millisecond timestamp. It is
	// monotonic per device boot but not comparable across reconnects.
	TimestampMs uint32

	// CRC is the checksum as received from the wire. Zero when the
	// frame was too short to carry one.
	CRC uint16

	// Layout is the wire revision the frame was decoded with.
	Layout Layout

	// Anomalies flags everything questionable about the frame.
	Anomalies Anomaly
}

// Known reports whether the record's label is one of the trained fault
// classes (0–3).
func (r Record) Known() bool { return r.Label <= MaxKnownLabel }

// LabelName returns the display name of the record's label.
func (r Record) LabelName() string { return LabelName(r.Label) }
