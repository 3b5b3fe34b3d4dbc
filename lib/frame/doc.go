// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package frame decodes and encodes the binary telemetry frame
// streamed by the sensing device.
//
// The device runs an on-device fault classifier and emits one small
// frame per inference: a two-byte header sentinel, protocol version,
// wrapping sequence number, fault label, a signed Q15 confidence
// fraction, a device-relative millisecond timestamp, and a trailing
// CRC-16/CCITT-FALSE. All multi-byte integers are little-endian.
//
// Two wire revisions exist. The padded layout is 14 bytes and carries
// a reserved byte between the label and the confidence field; the
// compact layout is 13 bytes and does not. [Decode] selects the layout
// from the observed frame length (14 bytes or more means padded) and
// records the choice on the returned [Record].
//
// # Tolerant decoding
//
// Firmware in the field is imperfect, and a partial record is more
// useful than none. Decode therefore rejects only frames shorter than
// 8 bytes. Everything else produces a Record, with problems reported
// as [Anomaly] flags rather than errors: a header sentinel mismatch,
// fields truncated off the end of a short frame (they decode as zero),
// reserved or out-of-range labels, and a CRC mismatch. Callers that
// need strict framing set [Decoder.EnforceCRC], which turns a CRC
// mismatch into a *[DecodeError].
//
// Decode is pure: no state, no clock, identical bytes produce an
// identical Record.
//
// [AppendFrame] is the exact inverse of Decode for both layouts,
// computing the CRC over the encoded bytes. The demo source and the
// test suites use it to fabricate wire-faithful frames.
package frame
