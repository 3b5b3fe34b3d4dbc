// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding configuration.
//
// Faultline uses two serialization formats with a clear boundary:
//
//   - JSON for human-facing surfaces: MQTT payloads in the default
//     "json" mode, CLI output, and anything an operator reads with
//     standard broker tooling.
//   - CBOR for the compact "cbor" MQTT payload mode, where per-record
//     publish volume makes payload size matter.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, which keeps payloads diffable and makes downstream
// deduplication possible.
//
// For buffer-oriented operations (MQTT payloads):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// Types published in both payload modes carry only `json` struct tags:
// fxamacker/cbor v2 reads `json` tags as fallback when `cbor` tags are
// absent, so a single tag controls field naming and omitempty for both
// formats.
package codec
