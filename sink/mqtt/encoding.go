// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/faultline/lib/codec"
)

// Encoding selects the payload codec for all three topics.
type Encoding string

const (
	// EncodingJSON is the default payload encoding.
	EncodingJSON Encoding = "json"

	// EncodingCBOR encodes payloads as deterministic CBOR, for
	// constrained subscribers that should not pay for JSON parsing.
	EncodingCBOR Encoding = "cbor"
)

// ParseEncoding maps a config string to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingJSON, EncodingCBOR:
		return Encoding(s), nil
	case "":
		return EncodingJSON, nil
	default:
		return "", fmt.Errorf("unknown payload encoding %q (want json or cbor)", s)
	}
}

// marshal encodes v with the selected codec. Payload structs carry
// json tags; the CBOR encoder honors them too, so both encodings use
// the same field names.
func (e Encoding) marshal(v any) ([]byte, error) {
	if e == EncodingCBOR {
		return codec.Marshal(v)
	}
	return json.Marshal(v)
}

// statePayload is the retained <prefix>/state message.
type statePayload struct {
	Connected   bool   `json:"connected"`
	Device      string `json:"device,omitempty"`
	Reason      string `json:"reason"`
	TimestampMs int64  `json:"timestampMs"`
}

// recordPayload is one <prefix>/records message.
type recordPayload struct {
	Sequence          uint8   `json:"sequence"`
	Label             uint8   `json:"label"`
	LabelName         string  `json:"labelName"`
	Confidence        float64 `json:"confidence"`
	ConfidencePercent uint8   `json:"confidencePercent"`
	TimestampMs       uint32  `json:"timestampMs"`
	Anomalies         string  `json:"anomalies,omitempty"`
	ReceivedAtMs      int64   `json:"receivedAtMs"`
}
