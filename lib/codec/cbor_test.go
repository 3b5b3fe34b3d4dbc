// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

// sampleRecord mirrors the shape of a published telemetry record: json
// struct tags only, relying on fxamacker's json-tag fallback so the
// same type serves both payload modes.
type sampleRecord struct {
	Sequence   uint8  `json:"sequence"`
	Label      string `json:"label"`
	Confidence int    `json:"confidencePercent"`
	Anomaly    bool   `json:"anomaly,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRecord{
		Sequence:   42,
		Label:      "bearing-wear",
		Confidence: 87,
		Anomaly:    true,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	record := sampleRecord{
		Sequence:   7,
		Label:      "normal",
		Confidence: 99,
	}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}

	second, err := Marshal(record)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestEncoderDecoderStreamRoundtrip(t *testing.T) {
	records := []sampleRecord{
		{Sequence: 1, Label: "normal", Confidence: 96},
		{Sequence: 2, Label: "imbalance", Confidence: 71, Anomaly: true},
		{Sequence: 3, Label: "normal", Confidence: 0},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range records {
		var got sampleRecord
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode record %d: %v", i, err)
		}
		if got != want {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestOmitemptyRespected(t *testing.T) {
	// A zero-value omitempty field should not appear in output.
	withAnomaly := sampleRecord{Sequence: 1, Label: "normal", Confidence: 50, Anomaly: true}
	withoutAnomaly := sampleRecord{Sequence: 1, Label: "normal", Confidence: 50}

	dataWith, err := Marshal(withAnomaly)
	if err != nil {
		t.Fatal(err)
	}
	dataWithout, err := Marshal(withoutAnomaly)
	if err != nil {
		t.Fatal(err)
	}

	// The encoding without the anomaly field should be shorter
	// because the omitted field is not present.
	if len(dataWithout) >= len(dataWith) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes",
			len(dataWithout), len(dataWith))
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var record sampleRecord
	err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &record)
	if err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	// Payloads from newer publishers may carry fields this build does
	// not know about. They must decode without error.
	data, err := Marshal(map[string]any{
		"sequence":          uint8(9),
		"label":             "normal",
		"confidencePercent": 88,
		"futureField":       "ignored",
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal with unknown field: %v", err)
	}
	if decoded.Sequence != 9 || decoded.Label != "normal" || decoded.Confidence != 88 {
		t.Errorf("decoded = %+v, want sequence 9, label normal, confidence 88", decoded)
	}
}

func TestDefaultMapTypeIsStringKeyed(t *testing.T) {
	data, err := Marshal(map[string]any{"state": "connected"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	m, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if m["state"] != "connected" {
		t.Errorf(`m["state"] = %v, want "connected"`, m["state"])
	}
}

func BenchmarkMarshal(b *testing.B) {
	record := sampleRecord{
		Sequence:   42,
		Label:      "bearing-wear",
		Confidence: 87,
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Marshal(record)
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	record := sampleRecord{
		Sequence:   42,
		Label:      "bearing-wear",
		Confidence: 87,
	}
	data, err := Marshal(record)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var decoded sampleRecord
		Unmarshal(data, &decoded)
	}
}
