//go:build fuzz
// +build fuzz

package codec

import (
	"bufio"
	"bytes"
	"testing"
)

// FuzzBinaryCodec_Decode feeds arbitrary payloads to the decoder
func FuzzBinaryCodec_Decode(f *testing.F) {
	h := NewHeader(1)
	h.SignalCompression = SignalZigzagDelta
	h.Aux = []AuxSpec{
		{Name: "s", Type: AuxType{Kind: AuxString}},
		{Name: "a", Type: AuxType{Kind: AuxInt16, Array: true}},
	}
	c, err := NewBinaryCodec(h)
	if err != nil {
		f.Fatalf("NewBinaryCodec failed: %v", err)
	}

	seed, err := c.Encode(&RawRecord{
		ReadID:       []byte("r1"),
		LenRawSignal: 3,
		RawSignal:    []int16{1, 2, 3},
		Aux:          [][]byte{[]byte("x"), {1, 0}},
	})
	if err != nil {
		f.Fatalf("Encode failed: %v", err)
	}
	f.Add(append([]byte(nil), seed...))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, payload []byte) {
		var rec RawRecord
		if err := c.Decode(payload, &rec); err != nil {
			return
		}
		again, err := c.Encode(&rec)
		if err != nil {
			t.Fatalf("decoded record does not re-encode: %v", err)
		}
		if len(again) == 0 {
			t.Fatal("empty re-encoding")
		}
	})
}

// FuzzParseText makes sure header parsing never panics
func FuzzParseText(f *testing.F) {
	h := NewHeader(1)
	text, _ := h.MarshalText()
	f.Add(text)
	f.Add([]byte("#slow5_version\t0.2.0\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		parsed, _, err := ParseText(bufio.NewReader(bytes.NewReader(data)))
		if err != nil {
			return
		}
		if _, err := parsed.MarshalText(); err != nil {
			t.Fatalf("parsed header does not marshal: %v", err)
		}
	})
}
