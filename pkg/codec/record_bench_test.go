//go:build bench
// +build bench

package codec

import (
	"math/rand"
	"testing"
)

func benchRecord(n int) *RawRecord {
	rng := rand.New(rand.NewSource(1))
	signal := make([]int16, n)
	level := int16(500)
	for i := range signal {
		level += int16(rng.Intn(21) - 10)
		signal[i] = level
	}
	return &RawRecord{
		ReadID:       []byte("a0b1c2d3-e4f5-4a6b-8c7d-9e0f1a2b3c4d"),
		Digitisation: 8192,
		Offset:       10,
		Range:        1500,
		SamplingRate: 4000,
		LenRawSignal: uint64(n),
		RawSignal:    signal,
		Aux:          [][]byte{},
	}
}

func BenchmarkBinaryCodec_Encode(b *testing.B) {
	rec := benchRecord(40000)
	for _, rc := range []RecordCompression{RecordNone, RecordZlib, RecordZstd, RecordSnappy} {
		b.Run(rc.String(), func(b *testing.B) {
			h := NewHeader(1)
			h.RecordCompression = rc
			h.SignalCompression = SignalZigzagDelta
			c, err := NewBinaryCodec(h)
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.Encode(rec); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkBinaryCodec_Decode(b *testing.B) {
	rec := benchRecord(40000)
	for _, rc := range []RecordCompression{RecordNone, RecordZstd} {
		b.Run(rc.String(), func(b *testing.B) {
			h := NewHeader(1)
			h.RecordCompression = rc
			h.SignalCompression = SignalZigzagDelta
			c, err := NewBinaryCodec(h)
			if err != nil {
				b.Fatal(err)
			}
			payload, err := c.Encode(rec)
			if err != nil {
				b.Fatal(err)
			}
			payload = append([]byte(nil), payload...)
			var out RawRecord
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := c.Decode(payload, &out); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
