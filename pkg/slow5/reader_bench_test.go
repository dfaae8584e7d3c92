//go:build bench
// +build bench

package slow5

import (
	"fmt"
	"math/rand"
	"testing"
)

func benchFile(b *testing.B, file string, n int, opts ...Option) string {
	b.Helper()
	path := b.TempDir() + "/" + file
	w, err := Create(path, append([]Option{testMetrics(), WithField(Field("channel", TypeString))}, opts...)...)
	if err != nil {
		b.Fatalf("Create failed: %v", err)
	}
	rng := rand.New(rand.NewSource(1))
	signal := make([]int16, 4000)
	for i := 0; i < n; i++ {
		level := int16(500)
		for j := range signal {
			level += int16(rng.Intn(21) - 10)
			signal[j] = level
		}
		builder := w.NewRecordBuilder().
			ReadID(fmt.Sprintf("read_%06d", i)).ReadGroup(0).
			RawSignal(signal).
			Digitisation(8192).Offset(10).Range(1500).SamplingRate(4000)
		if err := builder.SetAux("channel", String(fmt.Sprint(i%512))); err != nil {
			b.Fatalf("SetAux failed: %v", err)
		}
		rec, err := builder.Build()
		if err != nil {
			b.Fatalf("Build failed: %v", err)
		}
		if err := w.Append(rec); err != nil {
			b.Fatalf("Append failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		b.Fatalf("Close failed: %v", err)
	}
	return path
}

func BenchmarkReader_Records(b *testing.B) {
	for _, rc := range []RecordCompression{RecordNone, RecordZstd} {
		b.Run(rc.String(), func(b *testing.B) {
			path := benchFile(b, "reads.blow5", 200, WithRecordCompression(rc), WithSignalCompression(SignalZigzagDelta))
			r, err := Open(path, testMetrics())
			if err != nil {
				b.Fatalf("Open failed: %v", err)
			}
			defer r.Close()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				it := r.Records()
				for it.Next() {
					if _, err := it.Record(); err != nil {
						b.Fatalf("Record failed: %v", err)
					}
				}
			}
		})
	}
}

func BenchmarkReader_Get(b *testing.B) {
	path := benchFile(b, "reads.blow5", 200)
	r, err := Open(path, testMetrics())
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Get(fmt.Sprintf("read_%06d", i%200)); err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}
