package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/slow5/pkg/codec"
)

func testHeader(rc codec.RecordCompression) *codec.Header {
	h := codec.NewHeader(1)
	h.RecordCompression = rc
	h.SignalCompression = codec.SignalZigzagDelta
	h.Aux = []codec.AuxSpec{
		{Name: "channel", Type: codec.AuxType{Kind: codec.AuxString}},
	}
	return h
}

func testRecord(i int) *codec.RawRecord {
	signal := []int16{int16(i), int16(i + 1), int16(i + 2)}
	return &codec.RawRecord{
		ReadID:       []byte(fmt.Sprintf("read_%03d", i)),
		Digitisation: 8192,
		Offset:       10,
		Range:        1500,
		SamplingRate: 4000,
		LenRawSignal: uint64(len(signal)),
		RawSignal:    signal,
		Aux:          [][]byte{[]byte(fmt.Sprintf("ch%d", i))},
	}
}

// writeTestFile writes n records and returns the path and their locations
func writeTestFile(t *testing.T, name string, rc codec.RecordCompression, n int) (string, []IndexEntry) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	w, err := NewFileWriter(FileWriterConfig{FilePath: path})
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(testHeader(rc)))

	entries := make([]IndexEntry, 0, n)
	for i := 0; i < n; i++ {
		entry, err := w.Append(testRecord(i))
		require.NoError(t, err)
		entries = append(entries, entry)
	}
	require.NoError(t, w.Close())
	return path, entries
}
