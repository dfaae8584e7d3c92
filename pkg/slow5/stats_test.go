package slow5

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGroups(t *testing.T, file string, n int, opts ...Option) string {
	t.Helper()
	path := tempPath(t, file)
	w, err := Create(path, append([]Option{testMetrics(), WithReadGroups(3)}, opts...)...)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		rec, err := w.NewRecordBuilder().
			ReadID(fmt.Sprintf("read_%04d", i)).
			ReadGroup(uint32(i % 3)).
			RawSignal([]int16{int16(-i), 0, int16(i)}).
			Digitisation(4096).Offset(4).Range(12).SamplingRate(4000).
			Build()
		require.NoError(t, err)
		require.NoError(t, w.Append(rec))
	}
	require.NoError(t, w.Close())
	return path
}

func TestSummarize(t *testing.T) {
	for _, workers := range []int{0, 1, 4, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			path := writeGroups(t, "reads.blow5", 30, WithRecordCompression(RecordZstd))

			s, err := Summarize(context.Background(), path, workers, testMetrics())
			require.NoError(t, err)
			assert.Equal(t, 30, s.Records)
			assert.Equal(t, uint64(90), s.Samples)
			assert.Equal(t, map[uint32]int{0: 10, 1: 10, 2: 10}, s.ReadGroups)
			assert.InDelta(t, ToPicoamps(-29, 4096, 4, 12), s.MinPicoamps, 1e-12)
			assert.InDelta(t, ToPicoamps(29, 4096, 4, 12), s.MaxPicoamps, 1e-12)
			assert.Zero(t, s.DecodeErrors)
		})
	}
}

func TestSummarize_PersistentIndex(t *testing.T) {
	path := writeGroups(t, "reads.slow5", 9)

	s, err := Summarize(context.Background(), path, 3, testMetrics(), WithPersistentIndex())
	require.NoError(t, err)
	assert.Equal(t, 9, s.Records)
}

func TestSummarize_Empty(t *testing.T) {
	path := writeGroups(t, "reads.blow5", 0)

	s, err := Summarize(context.Background(), path, 2, testMetrics())
	require.NoError(t, err)
	assert.Zero(t, s.Records)
	assert.Zero(t, s.MinPicoamps)
	assert.Zero(t, s.MaxPicoamps)
}

func TestSummarize_Cancelled(t *testing.T) {
	path := writeGroups(t, "reads.blow5", 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Summarize(ctx, path, 2, testMetrics())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize_BadPath(t *testing.T) {
	_, err := Summarize(context.Background(), "reads.txt", 2)
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}
