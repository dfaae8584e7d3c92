package index_test

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/slow5/internal/logging"
	"github.com/ssargent/slow5/pkg/index"
	"github.com/ssargent/slow5/pkg/slow5"
)

func TestMain(m *testing.M) {
	logging.ConfigureTests()
	os.Exit(m.Run())
}

var endReasons = []string{"unknown", "partial", "signal_positive"}

// writeFile writes reads r0..r(n-1) where read i has median_before 10*i,
// channel_number "ch<i%3>", end_reason endReasons[i%3] and no mux on odd
// reads
func writeFile(t *testing.T, n int) *slow5.Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reads.blow5")
	metrics := slow5.WithMetrics(slow5.NewMetrics(prometheus.NewRegistry()))

	w, err := slow5.Create(path,
		metrics,
		slow5.WithField(slow5.Field("median_before", slow5.TypeFloat64)),
		slow5.WithField(slow5.Field("channel_number", slow5.TypeString)),
		slow5.WithField(slow5.EnumField("end_reason", endReasons...)),
		slow5.WithField(slow5.Field("start_mux", slow5.TypeUint8)),
		slow5.WithField(slow5.Field("trace", slow5.ArrayOf(slow5.TypeInt16))),
	)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		b := w.NewRecordBuilder().
			ReadID(fmt.Sprintf("r%d", i)).
			ReadGroup(0).
			Digitisation(8192).
			Offset(10).
			Range(1400).
			SamplingRate(4000).
			RawSignal([]int16{int16(i), int16(i + 1)})
		require.NoError(t, b.SetAux("median_before", slow5.Float64(float64(10*i))))
		require.NoError(t, b.SetAux("channel_number", slow5.String(fmt.Sprintf("ch%d", i%3))))
		require.NoError(t, b.SetAux("end_reason", slow5.Enum(endReasons[i%3])))
		if i%2 == 0 {
			require.NoError(t, b.SetAux("start_mux", slow5.Uint8(uint8(i))))
		}
		rec, err := b.Build()
		require.NoError(t, err)
		require.NoError(t, w.Append(rec))
	}
	require.NoError(t, w.Close())

	r, err := slow5.Open(path, metrics)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestNewSecondaryIndex(t *testing.T) {
	idx, err := index.NewSecondaryIndex("median_before", slow5.TypeFloat64, 4)
	require.NoError(t, err)
	assert.True(t, idx.Numeric())
	assert.Equal(t, "median_before", idx.Field())

	idx, err = index.NewSecondaryIndex("end_reason", slow5.TypeEnum, 4)
	require.NoError(t, err)
	assert.False(t, idx.Numeric())

	idx, err = index.NewSecondaryIndex("ch", slow5.TypeChar, 4)
	require.NoError(t, err)
	assert.False(t, idx.Numeric())

	_, err = index.NewSecondaryIndex("trace", slow5.ArrayOf(slow5.TypeInt16), 4)
	assert.ErrorIs(t, err, index.ErrUnindexable)
}

func TestSecondaryIndex_InsertAndSearch(t *testing.T) {
	idx, err := index.NewSecondaryIndex("read_number", slow5.TypeInt32, 3)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, idx.Insert(slow5.Int32(int32(i%5)), fmt.Sprintf("r%d", i)))
	}
	require.NoError(t, idx.Insert(slow5.Float64(math.NaN()), "nan"))
	assert.Equal(t, 20, idx.Len())

	ids, err := idx.Search(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r7", "r12", "r17"}, ids)

	ids, err = idx.Search("4")
	require.NoError(t, err)
	assert.Len(t, ids, 4)

	ids, err = idx.Search(9)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = idx.Search("four")
	assert.Error(t, err)

	_, err = idx.Search("NaN")
	assert.Error(t, err)
	_, err = idx.SearchRange(index.Bound{Value: math.NaN(), Inclusive: true}, index.Bound{})
	assert.Error(t, err)

	err = idx.Insert(slow5.String("x"), "bad")
	assert.Error(t, err)
}

func TestSecondaryIndex_SearchRange(t *testing.T) {
	idx, err := index.NewSecondaryIndex("median_before", slow5.TypeFloat64, 4)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, idx.Insert(slow5.Float64(float64(i)), fmt.Sprintf("r%d", i)))
	}

	tests := map[string]struct {
		start, end index.Bound
		expected   []string
	}{
		"closed": {
			start:    index.Bound{Value: 2.0, Inclusive: true},
			end:      index.Bound{Value: 4.0, Inclusive: true},
			expected: []string{"r2", "r3", "r4"},
		},
		"open": {
			start:    index.Bound{Value: 2.0},
			end:      index.Bound{Value: 4.0},
			expected: []string{"r3"},
		},
		"unbounded below": {
			end:      index.Bound{Value: 1.5},
			expected: []string{"r0", "r1"},
		},
		"unbounded above": {
			start:    index.Bound{Value: 8, Inclusive: true},
			expected: []string{"r8", "r9"},
		},
		"empty": {
			start:    index.Bound{Value: 20.0},
			expected: []string{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ids, err := idx.SearchRange(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestSecondaryIndex_TextRange(t *testing.T) {
	idx, err := index.NewSecondaryIndex("channel_number", slow5.TypeString, 4)
	require.NoError(t, err)
	for _, ch := range []string{"10", "2", "100", "3"} {
		require.NoError(t, idx.Insert(slow5.String(ch), "r"+ch))
	}

	// lexical, not numeric
	ids, err := idx.SearchRange(index.Bound{Value: "10", Inclusive: true}, index.Bound{Value: "2", Inclusive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"r10", "r100", "r2"}, ids)

	_, err = idx.Search(10)
	assert.Error(t, err)
}

func TestIndexManager_Build(t *testing.T) {
	r := writeFile(t, 12)
	im := index.NewIndexManager(index.DefaultOrder)

	require.NoError(t, im.Build(r, "median_before", "end_reason", "start_mux"))
	assert.Equal(t, 0, im.Skipped())

	median, err := im.GetIndex("median_before")
	require.NoError(t, err)
	assert.Equal(t, 12, median.Len())
	ids, err := median.SearchRange(index.Bound{Value: 100.0, Inclusive: true}, index.Bound{})
	require.NoError(t, err)
	assert.Equal(t, []string{"r10", "r11"}, ids)

	reasons, err := im.GetIndex("end_reason")
	require.NoError(t, err)
	ids, err = reasons.Search("signal_positive")
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r5", "r8", "r11"}, ids)

	// odd reads carry no start_mux
	mux, err := im.GetIndex("start_mux")
	require.NoError(t, err)
	assert.Equal(t, 6, mux.Len())

	_, err = im.GetIndex("channel_number")
	assert.ErrorIs(t, err, index.ErrNoIndex)

	// already built fields are not rebuilt
	require.NoError(t, im.Build(r, "median_before", "channel_number"))
	again, err := im.GetIndex("median_before")
	require.NoError(t, err)
	assert.Same(t, median, again)
}

func TestIndexManager_BuildErrors(t *testing.T) {
	r := writeFile(t, 3)
	im := index.NewIndexManager(index.DefaultOrder)

	err := im.Build(r, "no_such_field")
	assert.ErrorIs(t, err, slow5.ErrUnknownField)

	err = im.Build(r, "trace")
	assert.ErrorIs(t, err, index.ErrUnindexable)

	require.NoError(t, r.Close())
	err = im.Build(r, "median_before")
	assert.ErrorIs(t, err, slow5.ErrHandleClosed)
}
