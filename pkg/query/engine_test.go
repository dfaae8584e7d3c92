package query

import (
	"context"
	"fmt"
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

// openReads writes n reads in descending id order so file order differs
// from key order. Read i has median_before 10*i and end_reason
// endReasons[i%3].
func openReads(t *testing.T, n int) *slow5.Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reads.slow5")
	metrics := slow5.WithMetrics(slow5.NewMetrics(prometheus.NewRegistry()))

	w, err := slow5.Create(path,
		metrics,
		slow5.WithField(slow5.Field("median_before", slow5.TypeFloat64)),
		slow5.WithField(slow5.EnumField("end_reason", endReasons...)),
		slow5.WithField(slow5.Field("channel_number", slow5.TypeString)),
		slow5.WithField(slow5.Field("trace", slow5.ArrayOf(slow5.TypeInt16))),
	)
	require.NoError(t, err)
	for i := n - 1; i >= 0; i-- {
		b := w.NewRecordBuilder().
			ReadID(fmt.Sprintf("read-%02d", i)).
			ReadGroup(0).
			Digitisation(8192).
			Offset(4).
			Range(1400).
			SamplingRate(4000).
			RawSignal([]int16{1, 2, 3})
		require.NoError(t, b.SetAux("median_before", slow5.Float64(float64(10*i))))
		require.NoError(t, b.SetAux("end_reason", slow5.Enum(endReasons[i%3])))
		require.NoError(t, b.SetAux("channel_number", slow5.String(fmt.Sprint(i%4))))
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

func TestSimpleQueryEngine_ExecuteQuery(t *testing.T) {
	r := openReads(t, 10)
	engine := NewSimpleQueryEngine(r, nil)
	ctx := context.Background()

	tests := map[string]struct {
		queries  []string
		expected []string
	}{
		"equality on enum": {
			queries:  []string{"end_reason=signal_positive"},
			expected: []string{"read-08", "read-05", "read-02"},
		},
		"greater or equal": {
			queries:  []string{"median_before>=70"},
			expected: []string{"read-09", "read-08", "read-07"},
		},
		"strictly less": {
			queries:  []string{"median_before<20"},
			expected: []string{"read-01", "read-00"},
		},
		"conjunction": {
			queries:  []string{"median_before>20", "end_reason=unknown"},
			expected: []string{"read-09", "read-06", "read-03"},
		},
		"string field": {
			queries:  []string{"channel_number=1"},
			expected: []string{"read-09", "read-05", "read-01"},
		},
		"no match": {
			queries:  []string{"median_before>1000"},
			expected: []string{},
		},
		"empty intersection": {
			queries:  []string{"median_before<10", "end_reason=partial"},
			expected: []string{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			queries, err := ParseFieldQueries(tt.queries)
			require.NoError(t, err)
			ids, err := engine.ReadIDs(ctx, queries...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestSimpleQueryEngine_ExecuteRangeQuery(t *testing.T) {
	r := openReads(t, 10)
	engine := NewSimpleQueryEngine(r, index.NewIndexManager(4))
	ctx := context.Background()

	it, err := engine.ExecuteRangeQuery(ctx,
		FieldQuery{Field: "median_before", Operator: ">=", Value: 30.0},
		FieldQuery{Field: "median_before", Operator: "<", Value: 60.0},
	)
	require.NoError(t, err)
	var ids []string
	for it.Next() {
		ids = append(ids, it.Result().ReadID)
	}
	require.NoError(t, it.Close())
	assert.Equal(t, []string{"read-05", "read-04", "read-03"}, ids)

	_, err = engine.ExecuteRangeQuery(ctx,
		FieldQuery{Field: "median_before", Operator: ">", Value: 1},
		FieldQuery{Field: "end_reason", Operator: "<", Value: "x"},
	)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = engine.ExecuteRangeQuery(ctx,
		FieldQuery{Field: "median_before", Operator: "<", Value: 1},
		FieldQuery{Field: "median_before", Operator: "<", Value: 5},
	)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = engine.ExecuteRangeQuery(ctx,
		FieldQuery{Field: "median_before", Operator: ">", Value: 1},
		FieldQuery{Field: "median_before", Operator: "=", Value: 5},
	)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestSimpleQueryEngine_Errors(t *testing.T) {
	r := openReads(t, 3)
	engine := NewSimpleQueryEngine(r, nil)
	ctx := context.Background()

	_, err := engine.ExecuteQuery(ctx)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = engine.ExecuteQuery(ctx, FieldQuery{Field: "nope", Operator: "=", Value: "1"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.ErrorIs(t, err, slow5.ErrUnknownField)

	_, err = engine.ExecuteQuery(ctx, FieldQuery{Field: "trace", Operator: "=", Value: "1"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.ErrorIs(t, err, index.ErrUnindexable)

	_, err = engine.ExecuteQuery(ctx, FieldQuery{Field: "median_before", Operator: ">", Value: "high"})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = engine.ExecuteQuery(ctx, FieldQuery{Field: "median_before", Operator: "~", Value: "1"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestSimpleQueryEngine_NaNOperand(t *testing.T) {
	r := openReads(t, 5)
	engine := NewSimpleQueryEngine(r, nil)
	ctx := context.Background()

	for _, expr := range []string{"median_before=NaN", "median_before<NaN", "median_before>=NaN", "median_before<=nan"} {
		t.Run(expr, func(t *testing.T) {
			q, err := ParseFieldQuery(expr)
			require.NoError(t, err)
			ids, err := engine.ReadIDs(ctx, q)
			assert.ErrorIs(t, err, ErrInvalidQuery)
			assert.Nil(t, ids)
		})
	}
}

func TestSimpleQueryEngine_Canceled(t *testing.T) {
	r := openReads(t, 3)
	engine := NewSimpleQueryEngine(r, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.ExecuteQuery(ctx, FieldQuery{Field: "median_before", Operator: ">=", Value: "0"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimpleQueryEngine_ReusesIndexes(t *testing.T) {
	r := openReads(t, 4)
	im := index.NewIndexManager(index.DefaultOrder)
	engine := NewSimpleQueryEngine(r, im)
	ctx := context.Background()

	_, err := engine.ReadIDs(ctx, FieldQuery{Field: "median_before", Operator: ">", Value: "0"})
	require.NoError(t, err)
	first, err := im.GetIndex("median_before")
	require.NoError(t, err)

	_, err = engine.ReadIDs(ctx, FieldQuery{Field: "median_before", Operator: "<", Value: "0"})
	require.NoError(t, err)
	second, err := im.GetIndex("median_before")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
