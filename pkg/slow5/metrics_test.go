package slow5

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountActivity(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	path := writeReads(t, "reads.blow5", 3)

	r, err := Open(path, WithMetrics(m))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.openHandles.WithLabelValues("read")))

	_, err = r.Get("read_001")
	require.NoError(t, err)
	_, err = r.Get("nope")
	assert.Error(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.Equal(t, 0.0, testutil.ToFloat64(m.openHandles.WithLabelValues("read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookupsTotal.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookupsTotal.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsDecoded.WithLabelValues("blow5", statusSuccess)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.samplesTotal.WithLabelValues("read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.indexBuilds.WithLabelValues("scan")))
}

func TestMetrics_Append(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	w, err := Create(tempPath(t, "reads.slow5"), WithMetrics(m))
	require.NoError(t, err)

	rec := buildRecord(t, w.Registry(), "r1", []int16{1, 2}, nil)
	require.NoError(t, w.Append(rec))
	assert.Error(t, w.Append(rec))
	require.NoError(t, w.Close())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsAppended.WithLabelValues("slow5", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsAppended.WithLabelValues("slow5", statusError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.samplesTotal.WithLabelValues("write")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.recordDecoded("blow5", 1, nil)
		m.recordAppended("blow5", 1, nil)
		m.lookup(true)
		m.handleOpened("read")
		m.handleClosed("read")
		m.indexBuilt("scan")
	})
}
