package slow5

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics counts file activity. A nil *Metrics records nothing.
type Metrics struct {
	recordsDecoded  *prometheus.CounterVec
	recordsAppended *prometheus.CounterVec
	samplesTotal    *prometheus.CounterVec
	lookupsTotal    *prometheus.CounterVec
	openHandles     *prometheus.GaugeVec
	indexBuilds     *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		recordsDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slow5_records_decoded_total",
				Help: "Total number of records decoded",
			},
			[]string{"format", "status"},
		),
		recordsAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slow5_records_appended_total",
				Help: "Total number of records appended",
			},
			[]string{"format", "status"},
		),
		samplesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slow5_samples_total",
				Help: "Total number of raw signal samples decoded or appended",
			},
			[]string{"direction"},
		),
		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slow5_read_lookups_total",
				Help: "Total number of lookups by read id",
			},
			[]string{"status"},
		),
		openHandles: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "slow5_open_handles",
				Help: "Number of open readers and writers",
			},
			[]string{"mode"},
		),
		indexBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slow5_index_builds_total",
				Help: "Total number of read id index builds",
			},
			[]string{"source"},
		),
	}
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// DefaultMetrics returns metrics registered with the default registerer
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusSuccess
}

func (m *Metrics) recordDecoded(format string, samples int, err error) {
	if m == nil {
		return
	}
	m.recordsDecoded.WithLabelValues(format, status(err)).Inc()
	if err == nil {
		m.samplesTotal.WithLabelValues("read").Add(float64(samples))
	}
}

func (m *Metrics) recordAppended(format string, samples int, err error) {
	if m == nil {
		return
	}
	m.recordsAppended.WithLabelValues(format, status(err)).Inc()
	if err == nil {
		m.samplesTotal.WithLabelValues("write").Add(float64(samples))
	}
}

func (m *Metrics) lookup(found bool) {
	if m == nil {
		return
	}
	if found {
		m.lookupsTotal.WithLabelValues("found").Inc()
	} else {
		m.lookupsTotal.WithLabelValues("not_found").Inc()
	}
}

func (m *Metrics) handleOpened(mode string) {
	if m != nil {
		m.openHandles.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) handleClosed(mode string) {
	if m != nil {
		m.openHandles.WithLabelValues(mode).Dec()
	}
}

func (m *Metrics) indexBuilt(source string) {
	if m != nil {
		m.indexBuilds.WithLabelValues(source).Inc()
	}
}
