// Package metrics exposes Prometheus collectors for merge runs.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xmerge"

// Metrics collects counters for merge runs.
type Metrics struct {
	linesMerged   prometheus.Counter
	linesFiltered prometheus.Counter
	filesCreated  prometheus.Counter
	filesRemoved  prometheus.Counter
	openReaders   prometheus.Gauge
	mergeDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		linesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_merged_total",
			Help:      "Total number of lines written by merge steps",
		}),
		linesFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_filtered_total",
			Help:      "Total number of source lines rejected by the line filter",
		}),
		filesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intermediate_files_created_total",
			Help:      "Total number of intermediate files created",
		}),
		filesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intermediate_files_removed_total",
			Help:      "Total number of intermediate files removed",
		}),
		openReaders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_readers",
			Help:      "Number of line readers currently holding a file handle",
		}),
		mergeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Duration of single merge steps",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"strategy"}),
	}

	reg.MustRegister(
		m.linesMerged,
		m.linesFiltered,
		m.filesCreated,
		m.filesRemoved,
		m.openReaders,
		m.mergeDuration,
	)

	return m
}

func (m *Metrics) RecordLinesMerged(n int64) {
	if m == nil {
		return
	}
	m.linesMerged.Add(float64(n))
}

func (m *Metrics) RecordLinesFiltered(n int64) {
	if m == nil {
		return
	}
	m.linesFiltered.Add(float64(n))
}

func (m *Metrics) RecordFileCreated() {
	if m == nil {
		return
	}
	m.filesCreated.Inc()
}

func (m *Metrics) RecordFileRemoved() {
	if m == nil {
		return
	}
	m.filesRemoved.Inc()
}

func (m *Metrics) ReaderOpened() {
	if m == nil {
		return
	}
	m.openReaders.Inc()
}

func (m *Metrics) ReaderClosed() {
	if m == nil {
		return
	}
	m.openReaders.Dec()
}

// ObserveMerge records how long one merge step of the given strategy took.
func (m *Metrics) ObserveMerge(strategy string, d time.Duration) {
	if m == nil {
		return
	}
	m.mergeDuration.WithLabelValues(strategy).Observe(d.Seconds())
}
