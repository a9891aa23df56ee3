package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector creates application metrics. Everything it creates is registered on
// the application registry with the service label attached.
type MetricsCollector interface {
	CreateCounter(name, help string, labels []string) Counter
	CreateGauge(name, help string, labels []string) Gauge
	CreateHistogram(name, help string, labels []string, buckets []float64) Histogram
}

// Counter is a labeled counter, satisfied by *prometheus.CounterVec.
type Counter interface {
	WithLabelValues(lvs ...string) prometheus.Counter
}

// Gauge is a labeled gauge, satisfied by *prometheus.GaugeVec.
type Gauge interface {
	WithLabelValues(lvs ...string) prometheus.Gauge
}

// Histogram is a labeled histogram, satisfied by *prometheus.HistogramVec.
type Histogram interface {
	WithLabelValues(lvs ...string) prometheus.Observer
}

// CreateCounter registers a counter vector.
//
//	flushes := m.CreateCounter("members_sync_flush_total", "Flush attempts", []string{"topic"})
//	flushes.WithLabelValues("member").Inc()
func (m *Metrics) CreateCounter(name, help string, labels []string) Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	m.wrappedApplicationRegisterer.MustRegister(vec)
	return vec
}

// CreateGauge registers a gauge vector.
func (m *Metrics) CreateGauge(name, help string, labels []string) Gauge {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	m.wrappedApplicationRegisterer.MustRegister(vec)
	return vec
}

// CreateHistogram registers a histogram vector. Nil buckets use prometheus.DefBuckets.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) Histogram {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labels)
	m.wrappedApplicationRegisterer.MustRegister(vec)
	return vec
}
