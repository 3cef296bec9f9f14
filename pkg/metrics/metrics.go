// Package metrics provides Prometheus collectors for the admission front end.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reason labels.
const (
	ReasonMalformed      = "malformed"
	ReasonSigOverflow    = "signature_overflow"
	ReasonStructural     = "structural"
	ReasonPrioritization = "prioritization"
	ReasonVote           = "vote"
	ReasonComputeLimit   = "compute_limit"
)

// Metrics holds the admission pipeline's Prometheus collectors. Following
// the explicit dependency injection pattern, the struct is passed to every
// component that records metrics.
type Metrics struct {
	packetsAdmitted  prometheus.Counter
	packetsRejected  *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	computeUnitPrice prometheus.Histogram
	transactionFee   prometheus.Histogram
	resolutionMisses prometheus.Counter
}

// NewMetrics creates a Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		packetsAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "admission_packets_admitted_total",
			Help: "Total number of packets admitted to the priority queue",
		}),
		packetsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "admission_packets_rejected_total",
			Help: "Total number of packets rejected at admission by reason",
		}, []string{"reason"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "admission_queue_depth",
			Help: "Current number of candidates in the admission queue",
		}),
		computeUnitPrice: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "admission_compute_unit_price_microlamports",
			Help:    "Derived compute-unit price of admitted packets",
			Buckets: prometheus.ExponentialBuckets(1, 10, 10),
		}),
		transactionFee: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "admission_transaction_fee_lamports",
			Help:    "Total fee of priced transactions",
			Buckets: prometheus.ExponentialBuckets(1000, 10, 8),
		}),
		resolutionMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "admission_address_resolution_misses_total",
			Help: "Candidates that could not resolve lookup addresses against the snapshot",
		}),
	}
}

// RecordAdmitted records an admitted packet and its derived price.
func (m *Metrics) RecordAdmitted(computeUnitPrice uint64) {
	m.packetsAdmitted.Inc()
	m.computeUnitPrice.Observe(float64(computeUnitPrice))
}

// RecordRejected records a rejected packet by reason.
func (m *Metrics) RecordRejected(reason string) {
	m.packetsRejected.WithLabelValues(reason).Inc()
}

// RejectedCounter returns the rejection counter for a reason label.
func (m *Metrics) RejectedCounter(reason string) prometheus.Counter {
	return m.packetsRejected.WithLabelValues(reason)
}

// RecordFee records a calculated total fee.
func (m *Metrics) RecordFee(totalFee uint64) {
	m.transactionFee.Observe(float64(totalFee))
}

// RecordResolutionMiss records a failed late address resolution.
func (m *Metrics) RecordResolutionMiss() {
	m.resolutionMisses.Inc()
}

// SetQueueDepth updates the queue depth gauge.
func (m *Metrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}
