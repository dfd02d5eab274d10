package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "offer_catalog"

// Refresh outcome labels
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
)

// Metrics holds the collectors exported on /metrics
type Metrics struct {
	refreshes        *prometheus.CounterVec
	malformedRecords prometheus.Counter
	duplicateKeys    prometheus.Counter
	snapshotOffers   prometheus.Gauge
	lastRefresh      prometheus.Gauge
	selections       *prometheus.CounterVec
	submissionTime   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Catalog refresh attempts by result and failure kind.",
		}, []string{"result", "kind"}),
		malformedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_records_total",
			Help:      "Feed records dropped because they failed validation.",
		}),
		duplicateKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_keys_total",
			Help:      "Feed records whose offer key repeated an earlier record in the same snapshot.",
		}),
		snapshotOffers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_offers",
			Help:      "Offers in the current snapshot.",
		}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last snapshot replacement.",
		}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Offer selections by outcome.",
		}, []string{"outcome"}),
		submissionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Latency of bet-placement requests.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.refreshes,
		m.malformedRecords,
		m.duplicateKeys,
		m.snapshotOffers,
		m.lastRefresh,
		m.selections,
		m.submissionTime,
	)

	return m
}

// ObserveRefreshSuccess records a refresh that replaced the snapshot
func (m *Metrics) ObserveRefreshSuccess(size, malformed, duplicates int, at time.Time) {
	m.refreshes.WithLabelValues(RefreshSuccess, "").Inc()
	m.malformedRecords.Add(float64(malformed))
	m.duplicateKeys.Add(float64(duplicates))
	m.snapshotOffers.Set(float64(size))
	m.lastRefresh.Set(float64(at.Unix()))
}

// ObserveRefreshFailure records a refresh that left the snapshot untouched
func (m *Metrics) ObserveRefreshFailure(kind string, malformed int) {
	m.refreshes.WithLabelValues(RefreshFailure, kind).Inc()
	m.malformedRecords.Add(float64(malformed))
}

// SetSnapshotSize sets the snapshot gauge, used after a restore
func (m *Metrics) SetSnapshotSize(size int) {
	m.snapshotOffers.Set(float64(size))
}

// ObserveSelection records the outcome of a selection
func (m *Metrics) ObserveSelection(outcome string) {
	m.selections.WithLabelValues(outcome).Inc()
}

// ObserveSubmission records the latency of one bet-placement request
func (m *Metrics) ObserveSubmission(d time.Duration) {
	m.submissionTime.Observe(d.Seconds())
}
