package authcore

import "sync/atomic"

// MetricID indexes one engine counter.
type MetricID uint16

const (
	MetricPasswordHashed MetricID = iota
	MetricPasswordVerifySuccess
	MetricPasswordVerifyFailure
	MetricFieldEncrypted
	MetricFieldDecrypted
	MetricFieldDecryptFailure
	MetricTokenIssued
	MetricTokenValidateSuccess
	MetricTokenValidateFailure
	MetricTokenRevoked
	MetricRefreshSuccess
	MetricRefreshFailure

	metricCount
)

// Metrics is a fixed-slot atomic counter set; incrementing is lock-free
// and allocation-free on the validation hot path.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies every counter. It is not atomic across counters, which
// is fine for monitoring.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
