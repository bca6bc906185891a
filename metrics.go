package sensorhub

import (
	"sync/atomic"
	"time"
)

// Metrics tracks operational statistics for a Hub, adapted from the
// teacher's block-device Metrics: the same atomic-counter shape
// (per-category counters plus a lifecycle timestamp, a Snapshot for
// point-in-time reads), narrowed to the four event families Observer
// reports instead of I/O byte/queue-depth stats.
type Metrics struct {
	RegistrationsOK     atomic.Uint64
	RegistrationsFailed atomic.Uint64

	RequestsRejectedCapacity   atomic.Uint64
	RequestsRejectedNotFound   atomic.Uint64
	RequestsRejectedInfeasible atomic.Uint64

	StateTransitions atomic.Uint64
	DriverFailures   atomic.Uint64

	StartTime atomic.Int64 // UnixNano
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// ObserveRegistration implements Observer.
func (m *Metrics) ObserveRegistration(sensorType uint32, ok bool) {
	if ok {
		m.RegistrationsOK.Add(1)
	} else {
		m.RegistrationsFailed.Add(1)
	}
}

// ObserveRequestRejected implements Observer.
func (m *Metrics) ObserveRequestRejected(code string) {
	switch SensorErrCode(code) {
	case ErrCodeCapacity:
		m.RequestsRejectedCapacity.Add(1)
	case ErrCodeNotFound:
		m.RequestsRejectedNotFound.Add(1)
	case ErrCodeInfeasible:
		m.RequestsRejectedInfeasible.Add(1)
	}
}

// ObserveStateTransition implements Observer.
func (m *Metrics) ObserveStateTransition(handle uint32, from, to string) {
	m.StateTransitions.Add(1)
}

// ObserveDriverDispatchFailure implements Observer.
func (m *Metrics) ObserveDriverDispatchFailure(handle uint32, op string) {
	m.DriverFailures.Add(1)
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to log or
// serialize without further synchronization.
type MetricsSnapshot struct {
	RegistrationsOK     uint64
	RegistrationsFailed uint64

	RequestsRejectedCapacity   uint64
	RequestsRejectedNotFound   uint64
	RequestsRejectedInfeasible uint64

	StateTransitions uint64
	DriverFailures   uint64

	UptimeNs uint64
}

// Snapshot returns a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RegistrationsOK:            m.RegistrationsOK.Load(),
		RegistrationsFailed:        m.RegistrationsFailed.Load(),
		RequestsRejectedCapacity:   m.RequestsRejectedCapacity.Load(),
		RequestsRejectedNotFound:   m.RequestsRejectedNotFound.Load(),
		RequestsRejectedInfeasible: m.RequestsRejectedInfeasible.Load(),
		StateTransitions:           m.StateTransitions.Load(),
		DriverFailures:             m.DriverFailures.Load(),
		UptimeNs:                   uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
}

// NoOpObserver discards every observation. A Hub built without an
// Observer does not install it; it skips observation calls instead.
type NoOpObserver struct{}

func (NoOpObserver) ObserveRegistration(uint32, bool)           {}
func (NoOpObserver) ObserveRequestRejected(string)              {}
func (NoOpObserver) ObserveStateTransition(uint32, string, string) {}
func (NoOpObserver) ObserveDriverDispatchFailure(uint32, string)  {}

var (
	_ Observer = (*Metrics)(nil)
	_ Observer = NoOpObserver{}
)
