package sensorhub

import "testing"

func TestMetricsObserveRegistration(t *testing.T) {
	m := NewMetrics()
	m.ObserveRegistration(1, true)
	m.ObserveRegistration(1, false)
	snap := m.Snapshot()
	if snap.RegistrationsOK != 1 || snap.RegistrationsFailed != 1 {
		t.Errorf("snapshot = %+v, want 1 ok, 1 failed", snap)
	}
}

func TestMetricsObserveRequestRejectedBuckets(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequestRejected(string(ErrCodeCapacity))
	m.ObserveRequestRejected(string(ErrCodeNotFound))
	m.ObserveRequestRejected(string(ErrCodeInfeasible))
	m.ObserveRequestRejected(string(ErrCodeCapacity))

	snap := m.Snapshot()
	if snap.RequestsRejectedCapacity != 2 {
		t.Errorf("capacity rejections = %d, want 2", snap.RequestsRejectedCapacity)
	}
	if snap.RequestsRejectedNotFound != 1 || snap.RequestsRejectedInfeasible != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestMetricsObserveStateTransitionAndDriverFailure(t *testing.T) {
	m := NewMetrics()
	m.ObserveStateTransition(1, "Off", "PoweringOn")
	m.ObserveDriverDispatchFailure(1, "Power")

	snap := m.Snapshot()
	if snap.StateTransitions != 1 || snap.DriverFailures != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestNoOpObserverDoesNotPanic(t *testing.T) {
	var o NoOpObserver
	o.ObserveRegistration(1, true)
	o.ObserveRequestRejected("x")
	o.ObserveStateTransition(1, "a", "b")
	o.ObserveDriverDispatchFailure(1, "op")
}
