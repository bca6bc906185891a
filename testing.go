package sensorhub

import "sync"

// MockDriverOps is a scriptable DriverOps implementation for testing Hub
// scenarios without a real driver, adapted from the teacher's
// MockBackend: same call-count tracking and configurable-failure shape,
// narrowed to the five direct-call operations spec.md §4.2 defines.
//
// Completions are not automatic: call SignalInternalEvent on the owning
// Hub yourself (as a real driver's interrupt handler would) to advance
// the state machine. No operation of the mock signals a completion on
// its own.
type MockDriverOps struct {
	mu sync.Mutex

	powerCalls   int
	fwCalls      int
	setRateCalls int
	flushCalls   int
	triggerCalls int

	lastRate      uint32
	lastLatencyNs uint64
	powered       bool

	failPower   bool
	failFw      bool
	failSetRate bool
	failFlush   bool
	failTrigger bool
}

// NewMockDriverOps creates a mock driver with every operation succeeding
// by default.
func NewMockDriverOps() *MockDriverOps {
	return &MockDriverOps{}
}

// Power implements DriverOps.
func (m *MockDriverOps) Power(on bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.powerCalls++
	if m.failPower {
		return false
	}
	m.powered = on
	return true
}

// FirmwareUpload implements DriverOps.
func (m *MockDriverOps) FirmwareUpload() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fwCalls++
	return !m.failFw
}

// SetRate implements DriverOps.
func (m *MockDriverOps) SetRate(rate uint32, latencyNs uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setRateCalls++
	if m.failSetRate {
		return false
	}
	m.lastRate = rate
	m.lastLatencyNs = latencyNs
	return true
}

// Flush implements DriverOps.
func (m *MockDriverOps) Flush() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushCalls++
	return !m.failFlush
}

// TriggerOnDemand implements DriverOps.
func (m *MockDriverOps) TriggerOnDemand() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggerCalls++
	return !m.failTrigger
}

// SetFailPower, SetFailFirmwareUpload, SetFailSetRate, SetFailFlush, and
// SetFailTrigger configure the corresponding operation to report
// failure on its next invocation(s).
func (m *MockDriverOps) SetFailPower(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPower = fail
}

func (m *MockDriverOps) SetFailFirmwareUpload(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFw = fail
}

func (m *MockDriverOps) SetFailSetRate(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSetRate = fail
}

func (m *MockDriverOps) SetFailFlush(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFlush = fail
}

func (m *MockDriverOps) SetFailTrigger(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTrigger = fail
}

// CallCounts returns the number of times each operation has been
// invoked, keyed by operation name.
func (m *MockDriverOps) CallCounts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int{
		"power":    m.powerCalls,
		"firmware": m.fwCalls,
		"setRate":  m.setRateCalls,
		"flush":    m.flushCalls,
		"trigger":  m.triggerCalls,
	}
}

// LastRate returns the most recent (rate, latencyNs) passed to SetRate.
func (m *MockDriverOps) LastRate() (uint32, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRate, m.lastLatencyNs
}

// IsPowered reports the most recent value passed to Power.
func (m *MockDriverOps) IsPowered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.powered
}

// testScheduler queues deferred callbacks and runs them on the calling
// goroutine when Drain is called, for tests that don't need a real
// event loop. Grounded on the same
// need the teacher's queue.Runner addresses for a controllable
// execution context, simplified to the single-callback contract
// spec.md §6 describes.
type testScheduler struct {
	mu    sync.Mutex
	queue []func()
}

// NewTestScheduler creates a Scheduler that buffers deferred callbacks
// until Drain is called, so tests can observe intermediate state.
func NewTestScheduler() *testScheduler {
	return &testScheduler{}
}

// Defer implements Scheduler.
func (s *testScheduler) Defer(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, fn)
	return true
}

// Drain runs every callback queued so far, including ones newly queued
// by earlier callbacks, until the queue is empty.
func (s *testScheduler) Drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		fn()
	}
}

// testEventSink records applet-bound events instead of delivering them
// to an actual applet task, and calls each event's freeFn immediately,
// for tests that exercise the applet Binding path. It does not signal
// any completion back into a Hub.
type testEventSink struct {
	mu      sync.Mutex
	enqueued []testEnqueuedEvent
}

type testEnqueuedEvent struct {
	Kind    EventKind
	Payload any
	TaskID  uint32
}

// NewTestEventSink creates a PrivateEventSink that records every
// enqueue call for later inspection.
func NewTestEventSink() *testEventSink {
	return &testEventSink{}
}

// EnqueuePrivate implements PrivateEventSink.
func (s *testEventSink) EnqueuePrivate(kind EventKind, payload any, freeFn func(any), taskID uint32) bool {
	s.mu.Lock()
	s.enqueued = append(s.enqueued, testEnqueuedEvent{Kind: kind, Payload: payload, TaskID: taskID})
	s.mu.Unlock()
	if freeFn != nil {
		freeFn(payload)
	}
	return true
}

// Enqueued returns every event recorded so far.
func (s *testEventSink) Enqueued() []testEnqueuedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]testEnqueuedEvent, len(s.enqueued))
	copy(out, s.enqueued)
	return out
}

var (
	_ DriverOps         = (*MockDriverOps)(nil)
	_ Scheduler         = (*testScheduler)(nil)
	_ PrivateEventSink  = (*testEventSink)(nil)
)
