// Package interfaces holds the sensorhub core's external-collaborator
// contracts (spec.md §6) as plain-type interfaces, separate from the
// root package's richer sentinel-typed API. This mirrors the teacher's
// internal/interfaces/backend.go, which exists for the same reason: the
// root package and any concrete implementation package (here, drivers)
// both need to reference these contracts without a circular import
// through the root package's own types.
package interfaces

// DriverOps is the direct-call dispatch target for an in-hub sensor
// driver (spec.md §4.2, the "driver-ops vtable" variant). Rate and
// latency are passed as the raw hardware units the core computes them
// in; the root package's Rate/Latency types are thin wrappers over the
// same underlying representation.
type DriverOps interface {
	Power(on bool) bool
	FirmwareUpload() bool
	SetRate(rate uint32, latencyNs uint64) bool
	Flush() bool
	TriggerOnDemand() bool
}

// EventKind enumerates the private event kinds dispatched to an applet
// task (spec.md §6).
type EventKind int

const (
	EventPower EventKind = iota
	EventFwUpload
	EventSetRate
	EventFlush
	EventTrigger
)

func (k EventKind) String() string {
	switch k {
	case EventPower:
		return "POWER"
	case EventFwUpload:
		return "FW_UPLOAD"
	case EventSetRate:
		return "SET_RATE"
	case EventFlush:
		return "FLUSH"
	case EventTrigger:
		return "TRIGGER"
	default:
		return "UNKNOWN"
	}
}

// SetRatePayload is the owned payload carried by an EventSetRate event,
// allocated from the internal-event pool per spec.md §4.2 and released
// via the freeFn passed to EnqueuePrivate after delivery.
type SetRatePayload struct {
	Rate      uint32
	LatencyNs uint64
}

// PrivateEventSink is the applet-dispatch target (spec.md §4.2, §6): it
// enqueues a typed event to an applet task, invoking freeFn (if given)
// with payload once delivered. The return value is whether enqueueing
// itself succeeded.
type PrivateEventSink interface {
	EnqueuePrivate(kind EventKind, payload any, freeFn func(any), taskID uint32) bool
}

// Scheduler is the deferred-callback scheduler (spec.md §6):
// defer(callback, payload) -> bool. The Go port closes the payload into
// the callback rather than threading it through separately.
type Scheduler interface {
	Defer(fn func()) bool
}

// Observer receives metrics about core activity. Implementations must
// be safe for concurrent use; the teacher's internal/interfaces.Observer
// carries the identical contract for this reason.
type Observer interface {
	ObserveRegistration(sensorType uint32, ok bool)
	ObserveRequestRejected(code string)
	ObserveStateTransition(handle uint32, from, to string)
	ObserveDriverDispatchFailure(handle uint32, op string)
}
