package sensorhub

import "github.com/brodyw/sensorhub/internal/interfaces"

// Binding is the tagged reference attached to each sensor selecting one
// of two dispatch strategies (spec.md §4.2): a direct call into a
// driver operations vtable, or asynchronous event delivery to an applet
// task id. spec.md §9's design note calls for a tagged variant over
// runtime-type reflection; this is that variant, expressed as a sum
// type via an internal discriminant rather than the teacher's "pointer
// vs int tag" trick (taggedPtr in the reference firmware), which has no
// honest Go equivalent and isn't idiomatic here anyway.
type Binding struct {
	ops    interfaces.DriverOps // set iff applet == false
	taskID uint32               // set iff applet == true
	applet bool
}

// NewDriverBinding creates a Binding that dispatches directly to ops.
func NewDriverBinding(ops interfaces.DriverOps) Binding {
	return Binding{ops: ops}
}

// NewAppletBinding creates a Binding that dispatches asynchronously to
// the applet task identified by taskID.
func NewAppletBinding(taskID uint32) Binding {
	return Binding{taskID: taskID, applet: true}
}

// IsApplet reports whether this binding dispatches via the applet path.
func (b Binding) IsApplet() bool { return b.applet }

// sink is resolved once, by the Hub, and threaded through dispatch calls
// rather than stored on Binding: the applet event sink is a hub-wide
// collaborator (spec.md §6's enqueuePrivate), not a per-sensor one.
func (b Binding) power(sink interfaces.PrivateEventSink, on bool) bool {
	if !b.applet {
		return b.ops.Power(on)
	}
	return sink.EnqueuePrivate(interfaces.EventPower, on, nil, b.taskID)
}

func (b Binding) firmwareUpload(sink interfaces.PrivateEventSink) bool {
	if !b.applet {
		return b.ops.FirmwareUpload()
	}
	return sink.EnqueuePrivate(interfaces.EventFwUpload, nil, nil, b.taskID)
}

// setRate requires an owned payload for the applet path (spec.md §4.2):
// allocated by the caller from the internal-event pool, with a release
// callback that frees it after delivery.
func (b Binding) setRate(sink interfaces.PrivateEventSink, rate uint32, latencyNs uint64, payload *interfaces.SetRatePayload, free func(any)) bool {
	if !b.applet {
		return b.ops.SetRate(rate, latencyNs)
	}
	payload.Rate = rate
	payload.LatencyNs = latencyNs
	return sink.EnqueuePrivate(interfaces.EventSetRate, payload, free, b.taskID)
}

func (b Binding) flush(sink interfaces.PrivateEventSink) bool {
	if !b.applet {
		return b.ops.Flush()
	}
	return sink.EnqueuePrivate(interfaces.EventFlush, nil, nil, b.taskID)
}

func (b Binding) triggerOnDemand(sink interfaces.PrivateEventSink) bool {
	if !b.applet {
		return b.ops.TriggerOnDemand()
	}
	return sink.EnqueuePrivate(interfaces.EventTrigger, nil, nil, b.taskID)
}
