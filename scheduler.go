package sensorhub

import "github.com/brodyw/sensorhub/internal/interfaces"

// Scheduler is the deferred-callback scheduler collaborator spec.md §6
// requires: defer(callback, payload) -> bool. It is out of scope for
// this core (the host task/event scheduler owns it); the core only
// depends on this interface. internal/sched adapts a real
// *eventloop.Loop to it.
type Scheduler = interfaces.Scheduler

// PrivateEventSink is the applet private-event enqueue collaborator
// (spec.md §6): enqueuePrivate(eventKind, payload, freeFn, taskId) ->
// bool.
type PrivateEventSink = interfaces.PrivateEventSink

// DriverOps is the direct-call driver dispatch contract (spec.md §4.2).
type DriverOps = interfaces.DriverOps

// Observer receives metrics about core activity; see Metrics for the
// built-in atomic-counter implementation.
type Observer = interfaces.Observer

// EventKind enumerates the private event kinds dispatched to applets.
type EventKind = interfaces.EventKind

const (
	EventPower    = interfaces.EventPower
	EventFwUpload = interfaces.EventFwUpload
	EventSetRate  = interfaces.EventSetRate
	EventFlush    = interfaces.EventFlush
	EventTrigger  = interfaces.EventTrigger
)

// SetRatePayload is the owned payload carried by an EventSetRate event.
type SetRatePayload = interfaces.SetRatePayload
