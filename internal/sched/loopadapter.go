// Package sched adapts github.com/joeycumines/go-eventloop's *Loop to
// the sensorhub interfaces.Scheduler contract (spec.md §6's
// defer(callback, payload) -> bool), so a Hub can run its deferred
// completion-event handlers on a real host event loop instead of the
// synchronous test scheduler.
package sched

import "github.com/brodyw/sensorhub/internal/interfaces"

// loop is the subset of *eventloop.Loop this adapter depends on,
// narrowed to a local interface so this package (and its callers) don't
// need to import eventloop just to construct a Scheduler value in
// tests.
type loop interface {
	ScheduleMicrotask(fn func()) error
}

// LoopScheduler adapts a *eventloop.Loop to interfaces.Scheduler.
type LoopScheduler struct {
	loop loop
}

// NewLoopScheduler wraps l as a Scheduler. Pass a *eventloop.Loop
// (github.com/joeycumines/go-eventloop).
func NewLoopScheduler(l loop) *LoopScheduler {
	return &LoopScheduler{loop: l}
}

// Defer implements interfaces.Scheduler by scheduling fn as a
// microtask on the wrapped loop. A non-nil error from the loop (e.g.
// the loop has terminated) is reported as false.
func (s *LoopScheduler) Defer(fn func()) bool {
	return s.loop.ScheduleMicrotask(fn) == nil
}

var _ interfaces.Scheduler = (*LoopScheduler)(nil)
