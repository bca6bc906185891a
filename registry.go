package sensorhub

import (
	"sync"
	"sync/atomic"

	"github.com/brodyw/sensorhub/internal/bitset"
)

// slot is one entry in the fixed-capacity sensor table (spec.md §3).
// handle is stored last, with atomic release semantics, so a reader
// that observes a non-zero handle also observes the fields written
// before it — the publish-ordering invariant spec.md §3/§5/§9 requires.
// Go's sync/atomic already establishes the happens-before edge a manual
// release/acquire fence would (the teacher's cgo sfence/mfence in
// internal/uring/barrier.go is an x86-specific answer to the same
// problem for a hardware SQE ring; atomic.Uint32 is the portable,
// idiomatic Go answer for a software struct).
type slot struct {
	info    SensorInfo
	state   SensorState
	binding Binding
	handle  atomic.Uint32

	// mu serializes reads and writes of state: Go's goroutines are
	// preemptive (unlike the reference firmware's single cooperative
	// task), and both the calling goroutine (Request/RequestRateChange/
	// Release, running reconfig synchronously) and the scheduler's
	// goroutine (completion handlers dispatched via SignalInternalEvent)
	// touch state for the same slot. reconfig and the handle* completion
	// methods in statemachine.go take mu themselves for the duration of
	// the state check-and-mutate, so their callers must not hold it;
	// transition expects its caller to hold it. mu is not held across
	// driver dispatch calls that can themselves call back into the hub.
	mu sync.Mutex
}

// registry is the sensor slot table plus its opaque-handle space
// (spec.md §4.1). Slot claim/release uses an atomic bitset for
// race-free allocation; the table itself is additionally guarded by a
// mutex per spec.md §5's explicit allowance for preemptive platforms
// ("implementations on preemptive platforms must add a table-level
// lock without otherwise changing the contract") — Go's goroutines are
// preemptive, unlike the reference firmware's single cooperative task.
type registry struct {
	mu       sync.Mutex
	slots    []slot
	used     *bitset.Set
	nextHand uint32
}

func newRegistry(capacity int) *registry {
	return &registry{
		slots: make([]slot, capacity),
		used:  bitset.New(capacity),
	}
}

// liveHandleChecker reports whether a candidate handle is still
// referenced by a live client request, so the allocator can skip it
// (spec.md §9's second Open Question: this core never reissues a handle
// that a live request still references, rather than sweeping orphans).
type liveHandleChecker func(handle uint32) bool

// register claims a free slot, allocates a fresh handle, and publishes
// the slot (spec.md §4.1). Returns 0 if no slot is free.
func (r *registry) register(info SensorInfo, binding Binding, liveElsewhere liveHandleChecker) uint32 {
	idx := r.used.FindClearAndSet()
	if idx < 0 {
		return 0
	}

	r.mu.Lock()
	handle := r.allocateHandleLocked(liveElsewhere)
	s := &r.slots[idx]
	s.info = info
	s.binding = binding
	s.state = SensorState{Kind: StateOff, Latency: LatencyInvalid}
	r.mu.Unlock()

	// handle store last, with release ordering: any goroutine that
	// subsequently loads a non-zero handle for this slot via
	// findByHandle also observes the writes above.
	s.handle.Store(handle)
	return handle
}

// allocateHandleLocked must be called with r.mu held. It increments a
// monotonic counter, skipping zero, any handle currently occupying a
// slot, and (per the Open Question resolution) any handle a live
// request still references.
func (r *registry) allocateHandleLocked(liveElsewhere liveHandleChecker) uint32 {
	for {
		r.nextHand++
		h := r.nextHand
		if h == 0 {
			continue
		}
		if r.findByHandleLocked(h) != nil {
			continue
		}
		if liveElsewhere != nil && liveElsewhere(h) {
			continue
		}
		return h
	}
}

// unregister stores handle = 0 (release ordering) before freeing the
// slot, so a concurrent findByHandle either still sees the populated
// slot or sees it gone — never a torn read.
func (r *registry) unregister(handle uint32) bool {
	if handle == 0 {
		return false
	}
	r.mu.Lock()
	s, idx := r.findByHandleLockedIdx(handle)
	r.mu.Unlock()
	if s == nil {
		return false
	}

	s.handle.Store(0)
	r.used.ClearBit(idx)
	return true
}

// findByHandle performs the linear scan spec.md §4.1 specifies. It
// reads handle with atomic acquire ordering first, so a non-zero result
// guarantees the other fields are fully populated.
func (r *registry) findByHandle(handle uint32) *slot {
	if handle == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByHandleLocked(handle)
}

func (r *registry) findByHandleLocked(handle uint32) *slot {
	s, _ := r.findByHandleLockedIdx(handle)
	return s
}

// findByHandleLockedIdx is findByHandleLocked plus the slot's index in
// r.slots, threaded back to the caller instead of recovered via pointer
// arithmetic (which Go doesn't permit outside unsafe).
func (r *registry) findByHandleLockedIdx(handle uint32) (*slot, int) {
	for i := range r.slots {
		if r.slots[i].handle.Load() == handle {
			return &r.slots[i], i
		}
	}
	return nil, -1
}

// findByType returns the index-th occupied slot whose SensorType
// matches (spec.md §4.1).
func (r *registry) findByType(sensorType uint32, index int) (SensorInfo, uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		h := r.slots[i].handle.Load()
		if h == 0 || r.slots[i].info.SensorType != sensorType {
			continue
		}
		if index == 0 {
			return r.slots[i].info, h, true
		}
		index--
	}
	return SensorInfo{}, 0, false
}
