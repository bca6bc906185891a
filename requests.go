package sensorhub

import (
	"sync"

	"github.com/brodyw/sensorhub/internal/slab"
)

// requestTable is the fixed-capacity pool of (sensor, client, rate,
// latency) tuples (spec.md §3, §4.3). It is backed by internal/slab so
// the aggregator can enumerate every live cell by index, tolerating
// orphaned entries whose sensor has since been unregistered (spec.md
// §9: "orphan tolerance").
type requestTable struct {
	mu   sync.Mutex
	pool *slab.Allocator[ClientRequest]
}

func newRequestTable(capacity int) *requestTable {
	return &requestTable{pool: slab.New[ClientRequest](capacity)}
}

// add allocates a free cell. Identity fields (handle, clientId) are
// written before value fields (rate, latency) become observable
// (spec.md §4.3); under the table-level mutex this is simply field
// assignment order, since every reader also takes the mutex — the
// spec's release-fence framing is for the reference firmware's
// lock-free single-cooperative-task model, which Go's goroutines don't
// get to assume (spec.md §5's explicit preemptive-platform allowance).
func (t *requestTable) add(sensorHandle, clientID uint32, rate Rate, latency Latency) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cell, _, ok := t.pool.Alloc()
	if !ok {
		return false
	}
	cell.SensorHandle = sensorHandle
	cell.ClientID = clientID
	cell.Rate = rate
	cell.Latency = latency
	return true
}

func (t *requestTable) get(sensorHandle, clientID uint32) (Rate, Latency, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < t.pool.Capacity(); i++ {
		cell, ok := t.pool.GetNth(i)
		if !ok || cell.SensorHandle != sensorHandle || cell.ClientID != clientID {
			continue
		}
		return cell.Rate, cell.Latency, true
	}
	return RateOff, LatencyInvalid, false
}

func (t *requestTable) amend(sensorHandle, clientID uint32, rate Rate, latency Latency) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < t.pool.Capacity(); i++ {
		cell, ok := t.pool.GetNth(i)
		if !ok || cell.SensorHandle != sensorHandle || cell.ClientID != clientID {
			continue
		}
		cell.Rate = rate
		cell.Latency = latency
		return true
	}
	return false
}

// remove sets the entry's rate to off before freeing the cell, mirroring
// the reference firmware's ordering guarantee for the lock-free case;
// kept even though this port also serializes via mutex, so a reader
// that somehow observed a cell mid-transition never sees a live-looking
// freed cell.
func (t *requestTable) remove(sensorHandle, clientID uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < t.pool.Capacity(); i++ {
		cell, ok := t.pool.GetNth(i)
		if !ok || cell.SensorHandle != sensorHandle || cell.ClientID != clientID {
			continue
		}
		cell.Rate = RateOff
		cell.Latency = LatencyInvalid
		t.pool.Free(i)
		return true
	}
	return false
}

// scan yields every live entry whose sensor matches handle.
func (t *requestTable) scan(sensorHandle uint32, visit func(ClientRequest)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < t.pool.Capacity(); i++ {
		cell, ok := t.pool.GetNth(i)
		if !ok || cell.SensorHandle != sensorHandle {
			continue
		}
		visit(*cell)
	}
}

// referencesHandle reports whether any live request still references
// handle, regardless of which sensor it was originally filed against.
// Used by the registry's handle allocator to implement spec.md §9's
// handle-reuse guard: never reissue a handle a live request still
// names.
func (t *requestTable) referencesHandle(handle uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < t.pool.Capacity(); i++ {
		cell, ok := t.pool.GetNth(i)
		if ok && cell.SensorHandle == handle {
			return true
		}
	}
	return false
}
