// Package slab implements the fixed-capacity slab allocator spec.md §6
// lists as an external collaborator ("alloc() -> ptr|null, free(ptr),
// getNth(i) -> ptr|null"). The reference firmware's slabAllocator is a
// generic fixed-size-cell pool; the teacher's closest analogue is
// internal/queue/pool.go, a size-bucketed sync.Pool of byte buffers.
// That shape doesn't fit here: the aggregator and request-table scans
// (spec.md §4.3, §4.4) need to enumerate every live cell by index
// (getNth), which sync.Pool cannot do — a Get() drains the pool instead
// of iterating it. This is an array-backed pool with an atomic used
// bitset instead, keeping the teacher's "avoid a hot-path allocation"
// intent while supporting enumeration.
package slab

import "github.com/brodyw/sensorhub/internal/bitset"

// Allocator is a fixed-capacity pool of T, indexable by cell number.
type Allocator[T any] struct {
	cells []T
	used  *bitset.Set
}

// New creates an Allocator with room for capacity cells.
func New[T any](capacity int) *Allocator[T] {
	return &Allocator[T]{
		cells: make([]T, capacity),
		used:  bitset.New(capacity),
	}
}

// Capacity returns the total number of cells in the pool.
func (a *Allocator[T]) Capacity() int {
	return a.used.Len()
}

// Alloc claims a free cell, zeroes it, and returns a pointer to it along
// with its index. ok is false if the pool is exhausted.
func (a *Allocator[T]) Alloc() (cell *T, index int, ok bool) {
	idx := a.used.FindClearAndSet()
	if idx < 0 {
		return nil, -1, false
	}
	var zero T
	a.cells[idx] = zero
	return &a.cells[idx], idx, true
}

// Free releases cell index back to the pool.
func (a *Allocator[T]) Free(index int) {
	a.used.ClearBit(index)
}

// GetNth returns a pointer to cell index if it is currently allocated,
// or nil, false for an empty cell or an out-of-range index. Used to
// enumerate the pool (e.g. the aggregator's whole-table scan).
func (a *Allocator[T]) GetNth(index int) (*T, bool) {
	if index < 0 || index >= len(a.cells) || !a.used.IsSet(index) {
		return nil, false
	}
	return &a.cells[index], true
}
