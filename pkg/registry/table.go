// Copyright 2026 The Oro Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package registry

import (
	"github.com/oro-os/kernel/pkg/bitmap"
	"github.com/oro-os/kernel/pkg/errors"
	"github.com/oro-os/kernel/pkg/syncutil"
)

// maxGeneration is the last generation value before a slot's counter
// would wrap; spec.md §3 requires retiring (or, under ReuseTombs,
// recycling) a slot once this is reached, rather than silently wrapping
// back to a generation that a stale Handle could still match.
const maxGeneration = ^uint32(0)

type entry[T any] struct {
	generation uint32
	occupied   bool
	tombstoned bool
	value      T
}

// Table is a grow-only, generation-checked slot table for one object
// kind. Reads take a shared lock, writes an exclusive one, per spec.md
// §4.3's concurrency model.
type Table[T any] struct {
	mu         syncutil.RWMutex
	kind       uint8
	reuseTombs bool
	slots      []entry[T]
	freeSlots  bitmap.Bitmap // freed slots available for reuse; saturated slots only when reuseTombs is set
}

// New returns an empty Table tagged with the given object kind. If
// reuseTombs is true, a slot whose generation counter has saturated is
// recycled instead of permanently retired — spec.md §9's acknowledged
// ABA hazard, opt-in only.
func New[T any](kind uint8, reuseTombs bool) *Table[T] {
	return &Table[T]{kind: kind, reuseTombs: reuseTombs, freeSlots: bitmap.New(0)}
}

// Insert stores value in a fresh or reused slot and returns its Handle.
// Generation is not incremented on insert, only on Remove, per spec.
func (t *Table[T]) Insert(value T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Prefer a previously-freed, non-saturated slot over growing the
	// table; freeSlots only ever contains slots it is legal to reuse
	// (see Remove), so this is an O(1) amortized lookup rather than the
	// linear scan a naive implementation would need.
	if idx, ok := t.freeSlots.FirstOne(0); ok {
		e := &t.slots[idx]
		e.occupied = true
		e.value = value
		t.freeSlots.Remove(idx)
		return NewHandle(t.kind, idx, e.generation)
	}

	slot := uint32(len(t.slots))
	t.slots = append(t.slots, entry[T]{occupied: true, value: value})
	return NewHandle(t.kind, slot, 0)
}

// InsertFunc is Insert for values that need to know their own Handle —
// every kernel object type does, since it reports its Handle() without
// a back-pointer to its Table (spec.md §9's "arena of handles"). build
// is called with the Handle the value is about to occupy, exactly once,
// before the slot becomes visible to any other goroutine.
func (t *Table[T]) InsertFunc(build func(Handle) T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx, ok := t.freeSlots.FirstOne(0); ok {
		e := &t.slots[idx]
		h := NewHandle(t.kind, idx, e.generation)
		e.occupied = true
		e.value = build(h)
		t.freeSlots.Remove(idx)
		return h
	}

	slot := uint32(len(t.slots))
	h := NewHandle(t.kind, slot, 0)
	t.slots = append(t.slots, entry[T]{occupied: true, value: build(h)})
	return h
}

// Get returns the value referenced by h, or an error if h is stale,
// names the wrong kind, or is out of range.
func (t *Table[T]) Get(h Handle) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var zero T
	if h.Kind() != t.kind {
		return zero, errors.WrongKind
	}
	slot := h.Slot()
	if int(slot) >= len(t.slots) {
		return zero, errors.BadHandle
	}
	e := &t.slots[slot]
	if !e.occupied || e.generation != h.Generation() {
		return zero, errors.Stale
	}
	return e.value, nil
}

// Remove deletes the object referenced by h, returning its value,
// incrementing the slot's generation so any other outstanding Handle
// to the same slot now reads Stale. If the generation counter
// saturates, the slot is retired (reuseTombs == false) or marked
// reusable (reuseTombs == true).
func (t *Table[T]) Remove(h Handle) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	if h.Kind() != t.kind {
		return zero, errors.WrongKind
	}
	slot := h.Slot()
	if int(slot) >= len(t.slots) {
		return zero, errors.BadHandle
	}
	e := &t.slots[slot]
	if !e.occupied || e.generation != h.Generation() {
		return zero, errors.Stale
	}
	value := e.value
	e.occupied = false
	e.value = zero
	if e.generation == maxGeneration {
		e.tombstoned = true
		if t.reuseTombs {
			e.generation = 0
			t.freeSlots.Add(slot)
		}
	} else {
		e.generation++
		t.freeSlots.Add(slot)
	}
	return value, nil
}

// Len returns the number of currently occupied slots.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for i := range t.slots {
		if t.slots[i].occupied {
			n++
		}
	}
	return n
}

// Capacity returns the total number of slots ever allocated, occupied
// or not.
func (t *Table[T]) Capacity() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots)
}
