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

// Package refs provides a small atomic reference count, used wherever
// the object model's lifecycle rules say an object lives until the last
// reference to it drops: a Port is destroyed when no Token references it
// (spec.md §3's Port/Token lifecycle) and a kernel-shared AddressSpace
// page-table entry is never freed while any live AddressSpace still
// shares it (spec.md §4.2's drop invariant).
package refs

import "sync/atomic"

// AtomicRefCount is a reference count starting at 1 (the count the
// creator implicitly holds). It does not itself store the guarded
// value; callers call DecRefWithDestructor to run cleanup exactly once,
// when the count reaches zero.
type AtomicRefCount struct {
	refCount int64
}

// InitRefs initializes the reference count to 1. Must be called before
// any other method.
func (r *AtomicRefCount) InitRefs() {
	atomic.StoreInt64(&r.refCount, 1)
}

// ReadRefs returns the current reference count.
func (r *AtomicRefCount) ReadRefs() int64 {
	return atomic.LoadInt64(&r.refCount)
}

// IncRef increments the reference count. The caller must already hold a
// reference (or be the creator).
func (r *AtomicRefCount) IncRef() {
	if atomic.AddInt64(&r.refCount, 1) <= 1 {
		panic("refs: IncRef called on a reference count that was already zero")
	}
}

// TryIncRef attempts to acquire a reference, failing if the count has
// already reached zero (the object is being or has been destroyed).
func (r *AtomicRefCount) TryIncRef() bool {
	for {
		v := atomic.LoadInt64(&r.refCount)
		if v <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&r.refCount, v, v+1) {
			return true
		}
	}
}

// DecRefWithDestructor decrements the reference count and calls destroy
// exactly once, when the count reaches zero.
func (r *AtomicRefCount) DecRefWithDestructor(destroy func()) {
	switch v := atomic.AddInt64(&r.refCount, -1); {
	case v < 0:
		panic("refs: DecRef called more times than IncRef")
	case v == 0:
		if destroy != nil {
			destroy()
		}
	}
}
