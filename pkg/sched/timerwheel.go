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

package sched

import (
	"github.com/oro-os/kernel/pkg/registry"
	"github.com/oro-os/kernel/pkg/syncutil"
)

// TimerWheel delivers a wake to a waiting Thread once a deadline tick
// passes, backing the optional deadline on the WAIT opcode (spec.md
// §4.5, §5).
type TimerWheel struct {
	mu     syncutil.Mutex
	now    uint64
	byTick map[uint64][]registry.Handle
}

// NewTimerWheel returns an empty TimerWheel starting at tick 0.
func NewTimerWheel() *TimerWheel {
	return &TimerWheel{byTick: make(map[uint64][]registry.Handle)}
}

// Schedule arranges for h to be returned by a future Advance once the
// wheel reaches deadline. A deadline in the past or at the current tick
// fires on the very next Advance.
func (w *TimerWheel) Schedule(deadline uint64, h registry.Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if deadline <= w.now {
		deadline = w.now + 1
	}
	w.byTick[deadline] = append(w.byTick[deadline], h)
}

// Cancel removes h's pending deadline entry, if any — used when a
// Thread is woken by a Port event before its deadline, so the timer
// wheel doesn't also deliver a stale TimedOut later. It is O(entries at
// that tick), acceptable since deadlines are rare relative to ticks.
func (w *TimerWheel) Cancel(deadline uint64, h registry.Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	entries := w.byTick[deadline]
	for i, e := range entries {
		if e == h {
			w.byTick[deadline] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Advance moves the wheel forward one tick and returns every Handle
// whose deadline just passed.
func (w *TimerWheel) Advance() []registry.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now++
	fired := w.byTick[w.now]
	delete(w.byTick, w.now)
	return fired
}

// Now returns the wheel's current tick.
func (w *TimerWheel) Now() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now
}
