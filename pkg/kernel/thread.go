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

package kernel

import (
	"github.com/oro-os/kernel/pkg/errors"
	"github.com/oro-os/kernel/pkg/memtype"
	"github.com/oro-os/kernel/pkg/registry"
	"github.com/oro-os/kernel/pkg/syncutil"
)

// ThreadState is the execution state of a Thread, per spec.md §3's
// state machine: Ready → Running → {Ready, Blocked, Terminated};
// Blocked → Ready on wake; Terminated is absorbing.
type ThreadState int

// Thread lifecycle states.
const (
	ThreadReady ThreadState = iota
	ThreadRunning
	ThreadBlocked
	ThreadTerminated
)

func (s ThreadState) String() string {
	switch s {
	case ThreadReady:
		return "Ready"
	case ThreadRunning:
		return "Running"
	case ThreadBlocked:
		return "Blocked"
	case ThreadTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Regs is the saved register frame of a suspended Thread. Its layout is
// intentionally architecture-neutral (spec.md §1 excludes trap-frame
// bit layout); the arch stub translates to/from its own representation.
type Regs struct {
	IP uint64
	SP uint64
	A0 uint64
	A1 uint64
	A2 uint64
	A3 uint64
}

// BlockReason records why a Thread is Blocked, for Cancellation and for
// diagnostics.
type BlockReason struct {
	PortHandle registry.Handle
	Deadline   uint64 // tick, 0 = no deadline
}

// Thread is an execution context bound to one Instance; it is the unit
// of scheduling (spec.md §3).
type Thread struct {
	mu syncutil.Mutex

	self     registry.Handle
	instance registry.Handle
	core     int

	regs       Regs
	shadowPage memtype.Virt

	state       ThreadState
	blockReason BlockReason
	lastError   errors.Errno

	// waitCancel, if set, unregisters whatever waiter.Entry a WAIT call
	// registered on a Port on t's behalf. The scheduler invokes it when
	// a deadline fires first, so a timed-out wait never leaves a stale
	// registration behind to fire against a Thread that has moved on.
	waitCancel func()

	userTicks uint64
	sysTicks  uint64
}

// NewThread constructs a Thread bound to instance and pinned to core.
// self is filled in by the caller immediately after Registry.Insert.
func NewThread(self, instance registry.Handle, core int) *Thread {
	return &Thread{self: self, instance: instance, core: core, state: ThreadReady}
}

// Handle returns t's own registry handle.
func (t *Thread) Handle() registry.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.self
}

// Instance returns the owning Instance's handle.
func (t *Thread) Instance() registry.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.instance
}

// Core returns the core t is pinned to (spec.md §9: no cross-core
// migration in this version).
func (t *Thread) Core() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.core
}

// State returns t's current ThreadState.
func (t *Thread) State() ThreadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetState transitions t to state. Callers (the scheduler) are
// responsible for only requesting legal transitions.
func (t *Thread) SetState(state ThreadState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// LastError returns the error of the most recently completed syscall.
func (t *Thread) LastError() errors.Errno {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}

// SetLastError records the error of the most recently completed
// syscall.
func (t *Thread) SetLastError(e errors.Errno) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastError = e
}

// Regs returns a copy of t's saved register frame.
func (t *Thread) Regs() Regs {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.regs
}

// SetRegs overwrites t's saved register frame.
func (t *Thread) SetRegs(r Regs) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.regs = r
}

// BlockReason returns why t is Blocked, if it is.
func (t *Thread) BlockReason() BlockReason {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.blockReason
}

// SetWaitCancel records the cleanup for the Port waiter registration a
// WAIT call made on t's behalf, replacing any previous one.
func (t *Thread) SetWaitCancel(cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.waitCancel = cancel
}

// TakeWaitCancel returns and clears t's pending waiter cleanup, or nil
// if none is registered. Safe to call unconditionally.
func (t *Thread) TakeWaitCancel() func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	cancel := t.waitCancel
	t.waitCancel = nil
	return cancel
}

// Stats returns t's accumulated user/system tick counts.
func (t *Thread) Stats() (userTicks, sysTicks uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.userTicks, t.sysTicks
}

// AccountTick attributes one tick of CPU time to t, in user or system
// mode depending on inUser.
func (t *Thread) AccountTick(inUser bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if inUser {
		t.userTicks++
	} else {
		t.sysTicks++
	}
}
