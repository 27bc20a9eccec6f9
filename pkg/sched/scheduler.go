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

// Package sched implements the per-core cooperative-plus-preemptive
// scheduler of spec.md §4.4: one FIFO ready queue per core, a quantum
// enforced by Tick, and a cross-core wake path that only becomes visible
// to its target core on that core's next Tick or YieldNow — mirroring
// gvisor's per-task TaskGoroutineState machine (pkg/sentry/kernel/
// task_sched.go) but applied to a single shared run queue per core
// rather than one goroutine per task.
package sched

import (
	"github.com/oro-os/kernel/pkg/errors"
	"github.com/oro-os/kernel/pkg/kernel"
	"github.com/oro-os/kernel/pkg/registry"
	"github.com/oro-os/kernel/pkg/syncutil"
)

// remoteQueueDepth bounds the per-core cross-core enqueue channel.
// Beyond this many outstanding wakes to one core without an intervening
// Tick/YieldNow, EnqueueRemote reports errors.WouldBlock — a sign the
// caller has stopped scheduling that core entirely, not a case this
// scheduler tries to paper over.
const remoteQueueDepth = 4096

// Scheduler owns the ready queue for exactly one core. Threads are
// pinned to the core they were created on (spec.md §9: no cross-core
// migration in this version), so a Scheduler only ever runs Threads
// homed to it.
type Scheduler struct {
	id      int
	threads *registry.Table[*kernel.Thread]
	wheel   *TimerWheel
	quantum uint32

	mu        syncutil.Mutex
	runQ      []registry.Handle
	current   registry.Handle
	ticksLeft uint32

	remoteQ chan registry.Handle
}

// New returns a Scheduler for core id, drawing Thread state from
// threads and enforcing a quantum of quantum ticks per run.
func New(id int, threads *registry.Table[*kernel.Thread], quantum uint32) *Scheduler {
	return &Scheduler{
		id:        id,
		threads:   threads,
		wheel:     NewTimerWheel(),
		quantum:   quantum,
		ticksLeft: quantum,
		remoteQ:   make(chan registry.Handle, remoteQueueDepth),
	}
}

// ID returns the core this Scheduler owns.
func (s *Scheduler) ID() int { return s.id }

// Current returns the Handle of the Thread currently assigned the core,
// or the zero Handle if the core is idle.
func (s *Scheduler) Current() registry.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Enqueue makes h eligible to run on this core. It is the only path a
// Thread enters a Scheduler by — both a freshly created Thread and a
// Thread being woken from Blocked go through here, so a caller on a
// different core never touches this Scheduler's runQ directly. Visible
// to this core no later than its next Tick or YieldNow, per spec.md
// §4.4's cross-core enqueue contract.
func (s *Scheduler) Enqueue(h registry.Handle) error {
	select {
	case s.remoteQ <- h:
		return nil
	default:
		return errors.WouldBlock
	}
}

// drainRemoteLocked moves every pending cross-core enqueue into runQ,
// transitioning Blocked threads to Ready and silently dropping stale or
// Terminated handles (a wake racing a Thread's own exit is a no-op, per
// spec.md §4.4's cancellation semantics). s.mu must be held.
func (s *Scheduler) drainRemoteLocked() {
	for {
		select {
		case h := <-s.remoteQ:
			th, err := s.threads.Get(h)
			if err != nil {
				continue
			}
			if th.State() == kernel.ThreadTerminated {
				continue
			}
			if th.State() == kernel.ThreadBlocked {
				th.SetState(kernel.ThreadReady)
			}
			s.runQ = append(s.runQ, h)
		default:
			return
		}
	}
}

// ErrIdle is returned by PickNext when the core has no runnable Thread.
var ErrIdle = errors.NotFound

// PickNext selects the next Thread to run, requeuing the previously
// current Thread at the tail of the FIFO if it is still Ready — the
// core's equivalent of gvisor's taskRunState loop picking the next
// runnable task. It resets the quantum counter for whichever Thread is
// returned.
func (s *Scheduler) PickNext() (registry.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainRemoteLocked()

	if s.current != 0 {
		// PickNext is the only place a Thread stops being current, so a
		// Thread still in Running here was never transitioned to Blocked
		// or Terminated since it last ran — voluntary yield or quantum
		// expiry, not an explicit state change — and goes back to Ready
		// at the tail of the queue.
		if th, err := s.threads.Get(s.current); err == nil {
			if st := th.State(); st == kernel.ThreadRunning || st == kernel.ThreadReady {
				th.SetState(kernel.ThreadReady)
				s.runQ = append(s.runQ, s.current)
			}
		}
		s.current = 0
	}

	if len(s.runQ) == 0 {
		return 0, ErrIdle
	}
	next := s.runQ[0]
	s.runQ = s.runQ[1:]
	s.current = next
	s.ticksLeft = s.quantum

	if th, err := s.threads.Get(next); err == nil {
		th.SetState(kernel.ThreadRunning)
	}
	return next, nil
}

// YieldNow voluntarily relinquishes the current Thread's remaining
// quantum, the OpYield syscall's scheduling effect (spec.md §4.4, §4.5).
func (s *Scheduler) YieldNow() (registry.Handle, error) {
	return s.PickNext()
}

// Block transitions the current Thread to Blocked with reason and picks
// the next runnable Thread, the OpWait scheduling effect (PORT_RECV on
// an empty Port returns WouldBlock instead of blocking).
func (s *Scheduler) Block(reason kernel.BlockReason) (registry.Handle, error) {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur == 0 {
		return 0, errors.InvalidArg
	}
	th, err := s.threads.Get(cur)
	if err != nil {
		return 0, err
	}
	th.SetState(kernel.ThreadBlocked)
	if reason.Deadline != 0 {
		s.wheel.Schedule(reason.Deadline, cur)
	}
	return s.PickNext()
}

// Tick accounts one timer interrupt against the current Thread's
// quantum and fires any expired deadlines from Block's optional
// timeout. It returns the newly current Thread and whether a
// preemption actually occurred.
func (s *Scheduler) Tick() (registry.Handle, bool) {
	// Drain remoteQ unconditionally, not only on the preemption path
	// below — otherwise a cross-core Enqueue could stay invisible on
	// this core for up to a full quantum instead of becoming visible on
	// the very next Tick, per this package's own "at most one tick or
	// one yield" contract.
	s.mu.Lock()
	s.drainRemoteLocked()
	s.mu.Unlock()

	for _, h := range s.wheel.Advance() {
		if th, err := s.threads.Get(h); err == nil && th.State() == kernel.ThreadBlocked {
			th.SetLastError(errors.TimedOut)
			th.SetState(kernel.ThreadReady)
			if cancel := th.TakeWaitCancel(); cancel != nil {
				cancel()
			}
			s.mu.Lock()
			s.runQ = append(s.runQ, h)
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	if s.current != 0 {
		if th, err := s.threads.Get(s.current); err == nil {
			th.AccountTick(true)
		}
	}
	s.ticksLeft--
	preempt := s.ticksLeft == 0
	s.mu.Unlock()

	if !preempt {
		s.mu.Lock()
		cur := s.current
		s.mu.Unlock()
		return cur, false
	}
	next, _ := s.YieldNow()
	return next, true
}

// Len returns the number of Threads currently waiting to run, excluding
// the current one: those in the run queue plus enqueues not yet drained
// into it.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runQ) + len(s.remoteQ)
}
