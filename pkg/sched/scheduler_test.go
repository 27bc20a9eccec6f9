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
	"testing"

	"github.com/oro-os/kernel/pkg/kernel"
	"github.com/oro-os/kernel/pkg/registry"
)

func newTestThreads(t *testing.T, core int, n int) (*registry.Table[*kernel.Thread], []registry.Handle) {
	t.Helper()
	tbl := registry.New[*kernel.Thread](kernel.KindThread, false)
	handles := make([]registry.Handle, n)
	for i := 0; i < n; i++ {
		handles[i] = tbl.InsertFunc(func(h registry.Handle) *kernel.Thread {
			return kernel.NewThread(h, 0, core)
		})
	}
	return tbl, handles
}

func TestFIFOOrderAcrossThreeThreads(t *testing.T) {
	threads, handles := newTestThreads(t, 0, 3)
	s := New(0, threads, 10)
	for _, h := range handles {
		if err := s.Enqueue(h); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	for i, want := range handles {
		got, err := s.PickNext()
		if err != nil {
			t.Fatalf("PickNext[%d]: %v", i, err)
		}
		if got != want {
			t.Fatalf("PickNext[%d] = %s, want %s", i, got, want)
		}
	}
}

func TestPickNextRequeuesStillReadyCurrent(t *testing.T) {
	threads, handles := newTestThreads(t, 0, 2)
	s := New(0, threads, 10)
	for _, h := range handles {
		s.Enqueue(h)
	}
	first, _ := s.PickNext()
	if first != handles[0] {
		t.Fatalf("first = %s, want %s", first, handles[0])
	}
	// first is still Running/Ready, so the next PickNext should round
	// robin to handles[1] and then back to handles[0].
	second, _ := s.PickNext()
	if second != handles[1] {
		t.Fatalf("second = %s, want %s", second, handles[1])
	}
	third, _ := s.PickNext()
	if third != handles[0] {
		t.Fatalf("third = %s, want %s (round robin)", third, handles[0])
	}
}

func TestBlockedThreadNotRequeuedAutomatically(t *testing.T) {
	threads, handles := newTestThreads(t, 0, 2)
	s := New(0, threads, 10)
	for _, h := range handles {
		s.Enqueue(h)
	}
	cur, _ := s.PickNext()
	th, _ := threads.Get(cur)
	th.SetState(kernel.ThreadBlocked)

	next, err := s.PickNext()
	if err != nil {
		t.Fatalf("PickNext: %v", err)
	}
	if next != handles[1] {
		t.Fatalf("next = %s, want %s", next, handles[1])
	}
	// The blocked thread must not reappear.
	again, _ := s.PickNext()
	if again == cur {
		t.Fatalf("blocked thread %s was requeued", cur)
	}
}

func TestPickNextReturnsErrIdleWhenEmpty(t *testing.T) {
	threads, _ := newTestThreads(t, 0, 0)
	s := New(0, threads, 10)
	if _, err := s.PickNext(); err != ErrIdle {
		t.Fatalf("PickNext on empty queue = %v, want ErrIdle", err)
	}
}

func TestWakeMovesBlockedThreadBackToReady(t *testing.T) {
	threads, handles := newTestThreads(t, 0, 1)
	s := New(0, threads, 10)
	th, _ := threads.Get(handles[0])
	th.SetState(kernel.ThreadBlocked)

	if err := s.Enqueue(handles[0]); err != nil {
		t.Fatalf("Enqueue (wake): %v", err)
	}
	next, err := s.PickNext()
	if err != nil {
		t.Fatalf("PickNext: %v", err)
	}
	if next != handles[0] {
		t.Fatalf("next = %s, want %s", next, handles[0])
	}
	if got := th.State(); got != kernel.ThreadRunning {
		t.Fatalf("state after wake+pick = %s, want Running", got)
	}
}

func TestTickPreemptsAfterQuantum(t *testing.T) {
	threads, handles := newTestThreads(t, 0, 2)
	s := New(0, threads, 2)
	for _, h := range handles {
		s.Enqueue(h)
	}
	cur, _ := s.PickNext()
	if cur != handles[0] {
		t.Fatalf("cur = %s, want %s", cur, handles[0])
	}
	if _, preempted := s.Tick(); preempted {
		t.Fatalf("preempted after only 1 tick with quantum 2")
	}
	next, preempted := s.Tick()
	if !preempted {
		t.Fatalf("expected preemption on the second tick")
	}
	if next != handles[1] {
		t.Fatalf("next after preemption = %s, want %s", next, handles[1])
	}
}

func TestTickDrainsRemoteWakeBeforeQuantumExpires(t *testing.T) {
	threads, handles := newTestThreads(t, 0, 2)
	s := New(0, threads, 5)
	s.Enqueue(handles[0])
	cur, _ := s.PickNext()
	if cur != handles[0] {
		t.Fatalf("cur = %s, want %s", cur, handles[0])
	}

	blocked, _ := threads.Get(handles[1])
	blocked.SetState(kernel.ThreadBlocked)
	if err := s.Enqueue(handles[1]); err != nil {
		t.Fatalf("Enqueue (remote wake): %v", err)
	}

	if _, preempted := s.Tick(); preempted {
		t.Fatalf("preempted after only 1 tick with quantum 5")
	}
	// The remote wake must be visible on this very first Tick, per
	// "at most one tick or one yield", even though the quantum hasn't
	// expired and nothing forced a PickNext.
	if got := blocked.State(); got != kernel.ThreadReady {
		t.Fatalf("state after one Tick = %s, want Ready", got)
	}
	if got := s.Len(); got != 1 {
		t.Fatalf("Len() after remote wake drained = %d, want 1", got)
	}
}

func TestBlockWithDeadlineWakesOnTimeout(t *testing.T) {
	threads, handles := newTestThreads(t, 0, 1)
	s := New(0, threads, 10)
	s.Enqueue(handles[0])
	s.PickNext()

	_, err := s.Block(kernel.BlockReason{Deadline: s.wheel.Now() + 2})
	if err != ErrIdle {
		t.Fatalf("Block on single-thread core = %v, want ErrIdle (nothing else runnable)", err)
	}
	s.Tick()
	if next, _ := s.PickNext(); next == handles[0] {
		t.Fatalf("timed-out thread should not be current yet, still mid-tick bookkeeping")
	}
	s.Tick()
	next, err := s.PickNext()
	if err != nil {
		t.Fatalf("PickNext after timeout: %v", err)
	}
	if next != handles[0] {
		t.Fatalf("next = %s, want %s (woken by timeout)", next, handles[0])
	}
}
