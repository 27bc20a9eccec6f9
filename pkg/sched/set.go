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
	"fmt"

	"github.com/oro-os/kernel/pkg/kernel"
	"github.com/oro-os/kernel/pkg/registry"
)

// Set owns one Scheduler per core and routes a Wake or a freshly
// created Thread's first Enqueue to the Scheduler matching that
// Thread's pinned core.
type Set struct {
	cores   []*Scheduler
	threads *registry.Table[*kernel.Thread]
}

// NewSet constructs a Set of numCores Schedulers, each enforcing
// quantum.
func NewSet(numCores int, threads *registry.Table[*kernel.Thread], quantum uint32) *Set {
	cores := make([]*Scheduler, numCores)
	for i := range cores {
		cores[i] = New(i, threads, quantum)
	}
	return &Set{cores: cores, threads: threads}
}

// Core returns the Scheduler owning id.
func (s *Set) Core(id int) *Scheduler { return s.cores[id] }

// NumCores returns the number of Schedulers in the set.
func (s *Set) NumCores() int { return len(s.cores) }

// Enqueue routes h to the Scheduler owning h's pinned core.
func (s *Set) Enqueue(h registry.Handle) error {
	th, err := s.threads.Get(h)
	if err != nil {
		return err
	}
	core := th.Core()
	if core < 0 || core >= len(s.cores) {
		return fmt.Errorf("sched: thread %s pinned to out-of-range core %d", h, core)
	}
	return s.cores[core].Enqueue(h)
}

// Wake is Enqueue under the name most callers reason about: moving a
// Blocked Thread back to Ready on whichever core it is pinned to.
func (s *Set) Wake(h registry.Handle) error { return s.Enqueue(h) }

// Tick advances every core's Scheduler by one timer interrupt.
func (s *Set) Tick() {
	for _, c := range s.cores {
		c.Tick()
	}
}
