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

package addrspace

import "github.com/oro-os/kernel/pkg/syncutil"

// CoreTable tracks which AddressSpace is current on each core, so that
// SwitchTo can be atomic (spec.md §4.2) and so that a page-table
// mutation on a running address space can find which cores need a TLB
// shootdown IPI (spec.md §5).
type CoreTable struct {
	mu      syncutil.RWMutex
	current map[int]*AddressSpace
}

// NewCoreTable returns an empty CoreTable.
func NewCoreTable() *CoreTable {
	return &CoreTable{current: make(map[int]*AddressSpace)}
}

// Current returns the AddressSpace currently installed on core, or nil.
func (t *CoreTable) Current(core int) *AddressSpace {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current[core]
}

// SwitchTo makes as current on core. This is the only externally
// synchronized mutation to the table; an AddressSpace has no notion of
// "current" by itself.
func (as *AddressSpace) SwitchTo(t *CoreTable, core int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current[core] = as
}

// CoresRunning returns every core on which as is currently installed,
// used to target a TLB shootdown IPI broadcast after a mapping change.
func (t *CoreTable) CoresRunning(as *AddressSpace) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var cores []int
	for core, cur := range t.current {
		if cur == as {
			cores = append(cores, core)
		}
	}
	return cores
}
