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
	"fmt"

	"github.com/oro-os/kernel/pkg/abi"
)

// Module is an immutable, content-addressed image available to spawn
// Instances from. Modules are never registered in the handle Registry:
// spec.md §4.3 lists Registry tables only for Ring, Instance, Thread,
// Port, and Token, and a Module's identity is its 128-bit content
// address, not a generational slot.
type Module struct {
	ID     abi.ModuleID
	Base   uint64
	Length uint64
}

// ModuleTable is a simple content-addressed map, guarded by the
// Kernel's own lock rather than a registry.Table, since Modules are
// looked up by ID, never by Handle.
type ModuleTable struct {
	byID map[abi.ModuleID]*Module
}

// NewModuleTable builds a ModuleTable from the boot handoff's module
// list.
func NewModuleTable(entries []abi.ModuleEntry) *ModuleTable {
	mt := &ModuleTable{byID: make(map[abi.ModuleID]*Module, len(entries))}
	for _, e := range entries {
		mt.byID[e.ID] = &Module{ID: e.ID, Base: e.Base, Length: e.Length}
	}
	return mt
}

// Lookup returns the Module registered under id.
func (mt *ModuleTable) Lookup(id abi.ModuleID) (*Module, error) {
	m, ok := mt.byID[id]
	if !ok {
		return nil, fmt.Errorf("kernel: no module with id %x", id)
	}
	return m, nil
}
