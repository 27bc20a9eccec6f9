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
	"github.com/oro-os/kernel/pkg/abi"
	"github.com/oro-os/kernel/pkg/addrspace"
	"github.com/oro-os/kernel/pkg/registry"
	"github.com/oro-os/kernel/pkg/syncutil"
)

// InstanceState is the coarse lifecycle state of an Instance.
type InstanceState int

// Instance lifecycle states.
const (
	InstanceRunning InstanceState = iota
	InstanceTerminated
)

// Instance is a running incarnation of a Module: exactly one
// AddressSpace, zero or more Threads, and references to Ports through
// Tokens (spec.md §3).
type Instance struct {
	mu syncutil.Mutex

	self   registry.Handle
	ring   registry.Handle
	module abi.ModuleID

	as *addrspace.AddressSpace

	threads []registry.Handle
	tokens  []registry.Handle

	state InstanceState
}

// NewInstance constructs an Instance bound to as. self is filled in by
// the caller immediately after Registry.Insert.
func NewInstance(self, ring registry.Handle, module abi.ModuleID, as *addrspace.AddressSpace) *Instance {
	return &Instance{self: self, ring: ring, module: module, as: as, state: InstanceRunning}
}

// Handle returns i's own registry handle.
func (i *Instance) Handle() registry.Handle {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.self
}

// Ring returns the owning Ring's handle.
func (i *Instance) Ring() registry.Handle {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ring
}

// AddressSpace returns i's address space.
func (i *Instance) AddressSpace() *addrspace.AddressSpace {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.as
}

// State returns i's current lifecycle state.
func (i *Instance) State() InstanceState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Threads returns a snapshot of i's Thread handles.
func (i *Instance) Threads() []registry.Handle {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]registry.Handle(nil), i.threads...)
}

// Tokens returns a snapshot of i's Token handles.
func (i *Instance) Tokens() []registry.Handle {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]registry.Handle(nil), i.tokens...)
}

// Module returns the content-addressed id of the image i was spawned
// from.
func (i *Instance) Module() abi.ModuleID {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.module
}

// AddThread records a newly created Thread.
func (i *Instance) AddThread(h registry.Handle) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.threads = append(i.threads, h)
}

// AddToken records a newly minted Token held by this Instance.
func (i *Instance) AddToken(h registry.Handle) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tokens = append(i.tokens, h)
}

// SetState transitions i's lifecycle state.
func (i *Instance) SetState(s InstanceState) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = s
}
