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
	"github.com/oro-os/kernel/pkg/registry"
	"github.com/oro-os/kernel/pkg/syncutil"
)

// MaxRingDepth bounds the Ring tree so a handle's slot field, which is
// reused across kinds, can never be exhausted by a pathologically deep
// ring chain (spec.md §3: "fixed maximum depth bounded by handle width").
const MaxRingDepth = 255

// Ring is a node in the hierarchical domain tree rooted at Ring 0. A
// Ring owns child Rings, Instances, and Tokens; every owned reference is
// a registry.Handle, never a pointer, so destroying a Ring is a matter
// of walking handles rather than untangling a pointer graph.
type Ring struct {
	mu syncutil.Mutex

	self   registry.Handle
	parent registry.Handle
	isRoot bool
	depth  int

	children  []registry.Handle
	instances []registry.Handle
	tokens    []registry.Handle

	terminated bool
}

// NewRing constructs a Ring. self is filled in by the caller immediately
// after Registry.Insert. A zero parent with isRoot set to false is
// rejected by RingCreate before this is ever called; NewRing itself
// trusts its arguments.
func NewRing(self, parent registry.Handle, isRoot bool, depth int) *Ring {
	return &Ring{self: self, parent: parent, isRoot: isRoot, depth: depth}
}

// Handle returns r's own registry handle.
func (r *Ring) Handle() registry.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.self
}

// Parent returns the parent Ring's handle. It is the zero Handle if r
// is the root (Ring 0).
func (r *Ring) Parent() registry.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parent
}

// IsRoot reports whether r is Ring 0.
func (r *Ring) IsRoot() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRoot
}

// Depth returns r's distance from the root.
func (r *Ring) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.depth
}

// Terminated reports whether r has been destroyed.
func (r *Ring) Terminated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminated
}

// Children returns a snapshot of r's child Ring handles.
func (r *Ring) Children() []registry.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]registry.Handle(nil), r.children...)
}

// Instances returns a snapshot of r's Instance handles.
func (r *Ring) Instances() []registry.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]registry.Handle(nil), r.instances...)
}

// Tokens returns a snapshot of r's Token handles.
func (r *Ring) Tokens() []registry.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]registry.Handle(nil), r.tokens...)
}

// AddChild records a newly created child Ring.
func (r *Ring) AddChild(h registry.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.children = append(r.children, h)
}

// AddInstance records a newly spawned Instance.
func (r *Ring) AddInstance(h registry.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = append(r.instances, h)
}

// AddToken records a newly minted Token issued against this Ring (a
// RightRingSpawn grant).
func (r *Ring) AddToken(h registry.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, h)
}

// RemoveChild drops h from r's child list, called once the child Ring
// itself has finished tearing down.
func (r *Ring) RemoveChild(h registry.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.children = removeHandle(r.children, h)
}

// RemoveInstance drops h from r's Instance list, called once that
// Instance has finished tearing down.
func (r *Ring) RemoveInstance(h registry.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = removeHandle(r.instances, h)
}

func removeHandle(s []registry.Handle, h registry.Handle) []registry.Handle {
	for i, v := range s {
		if v == h {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// SetTerminated marks r as destroyed. Callers must have already torn
// down r.children/instances/tokens via the Registry before calling this.
func (r *Ring) SetTerminated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminated = true
}
