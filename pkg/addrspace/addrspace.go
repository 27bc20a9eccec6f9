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

// Package addrspace implements the per-instance/per-thread page-table
// abstraction of spec.md §4.2: build, map, unmap, translate, switch, and
// tear down a page-table hierarchy, preserving the invariant that the
// kernel-shared half is identical across every live AddressSpace.
//
// The literal multi-level radix-tree bit layout of a page table is
// architecture-specific and out of scope (spec.md §1); this package
// models the tree as two lookup tables (kernel-shared, per-instance
// user) plus a one-level abstraction of "intermediate tables" so that
// the PFA is still exercised for table allocation/collapse the way a
// real implementation would exercise it, without committing to x86_64
// or AArch64 entry formats. This mirrors gvisor's own mm.MemoryManager,
// which models an address space over host memory instead of raw page
// tables.
package addrspace

import (
	"fmt"

	"github.com/oro-os/kernel/pkg/log"
	"github.com/oro-os/kernel/pkg/memtype"
	"github.com/oro-os/kernel/pkg/pfa"
	"github.com/oro-os/kernel/pkg/refs"
	"github.com/oro-os/kernel/pkg/syncutil"
)

// entriesPerTable is the number of leaf mappings one intermediate table
// covers, chosen to match a single 4 KiB page table's worth of 8-byte
// PTEs (512) without committing to any particular level of an x86_64 or
// AArch64 tree.
const entriesPerTable = 512

// Prot is a page protection bitmask.
type Prot uint8

// Protection bits, independent of any architecture's PTE bit positions.
const (
	ProtRead Prot = 1 << iota
	ProtWrite
	ProtExec
)

// CachePolicy selects the memory type of a mapping.
type CachePolicy uint8

// Supported cache policies.
const (
	CacheWriteBack CachePolicy = iota
	CacheWriteThrough
	CacheUncached
)

// ErrAlreadyMapped is returned by Map when virt is already mapped.
var ErrAlreadyMapped = fmt.Errorf("addrspace: already mapped")

// ErrNotMapped is returned by Unmap/Translate when virt has no mapping.
var ErrNotMapped = fmt.Errorf("addrspace: not mapped")

type leaf struct {
	phys   memtype.Phys
	prot   Prot
	cache  CachePolicy
	shared bool
}

type table struct {
	frame    memtype.Phys
	refcount int
}

// half holds one side (kernel or user) of the lookup structure.
type half struct {
	mu       syncutil.RWMutex
	leaves   map[uint64]leaf
	tables   map[uint64]*table
}

func newHalf() *half {
	return &half{leaves: make(map[uint64]leaf), tables: make(map[uint64]*table)}
}

// Shared is the kernel-half region shared by reference across every
// live AddressSpace, per spec.md §3's invariant. It is reference
// counted: its creator holds the initial reference and every
// AddressSpace built over it holds one more, released by Drop. Its
// backing frames are released only when the count reaches zero, so
// dropping every AddressSpace alone does not release them while the
// creator's reference is held.
type Shared struct {
	refs.AtomicRefCount
	h *half
}

// NewShared constructs a fresh, empty kernel-shared region, installed
// once at boot and referenced by every AddressSpace thereafter.
func NewShared() *Shared {
	s := &Shared{h: newHalf()}
	s.InitRefs()
	return s
}

// AddressSpace is an opaque reference to a page-table hierarchy, per
// spec.md §3/§4.2.
type AddressSpace struct {
	pfa    *pfa.PFA
	shared *Shared
	user   *half
	root   memtype.Phys
	linear memtype.LinearMap
}

// New allocates a root frame and returns an AddressSpace whose kernel
// half is the given Shared region. This is spec.md §4.2's new_empty.
func New(p *pfa.PFA, linear memtype.LinearMap, shared *Shared) (*AddressSpace, error) {
	root, err := p.Alloc()
	if err != nil {
		return nil, err
	}
	if !shared.TryIncRef() {
		p.Free(root)
		return nil, fmt.Errorf("addrspace: shared kernel region is being destroyed")
	}
	return &AddressSpace{pfa: p, shared: shared, user: newHalf(), root: root, linear: linear}, nil
}

// Root returns the physical frame backing the root of this address
// space's page-table tree.
func (as *AddressSpace) Root() memtype.Phys { return as.root }

func (as *AddressSpace) halfFor(v memtype.Virt) *half {
	if v.IsKernel() {
		return as.shared.h
	}
	return as.user
}

// Map creates a mapping from virt to phys with the given protection,
// cache policy, and sharedness. shared mappings are not freed by Drop
// (e.g. a boot-time framebuffer or an IPC shared page). Intermediate
// tables are allocated from the PFA lazily, one per entriesPerTable-page
// group.
func (as *AddressSpace) Map(virt memtype.Virt, phys memtype.Phys, prot Prot, cache CachePolicy, shared bool) error {
	if !virt.IsCanonical() {
		return fmt.Errorf("addrspace: %s is not canonical", virt)
	}
	if !virt.IsAligned() || !phys.IsAligned() {
		return fmt.Errorf("addrspace: map requires page-aligned addresses")
	}
	h := as.halfFor(virt)
	page := virt.PageNumber()
	group := page / entriesPerTable

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.leaves[page]; exists {
		return ErrAlreadyMapped
	}
	t, ok := h.tables[group]
	if !ok {
		frame, err := as.pfa.Alloc()
		if err != nil {
			return err
		}
		t = &table{frame: frame}
		h.tables[group] = t
	}
	t.refcount++
	h.leaves[page] = leaf{phys: phys, prot: prot, cache: cache, shared: shared}
	return nil
}

// Unmap removes the mapping at virt and returns the frame it referred
// to, collapsing the owning intermediate table back to the PFA if this
// was its last leaf.
func (as *AddressSpace) Unmap(virt memtype.Virt) (memtype.Phys, error) {
	h := as.halfFor(virt)
	page := virt.PageNumber()
	group := page / entriesPerTable

	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.leaves[page]
	if !ok {
		return 0, ErrNotMapped
	}
	delete(h.leaves, page)
	if t, ok := h.tables[group]; ok {
		t.refcount--
		if t.refcount == 0 {
			delete(h.tables, group)
			if err := as.pfa.Free(t.frame); err != nil {
				log.Warningf("addrspace: freeing collapsed table frame %s: %v", t.frame, err)
			}
		}
	}
	return l.phys, nil
}

// Translate returns the physical frame mapped at virt.
func (as *AddressSpace) Translate(virt memtype.Virt) (memtype.Phys, error) {
	h := as.halfFor(virt)
	h.mu.RLock()
	defer h.mu.RUnlock()
	l, ok := h.leaves[virt.PageNumber()]
	if !ok {
		return 0, ErrNotMapped
	}
	return l.phys, nil
}

// CopyIn reads length bytes out of the user buffer starting at virt,
// translating and crossing page boundaries as needed. This is the
// user_buf_ptr side of PORT_SEND (spec.md §4.5): the caller resolves
// the pointer argument through its own AddressSpace rather than ever
// seeing raw user bytes packed into a syscall register.
func (as *AddressSpace) CopyIn(virt memtype.Virt, length int) ([]byte, error) {
	buf := make([]byte, length)
	if err := as.copyPages(virt, buf, true); err != nil {
		return nil, err
	}
	return buf, nil
}

// CopyOut writes buf into the user buffer starting at virt, translating
// and crossing page boundaries as needed. This is the user_buf_ptr side
// of PORT_RECV.
func (as *AddressSpace) CopyOut(virt memtype.Virt, buf []byte) error {
	return as.copyPages(virt, buf, false)
}

func (as *AddressSpace) copyPages(virt memtype.Virt, buf []byte, fromUser bool) error {
	remaining := buf
	cur := virt
	for len(remaining) > 0 {
		phys, err := as.Translate(cur)
		if err != nil {
			return err
		}
		off := int(uint64(cur) - uint64(cur.RoundDown()))
		n := memtype.PageSize - off
		if n > len(remaining) {
			n = len(remaining)
		}
		if fromUser {
			err = as.pfa.ReadAt(phys, off, remaining[:n])
		} else {
			err = as.pfa.WriteAt(phys, off, remaining[:n])
		}
		if err != nil {
			return err
		}
		remaining = remaining[n:]
		cur = cur.Add(uint64(n))
	}
	return nil
}

// Drop tears down the user half: every non-shared leaf frame and every
// intermediate table is returned to the PFA. The kernel half is
// released only by reference count, and is never touched here unless
// this was the last live reference.
func (as *AddressSpace) Drop() error {
	as.user.mu.Lock()
	for page, l := range as.user.leaves {
		if !l.shared {
			if err := as.pfa.Free(l.phys); err != nil {
				log.Warningf("addrspace: freeing leaf frame %s: %v", l.phys, err)
			}
		}
		delete(as.user.leaves, page)
	}
	for group, t := range as.user.tables {
		if err := as.pfa.Free(t.frame); err != nil {
			log.Warningf("addrspace: freeing table frame %s: %v", t.frame, err)
		}
		delete(as.user.tables, group)
	}
	as.user.mu.Unlock()

	if err := as.pfa.Free(as.root); err != nil {
		log.Warningf("addrspace: freeing root frame %s: %v", as.root, err)
	}

	as.shared.DecRefWithDestructor(func() {
		as.shared.h.mu.Lock()
		defer as.shared.h.mu.Unlock()
		for _, t := range as.shared.h.tables {
			as.pfa.Free(t.frame)
		}
	})
	return nil
}
