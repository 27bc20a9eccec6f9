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

// Package pfa implements the kernel's physical frame allocator: a
// free-frame reservoir built once from a bootloader-supplied memory map,
// with O(1) amortized alloc/free via an intrusive singly-linked free
// list whose next-pointer lives in the first eight bytes of the freed
// frame itself, read and written through the linear map.
//
// This core runs hosted rather than on bare metal (spec.md §1 excludes
// MMU page-table bit layouts), so "physical memory" here is simulated by
// a lazily populated set of frame-sized byte buffers keyed by Phys, and
// "through the linear map" means through the PFA's own accessors rather
// than a literal pointer dereference at phys+offset. The external
// contract — alloc/free in O(1) amortized, zero-on-alloc, never-zero-
// on-free, OutOfMemory never panics — is unchanged.
package pfa

import (
	"fmt"

	"github.com/oro-os/kernel/pkg/bitmap"
	"github.com/oro-os/kernel/pkg/errors"
	"github.com/oro-os/kernel/pkg/log"
	"github.com/oro-os/kernel/pkg/memtype"
	"github.com/oro-os/kernel/pkg/syncutil"
)

// Kind classifies a memory-map region, per the boot handoff (spec.md §6).
type Kind uint8

// Memory-map region kinds, matching the boot handoff's ty field.
const (
	Usable      Kind = 0
	BadRAM      Kind = 1
	Reclaimable Kind = 2
	Reserved    Kind = 3
	Bootloader  Kind = 4
	Kernel      Kind = 5
)

// Region is one entry of the bootloader-supplied memory map.
type Region struct {
	Base   memtype.Phys
	Length uint64
	Kind   Kind
}

// End returns the exclusive end address of the region.
func (r Region) End() memtype.Phys { return r.Base.Add(r.Length) }

// ErrOutOfMemory is returned by Alloc when the free list is empty. It is
// a recoverable error, never a panic, per spec.md §4.1's failure model.
var ErrOutOfMemory = errors.OutOfMemory

// ErrDoubleFree is returned by Free in debug mode when a frame that
// isn't currently allocated is freed.
var ErrDoubleFree = fmt.Errorf("pfa: double free")

const noFrame = ^uint64(0)

// PFA is the physical frame allocator. The zero value is not usable;
// construct with New or NewFromMemoryMap.
type PFA struct {
	mu syncutil.Mutex

	linear memtype.LinearMap

	// pages backs the simulated linear map: each allocated-or-free Usable
	// frame has a 4096-byte buffer here, created lazily the first time
	// the frame is linked into the free list or allocated.
	pages map[memtype.Phys]*[memtype.PageSize]byte

	freeTop  uint64 // memtype.Phys of the head of the free list, or noFrame
	numFree  int
	numTotal int // total Usable frames imported, for the testable invariant in spec.md §8

	debug      bool
	allocated  bitmap.Bitmap // debug-mode only: tracks which imported frames are currently allocated
	frameIndex map[memtype.Phys]uint32
}

// Option configures a PFA at construction time.
type Option func(*PFA)

// WithDebug enables double-free detection, at the cost of an extra
// bitmap lookup on every Free. It mirrors a debug build in spec.md
// §4.1's failure model; production boots omit it.
func WithDebug() Option {
	return func(p *PFA) { p.debug = true }
}

// New constructs an empty PFA over the given linear map. Use
// NewFromMemoryMap to build one populated from a memory map.
func New(linear memtype.LinearMap, opts ...Option) *PFA {
	p := &PFA{
		linear:     linear,
		pages:      make(map[memtype.Phys]*[memtype.PageSize]byte),
		freeTop:    noFrame,
		frameIndex: make(map[memtype.Phys]uint32),
	}
	for _, o := range opts {
		o(p)
	}
	if p.debug {
		p.allocated = bitmap.New(0)
	}
	return p
}

// NewFromMemoryMap constructs a PFA and imports every Usable region of
// regions, excluding any frame that falls within a reserved range (used
// for the initial, statically built page tables per spec.md §4.1's
// "bulk reservation for contiguous regions at boot").
func NewFromMemoryMap(linear memtype.LinearMap, regions []Region, reserved []memtype.Phys, opts ...Option) (*PFA, error) {
	p := New(linear, opts...)
	reservedSet := make(map[memtype.Phys]bool, len(reserved))
	for _, r := range reserved {
		reservedSet[r.RoundDown()] = true
	}
	for _, r := range regions {
		if r.Kind != Usable {
			continue
		}
		if err := p.importRegion(r, reservedSet); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PFA) importRegion(r Region, reservedSet map[memtype.Phys]bool) error {
	if !r.Base.IsAligned() || r.Length%memtype.PageSize != 0 {
		return fmt.Errorf("pfa: region %+v is not frame-aligned", r)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for off := uint64(0); off < r.Length; off += memtype.PageSize {
		frame := r.Base.Add(off)
		if reservedSet[frame] {
			continue
		}
		p.linkFreeLocked(frame)
		p.numFree++
		p.numTotal++
	}
	return nil
}

// linkFreeLocked pushes frame onto the head of the free list. The caller
// must hold p.mu.
func (p *PFA) linkFreeLocked(frame memtype.Phys) {
	p.writeNextLocked(frame, p.freeTop)
	p.freeTop = uint64(frame)
}

func (p *PFA) page(frame memtype.Phys) *[memtype.PageSize]byte {
	pg, ok := p.pages[frame]
	if !ok {
		pg = &[memtype.PageSize]byte{}
		p.pages[frame] = pg
	}
	return pg
}

func (p *PFA) writeNextLocked(frame memtype.Phys, next uint64) {
	pg := p.page(frame)
	for i := 0; i < 8; i++ {
		pg[i] = byte(next >> (8 * i))
	}
}

func (p *PFA) readNextLocked(frame memtype.Phys) uint64 {
	pg := p.page(frame)
	var next uint64
	for i := 0; i < 8; i++ {
		next |= uint64(pg[i]) << (8 * i)
	}
	return next
}

// Alloc pops a free frame, zeroes it, and returns it. It returns
// ErrOutOfMemory — never a panic — if the free list is empty.
func (p *PFA) Alloc() (memtype.Phys, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.freeTop == noFrame {
		return 0, ErrOutOfMemory
	}
	frame := memtype.Phys(p.freeTop)
	p.freeTop = p.readNextLocked(frame)
	p.numFree--
	pg := p.page(frame)
	*pg = [memtype.PageSize]byte{}
	if p.debug {
		p.markAllocatedLocked(frame, true)
	}
	return frame, nil
}

// Free returns frame to the free set. frame must have been returned by
// Alloc or imported as Usable. In debug mode, freeing a frame that is
// not currently allocated returns ErrDoubleFree instead of corrupting
// the free list.
func (p *PFA) Free(frame memtype.Phys) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.debug {
		idx, ok := p.frameIndex[frame]
		if !ok || !p.allocated.IsSet(idx) {
			log.Warningf("pfa: double free of %s", frame)
			return ErrDoubleFree
		}
		p.allocated.Remove(idx)
	}
	p.linkFreeLocked(frame)
	p.numFree++
	return nil
}

func (p *PFA) markAllocatedLocked(frame memtype.Phys, allocated bool) {
	idx, ok := p.frameIndex[frame]
	if !ok {
		idx = uint32(len(p.frameIndex))
		p.frameIndex[frame] = idx
	}
	if allocated {
		p.allocated.Add(idx)
	} else {
		p.allocated.Remove(idx)
	}
}

// ReadAt copies len(buf) bytes out of frame's simulated backing memory
// starting at byte offset off. It is how a caller holding a Phys reads
// through the linear map without a literal pointer dereference (spec.md
// §4.5's "pointer arguments are validated by translate and copied in/out").
func (p *PFA) ReadAt(frame memtype.Phys, off int, buf []byte) error {
	if off < 0 || off+len(buf) > memtype.PageSize {
		return fmt.Errorf("pfa: read [%d,%d) out of frame bounds", off, off+len(buf))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	copy(buf, p.page(frame)[off:off+len(buf)])
	return nil
}

// WriteAt copies buf into frame's simulated backing memory starting at
// byte offset off.
func (p *PFA) WriteAt(frame memtype.Phys, off int, buf []byte) error {
	if off < 0 || off+len(buf) > memtype.PageSize {
		return fmt.Errorf("pfa: write [%d,%d) out of frame bounds", off, off+len(buf))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	copy(p.page(frame)[off:off+len(buf)], buf)
	return nil
}

// NumFree returns the number of frames currently available to Alloc.
func (p *PFA) NumFree() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numFree
}

// NumTotal returns the number of Usable frames ever imported.
func (p *PFA) NumTotal() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numTotal
}

// Reserve removes every frame in [base, base+length) from the free
// list, for on-demand bulk reservations after construction (e.g. a
// newly discovered Reclaimable region being repurposed). It is O(free
// list length) and intended for boot-time or rare administrative use,
// not the allocation hot path.
func (p *PFA) Reserve(base memtype.Phys, length uint64) error {
	if !base.IsAligned() || length%memtype.PageSize != 0 {
		return fmt.Errorf("pfa: reserve range %s+%d is not frame-aligned", base, length)
	}
	end := base.Add(length)
	p.mu.Lock()
	defer p.mu.Unlock()

	var newHead uint64 = noFrame
	var kept []memtype.Phys
	for cur := p.freeTop; cur != noFrame; {
		frame := memtype.Phys(cur)
		next := p.readNextLocked(frame)
		if frame < base || frame >= end {
			kept = append(kept, frame)
		} else {
			p.numFree--
		}
		cur = next
	}
	for i := len(kept) - 1; i >= 0; i-- {
		p.writeNextLocked(kept[i], newHead)
		newHead = uint64(kept[i])
	}
	p.freeTop = newHead
	return nil
}
