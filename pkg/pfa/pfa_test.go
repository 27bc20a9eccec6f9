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

package pfa

import (
	"testing"

	"github.com/oro-os/kernel/pkg/memtype"
)

func newTestPFA(t *testing.T, usableBytes uint64, opts ...Option) *PFA {
	t.Helper()
	lm := memtype.NewLinearMap(0xFFFF800000000000)
	regions := []Region{
		{Base: memtype.FromRaw(0x100000), Length: usableBytes, Kind: Usable},
	}
	p, err := NewFromMemoryMap(lm, regions, nil)
	if err != nil {
		t.Fatalf("NewFromMemoryMap: %v", err)
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func TestAllocExhaustsExactlyUsableFrames(t *testing.T) {
	const usable = 64 * memtype.PageSize
	p := newTestPFA(t, usable)
	if got, want := p.NumTotal(), usable/memtype.PageSize; got != want {
		t.Fatalf("NumTotal() = %d, want %d", got, want)
	}

	seen := make(map[memtype.Phys]bool)
	count := 0
	for {
		f, err := p.Alloc()
		if err != nil {
			break
		}
		if seen[f] {
			t.Fatalf("Alloc returned duplicate frame %s", f)
		}
		if !f.IsAligned() {
			t.Fatalf("Alloc returned unaligned frame %s", f)
		}
		seen[f] = true
		count++
	}
	if count != usable/memtype.PageSize {
		t.Fatalf("allocated %d frames, want %d", count, usable/memtype.PageSize)
	}
	if _, err := p.Alloc(); err != ErrOutOfMemory {
		t.Fatalf("Alloc() after exhaustion = %v, want ErrOutOfMemory", err)
	}
}

func TestAllocFreeLIFO(t *testing.T) {
	const usable = 8 * memtype.PageSize
	p := newTestPFA(t, usable)

	var frames []memtype.Phys
	for i := 0; i < usable/memtype.PageSize; i++ {
		f, err := p.Alloc()
		if err != nil {
			t.Fatalf("Alloc: %v", err)
		}
		frames = append(frames, f)
	}
	for i := len(frames) - 1; i >= 0; i-- {
		if err := p.Free(frames[i]); err != nil {
			t.Fatalf("Free(%s): %v", frames[i], err)
		}
	}
	// frames[0] was freed last, so it is the first to come back.
	for i := 0; i < len(frames); i++ {
		f, err := p.Alloc()
		if err != nil {
			t.Fatalf("Alloc: %v", err)
		}
		if f != frames[i] {
			t.Fatalf("Alloc() = %s, want %s (LIFO order)", f, frames[i])
		}
	}
}

func TestZeroOnAlloc(t *testing.T) {
	p := newTestPFA(t, memtype.PageSize)
	f, err := p.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	pg := p.page(f)
	for i := range pg {
		pg[i] = 0xAA
	}
	if err := p.Free(f); err != nil {
		t.Fatalf("Free: %v", err)
	}
	f2, err := p.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if f2 != f {
		t.Fatalf("expected to reallocate the same frame, got %s want %s", f2, f)
	}
	pg2 := p.page(f2)
	for i, b := range pg2 {
		if b != 0 {
			t.Fatalf("frame byte %d = %#x, want 0 after zero-on-alloc", i, b)
		}
	}
}

func TestDoubleFreeDetectedInDebugMode(t *testing.T) {
	p := newTestPFA(t, memtype.PageSize, WithDebug())
	f, err := p.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := p.Free(f); err != nil {
		t.Fatalf("first Free: %v", err)
	}
	if err := p.Free(f); err != ErrDoubleFree {
		t.Fatalf("second Free() = %v, want ErrDoubleFree", err)
	}
}

func TestReserveExcludesFramesFromAllocation(t *testing.T) {
	const usable = 16 * memtype.PageSize
	p := newTestPFA(t, usable)
	reservedBase := memtype.FromRaw(0x100000 + 4*memtype.PageSize)
	if err := p.Reserve(reservedBase, 4*memtype.PageSize); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if got, want := p.NumFree(), 12; got != want {
		t.Fatalf("NumFree() = %d, want %d", got, want)
	}
	for i := 0; i < 12; i++ {
		f, err := p.Alloc()
		if err != nil {
			t.Fatalf("Alloc: %v", err)
		}
		if f >= reservedBase && f < reservedBase.Add(4*memtype.PageSize) {
			t.Fatalf("Alloc returned reserved frame %s", f)
		}
	}
	if _, err := p.Alloc(); err != ErrOutOfMemory {
		t.Fatalf("Alloc() after exhaustion = %v, want ErrOutOfMemory", err)
	}
}
