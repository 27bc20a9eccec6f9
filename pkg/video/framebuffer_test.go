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

package video

import (
	"testing"

	"github.com/oro-os/kernel/pkg/abi"
	"github.com/oro-os/kernel/pkg/addrspace"
	"github.com/oro-os/kernel/pkg/memtype"
	"github.com/oro-os/kernel/pkg/pfa"
)

func TestFromHandoffNilReturnsNilNil(t *testing.T) {
	d, err := FromHandoff(nil)
	if err != nil || d != nil {
		t.Fatalf("FromHandoff(nil) = %v, %v, want nil, nil", d, err)
	}
}

func TestFromHandoffRejectsMisalignedBase(t *testing.T) {
	_, err := FromHandoff(&abi.Framebuffer{Base: 1, Pitch: 4, Width: 1, Height: 1})
	if err == nil {
		t.Fatalf("FromHandoff with misaligned base succeeded, want error")
	}
}

func TestFromHandoffAndSize(t *testing.T) {
	d, err := FromHandoff(&abi.Framebuffer{
		Base: 0x300000, Pitch: 1920 * 4, Width: 1920, Height: 1080, Format: 1,
	})
	if err != nil {
		t.Fatalf("FromHandoff: %v", err)
	}
	if d.Format != FormatRGBX8888 {
		t.Fatalf("Format = %d, want FormatRGBX8888", d.Format)
	}
	want := uint64(1920*4) * 1080
	if got := d.Size(); got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}
}

func TestMapIntoMapsWriteThroughSharedFrames(t *testing.T) {
	linear := memtype.NewLinearMap(0xffff800000000000)
	frames, err := pfa.NewFromMemoryMap(linear, []pfa.Region{
		{Base: memtype.FromRaw(0x100000), Length: 64 * memtype.PageSize, Kind: pfa.Usable},
	}, nil)
	if err != nil {
		t.Fatalf("NewFromMemoryMap: %v", err)
	}
	shared := addrspace.NewShared()
	as, err := addrspace.New(frames, linear, shared)
	if err != nil {
		t.Fatalf("addrspace.New: %v", err)
	}

	d := &Descriptor{Base: memtype.FromRaw(0x200000), Pitch: memtype.PageSize, Width: 1, Height: 3}
	n, err := d.MapInto(as, memtype.Virt(0x1000))
	if err != nil {
		t.Fatalf("MapInto: %v", err)
	}
	if n != 3 {
		t.Fatalf("MapInto mapped %d frames, want 3", n)
	}

	phys, err := as.Translate(memtype.Virt(0x1000))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if phys != d.Base {
		t.Fatalf("Translate(0x1000) = %s, want %s", phys, d.Base)
	}

	// Dropping the address space must not free the (shared) video frames
	// back to the PFA — only the root frame and the one intermediate
	// table Map allocated come back.
	freeBefore := frames.NumFree()
	if err := as.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if frames.NumFree() != freeBefore+2 {
		t.Fatalf("NumFree() after Drop = %d, want %d (video frames must stay reserved)", frames.NumFree(), freeBefore+2)
	}
}

func TestMapIntoRejectsUnalignedDestination(t *testing.T) {
	linear := memtype.NewLinearMap(0xffff800000000000)
	frames, err := pfa.NewFromMemoryMap(linear, []pfa.Region{
		{Base: memtype.FromRaw(0x100000), Length: 4 * memtype.PageSize, Kind: pfa.Usable},
	}, nil)
	if err != nil {
		t.Fatalf("NewFromMemoryMap: %v", err)
	}
	shared := addrspace.NewShared()
	as, err := addrspace.New(frames, linear, shared)
	if err != nil {
		t.Fatalf("addrspace.New: %v", err)
	}
	d := &Descriptor{Base: memtype.FromRaw(0x200000), Pitch: memtype.PageSize, Width: 1, Height: 1}
	if _, err := d.MapInto(as, memtype.Virt(1)); err == nil {
		t.Fatalf("MapInto with unaligned destination succeeded, want error")
	}
}
