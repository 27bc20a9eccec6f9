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

// Package video exposes the boot-time framebuffer, when the handoff
// provides one, as a read-only descriptor a Ring-0 Instance can map
// into its own AddressSpace. This is a supplemented feature: spec.md's
// core leaves video entirely to userspace drivers, but the handoff
// struct it defines already carries a Framebuffer descriptor, and a
// kernel that hands that descriptor to nobody makes the field dead
// weight (spec.md §6, §9 "Open Questions").
package video

import (
	"fmt"

	"github.com/oro-os/kernel/pkg/abi"
	"github.com/oro-os/kernel/pkg/addrspace"
	"github.com/oro-os/kernel/pkg/memtype"
)

// PixelFormat names the framebuffer's pixel encoding, mirroring the
// handoff's raw Format field.
type PixelFormat uint32

// Supported pixel formats.
const (
	FormatUnknown PixelFormat = iota
	FormatRGBX8888
	FormatBGRX8888
)

// Descriptor is the kernel-owned, read-only view of the boot
// framebuffer.
type Descriptor struct {
	Base   memtype.Phys
	Pitch  uint32
	Width  uint32
	Height uint32
	Format PixelFormat
}

// FromHandoff converts the handoff's raw Framebuffer into a Descriptor,
// or returns (nil, nil) if the boot handoff carried none — not every
// boot has a video device.
func FromHandoff(fb *abi.Framebuffer) (*Descriptor, error) {
	if fb == nil {
		return nil, nil
	}
	base := memtype.FromRaw(fb.Base)
	if !base.IsAligned() {
		return nil, fmt.Errorf("video: framebuffer base %s is not frame-aligned", base)
	}
	return &Descriptor{
		Base:   base,
		Pitch:  fb.Pitch,
		Width:  fb.Width,
		Height: fb.Height,
		Format: PixelFormat(fb.Format),
	}, nil
}

// Size returns the total byte length of the framebuffer.
func (d *Descriptor) Size() uint64 { return uint64(d.Pitch) * uint64(d.Height) }

// MapInto maps the framebuffer into as at virt, write-through and
// shared so Drop never frees the underlying video memory out from under
// the device. Returns the number of frames mapped.
func (d *Descriptor) MapInto(as *addrspace.AddressSpace, virt memtype.Virt) (int, error) {
	if !virt.IsAligned() {
		return 0, fmt.Errorf("video: destination %s is not page-aligned", virt)
	}
	n := int((d.Size() + memtype.PageSize - 1) / memtype.PageSize)
	for i := 0; i < n; i++ {
		off := uint64(i) * memtype.PageSize
		phys := d.Base.Add(off)
		v := virt.Add(off)
		if err := as.Map(v, phys, addrspace.ProtRead|addrspace.ProtWrite, addrspace.CacheWriteThrough, true); err != nil {
			return i, err
		}
	}
	return n, nil
}
