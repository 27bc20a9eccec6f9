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

// Package abi defines the Oro boot handoff structure and syscall wire
// format, per spec.md §6. Everything here is a stable, external-facing
// encoding: the bootloader that produces a HandoffInfo and the arch stub
// that produces a Request are both explicitly out of this core's scope
// (spec.md §1), but the shapes they agree on are not.
package abi

import (
	"fmt"
	"sort"

	"github.com/oro-os/kernel/pkg/memtype"
	"github.com/oro-os/kernel/pkg/pfa"
)

// ModuleID is a 128-bit, content-addressed Module identifier.
type ModuleID [16]byte

// MemoryMapEntry mirrors the bootloader's memory_map entries.
type MemoryMapEntry struct {
	Base   uint64
	Length uint64
	Type   pfa.Kind
}

// ModuleEntry mirrors one entry of the bootloader's modules list: a
// loadable image already present in physical memory.
type ModuleEntry struct {
	ID     ModuleID
	Base   uint64
	Length uint64
}

// Framebuffer mirrors the optional boot-time video buffer descriptor.
type Framebuffer struct {
	Base   uint64
	Pitch  uint32
	Width  uint32
	Height uint32
	Format uint32
}

// HandoffInfo is the C-ABI structure the bootloader hands the kernel at
// entry, per spec.md §6.
type HandoffInfo struct {
	LinearMapOffset uint64
	MemoryMap       []MemoryMapEntry
	Modules         []ModuleEntry
	Framebuffer     *Framebuffer
}

// Validate rejects a malformed handoff before anything downstream (the
// PFA, the module table) trusts it: overlapping regions and
// non-page-aligned regions are bugs in the bootloader, not conditions
// the kernel can recover from once frames have already been handed out
// of two overlapping "Usable" ranges.
func (h *HandoffInfo) Validate() error {
	entries := append([]MemoryMapEntry(nil), h.MemoryMap...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Base < entries[j].Base })
	for i, e := range entries {
		if e.Base%4096 != 0 || e.Length%4096 != 0 {
			return fmt.Errorf("abi: memory map entry %d (base=%#x len=%#x) is not frame-aligned", i, e.Base, e.Length)
		}
		if i > 0 {
			prev := entries[i-1]
			if e.Base < prev.Base+prev.Length {
				return fmt.Errorf("abi: memory map entries %d and %d overlap", i-1, i)
			}
		}
	}
	for _, m := range h.Modules {
		if m.Length == 0 {
			return fmt.Errorf("abi: module %x has zero length", m.ID)
		}
	}
	return nil
}

// PFARegions converts the handoff's memory map into pfa.Region values.
func (h *HandoffInfo) PFARegions() []pfa.Region {
	regions := make([]pfa.Region, len(h.MemoryMap))
	for i, e := range h.MemoryMap {
		regions[i] = pfa.Region{Base: memtype.FromRaw(e.Base), Length: e.Length, Kind: e.Type}
	}
	return regions
}
