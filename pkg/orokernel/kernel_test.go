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

package orokernel

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/oro-os/kernel/pkg/abi"
	"github.com/oro-os/kernel/pkg/pfa"
)

func testHandoff() *abi.HandoffInfo {
	return &abi.HandoffInfo{
		LinearMapOffset: 0xffff800000000000,
		MemoryMap: []abi.MemoryMapEntry{
			{Base: 0x100000, Length: 16 * 4096, Type: pfa.Usable},
		},
	}
}

func TestBootHappyPath(t *testing.T) {
	k, err := Boot(testHandoff(), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if k.RootRing() == 0 {
		t.Fatalf("RootRing() is the zero handle")
	}
	root, err := k.Rings().Get(k.RootRing())
	if err != nil {
		t.Fatalf("Get(RootRing()): %v", err)
	}
	if !root.IsRoot() {
		t.Fatalf("root ring's IsRoot() is false")
	}
	stats := k.Stats()
	want := Stats{Rings: 1, Instances: 0, Threads: 0, Ports: 0, Tokens: 0, FramesFree: 16, FramesUsed: 0}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestBootRejectsInvalidHandoff(t *testing.T) {
	h := testHandoff()
	h.MemoryMap[0].Base = 1 // not frame-aligned
	if _, err := Boot(h, DefaultConfig(), nil); err == nil {
		t.Fatalf("Boot with misaligned memory map succeeded, want error")
	}
}

func TestBootRejectsZeroCores(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumCores = 0
	if _, err := Boot(testHandoff(), cfg, nil); err == nil {
		t.Fatalf("Boot with NumCores=0 succeeded, want error")
	}
}

func TestBootWithDebugEnablesDoubleFreeDetection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Debug = true
	k, err := Boot(testHandoff(), cfg, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	frame, err := k.Frames().Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := k.Frames().Free(frame); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if err := k.Frames().Free(frame); err != pfa.ErrDoubleFree {
		t.Fatalf("second Free = %v, want ErrDoubleFree", err)
	}
}
