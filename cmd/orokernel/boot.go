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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"golang.org/x/sys/unix"

	"github.com/oro-os/kernel/pkg/abi"
	"github.com/oro-os/kernel/pkg/log"
	"github.com/oro-os/kernel/pkg/memtype"
	"github.com/oro-os/kernel/pkg/orokernel"
	"github.com/oro-os/kernel/pkg/pfa"

	"github.com/oro-os/kernel/internal/config"
)

// bootCommand assembles a synthetic boot handoff — this core never
// talks to a real bootloader (spec.md §1) — and runs Boot against it,
// printing the resulting object counts. It exists so the kernel package
// tree has a runnable smoke test independent of any particular arch
// stub, the same role runsc's own "boot" subcommand plays against a
// real container bundle.
type bootCommand struct {
	memMB      uint
	configPath string
	debug      bool
}

func (*bootCommand) Name() string     { return "boot" }
func (*bootCommand) Synopsis() string { return "boot the kernel core against a synthetic memory map" }
func (*bootCommand) Usage() string {
	return "boot [-mem-mb N] [-config path] [-debug]\n"
}

func (c *bootCommand) SetFlags(f *flag.FlagSet) {
	f.UintVar(&c.memMB, "mem-mb", 64, "synthetic usable memory, in megabytes")
	f.StringVar(&c.configPath, "config", "", "path to a TOML boot configuration")
	f.BoolVar(&c.debug, "debug", false, "enable debug-mode double-free detection and verbose logging")
}

func (c *bootCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, level, err := config.Load(c.configPath)
	if err != nil {
		fmt.Println("orokernel boot:", err)
		return subcommands.ExitFailure
	}
	if c.debug {
		cfg.Debug = true
		level = log.Debug
	}
	logger := log.New(os.Stderr, level, "orokernel: ")

	if hostPage := unix.Getpagesize(); hostPage != memtype.PageSize {
		logger.Warningf("host page size %d differs from kernel frame size %d; the simulated PFA is unaffected, but a real arch stub on this host would need to account for the difference", hostPage, memtype.PageSize)
	}

	handoff := syntheticHandoff(uint64(c.memMB) << 20)
	k, err := orokernel.Boot(handoff, cfg, logger)
	if err != nil {
		fmt.Println("orokernel boot:", err)
		return subcommands.ExitFailure
	}

	root, err := k.RingCreate(k.RootRing())
	if err != nil {
		fmt.Println("orokernel boot: creating a sample ring:", err)
		return subcommands.ExitFailure
	}
	logger.Infof("orokernel: sample ring %s created under root", root)

	stats := k.Stats()
	fmt.Printf("rings=%d instances=%d threads=%d ports=%d tokens=%d frames_free=%d frames_used=%d\n",
		stats.Rings, stats.Instances, stats.Threads, stats.Ports, stats.Tokens, stats.FramesFree, stats.FramesUsed)
	return subcommands.ExitSuccess
}

// syntheticHandoff builds a single-region, page-aligned handoff with no
// modules and no framebuffer — the minimum a real bootloader would ever
// hand the kernel.
func syntheticHandoff(usableBytes uint64) *abi.HandoffInfo {
	usableBytes = (usableBytes / memtype.PageSize) * memtype.PageSize
	return &abi.HandoffInfo{
		LinearMapOffset: 0xffff800000000000,
		MemoryMap: []abi.MemoryMapEntry{
			{Base: 0x100000, Length: usableBytes, Type: pfa.Usable},
		},
	}
}
