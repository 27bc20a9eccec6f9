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

	"github.com/google/subcommands"

	"github.com/oro-os/kernel/internal/config"
	"github.com/oro-os/kernel/pkg/orokernel"
)

// statsCommand boots against a tiny synthetic memory map purely to
// report what a bare boot looks like — no rings, no instances, just
// Ring 0 and whatever frames the memory map yielded. Useful for
// sanity-checking a config file's num_cores/quantum_ticks settings
// before pointing a real harness at them.
type statsCommand struct {
	memMB      uint
	configPath string
}

func (*statsCommand) Name() string     { return "stats" }
func (*statsCommand) Synopsis() string { return "report a bare boot's frame and core accounting" }
func (*statsCommand) Usage() string    { return "stats [-mem-mb N] [-config path]\n" }

func (c *statsCommand) SetFlags(f *flag.FlagSet) {
	f.UintVar(&c.memMB, "mem-mb", 64, "synthetic usable memory, in megabytes")
	f.StringVar(&c.configPath, "config", "", "path to a TOML boot configuration")
}

func (c *statsCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, level, err := config.Load(c.configPath)
	if err != nil {
		fmt.Println("orokernel stats:", err)
		return subcommands.ExitFailure
	}
	logger := newLoggerAt(level)

	k, err := orokernel.Boot(syntheticHandoff(uint64(c.memMB)<<20), cfg, logger)
	if err != nil {
		fmt.Println("orokernel stats:", err)
		return subcommands.ExitFailure
	}
	s := k.Stats()
	fmt.Printf("cores=%d quantum=%d reuse_tombs=%v\n", cfg.NumCores, cfg.Quantum, cfg.ReuseTombs)
	fmt.Printf("rings=%d instances=%d threads=%d ports=%d tokens=%d\n", s.Rings, s.Instances, s.Threads, s.Ports, s.Tokens)
	fmt.Printf("frames_free=%d frames_used=%d\n", s.FramesFree, s.FramesUsed)
	return subcommands.ExitSuccess
}
