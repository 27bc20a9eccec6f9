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

// Package orokernel assembles the PFA, the address-space layer, the
// Registry, the object model, and the per-core scheduler into the one
// running Kernel, and implements the operations that create and destroy
// Rings, Instances, Threads, Ports, and Tokens — the control-plane half
// of spec.md that pkg/orosys's syscall handlers call into. The split
// mirrors gvisor's separation between pkg/sentry/kernel (the Kernel
// type that owns every table) and the syscall table that dispatches
// into it.
package orokernel

import (
	"fmt"

	"github.com/oro-os/kernel/pkg/abi"
	"github.com/oro-os/kernel/pkg/addrspace"
	"github.com/oro-os/kernel/pkg/errors"
	"github.com/oro-os/kernel/pkg/kernel"
	"github.com/oro-os/kernel/pkg/log"
	"github.com/oro-os/kernel/pkg/memtype"
	"github.com/oro-os/kernel/pkg/pfa"
	"github.com/oro-os/kernel/pkg/registry"
	"github.com/oro-os/kernel/pkg/sched"
	"github.com/oro-os/kernel/pkg/syncutil"
)

// Config holds the boot-time tunables spec.md leaves as an Open
// Question or an arch-stub concern: how many cores to schedule across,
// how long a quantum lasts, and whether a saturated generation counter
// is retired or recycled.
type Config struct {
	NumCores   int
	Quantum    uint32
	ReuseTombs bool
	Debug      bool
}

// DefaultConfig returns the tunables a single-core boot with no special
// flags would use.
func DefaultConfig() Config {
	return Config{NumCores: 1, Quantum: 10, ReuseTombs: false, Debug: false}
}

// Kernel is the live, booted system: every Registry table, the shared
// frame allocator, the kernel-shared address-space half, the per-core
// schedulers, and the module index built from the boot handoff.
type Kernel struct {
	log log.Logger

	mu syncutil.Mutex

	pfa    *pfa.PFA
	linear memtype.LinearMap
	shared *addrspace.Shared
	cores  *addrspace.CoreTable

	rings     *registry.Table[*kernel.Ring]
	instances *registry.Table[*kernel.Instance]
	threads   *registry.Table[*kernel.Thread]
	ports     *registry.Table[*kernel.Port]
	tokens    *registry.Table[*kernel.Token]
	modules   *kernel.ModuleTable

	sched *sched.Set

	rootRing registry.Handle

	// faultPort is the Ring-0 port every Thread fault is posted to
	// (spec.md's supplemented fault-notification path); zero until
	// AttachFaultPort designates one.
	faultPort registry.Handle

	// faultLog throttles ThreadFault's warning path so a tight fault
	// loop (e.g. a thread re-faulting as fast as it's rescheduled)
	// can't itself become a log storm.
	faultLog log.Logger
}

// faultLogEvery bounds ThreadFault's warning rate to once per this many
// seconds, regardless of how often threads actually fault.
const faultLogEvery = 0.5

func init() {
	errors.AddTranslation(addrspace.ErrAlreadyMapped, errors.Exists)
	errors.AddTranslation(addrspace.ErrNotMapped, errors.NotFound)
	errors.AddTranslation(pfa.ErrDoubleFree, errors.Fault)
	errors.AddTranslation(sched.ErrIdle, errors.NotFound)
}

// Boot builds a Kernel from a validated boot handoff: it constructs the
// PFA from the memory map, the kernel-shared address-space half, the
// per-core schedulers, the module index, and Ring 0 — the root of the
// domain tree every other Ring descends from (spec.md §3, §7).
func Boot(handoff *abi.HandoffInfo, cfg Config, logger log.Logger) (*Kernel, error) {
	if logger == nil {
		logger = log.Log()
	}
	if err := handoff.Validate(); err != nil {
		return nil, fmt.Errorf("orokernel: invalid handoff: %w", err)
	}
	if cfg.NumCores < 1 {
		return nil, fmt.Errorf("orokernel: NumCores must be at least 1")
	}

	linear := memtype.NewLinearMap(handoff.LinearMapOffset)
	var opts []pfa.Option
	if cfg.Debug {
		opts = append(opts, pfa.WithDebug())
	}
	frames, err := pfa.NewFromMemoryMap(linear, handoff.PFARegions(), nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("orokernel: importing memory map: %w", err)
	}

	shared := addrspace.NewShared()
	cores := addrspace.NewCoreTable()

	threads := registry.New[*kernel.Thread](kernel.KindThread, cfg.ReuseTombs)

	k := &Kernel{
		log:       logger,
		faultLog:  log.RateLimited(logger, faultLogEvery),
		pfa:       frames,
		linear:    linear,
		shared:    shared,
		cores:     cores,
		rings:     registry.New[*kernel.Ring](kernel.KindRing, cfg.ReuseTombs),
		instances: registry.New[*kernel.Instance](kernel.KindInstance, cfg.ReuseTombs),
		threads:   threads,
		ports:     registry.New[*kernel.Port](kernel.KindPort, cfg.ReuseTombs),
		tokens:    registry.New[*kernel.Token](kernel.KindToken, cfg.ReuseTombs),
		modules:   kernel.NewModuleTable(handoff.Modules),
		sched:     sched.NewSet(cfg.NumCores, threads, cfg.Quantum),
	}

	h := k.rings.InsertFunc(func(h registry.Handle) *kernel.Ring {
		return kernel.NewRing(h, 0, true, 0)
	})
	k.rootRing = h
	logger.Infof("orokernel: booted, %d core(s), %d usable frame(s), root ring %s", cfg.NumCores, frames.NumTotal(), h)
	return k, nil
}

// RootRing returns the handle of Ring 0.
func (k *Kernel) RootRing() registry.Handle { return k.rootRing }

// Scheduler returns the Set running this Kernel's cores.
func (k *Kernel) Scheduler() *sched.Set { return k.sched }

// Frames returns the Kernel's physical frame allocator.
func (k *Kernel) Frames() *pfa.PFA { return k.pfa }

// Rings returns the Kernel's Ring registry table.
func (k *Kernel) Rings() *registry.Table[*kernel.Ring] { return k.rings }

// Instances returns the Kernel's Instance registry table.
func (k *Kernel) Instances() *registry.Table[*kernel.Instance] { return k.instances }

// Threads returns the Kernel's Thread registry table.
func (k *Kernel) Threads() *registry.Table[*kernel.Thread] { return k.threads }

// Ports returns the Kernel's Port registry table.
func (k *Kernel) Ports() *registry.Table[*kernel.Port] { return k.ports }

// Tokens returns the Kernel's Token registry table.
func (k *Kernel) Tokens() *registry.Table[*kernel.Token] { return k.tokens }

// Stats summarizes the live object population, the supplemented
// operator-facing counterpart to spec.md's per-object Stats() methods.
type Stats struct {
	Rings      int
	Instances  int
	Threads    int
	Ports      int
	Tokens     int
	FramesFree int
	FramesUsed int
}

// Stats returns a snapshot of k's object counts and frame usage.
func (k *Kernel) Stats() Stats {
	return Stats{
		Rings:      k.rings.Len(),
		Instances:  k.instances.Len(),
		Threads:    k.threads.Len(),
		Ports:      k.ports.Len(),
		Tokens:     k.tokens.Len(),
		FramesFree: k.pfa.NumFree(),
		FramesUsed: k.pfa.NumTotal() - k.pfa.NumFree(),
	}
}
