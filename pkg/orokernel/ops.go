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
	"github.com/oro-os/kernel/pkg/abi"
	"github.com/oro-os/kernel/pkg/addrspace"
	"github.com/oro-os/kernel/pkg/errors"
	"github.com/oro-os/kernel/pkg/kernel"
	"github.com/oro-os/kernel/pkg/registry"
	"github.com/oro-os/kernel/pkg/waiter"
)

// ScheduleCore picks the next runnable Thread for core and installs its
// owning Instance's AddressSpace as current on that core — the control
// transfer a real arch stub performs just before returning to
// userspace (spec.md §4.2's SwitchTo, §4.4's pick_next). It returns
// sched.ErrIdle if the core has nothing runnable.
func (k *Kernel) ScheduleCore(core int) (registry.Handle, error) {
	h, err := k.sched.Core(core).PickNext()
	if err != nil {
		return 0, err
	}
	th, err := k.threads.Get(h)
	if err != nil {
		return h, err
	}
	inst, err := k.instances.Get(th.Instance())
	if err != nil {
		return h, err
	}
	inst.AddressSpace().SwitchTo(k.cores, core)
	return h, nil
}

// RingCreate spawns a new child Ring under parent, failing with
// errors.InvalidArg past spec.md §3's fixed maximum tree depth and
// errors.Stale/BadHandle/WrongKind if parent does not name a live Ring.
func (k *Kernel) RingCreate(parent registry.Handle) (registry.Handle, error) {
	p, err := k.rings.Get(parent)
	if err != nil {
		return 0, err
	}
	if p.Terminated() {
		return 0, errors.NotFound
	}
	depth := p.Depth() + 1
	if depth > kernel.MaxRingDepth {
		return 0, errors.InvalidArg
	}
	h := k.rings.InsertFunc(func(h registry.Handle) *kernel.Ring {
		return kernel.NewRing(h, parent, false, depth)
	})
	p.AddChild(h)
	k.log.Infof("orokernel: ring %s created under %s at depth %d", h, parent, depth)
	return h, nil
}

// InstanceSpawn creates a new Instance of moduleID under ring, giving it
// a fresh AddressSpace sharing this Kernel's kernel-half mapping.
func (k *Kernel) InstanceSpawn(ring registry.Handle, moduleID abi.ModuleID) (registry.Handle, error) {
	r, err := k.rings.Get(ring)
	if err != nil {
		return 0, err
	}
	if r.Terminated() {
		return 0, errors.NotFound
	}
	if _, err := k.modules.Lookup(moduleID); err != nil {
		return 0, errors.NotFound
	}

	as, err := addrspace.New(k.pfa, k.linear, k.shared)
	if err != nil {
		return 0, err
	}

	h := k.instances.InsertFunc(func(h registry.Handle) *kernel.Instance {
		return kernel.NewInstance(h, ring, moduleID, as)
	})
	r.AddInstance(h)
	k.log.Infof("orokernel: instance %s spawned from module %x under ring %s", h, moduleID, ring)
	return h, nil
}

// ThreadCreate creates a new Thread of instance, pinned permanently to
// core (spec.md §9: no cross-core migration), and enqueues it Ready on
// that core's Scheduler.
func (k *Kernel) ThreadCreate(instance registry.Handle, core int, entry, stack uint64) (registry.Handle, error) {
	inst, err := k.instances.Get(instance)
	if err != nil {
		return 0, err
	}
	if inst.State() != kernel.InstanceRunning {
		return 0, errors.NotFound
	}
	if core < 0 || core >= k.sched.NumCores() {
		return 0, errors.InvalidArg
	}

	h := k.threads.InsertFunc(func(h registry.Handle) *kernel.Thread {
		th := kernel.NewThread(h, instance, core)
		th.SetRegs(kernel.Regs{IP: entry, SP: stack})
		th.SetState(kernel.ThreadReady)
		return th
	})
	inst.AddThread(h)
	if err := k.sched.Enqueue(h); err != nil {
		k.threads.Remove(h)
		return 0, err
	}
	k.log.Infof("orokernel: thread %s created on core %d for instance %s", h, core, instance)
	return h, nil
}

// PortCreate creates a new Port owned by instance and returns both its
// Handle and a producer Token and a consumer Token, the only way any
// Instance (including the owner) gains send/receive rights — per
// spec.md §3, a Port is useless without a Token naming a role on it.
func (k *Kernel) PortCreate(instance registry.Handle, typeID [16]byte, slotSize, depth uint32) (port, producer, consumer registry.Handle, err error) {
	if _, err = k.instances.Get(instance); err != nil {
		return 0, 0, 0, err
	}
	port = k.ports.InsertFunc(func(h registry.Handle) *kernel.Port {
		return kernel.NewPort(h, instance, typeID, slotSize, depth)
	})
	producer, err = k.TokenMint(instance, kernel.RightPortSend, port)
	if err != nil {
		k.releasePortRef(port)
		return 0, 0, 0, err
	}
	consumer, err = k.TokenMint(instance, kernel.RightPortRecv, port)
	if err != nil {
		k.releaseToken(producer)
		k.releasePortRef(port)
		return 0, 0, 0, err
	}
	// The two freshly minted Tokens now hold the Port's only references;
	// drop the reference InitRefs gave the constructor so the Port's
	// lifetime is purely Token-counted from here on, per spec.md §3's
	// "destroyed when no Token references remain."
	k.releasePortRef(port)
	k.log.Infof("orokernel: port %s created by instance %s (slot=%d depth=%d)", port, instance, slotSize, depth)
	return port, producer, consumer, nil
}

// TokenMint issues a Token granting right on target to holder. Tokens
// are the only capability the object model recognizes (spec.md §3);
// nothing else is consulted before a send/recv/spawn is allowed. A
// Port-right Token takes a reference on its target Port, released by
// releaseToken when the Token itself goes away.
func (k *Kernel) TokenMint(holder registry.Handle, right kernel.TokenRight, target registry.Handle) (registry.Handle, error) {
	if right == kernel.RightPortSend || right == kernel.RightPortRecv {
		port, err := k.ports.Get(target)
		if err != nil {
			return 0, err
		}
		if !port.TryIncRef() {
			return 0, errors.NotFound
		}
	}
	h := k.tokens.InsertFunc(func(h registry.Handle) *kernel.Token {
		return kernel.NewToken(h, holder, right, target)
	})
	if inst, err := k.instances.Get(holder); err == nil {
		inst.AddToken(h)
	} else if ring, err := k.rings.Get(holder); err == nil {
		ring.AddToken(h)
	}
	return h, nil
}

// releaseToken removes tok from the Registry and, if it granted a
// right on a Port, drops the reference that grant took — the only way
// a Port's reference count ever falls, since a Port has no owner
// pointer of its own once PortCreate hands off to its Tokens.
func (k *Kernel) releaseToken(tok registry.Handle) {
	t, err := k.tokens.Remove(tok)
	if err != nil {
		return
	}
	if t.Right() != kernel.RightPortSend && t.Right() != kernel.RightPortRecv {
		return
	}
	k.releasePortRef(t.Target())
}

// releasePortRef drops one reference on port, removing it from the
// Registry once the count reaches zero.
func (k *Kernel) releasePortRef(port registry.Handle) {
	p, err := k.ports.Get(port)
	if err != nil {
		return
	}
	p.DecRefWithDestructor(func() {
		if _, err := k.ports.Remove(port); err != nil {
			k.log.Warningf("orokernel: removing destroyed port %s: %v", port, err)
			return
		}
		k.log.Infof("orokernel: port %s destroyed (last token released)", port)
	})
}

// PortAttach presents token to claim role on the Port it targets,
// validating both the Registry's generation check (via Get) and the
// Token's own holder/right/target match (via Grants).
func (k *Kernel) PortAttach(holder, token registry.Handle, role kernel.PortRole) error {
	tok, err := k.tokens.Get(token)
	if err != nil {
		return err
	}
	right := kernel.RightPortSend
	if role == kernel.RoleConsumer {
		right = kernel.RightPortRecv
	}
	if !tok.Grants(holder, right, tok.Target()) {
		return errors.NoPerm
	}
	port, err := k.ports.Get(tok.Target())
	if err != nil {
		return err
	}
	return port.Attach(role, holder)
}

// PortSend resolves token to a producer-role Port and forwards data,
// translating the Port's sentinel errors to the ABI Errno space.
func (k *Kernel) PortSend(holder, token registry.Handle, data []byte) (int, error) {
	port, err := k.portForToken(holder, token, kernel.RightPortSend, kernel.RoleProducer)
	if err != nil {
		return 0, err
	}
	return port.Send(data)
}

// PortRecv resolves token to a consumer-role Port and dequeues a
// message into a buffer of capacity bytes.
func (k *Kernel) PortRecv(holder, token registry.Handle, capacity int) ([]byte, error) {
	port, err := k.portForToken(holder, token, kernel.RightPortRecv, kernel.RoleConsumer)
	if err != nil {
		return nil, err
	}
	return port.Recv(capacity)
}

func (k *Kernel) portForToken(holder, token registry.Handle, right kernel.TokenRight, role kernel.PortRole) (*kernel.Port, error) {
	tok, err := k.tokens.Get(token)
	if err != nil {
		return nil, err
	}
	if !tok.Grants(holder, right, tok.Target()) {
		return nil, errors.NoPerm
	}
	port, err := k.ports.Get(tok.Target())
	if err != nil {
		return nil, err
	}
	if port.HolderOf(role) != holder {
		return nil, errors.NoPerm
	}
	return port, nil
}

// Wait blocks thread until the Port role it holds on port becomes
// ready or deadline ticks pass, whichever comes first — the WAIT
// opcode's scheduling effect (spec.md §4.5). A zero port blocks purely
// on the deadline. Readiness is checked before blocking so a thread
// whose condition is already satisfied never sleeps at all; when it
// does block, the other side's next PORT_SEND/PORT_RECV wakes it via
// the Port's waiter queue (spec.md §4.5's "the other side's next
// enqueue/dequeue wakes one waiter, FIFO").
func (k *Kernel) Wait(thread registry.Handle, core int, port registry.Handle, deadline uint64) error {
	th, err := k.threads.Get(thread)
	if err != nil {
		return err
	}
	if port == 0 {
		_, err := k.sched.Core(core).Block(kernel.BlockReason{Deadline: deadline})
		return err
	}
	p, err := k.ports.Get(port)
	if err != nil {
		return err
	}

	var mask waiter.EventMask
	switch {
	case p.HolderOf(kernel.RoleProducer) == th.Instance():
		mask = waiter.EventWritable
	case p.HolderOf(kernel.RoleConsumer) == th.Instance():
		mask = waiter.EventReadable
	default:
		return errors.NoPerm
	}
	if p.Readiness()&mask != 0 {
		return nil
	}

	entry := &waiter.Entry{Context: thread}
	entry.Callback = func(*waiter.Entry) {
		if blocked, err := k.threads.Get(thread); err == nil {
			blocked.TakeWaitCancel()
		}
		if err := k.sched.Wake(thread); err != nil {
			k.log.Warningf("orokernel: waking thread %s on port %s: %v", thread, port, err)
		}
	}
	p.RegisterWaiter(entry, mask)
	th.SetWaitCancel(func() { p.UnregisterWaiter(entry) })

	_, err = k.sched.Core(core).Block(kernel.BlockReason{PortHandle: port, Deadline: deadline})
	return err
}

// ThreadFault records a Thread's fault, marks it Terminated, and — if a
// fault-notification Port has been attached — posts a report to it;
// this is the supplemented fault path spec.md's object model implies
// but leaves to the router/arch boundary to wire up.
func (k *Kernel) ThreadFault(thread registry.Handle, cause errors.Errno) error {
	th, err := k.threads.Get(thread)
	if err != nil {
		return err
	}
	th.SetLastError(cause)
	th.SetState(kernel.ThreadTerminated)
	k.faultLog.Warningf("orokernel: thread %s faulted: %s", thread, cause)

	k.mu.Lock()
	fp := k.faultPort
	k.mu.Unlock()
	if fp == 0 {
		return nil
	}
	port, err := k.ports.Get(fp)
	if err != nil {
		return nil
	}
	report := encodeFault(thread, cause)
	if _, err := port.Send(report); err != nil {
		k.faultLog.Warningf("orokernel: fault report for %s dropped: %v", thread, err)
	}
	return nil
}

// AttachFaultPort designates port as the Ring-0 destination for every
// ThreadFault report.
func (k *Kernel) AttachFaultPort(port registry.Handle) error {
	if _, err := k.ports.Get(port); err != nil {
		return err
	}
	k.mu.Lock()
	k.faultPort = port
	k.mu.Unlock()
	return nil
}

func encodeFault(thread registry.Handle, cause errors.Errno) []byte {
	buf := make([]byte, 16)
	for i := 0; i < 8; i++ {
		buf[i] = byte(uint64(thread) >> (8 * i))
	}
	for i := 0; i < 8; i++ {
		buf[8+i] = byte(uint64(cause) >> (8 * i))
	}
	return buf
}
