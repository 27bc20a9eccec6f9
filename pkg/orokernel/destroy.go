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
	"github.com/oro-os/kernel/pkg/errors"
	"github.com/oro-os/kernel/pkg/kernel"
	"github.com/oro-os/kernel/pkg/registry"
)

// RingDestroy tears down ring and every descendant: each child Ring
// recursively, each Instance's Threads and AddressSpace, and every
// Token issued against any of them. Every Handle into the subtree
// reads Stale afterward, per spec.md §3's cascading-destroy invariant.
// Destruction is bottom-up (leaves first) so a concurrent lookup never
// observes a Ring whose children have already gone stale while the
// Ring itself has not.
func (k *Kernel) RingDestroy(ring registry.Handle) error {
	r, err := k.rings.Get(ring)
	if err != nil {
		return err
	}
	if r.IsRoot() {
		return errors.NoPerm
	}

	for _, child := range r.Children() {
		if err := k.RingDestroy(child); err != nil && err != errors.Stale {
			return err
		}
	}
	for _, inst := range r.Instances() {
		if err := k.InstanceDestroy(inst); err != nil && err != errors.Stale {
			return err
		}
	}
	for _, tok := range r.Tokens() {
		k.releaseToken(tok)
	}

	if parent, perr := k.rings.Get(r.Parent()); perr == nil {
		parent.RemoveChild(ring)
	}
	r.SetTerminated()
	if _, err := k.rings.Remove(ring); err != nil {
		return err
	}
	k.log.Infof("orokernel: ring %s destroyed", ring)
	return nil
}

// InstanceDestroy cancels every Thread of instance, drops its
// AddressSpace, revokes every Token it holds, and removes it from the
// Registry. Revoking a Port-right Token drops that Port's reference
// count; a Port this Instance owned but never attached elsewhere is
// destroyed here as its last reference goes away.
func (k *Kernel) InstanceDestroy(instance registry.Handle) error {
	inst, err := k.instances.Get(instance)
	if err != nil {
		return err
	}
	inst.SetState(kernel.InstanceTerminated)

	for _, th := range inst.Threads() {
		k.ThreadCancel(th)
	}
	for _, tok := range inst.Tokens() {
		k.releaseToken(tok)
	}
	if as := inst.AddressSpace(); as != nil {
		if err := as.Drop(); err != nil {
			k.log.Warningf("orokernel: dropping address space for instance %s: %v", instance, err)
		}
	}

	if ring, rerr := k.rings.Get(inst.Ring()); rerr == nil {
		ring.RemoveInstance(instance)
	}
	if _, err := k.instances.Remove(instance); err != nil {
		return err
	}
	k.log.Infof("orokernel: instance %s destroyed", instance)
	return nil
}

// ThreadCancel transitions thread to Terminated and removes it from the
// Registry. A Thread that was Blocked on a Port simply never wakes —
// any pending wake enqueued for it is a silent no-op per spec.md §4.4's
// cancellation semantics, since the Scheduler checks Registry liveness
// before requeuing a drained wake.
func (k *Kernel) ThreadCancel(thread registry.Handle) error {
	th, err := k.threads.Get(thread)
	if err != nil {
		return err
	}
	th.SetState(kernel.ThreadTerminated)
	if _, err := k.threads.Remove(thread); err != nil {
		return err
	}
	return nil
}
