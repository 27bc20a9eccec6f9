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

package kernel

import (
	"github.com/oro-os/kernel/pkg/errors"
	"github.com/oro-os/kernel/pkg/refs"
	"github.com/oro-os/kernel/pkg/registry"
	"github.com/oro-os/kernel/pkg/syncutil"
	"github.com/oro-os/kernel/pkg/waiter"
)

// PortRole distinguishes a Port's two possible attachment roles.
// spec.md §9 resolves the SPSC-vs-MPMC open question as SPSC: exactly
// one Token may hold each role.
type PortRole uint8

// Port roles.
const (
	RoleProducer PortRole = iota
	RoleConsumer
)

// Port is a typed, unidirectional, single-producer/single-consumer
// endpoint carrying fixed-size messages (spec.md §3).
type Port struct {
	refs.AtomicRefCount

	mu syncutil.Mutex

	self     registry.Handle
	owner    registry.Handle
	typeID   [16]byte
	slotSize uint32
	depth    uint32

	queue [][]byte
	head  int
	tail  int
	count int

	producer registry.Handle // Instance holding the producer role, zero if unattached
	consumer registry.Handle // Instance holding the consumer role, zero if unattached

	readers waiter.Queue // waiters for EventReadable
	writers waiter.Queue // waiters for EventWritable
}

// NewPort constructs an empty Port. self is this Port's own registry
// handle, filled in by the caller immediately after Registry.Insert.
func NewPort(self, owner registry.Handle, typeID [16]byte, slotSize, depth uint32) *Port {
	p := &Port{
		self:     self,
		owner:    owner,
		typeID:   typeID,
		slotSize: slotSize,
		depth:    depth,
		queue:    make([][]byte, depth),
	}
	p.InitRefs()
	return p
}

// Handle returns p's own registry handle.
func (p *Port) Handle() registry.Handle { return p.self }

// SlotSize returns the maximum message size this Port accepts.
func (p *Port) SlotSize() uint32 { return p.slotSize }

// TypeID returns the 128-bit Port Type ID this Port was created with.
func (p *Port) TypeID() [16]byte { return p.typeID }

// Attach assigns holder to role, failing with errors.Exists if that role
// is already attached — spec.md §3's "attaching a second producer of
// either role fails with Exists" (read: of either role independently).
func (p *Port) Attach(role PortRole, holder registry.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch role {
	case RoleProducer:
		if p.producer != 0 {
			return errors.Exists
		}
		p.producer = holder
	case RoleConsumer:
		if p.consumer != 0 {
			return errors.Exists
		}
		p.consumer = holder
	default:
		return errors.InvalidArg
	}
	return nil
}

// HolderOf returns the Instance holding role, or the zero Handle if
// unattached.
func (p *Port) HolderOf(role PortRole) registry.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if role == RoleProducer {
		return p.producer
	}
	return p.consumer
}

// Send enqueues data, copying it so the caller's buffer can be reused
// immediately. It returns errors.WouldBlock if the queue is full and
// errors.InvalidArg if data exceeds the Port's slot size, per spec.md
// §4.5 ("send/receive are non-blocking").
func (p *Port) Send(data []byte) (int, error) {
	if uint32(len(data)) > p.slotSize {
		return 0, errors.InvalidArg
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.count == int(p.depth) {
		return 0, errors.WouldBlock
	}
	msg := append([]byte(nil), data...)
	p.queue[p.tail] = msg
	p.tail = (p.tail + 1) % int(p.depth)
	p.count++
	p.readers.NotifyOne(waiter.EventReadable)
	return len(msg), nil
}

// Recv dequeues the oldest message and returns its bytes, which fit in
// a buffer of capacity bytes. It returns errors.WouldBlock
// if the queue is empty and errors.InvalidArg if the message does not
// fit in capacity.
func (p *Port) Recv(capacity int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.count == 0 {
		return nil, errors.WouldBlock
	}
	msg := p.queue[p.head]
	if len(msg) > capacity {
		return nil, errors.InvalidArg
	}
	p.queue[p.head] = nil
	p.head = (p.head + 1) % int(p.depth)
	p.count--
	p.writers.NotifyOne(waiter.EventWritable)
	return msg, nil
}

// Readiness reports whether the Port currently has a message available
// (EventReadable) and/or room for one (EventWritable).
func (p *Port) Readiness() waiter.EventMask {
	p.mu.Lock()
	defer p.mu.Unlock()
	var mask waiter.EventMask
	if p.count > 0 {
		mask |= waiter.EventReadable
	}
	if p.count < int(p.depth) {
		mask |= waiter.EventWritable
	}
	return mask
}

// RegisterWaiter registers e to be notified on events in mask.
func (p *Port) RegisterWaiter(e *waiter.Entry, mask waiter.EventMask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if mask&waiter.EventReadable != 0 {
		p.readers.EventRegister(e, mask)
	} else if mask&waiter.EventWritable != 0 {
		p.writers.EventRegister(e, mask)
	}
}

// UnregisterWaiter removes e from whichever internal queue it was
// registered on. Safe to call even if e was never registered.
func (p *Port) UnregisterWaiter(e *waiter.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readers.EventUnregister(e)
	p.writers.EventUnregister(e)
}
