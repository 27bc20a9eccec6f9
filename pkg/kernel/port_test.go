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
	"testing"

	"github.com/oro-os/kernel/pkg/errors"
	"github.com/oro-os/kernel/pkg/registry"
	"github.com/oro-os/kernel/pkg/waiter"
)

func newTestPort(slotSize, depth uint32) *Port {
	return NewPort(registry.NewHandle(KindPort, 1, 1), registry.NewHandle(KindInstance, 1, 1), [16]byte{}, slotSize, depth)
}

func TestPortAttachRejectsSecondProducer(t *testing.T) {
	p := newTestPort(16, 4)
	a := registry.NewHandle(KindInstance, 2, 1)
	b := registry.NewHandle(KindInstance, 3, 1)
	if err := p.Attach(RoleProducer, a); err != nil {
		t.Fatalf("first Attach(producer): %v", err)
	}
	if err := p.Attach(RoleProducer, b); err != errors.Exists {
		t.Fatalf("second Attach(producer) = %v, want Exists", err)
	}
	if p.HolderOf(RoleProducer) != a {
		t.Fatalf("HolderOf(producer) = %v, want %v", p.HolderOf(RoleProducer), a)
	}
}

func TestPortAttachProducerAndConsumerAreIndependent(t *testing.T) {
	p := newTestPort(16, 4)
	producer := registry.NewHandle(KindInstance, 2, 1)
	consumer := registry.NewHandle(KindInstance, 3, 1)
	if err := p.Attach(RoleProducer, producer); err != nil {
		t.Fatalf("Attach(producer): %v", err)
	}
	if err := p.Attach(RoleConsumer, consumer); err != nil {
		t.Fatalf("Attach(consumer): %v", err)
	}
	if p.HolderOf(RoleConsumer) != consumer {
		t.Fatalf("HolderOf(consumer) = %v, want %v", p.HolderOf(RoleConsumer), consumer)
	}
}

func TestPortSendRecvFIFOOrder(t *testing.T) {
	p := newTestPort(16, 4)
	if _, err := p.Send([]byte("one")); err != nil {
		t.Fatalf("Send(one): %v", err)
	}
	if _, err := p.Send([]byte("two")); err != nil {
		t.Fatalf("Send(two): %v", err)
	}
	msg, err := p.Recv(16)
	if err != nil || string(msg) != "one" {
		t.Fatalf("Recv() = %q, %v, want one, nil", msg, err)
	}
	msg, err = p.Recv(16)
	if err != nil || string(msg) != "two" {
		t.Fatalf("Recv() = %q, %v, want two, nil", msg, err)
	}
}

func TestPortSendRejectsOversizeMessage(t *testing.T) {
	p := newTestPort(4, 4)
	if _, err := p.Send([]byte("too long")); err != errors.InvalidArg {
		t.Fatalf("Send(oversize) = %v, want InvalidArg", err)
	}
}

func TestPortSendRejectsWhenFull(t *testing.T) {
	p := newTestPort(16, 2)
	if _, err := p.Send([]byte("a")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := p.Send([]byte("b")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := p.Send([]byte("c")); err != errors.WouldBlock {
		t.Fatalf("Send on full queue = %v, want WouldBlock", err)
	}
}

func TestPortRecvRejectsWhenEmpty(t *testing.T) {
	p := newTestPort(16, 2)
	if _, err := p.Recv(16); err != errors.WouldBlock {
		t.Fatalf("Recv on empty queue = %v, want WouldBlock", err)
	}
}

func TestPortRecvRejectsTooSmallCapacity(t *testing.T) {
	p := newTestPort(16, 2)
	if _, err := p.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := p.Recv(2); err != errors.InvalidArg {
		t.Fatalf("Recv with too-small capacity = %v, want InvalidArg", err)
	}
}

func TestPortReadinessTracksQueueState(t *testing.T) {
	p := newTestPort(16, 1)
	if mask := p.Readiness(); mask&waiter.EventReadable != 0 || mask&waiter.EventWritable == 0 {
		t.Fatalf("Readiness() on empty queue = %#x, want writable only", mask)
	}
	p.Send([]byte("x"))
	if mask := p.Readiness(); mask&waiter.EventReadable == 0 || mask&waiter.EventWritable != 0 {
		t.Fatalf("Readiness() on full 1-deep queue = %#x, want readable only", mask)
	}
}

func TestPortNotifiesWaiterOnSend(t *testing.T) {
	p := newTestPort(16, 4)
	var woken bool
	e := &waiter.Entry{Callback: func(*waiter.Entry) { woken = true }}
	p.RegisterWaiter(e, waiter.EventReadable)
	p.Send([]byte("hi"))
	if !woken {
		t.Fatalf("waiter was not notified on Send")
	}
}

func TestPortUnregisterWaiterIsNoOpIfNeverRegistered(t *testing.T) {
	p := newTestPort(16, 4)
	e := &waiter.Entry{Callback: func(*waiter.Entry) {}}
	p.UnregisterWaiter(e) // must not panic
}
