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

// Package orosys implements the architecture-neutral syscall router of
// spec.md §4.5: decode an abi.Request, dispatch by Opcode to a handler
// that only ever sees Handles and plain arguments, and pack the result
// back into an abi.Response. It is named orosys rather than syscall to
// avoid shadowing the standard library package of that name, mirroring
// how gvisor's own syscall table lives under pkg/sentry/kernel rather
// than a package literally named syscall.
package orosys

import (
	"github.com/oro-os/kernel/pkg/abi"
	"github.com/oro-os/kernel/pkg/errors"
	"github.com/oro-os/kernel/pkg/kernel"
	"github.com/oro-os/kernel/pkg/log"
	"github.com/oro-os/kernel/pkg/memtype"
	"github.com/oro-os/kernel/pkg/orokernel"
	"github.com/oro-os/kernel/pkg/registry"
)

// callerContext is everything a handler needs beyond the raw Request:
// which Thread issued the call (for blocking/wake bookkeeping) and
// which core it's running on (to reach that core's Scheduler).
type callerContext struct {
	thread registry.Handle
	core   int
}

// handlerFunc implements one Opcode. It returns the ABI value on
// success, or an error that FromError will translate to an Errno.
type handlerFunc func(k *orokernel.Kernel, caller callerContext, req abi.Request) (uint64, error)

// Router dispatches decoded syscalls to the Kernel that owns the
// calling Thread.
type Router struct {
	k        *orokernel.Kernel
	log      log.Logger
	handlers map[abi.Opcode]handlerFunc
}

// New returns a Router dispatching into k.
func New(k *orokernel.Kernel, logger log.Logger) *Router {
	if logger == nil {
		logger = log.Log()
	}
	r := &Router{k: k, log: logger, handlers: make(map[abi.Opcode]handlerFunc)}
	r.register()
	return r
}

func (r *Router) register() {
	r.handlers[abi.OpRingCreate] = opRingCreate
	r.handlers[abi.OpInstanceSpawn] = opInstanceSpawn
	r.handlers[abi.OpThreadCreate] = opThreadCreate
	r.handlers[abi.OpPortCreate] = opPortCreate
	r.handlers[abi.OpPortSend] = opPortSend
	r.handlers[abi.OpPortRecv] = opPortRecv
	r.handlers[abi.OpWait] = opWait
	r.handlers[abi.OpYield] = opYield
	r.handlers[abi.OpSelf] = opSelf
}

// Dispatch decodes and runs one syscall on behalf of thread (pinned to
// core), returning the packed Response the arch trap stub hands back
// to userspace. Dispatch never panics on a malformed Request: an
// unknown Opcode becomes errors.BadOpcode, exactly like any other
// handler failure.
func (r *Router) Dispatch(thread registry.Handle, core int, req abi.Request) abi.Response {
	h, ok := r.handlers[req.Opcode]
	if !ok {
		if r.log.IsLogging(log.Debug) {
			r.log.Debugf("orosys: unknown opcode %#x from thread %s", req.Opcode, thread)
		}
		return abi.Response{Error: uint64(errors.BadOpcode)}
	}
	val, err := h(r.k, callerContext{thread: thread, core: core}, req)
	if err != nil {
		e := errors.FromError(err)
		if r.log.IsLogging(log.Debug) {
			r.log.Debugf("orosys: thread %s opcode %#x -> %s", thread, req.Opcode, e)
		}
		return abi.Response{Error: uint64(e)}
	}
	return abi.Response{Error: uint64(errors.Ok), Value: val}
}

func opRingCreate(k *orokernel.Kernel, _ callerContext, req abi.Request) (uint64, error) {
	h, err := k.RingCreate(registry.Handle(req.Arg0))
	return uint64(h), err
}

func opInstanceSpawn(k *orokernel.Kernel, _ callerContext, req abi.Request) (uint64, error) {
	var id abi.ModuleID
	for i := 0; i < 8; i++ {
		id[i] = byte(req.Arg1 >> (8 * i))
		id[8+i] = byte(req.Arg2 >> (8 * i))
	}
	h, err := k.InstanceSpawn(registry.Handle(req.Arg0), id)
	return uint64(h), err
}

func opThreadCreate(k *orokernel.Kernel, caller callerContext, req abi.Request) (uint64, error) {
	h, err := k.ThreadCreate(registry.Handle(req.Arg0), caller.core, req.Arg1, req.Arg2)
	return uint64(h), err
}

// opPortCreate implements PORT_CREATE: type_id_lo, type_id_hi,
// slot_size, depth, role → port_handle — five logical fields packed
// into four argument registers the same way opInstanceSpawn spreads a
// 128-bit ModuleID across Arg1/Arg2: Arg0/Arg1 carry the low/high
// halves of the 128-bit type ID, Arg2 carries slot_size, and Arg3
// carries depth in its low 32 bits with role in its high 32 bits. The
// returned Value is a Token handle for the requested role, not the
// Port handle.
func opPortCreate(k *orokernel.Kernel, caller callerContext, req abi.Request) (uint64, error) {
	th, err := k.Threads().Get(caller.thread)
	if err != nil {
		return 0, err
	}
	var typeID [16]byte
	for i := 0; i < 8; i++ {
		typeID[i] = byte(req.Arg0 >> (8 * i))
		typeID[8+i] = byte(req.Arg1 >> (8 * i))
	}
	slotSize := uint32(req.Arg2)
	depth := uint32(req.Arg3)
	role := kernel.PortRole(uint32(req.Arg3 >> 32))
	port, producer, consumer, err := k.PortCreate(th.Instance(), typeID, slotSize, depth)
	if err != nil {
		return 0, err
	}
	// A Port handle plus two Token handles can't fit in one 64-bit
	// Value, so only the Token matching the caller's requested role is
	// returned. The other role's Token is still minted to and held by
	// the calling Instance, but no value here carries its handle.
	_ = port
	if role == kernel.RoleConsumer {
		_ = producer
		return uint64(consumer), nil
	}
	_ = consumer
	return uint64(producer), nil
}

// opPortSend implements PORT_SEND: port_handle, user_buf_ptr, len →
// bytes_written. Arg1 names a virtual address in the caller's own
// AddressSpace, not a value packed into the register itself; it is
// resolved and copied in one page at a time, per spec.md §4.5's
// "pointer arguments into user memory are validated by translate per
// page touched and are copied in/out."
func opPortSend(k *orokernel.Kernel, caller callerContext, req abi.Request) (uint64, error) {
	th, err := k.Threads().Get(caller.thread)
	if err != nil {
		return 0, err
	}
	inst, err := k.Instances().Get(th.Instance())
	if err != nil {
		return 0, err
	}
	data, err := inst.AddressSpace().CopyIn(memtype.Virt(req.Arg1), int(req.Arg2))
	if err != nil {
		return 0, err
	}
	n, err := k.PortSend(th.Instance(), registry.Handle(req.Arg0), data)
	return uint64(n), err
}

// opPortRecv implements PORT_RECV: port_handle, user_buf_ptr, capacity
// → bytes_read. The dequeued message is copied out to Arg1 through the
// caller's AddressSpace, and the return Value is the byte count, not
// the message bytes themselves.
func opPortRecv(k *orokernel.Kernel, caller callerContext, req abi.Request) (uint64, error) {
	th, err := k.Threads().Get(caller.thread)
	if err != nil {
		return 0, err
	}
	inst, err := k.Instances().Get(th.Instance())
	if err != nil {
		return 0, err
	}
	msg, err := k.PortRecv(th.Instance(), registry.Handle(req.Arg0), int(req.Arg2))
	if err != nil {
		return 0, err
	}
	if err := inst.AddressSpace().CopyOut(memtype.Virt(req.Arg1), msg); err != nil {
		return 0, err
	}
	return uint64(len(msg)), nil
}

// opWait implements WAIT: port_handle or 0, deadline_ticks. The returned
// Value is always 0; a wait ended by its deadline is reported as
// errors.TimedOut in the Thread's LastError, set by Scheduler.Tick.
func opWait(k *orokernel.Kernel, caller callerContext, req abi.Request) (uint64, error) {
	err := k.Wait(caller.thread, caller.core, registry.Handle(req.Arg0), req.Arg1)
	return 0, err
}

func opYield(k *orokernel.Kernel, caller callerContext, _ abi.Request) (uint64, error) {
	_, err := k.Scheduler().Core(caller.core).YieldNow()
	return 0, err
}

func opSelf(_ *orokernel.Kernel, caller callerContext, _ abi.Request) (uint64, error) {
	return uint64(caller.thread), nil
}
