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

	"github.com/oro-os/kernel/pkg/abi"
	"github.com/oro-os/kernel/pkg/registry"
)

func TestRingAddAndRemoveChild(t *testing.T) {
	r := NewRing(registry.NewHandle(KindRing, 1, 1), 0, true, 0)
	child := registry.NewHandle(KindRing, 2, 1)
	r.AddChild(child)
	if got := r.Children(); len(got) != 1 || got[0] != child {
		t.Fatalf("Children() = %v, want [%v]", got, child)
	}
	r.RemoveChild(child)
	if got := r.Children(); len(got) != 0 {
		t.Fatalf("Children() after remove = %v, want empty", got)
	}
}

func TestRingRemoveInstanceIsNoOpIfAbsent(t *testing.T) {
	r := NewRing(registry.NewHandle(KindRing, 1, 1), 0, true, 0)
	r.RemoveInstance(registry.NewHandle(KindInstance, 5, 1)) // must not panic
	if got := r.Instances(); len(got) != 0 {
		t.Fatalf("Instances() = %v, want empty", got)
	}
}

func TestRingSetTerminated(t *testing.T) {
	r := NewRing(registry.NewHandle(KindRing, 1, 1), 0, false, 1)
	if r.Terminated() {
		t.Fatalf("new ring reports Terminated() = true")
	}
	r.SetTerminated()
	if !r.Terminated() {
		t.Fatalf("SetTerminated() did not stick")
	}
}

func TestTokenGrantsExactMatchOnly(t *testing.T) {
	holder := registry.NewHandle(KindInstance, 1, 1)
	other := registry.NewHandle(KindInstance, 2, 1)
	target := registry.NewHandle(KindPort, 3, 1)
	tok := NewToken(registry.NewHandle(KindToken, 4, 1), holder, RightPortSend, target)

	if !tok.Grants(holder, RightPortSend, target) {
		t.Fatalf("Grants() with exact match = false, want true")
	}
	if tok.Grants(other, RightPortSend, target) {
		t.Fatalf("Grants() with wrong holder = true, want false")
	}
	if tok.Grants(holder, RightPortRecv, target) {
		t.Fatalf("Grants() with wrong right = true, want false")
	}
	if tok.Grants(holder, RightPortSend, registry.NewHandle(KindPort, 9, 1)) {
		t.Fatalf("Grants() with wrong target = true, want false")
	}
}

func TestThreadStateTransitionsAndAccounting(t *testing.T) {
	th := NewThread(registry.NewHandle(KindThread, 1, 1), registry.NewHandle(KindInstance, 1, 1), 0)
	if th.State() != ThreadReady {
		t.Fatalf("new thread state = %s, want Ready", th.State())
	}
	th.SetState(ThreadRunning)
	th.AccountTick(true)
	th.AccountTick(false)
	th.AccountTick(true)
	user, sys := th.Stats()
	if user != 2 || sys != 1 {
		t.Fatalf("Stats() = (%d, %d), want (2, 1)", user, sys)
	}
}

func TestInstanceAddThreadAndSetState(t *testing.T) {
	inst := NewInstance(registry.NewHandle(KindInstance, 1, 1), registry.NewHandle(KindRing, 1, 1), abi.ModuleID{}, nil)
	th := registry.NewHandle(KindThread, 2, 1)
	inst.AddThread(th)
	if got := inst.Threads(); len(got) != 1 || got[0] != th {
		t.Fatalf("Threads() = %v, want [%v]", got, th)
	}
	inst.SetState(InstanceTerminated)
	if inst.State() != InstanceTerminated {
		t.Fatalf("State() = %v, want InstanceTerminated", inst.State())
	}
}
