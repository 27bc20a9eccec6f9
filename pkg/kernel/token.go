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

import "github.com/oro-os/kernel/pkg/registry"

// TokenRight names the specific capability a Token grants.
type TokenRight uint8

// Token rights.
const (
	RightPortSend TokenRight = iota
	RightPortRecv
	RightRingSpawn
)

// Token is an unforgeable, revocable capability: the Instance that
// presents a Token handle via syscall gets checked by the Registry for
// generation, then by Token.Grants for holder identity and requested
// right (spec.md §3).
type Token struct {
	self   registry.Handle
	holder registry.Handle
	right  TokenRight
	target registry.Handle // the Port (send/recv rights) or Ring (spawn right) this grants access to
}

// NewToken constructs a Token. self is filled in by the caller
// immediately after Registry.Insert.
func NewToken(self, holder registry.Handle, right TokenRight, target registry.Handle) *Token {
	return &Token{self: self, holder: holder, right: right, target: target}
}

// Handle returns t's own registry handle.
func (t *Token) Handle() registry.Handle { return t.self }

// Holder returns the Instance this Token was issued to.
func (t *Token) Holder() registry.Handle { return t.holder }

// Target returns the object this Token grants a right on.
func (t *Token) Target() registry.Handle { return t.target }

// Right returns the specific capability t grants.
func (t *Token) Right() TokenRight { return t.right }

// Grants reports whether t, presented by holder, grants right on
// target. A stale-but-still-in-the-table Token (different holder, right,
// or target than requested) grants nothing — the caller must still have
// validated t's Handle against the Registry first; Grants only checks
// the capability semantics on top of that.
func (t *Token) Grants(holder registry.Handle, right TokenRight, target registry.Handle) bool {
	return t.holder == holder && t.right == right && t.target == target
}
