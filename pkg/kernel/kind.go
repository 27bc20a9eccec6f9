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

// Package kernel implements the Oro object model: Ring, Instance,
// Module, Thread, Port, and Token, their ownership tree, and their state
// transitions (spec.md §3, §4.4), all addressed through pkg/registry
// handles rather than owning pointers, per spec.md §9's "arena of
// handles" design.
package kernel

// Object-kind tags for registry.Handle, one per spec.md §4.3 table.
const (
	KindRing     uint8 = 1
	KindInstance uint8 = 2
	KindThread   uint8 = 3
	KindPort     uint8 = 4
	KindToken    uint8 = 5
)
