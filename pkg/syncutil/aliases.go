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

// Package syncutil re-exports the standard library's synchronization
// primitives under names the rest of the kernel imports uniformly. The
// indirection gives every lock in the tree a single point where a fairer
// or spin-based primitive could later be swapped in without touching call
// sites, mirroring how the rest of the kernel treats architecture-specific
// concerns as substitutable.
package syncutil

import "sync"

type (
	// Mutex is an alias of sync.Mutex.
	Mutex = sync.Mutex
	// RWMutex is an alias of sync.RWMutex.
	RWMutex = sync.RWMutex
	// Once is an alias of sync.Once.
	Once = sync.Once
	// WaitGroup is an alias of sync.WaitGroup.
	WaitGroup = sync.WaitGroup
)
