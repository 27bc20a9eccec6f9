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

// Package errors holds the Oro syscall ABI's error taxonomy.
//
// Errno values are the only error representation that crosses the
// syscall boundary; everything a router handler returns eventually
// collapses to one of these. Internal packages are free to define their
// own sentinel errors (pfa.ErrOutOfMemory, addrspace.ErrAlreadyMapped,
// ...) as long as a translation registered with AddTranslation lets
// FromError map anything that can reach the router.
package errors

import "fmt"

// Errno is a stable, ABI-visible error code. The zero value is Ok.
type Errno uint64

// The Oro syscall ABI error codes, per the stable bit layout.
const (
	Ok          Errno = 0
	BadHandle   Errno = 1
	Stale       Errno = 2
	WrongKind   Errno = 3
	NoPerm      Errno = 4
	WouldBlock  Errno = 5
	TimedOut    Errno = 6
	OutOfMemory Errno = 7
	BadOpcode   Errno = 8
	Exists      Errno = 9
	NotFound    Errno = 10
	InvalidArg  Errno = 11
	Fault       Errno = 12
)

var names = map[Errno]string{
	Ok:          "Ok",
	BadHandle:   "BadHandle",
	Stale:       "Stale",
	WrongKind:   "WrongKind",
	NoPerm:      "NoPerm",
	WouldBlock:  "WouldBlock",
	TimedOut:    "TimedOut",
	OutOfMemory: "OutOfMemory",
	BadOpcode:   "BadOpcode",
	Exists:      "Exists",
	NotFound:    "NotFound",
	InvalidArg:  "InvalidArg",
	Fault:       "Fault",
}

// String implements fmt.Stringer.
func (e Errno) String() string {
	if n, ok := names[e]; ok {
		return n
	}
	return fmt.Sprintf("Errno(%d)", uint64(e))
}

// Error implements the error interface so an Errno can be returned
// directly from internal functions that want ABI-precise error values.
func (e Errno) Error() string { return e.String() }

// Ok reports whether e is the success value.
func (e Errno) Ok() bool { return e == Ok }

// translations lets packages register how their own sentinel errors map
// onto an Errno, mirroring syserror.AddErrorTranslation. Registration
// happens in each package's init, keeping errors.go free of import
// cycles back into pfa/addrspace/registry/kernel.
var translations = map[error]Errno{}

// AddTranslation registers the Errno that from should translate to. It
// returns false if from is already registered, so first registration
// wins (matching gvisor's syserror.AddErrorTranslation behavior).
func AddTranslation(from error, to Errno) bool {
	if _, ok := translations[from]; ok {
		return false
	}
	translations[from] = to
	return true
}

// FromError converts an arbitrary error into an Errno. An Errno passed
// in is returned unchanged. A registered translation is used if present.
// Anything else becomes Fault, since it indicates a code path that
// should have translated its error but didn't.
func FromError(err error) Errno {
	if err == nil {
		return Ok
	}
	if e, ok := err.(Errno); ok {
		return e
	}
	if e, ok := translations[err]; ok {
		return e
	}
	return Fault
}
