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

// Command orokernel is a hosted harness for booting the kernel core
// against a synthetic memory map, for development and for the kind of
// smoke test runsc's own CLI runs against a real sandbox.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/oro-os/kernel/pkg/log"
)

func main() {
	cmdr := subcommands.NewCommander(flag.CommandLine, "orokernel")
	cmdr.Register(cmdr.HelpCommand(), "")
	cmdr.Register(cmdr.FlagsCommand(), "")
	cmdr.Register(&bootCommand{}, "")
	cmdr.Register(&statsCommand{}, "")
	cmdr.Register(&versionCommand{}, "")
	flag.Parse()
	os.Exit(int(cmdr.Execute(context.Background())))
}

const version = "0.1.0"

type versionCommand struct{}

func (*versionCommand) Name() string             { return "version" }
func (*versionCommand) Synopsis() string         { return "print the kernel core's version" }
func (*versionCommand) Usage() string            { return "version\n" }
func (*versionCommand) SetFlags(*flag.FlagSet)   {}
func (*versionCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	fmt.Println(version)
	return subcommands.ExitSuccess
}

func newLoggerAt(level log.Level) log.Logger {
	return log.New(os.Stderr, level, "orokernel: ")
}
