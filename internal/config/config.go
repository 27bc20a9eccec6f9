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

// Package config loads the kernel's boot-time tunables from a TOML
// file, the same way runsc's own config.Config is loaded by
// github.com/BurntSushi/toml rather than hand-rolled flag parsing for
// anything beyond the handful of settings that make sense as flags.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/oro-os/kernel/pkg/log"
	"github.com/oro-os/kernel/pkg/orokernel"
)

// File is the on-disk TOML shape. Each field's TOML key is named by its
// `toml:"..."` struct tag.
type File struct {
	NumCores   int    `toml:"num_cores"`
	Quantum    uint32 `toml:"quantum_ticks"`
	ReuseTombs bool   `toml:"reuse_tombs"`
	Debug      bool   `toml:"debug"`
	LogLevel   string `toml:"log_level"`
}

// Load parses path into a File, falling back to orokernel.DefaultConfig
// for any field the file doesn't set.
func Load(path string) (orokernel.Config, log.Level, error) {
	cfg := orokernel.DefaultConfig()
	level := log.Info

	if path == "" {
		return cfg, level, nil
	}
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, level, nil
		}
		return cfg, level, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	if meta.IsDefined("num_cores") {
		cfg.NumCores = f.NumCores
	}
	if meta.IsDefined("quantum_ticks") {
		cfg.Quantum = f.Quantum
	}
	if meta.IsDefined("reuse_tombs") {
		cfg.ReuseTombs = f.ReuseTombs
	}
	if meta.IsDefined("debug") {
		cfg.Debug = f.Debug
	}
	if meta.IsDefined("log_level") {
		level, err = parseLevel(f.LogLevel)
		if err != nil {
			return cfg, level, err
		}
	}
	return cfg, level, nil
}

func parseLevel(s string) (log.Level, error) {
	switch s {
	case "warning":
		return log.Warning, nil
	case "info", "":
		return log.Info, nil
	case "debug":
		return log.Debug, nil
	default:
		return log.Info, fmt.Errorf("config: unknown log_level %q", s)
	}
}
