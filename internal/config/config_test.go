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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oro-os/kernel/pkg/log"
	"github.com/oro-os/kernel/pkg/orokernel"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, level, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg != orokernel.DefaultConfig() {
		t.Fatalf("Load(\"\") = %+v, want defaults %+v", cfg, orokernel.DefaultConfig())
	}
	if level != log.Info {
		t.Fatalf("Load(\"\") level = %v, want Info", level)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load(missing file): %v", err)
	}
	if cfg != orokernel.DefaultConfig() {
		t.Fatalf("Load(missing file) = %+v, want defaults", cfg)
	}
}

func TestLoadOnlyOverridesFieldsTheFileSets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot.toml")
	writeFile(t, path, `
num_cores = 4
debug = true
`)
	cfg, level, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := orokernel.DefaultConfig()
	want.NumCores = 4
	want.Debug = true
	if cfg != want {
		t.Fatalf("Load() = %+v, want %+v", cfg, want)
	}
	if level != log.Info {
		t.Fatalf("level = %v, want Info (log_level unset)", level)
	}
}

func TestLoadParsesLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot.toml")
	writeFile(t, path, `log_level = "debug"`)
	_, level, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if level != log.Debug {
		t.Fatalf("level = %v, want Debug", level)
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot.toml")
	writeFile(t, path, `log_level = "verbose"`)
	if _, _, err := Load(path); err == nil {
		t.Fatalf("Load with unknown log_level succeeded, want error")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]log.Level{"warning": log.Warning, "info": log.Info, "": log.Info, "debug": log.Debug}
	for s, want := range cases {
		got, err := parseLevel(s)
		if err != nil {
			t.Fatalf("parseLevel(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := parseLevel("bogus"); err == nil {
		t.Fatalf("parseLevel(bogus) succeeded, want error")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
