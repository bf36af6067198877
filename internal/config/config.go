// Package config loads this toolchain's cross-cutting settings from a
// TOML file: VM execution limits, assembler warning behavior, and
// disassembler heuristics. Per-call parameters (which file, which
// source string) never belong here -- only knobs that would
// otherwise have to be threaded through every call site.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is this toolchain's full configuration surface. Load and Save
// only read and write it: no other package in this module consults
// these fields, so the VM, assembler and disassembler keep their
// built-in behavior whatever the file says.
type Config struct {
	VM struct {
		// MaxSteps bounds how many Step calls a driver will make
		// before giving up on a runaway program. 0 means unlimited.
		MaxSteps uint64 `toml:"max_steps"`
		// InitialMemory is how many words to pre-allocate, to avoid
		// repeated growth reallocations for programs that are known
		// to use a lot of scratch space.
		InitialMemory int `toml:"initial_memory"`
	} `toml:"vm"`

	Assemble struct {
		WarnUnusedLabels bool `toml:"warn_unused_labels"`
	} `toml:"assemble"`

	Disasm struct {
		// LabelAlphabet selects the label-naming scheme; "default" is
		// the only scheme implemented today, reserved for future
		// alternates (e.g. numeric-only, or a caller-supplied list).
		LabelAlphabet string `toml:"label_alphabet"`
		// MinStringRun is the minimum run length (in bytes) of
		// printable/whitespace data the static marker will classify
		// as a string rather than raw numbers.
		MinStringRun int `toml:"min_string_run"`
	} `toml:"disasm"`
}

// Default returns the configuration this toolchain behaves with when
// no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.VM.MaxSteps = 50_000_000
	cfg.VM.InitialMemory = 4096
	cfg.Assemble.WarnUnusedLabels = true
	cfg.Disasm.LabelAlphabet = "default"
	cfg.Disasm.MinStringRun = 2
	return cfg
}

// Path returns the platform-specific default config file location,
// creating its parent directory if needed. Falls back to a relative
// "config.toml" if the platform's config directory can't be
// determined or created.
func Path() string {
	var dir string

	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		dir = filepath.Join(dir, "intcode")

	case "darwin", "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		dir = filepath.Join(home, ".config", "intcode")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads config from path, returning Default() unmodified if path
// is empty or the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes c to path as TOML, creating its parent directory if
// needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- caller-supplied config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
