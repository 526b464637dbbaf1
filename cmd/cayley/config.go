package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// Config is the on-disk CLI configuration.
//
//	[log]
//	level = "debug"
//
//	[output]
//	precision = 4
//	max_elems = 8
//
//	[kernel]
//	memory_limit_pages = 256
type Config struct {
	Log    LogConfig    `toml:"log"`
	Output OutputConfig `toml:"output"`
	Kernel KernelConfig `toml:"kernel"`
}

// LogConfig selects the logger. An empty level or "off" disables logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// OutputConfig controls how arrays are printed.
type OutputConfig struct {
	// Precision is the number of significant digits for floats; -1 prints
	// the shortest exact representation.
	Precision int `toml:"precision"`

	// MaxElems caps the entries printed per axis; 0 prints everything.
	MaxElems int `toml:"max_elems"`
}

// KernelConfig configures the wasm kernel host.
type KernelConfig struct {
	MemoryLimitPages uint32 `toml:"memory_limit_pages"`
}

// DefaultConfig returns the configuration used without a file.
func DefaultConfig() Config {
	return Config{
		Output: OutputConfig{Precision: -1, MaxElems: 16},
	}
}

// LoadConfig reads path over the defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the output settings. It runs again after command-line
// flags are merged over a loaded file.
func (c Config) Validate() error {
	if c.Output.Precision < -1 {
		return fmt.Errorf("precision %d must be -1 or more", c.Output.Precision)
	}
	if c.Output.MaxElems < 0 {
		return fmt.Errorf("max_elems %d must not be negative", c.Output.MaxElems)
	}
	return nil
}

// NewLogger builds a zap logger for level. "debug" uses the development
// preset; every other level the production one.
func NewLogger(level string) (*zap.Logger, error) {
	switch strings.ToLower(level) {
	case "", "off", "none":
		return zap.NewNop(), nil
	case "debug":
		return zap.NewDevelopment()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
