// Package cfg loads and validates the flat, typed configuration described
// in spec.md §6. The file format is TOML; its dotted-section notation
// (e.g. [store] port = 2003) is surface-only, per spec.md §9 — everything
// downstream of Load sees a flat Config struct.
package cfg

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the fully-resolved, defaulted, validated configuration.
type Config struct {
	FlushInterval int `toml:"flush_interval"`

	Collector struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	} `toml:"collector"`

	Store struct {
		Host     string `toml:"host"`
		Port     int    `toml:"port"`
		Prefix   string `toml:"prefix"`
		Attempts int    `toml:"attempts"`
	} `toml:"store"`

	Metrics struct {
		MS struct {
			Percentile int `toml:"percentile"`
		} `toml:"ms"`
	} `toml:"metrics"`

	AlivenessCheck struct {
		Enabled bool   `toml:"enabled"`
		Host    string `toml:"host"`
		Port    int    `toml:"port"`
	} `toml:"aliveness_check"`
}

// Default returns the option table's documented defaults (spec.md §6).
func Default() Config {
	var c Config
	c.FlushInterval = 10
	c.Collector.Host = "0.0.0.0"
	c.Collector.Port = 8125
	c.Store.Host = "localhost"
	c.Store.Port = 2003
	c.Store.Prefix = "statsite"
	c.Store.Attempts = 3
	c.Metrics.MS.Percentile = 90
	c.AlivenessCheck.Enabled = false
	c.AlivenessCheck.Host = "0.0.0.0"
	c.AlivenessCheck.Port = 8325
	return c
}

// Load reads and decodes a TOML file over the documented defaults. path may
// be empty, in which case the defaults alone are validated and returned.
// A decode or validation failure is a FatalError per spec.md §7: the caller
// should surface it to the process entry point with a non-zero exit.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, Validate(c)
	}
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("statsite: cannot load config %q: %w", path, err)
	}
	return c, Validate(c)
}

// Validate enforces the invariants spec.md §6 implies but a TOML decode
// can't catch on its own (bounds, minimums).
func Validate(c Config) error {
	if c.FlushInterval <= 0 {
		return fmt.Errorf("statsite: flush_interval must be positive, got %d", c.FlushInterval)
	}
	if c.Store.Attempts < 2 {
		return fmt.Errorf("statsite: store.attempts must be >= 2, got %d", c.Store.Attempts)
	}
	if c.Metrics.MS.Percentile < 1 || c.Metrics.MS.Percentile > 99 {
		return fmt.Errorf("statsite: metrics.ms.percentile must be in 1..99, got %d", c.Metrics.MS.Percentile)
	}
	return nil
}
