package render

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultWorkers bounds concurrent image decoding within one render.
const DefaultWorkers = 4

// Config holds rendering settings.
type Config struct {
	Workers  int    `toml:"workers"`
	Compress *bool  `toml:"compress"`
	Producer string `toml:"producer"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Workers  string
	Compress string
	Producer string
}

// CompressEnabled reports whether output streams are compressed.
func (c *Config) CompressEnabled() bool {
	return c.Compress == nil || *c.Compress
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.Compress != nil {
		c.Compress = overlay.Compress
	}
	if overlay.Producer != "" {
		c.Producer = overlay.Producer
	}
}

func (c *Config) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Producer == "" {
		c.Producer = "contract-esign"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Workers != "" {
		if v := os.Getenv(env.Workers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Workers = n
			}
		}
	}
	if env.Compress != "" {
		if v := os.Getenv(env.Compress); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Compress = &b
			}
		}
	}
	if env.Producer != "" {
		if v := os.Getenv(env.Producer); v != "" {
			c.Producer = v
		}
	}
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}
