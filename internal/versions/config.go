package versions

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultMaxCandidates bounds the _v1.._vN scan of the stable writer.
const DefaultMaxCandidates = 100

// Config holds Version Store settings.
type Config struct {
	MaxCandidates int `toml:"max_candidates"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	MaxCandidates string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.MaxCandidates == 0 {
		c.MaxCandidates = DefaultMaxCandidates
	}
	if env != nil && env.MaxCandidates != "" {
		if v := os.Getenv(env.MaxCandidates); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxCandidates = n
			}
		}
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("max_candidates must be positive")
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.MaxCandidates != 0 {
		c.MaxCandidates = overlay.MaxCandidates
	}
}
