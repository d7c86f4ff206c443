package auth

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultDevHeader carries the caller id when OIDC is disabled.
const DefaultDevHeader = "X-User-ID"

// Config holds identity provider settings.
type Config struct {
	Enabled   bool   `toml:"enabled"`
	Issuer    string `toml:"issuer"`
	ClientID  string `toml:"client_id"`
	DevHeader string `toml:"dev_header"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled   string
	Issuer    string
	ClientID  string
	DevHeader string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Enabled always applies; strings only
// when non-empty.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.DevHeader != "" {
		c.DevHeader = overlay.DevHeader
	}
}

func (c *Config) loadDefaults() {
	if c.DevHeader == "" {
		c.DevHeader = DefaultDevHeader
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.DevHeader != "" {
		if v := os.Getenv(env.DevHeader); v != "" {
			c.DevHeader = v
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Issuer == "" {
		return fmt.Errorf("issuer required when auth is enabled")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id required when auth is enabled")
	}
	return nil
}
