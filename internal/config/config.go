// Package config loads and validates vaultmcp configuration from a
// YAML file with environment expansion, or directly from the
// environment when no file is given.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Defaults.
const (
	DefaultCLIPath      = "bw"
	DefaultSessionEnv   = "BW_SESSION"
	DefaultVaultTimeout = 60 * time.Second
	DefaultAPIBaseURL   = "https://api.bitwarden.com"
	DefaultIdentityURL  = "https://identity.bitwarden.com"
	DefaultAPITimeout   = 30 * time.Second
	DefaultGatewayAddr  = "127.0.0.1:8357"
)

// Config is the root configuration.
type Config struct {
	Vault   VaultConfig   `yaml:"vault"`
	API     APIConfig     `yaml:"api"`
	Gateway GatewayConfig `yaml:"gateway"`
	Audit   AuditConfig   `yaml:"audit"`
}

// VaultConfig configures the local vault CLI surface.
type VaultConfig struct {
	// CLIPath is the vault CLI binary.
	CLIPath string `yaml:"cli_path"`

	// Timeout bounds each CLI invocation, e.g. "60s".
	Timeout string `yaml:"timeout"`

	// SessionEnv names the environment variable holding the session
	// token. The token itself is only ever read from the environment,
	// never from the file.
	SessionEnv string `yaml:"session_env"`

	// Session is resolved from SessionEnv at load time.
	Session string `yaml:"-"`

	timeout time.Duration
}

// APIConfig configures the remote organization API surface.
type APIConfig struct {
	BaseURL     string `yaml:"base_url"`
	IdentityURL string `yaml:"identity_url"`

	// ClientID and ClientSecret are normally supplied via ${BW_CLIENT_ID}
	// and ${BW_CLIENT_SECRET} expansion.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// Timeout bounds each API request, e.g. "30s".
	Timeout string `yaml:"timeout"`

	timeout time.Duration
}

// GatewayConfig configures the optional HTTP transport.
type GatewayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// AuditConfig configures the JSONL audit log.
type AuditConfig struct {
	// Path is the audit log file. Empty disables the file sink; audit
	// events still feed metrics.
	Path string `yaml:"path"`
}

// FromEnv builds a Config entirely from environment variables, for
// running without a configuration file.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Vault: VaultConfig{
			CLIPath: os.Getenv("BW_CLI_PATH"),
		},
		API: APIConfig{
			BaseURL:      os.Getenv("BW_API_BASE_URL"),
			IdentityURL:  os.Getenv("BW_IDENTITY_URL"),
			ClientID:     os.Getenv("BW_CLIENT_ID"),
			ClientSecret: os.Getenv("BW_CLIENT_SECRET"),
		},
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finalize applies defaults, resolves the session token, and parses
// durations. Called by Load and FromEnv before Validate.
func (c *Config) finalize() error {
	if c.Vault.CLIPath == "" {
		c.Vault.CLIPath = DefaultCLIPath
	}
	if c.Vault.SessionEnv == "" {
		c.Vault.SessionEnv = DefaultSessionEnv
	}
	c.Vault.Session = os.Getenv(c.Vault.SessionEnv)

	c.Vault.timeout = DefaultVaultTimeout
	if c.Vault.Timeout != "" {
		d, err := time.ParseDuration(c.Vault.Timeout)
		if err != nil {
			return fmt.Errorf("config: vault.timeout: %w", err)
		}
		c.Vault.timeout = d
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.IdentityURL == "" {
		c.API.IdentityURL = DefaultIdentityURL
	}
	c.API.timeout = DefaultAPITimeout
	if c.API.Timeout != "" {
		d, err := time.ParseDuration(c.API.Timeout)
		if err != nil {
			return fmt.Errorf("config: api.timeout: %w", err)
		}
		c.API.timeout = d
	}

	if c.Gateway.Addr == "" {
		c.Gateway.Addr = DefaultGatewayAddr
	}
	return nil
}

// VaultTimeout returns the parsed CLI timeout.
func (c *Config) VaultTimeout() time.Duration { return c.Vault.timeout }

// APITimeout returns the parsed API timeout.
func (c *Config) APITimeout() time.Duration { return c.API.timeout }

// CLIEnabled reports whether the local vault surface is usable: the
// session token must be present in the environment.
func (c *Config) CLIEnabled() bool { return c.Vault.Session != "" }

// APIEnabled reports whether the remote API surface is usable: both
// client credentials must be present.
func (c *Config) APIEnabled() bool {
	return c.API.ClientID != "" && c.API.ClientSecret != ""
}

// Validation errors.
var (
	ErrNoSurfaceEnabled = errors.New("neither vault session nor API credentials configured")
	ErrInsecureURL      = errors.New("API URLs must use https")
)

// Validate checks the finalized configuration. At least one surface
// must be enabled, timeouts must be positive, and remote URLs must be
// HTTPS (loopback excepted, for self-hosted development instances).
func (c *Config) Validate() error {
	if !c.CLIEnabled() && !c.APIEnabled() {
		return ErrNoSurfaceEnabled
	}
	if c.Vault.timeout <= 0 {
		return fmt.Errorf("config: vault.timeout must be positive")
	}
	if c.API.timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive")
	}
	if c.APIEnabled() {
		for name, raw := range map[string]string{
			"api.base_url":     c.API.BaseURL,
			"api.identity_url": c.API.IdentityURL,
		} {
			if err := validateHTTPS(name, raw); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateHTTPS(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	if u.Scheme == "https" {
		return nil
	}
	if u.Scheme == "http" && isLoopback(u.Hostname()) {
		return nil
	}
	return fmt.Errorf("%w: %s is %q", ErrInsecureURL, name, raw)
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
