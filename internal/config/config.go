// Package config provides configuration loading and validation for the payouts CLI.
// Values come from built-in defaults, an optional YAML file, and PAYOUTS_* environment
// variables, in that order of precedence. Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSidecarURL    = "http://127.0.0.1:8080"
	DefaultDepth         = 8
	DefaultTokenSymbol   = "KSM"
	DefaultTokenDecimals = 12
	DefaultLogLevel      = "warn"
)

// Config represents the root configuration structure.
type Config struct {
	SidecarURL string        `yaml:"sidecar_url" env:"SIDECAR_URL"` // Base URL of the sidecar REST service
	Depth      int           `yaml:"depth" env:"DEPTH"`             // Number of eras to query
	Token      Token         `yaml:"token" envPrefix:"TOKEN_"`      // Chain token used for display
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`         // HTTP timeout (0 = no timeout)
	MaxRetries int           `yaml:"max_retries" env:"MAX_RETRIES"` // Retries on network errors (0 = none)
	LogLevel   string        `yaml:"log_level" env:"LOG_LEVEL"`     // logrus level name
}

// Token describes how raw on-chain amounts are rendered.
type Token struct {
	Symbol   string `yaml:"symbol" env:"SYMBOL"`
	Decimals int32  `yaml:"decimals" env:"DECIMALS"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		SidecarURL: DefaultSidecarURL,
		Depth:      DefaultDepth,
		Token: Token{
			Symbol:   DefaultTokenSymbol,
			Decimals: DefaultTokenDecimals,
		},
		LogLevel: DefaultLogLevel,
	}
}

// Validate checks the configuration and normalizes the sidecar URL.
func (c *Config) Validate() error {
	if c.Depth <= 0 {
		return fmt.Errorf("depth must be > 0 (got %d)", c.Depth)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0")
	}
	if c.Token.Symbol == "" {
		return fmt.Errorf("token.symbol is required")
	}
	if c.Token.Decimals < 0 || c.Token.Decimals > 36 {
		return fmt.Errorf("token.decimals must be between 0 and 36 (got %d)", c.Token.Decimals)
	}

	if c.SidecarURL == "" {
		return fmt.Errorf("sidecar_url is required")
	}
	u, err := url.Parse(c.SidecarURL)
	if err != nil {
		return fmt.Errorf("invalid sidecar_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid sidecar_url %q (missing scheme or host)", c.SidecarURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid sidecar_url scheme %q (expected http or https)", u.Scheme)
	}
	c.SidecarURL = strings.TrimRight(c.SidecarURL, "/")

	if c.Timeout > 0 && c.Timeout < 500*time.Millisecond {
		fmt.Fprintf(os.Stderr, "Warning: timeout is very low (%s); requests may fail under normal network jitter\n", c.Timeout)
	}

	return nil
}

// Load builds a Config from defaults, the YAML file at path (skipped when path is empty)
// and PAYOUTS_* environment variables. The result is not validated; callers apply flag
// overrides first and then call Validate.
//
// The file may reference environment variables with ${VAR} syntax:
//
//	sidecar_url: ${SIDECAR_URL}
//	token:
//	  symbol: DOT
//	  decimals: 10
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Only variables that are set overwrite fields.
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "PAYOUTS_"}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	return cfg, nil
}
