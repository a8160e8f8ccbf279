// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

// Package config loads directory service configuration from defaults, an
// optional YAML file, command-line flags, and a few environment overrides
// for secrets, in that order of precedence (later wins).
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Environment overrides. Secrets should come from the environment rather
// than the config file in deployed setups.
const (
	EnvDatabaseURL  = "ROSTERD_DATABASE_URL"
	EnvAuthSecret   = "ROSTERD_AUTH_SECRET"
	EnvMailPassword = "ROSTERD_MAIL_PASSWORD"
)

// Config is the root configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server" json:"server,omitempty"`
	Database      DatabaseConfig      `koanf:"database" json:"database,omitempty"`
	Auth          AuthConfig          `koanf:"auth" json:"auth,omitempty"`
	Mail          MailConfig          `koanf:"mail" json:"mail,omitempty"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability,omitempty"`
	Logging       LoggingConfig       `koanf:"logging" json:"logging,omitempty"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url" json:"url,omitempty"`
}

// AuthConfig configures credentials and token lifetimes. The TTLs are
// Go duration strings; Validate parses them.
type AuthConfig struct {
	Secret       string `koanf:"secret" json:"secret,omitempty"`
	SessionTTL   string `koanf:"session_ttl" json:"session_ttl,omitempty"`
	ResetTTL     string `koanf:"reset_ttl" json:"reset_ttl,omitempty"`
	ResetBaseURL string `koanf:"reset_base_url" json:"reset_base_url,omitempty"`
}

// MailConfig configures the SMTP relay for reset mail.
type MailConfig struct {
	Host     string `koanf:"host" json:"host,omitempty"`
	Port     int    `koanf:"port" json:"port,omitempty"`
	Username string `koanf:"username" json:"username,omitempty"`
	Password string `koanf:"password" json:"password,omitempty"`
	From     string `koanf:"from" json:"from,omitempty"`
}

// ObservabilityConfig configures the metrics and health listener.
type ObservabilityConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled,omitempty"`
	Addr    string `koanf:"addr" json:"addr,omitempty"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level,omitempty"`
	Format string `koanf:"format" json:"format,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":28888"},
		Database: DatabaseConfig{URL: ""},
		Auth: AuthConfig{
			SessionTTL:   "12h",
			ResetTTL:     "15m",
			ResetBaseURL: "http://localhost:28888/reset",
		},
		Mail:          MailConfig{Port: 587},
		Observability: ObservabilityConfig{Enabled: true, Addr: ":29090"},
		Logging:       LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration. path may be empty (no file); flags may be
// nil. The file is schema-validated before unmarshaling so mistakes fail
// with a field-level message instead of a silently ignored key. Load does
// not call Validate; commands that need the full daemon configuration do,
// while maintenance commands only check the settings they use.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").
				With("path", path).
				Wrap(err)
		}
		if err := ValidateSchema(raw); err != nil {
			return nil, oops.Code("CONFIG_SCHEMA_INVALID").
				With("path", path).
				Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv(EnvAuthSecret); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv(EnvMailPassword); v != "" {
		cfg.Mail.Password = v
	}
}

// Validate checks the settings the daemon requires and that the duration
// strings parse. Mail settings stay optional; without a host the server
// runs with a disabled mailer and reset requests fail cleanly.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database.url is required (or %s)", EnvDatabaseURL)
	}
	if c.Auth.Secret == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.secret is required (or %s)", EnvAuthSecret)
	}
	if _, err := time.ParseDuration(c.Auth.SessionTTL); err != nil {
		return oops.Code("CONFIG_INVALID").
			With("session_ttl", c.Auth.SessionTTL).
			Wrap(err)
	}
	if _, err := time.ParseDuration(c.Auth.ResetTTL); err != nil {
		return oops.Code("CONFIG_INVALID").
			With("reset_ttl", c.Auth.ResetTTL).
			Wrap(err)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").
			Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").
			Errorf("logging.format must be json or text; got %q", c.Logging.Format)
	}
	return nil
}

// SessionTTLDuration returns the parsed session token lifetime. Call
// after Validate.
func (c AuthConfig) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 12 * time.Hour
	}
	return d
}

// ResetTTLDuration returns the parsed reset token lifetime. Call after
// Validate.
func (c AuthConfig) ResetTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.ResetTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}
