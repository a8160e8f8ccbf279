// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterd/rosterd/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validYAML = `
server:
  addr: ":8080"
database:
  url: "postgres://localhost/rosterd"
auth:
  secret: "file-secret"
  session_ttl: "6h"
`

func TestLoad(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, validYAML)

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, 6*time.Hour, cfg.Auth.SessionTTLDuration())
		// untouched sections keep their defaults
		assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTTLDuration())
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("flags override file", func(t *testing.T) {
		path := writeConfig(t, validYAML)

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("server.addr", "", "")
		flags.String("logging.level", "", "")
		require.NoError(t, flags.Parse([]string{"--server.addr=:9999", "--logging.level=debug"}))

		cfg, err := config.Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, ":9999", cfg.Server.Addr)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("environment overrides secrets", func(t *testing.T) {
		path := writeConfig(t, validYAML)
		t.Setenv(config.EnvAuthSecret, "env-secret")
		t.Setenv(config.EnvDatabaseURL, "postgres://db.internal/rosterd")

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "env-secret", cfg.Auth.Secret)
		assert.Equal(t, "postgres://db.internal/rosterd", cfg.Database.URL)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := config.Load("/nonexistent/config.yaml", nil)
		require.Error(t, err)
	})

	t.Run("unknown keys fail schema validation", func(t *testing.T) {
		path := writeConfig(t, validYAML+"\nsurprise:\n  key: true\n")

		_, err := config.Load(path, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema")
	})

	t.Run("environment alone satisfies required settings", func(t *testing.T) {
		t.Setenv(config.EnvAuthSecret, "env-secret")
		t.Setenv(config.EnvDatabaseURL, "postgres://db.internal/rosterd")

		cfg, err := config.Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTLDuration())
	})
}

func TestValidate(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Database.URL = "postgres://localhost/rosterd"
		cfg.Auth.Secret = "secret"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		cfg := base()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing database url", func(t *testing.T) {
		cfg := base()
		cfg.Database.URL = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.url")
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := base()
		cfg.Auth.Secret = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.secret")
	})

	t.Run("bad session ttl", func(t *testing.T) {
		cfg := base()
		cfg.Auth.SessionTTL = "twelve hours"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad logging level", func(t *testing.T) {
		cfg := base()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})
}
