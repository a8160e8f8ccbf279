// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package config_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterd/rosterd/internal/config"
)

func TestGenerateSchema(t *testing.T) {
	data, err := config.GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, config.SchemaID, schema["$id"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, section := range []string{"server", "database", "auth", "mail", "observability", "logging"} {
		assert.Contains(t, props, section)
	}
}

func TestValidateSchema(t *testing.T) {
	t.Cleanup(config.ResetSchemaCache)

	t.Run("accepts valid config", func(t *testing.T) {
		err := config.ValidateSchema([]byte(validYAML))
		assert.NoError(t, err)
	})

	t.Run("rejects empty data", func(t *testing.T) {
		assert.Error(t, config.ValidateSchema(nil))
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		assert.Error(t, config.ValidateSchema([]byte("server: [unclosed")))
	})

	t.Run("rejects wrong value type", func(t *testing.T) {
		err := config.ValidateSchema([]byte("mail:\n  port: \"not a number\"\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema validation failed")
	})

	t.Run("rejects unknown sections", func(t *testing.T) {
		err := config.ValidateSchema([]byte("telnet:\n  addr: \":4201\"\n"))
		assert.Error(t, err)
	})
}
