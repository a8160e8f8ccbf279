// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	ups := make(map[string]bool)
	downs := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		assert.True(t, pattern.MatchString(name),
			"file %s should match pattern NNNNNN_name.(up|down).sql", name)
		if stem, ok := strings.CutSuffix(name, ".up.sql"); ok {
			ups[stem] = true
		}
		if stem, ok := strings.CutSuffix(name, ".down.sql"); ok {
			downs[stem] = true
		}
	}

	// Every up migration needs a matching down and vice versa.
	assert.Equal(t, ups, downs)
	assert.True(t, ups["000001_users"])
}
