// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package access_test

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterd/rosterd/internal/access"
	"github.com/rosterd/rosterd/internal/auth"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		role    auth.Role
		allowed []string
		want    access.Decision
	}{
		{"role in set", auth.RoleTeacher, []string{"teacher", "root"}, access.AllowedDirect},
		{"role not in set", auth.RoleStudent, []string{"teacher", "root"}, access.Denied},
		{"self only", auth.RoleStudent, []string{"self"}, access.AllowedPendingOwnership},
		{"direct match wins over self", auth.RoleTeacher, []string{"self", "teacher"}, access.AllowedDirect},
		{"self admits any role provisionally", auth.RoleCounselor, []string{"self", "root"}, access.AllowedPendingOwnership},
		{"empty set admits any authenticated caller", auth.RoleStudent, nil, access.AllowedDirect},
		{"root is not implicit", auth.RoleRoot, []string{"teacher"}, access.Denied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.Evaluate(tt.role, tt.allowed))
		})
	}
}

func TestGrantRequireOwner(t *testing.T) {
	claims := &auth.SessionClaims{UserID: 7, Username: "bob", Role: auth.RoleStudent}

	t.Run("direct grant passes for any target", func(t *testing.T) {
		grant := access.NewGrant(claims, access.AllowedDirect)
		assert.NoError(t, grant.RequireOwner(7))
		assert.NoError(t, grant.RequireOwner(99))
	})

	t.Run("pending grant passes only for own record", func(t *testing.T) {
		grant := access.NewGrant(claims, access.AllowedPendingOwnership)
		assert.NoError(t, grant.RequireOwner(7))

		err := grant.RequireOwner(99)
		require.Error(t, err)
		assert.ErrorIs(t, err, access.ErrForbidden)
	})

	t.Run("other coded errors are not forbidden", func(t *testing.T) {
		err := oops.Code("RESET_MAIL_FAILED").Errorf("relay unreachable")
		assert.NotErrorIs(t, err, access.ErrForbidden)
	})
}
