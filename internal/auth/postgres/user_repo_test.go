// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterd/rosterd/internal/auth"
	"github.com/rosterd/rosterd/internal/auth/postgres"
)

func userColumns() []string {
	return []string{"id", "username", "email", "phone", "name", "department", "class", "group", "role", "tags", "password_hash", "created_at", "updated_at", "updated_by"}
}

func sampleRow(rows *pgxmock.Rows, id int64, username string) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(id, username, nil, nil, "Name", "CS", "2024", "student", "student", []string{}, "$argon2id$digest", now, now, nil)
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *postgres.UserRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, postgres.NewUserRepositoryWithDB(mock)
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id and timestamps", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		now := time.Now()
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(int64(1), now, now))

		user := &auth.User{
			Username:     "alice",
			Name:         "Alice",
			Department:   "CS",
			Class:        "2024",
			Group:        "student",
			Role:         auth.RoleStudent,
			PasswordHash: "$argon2id$digest",
		}
		err := repo.Create(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to duplicate", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := repo.Create(ctx, &auth.User{Username: "taken"})
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicate)
	})
}

func TestUserRepository_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("finds by username case-insensitively", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE LOWER\(username\) = LOWER\(\$1\)`).
			WithArgs("Alice").
			WillReturnRows(sampleRow(pgxmock.NewRows(userColumns()), 1, "alice"))

		user, err := repo.Find(ctx, auth.ByUsername("Alice"))
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("combines all set key fields", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(`WHERE id = \$1 AND LOWER\(username\) = LOWER\(\$2\)`).
			WithArgs(int64(1), "alice").
			WillReturnRows(sampleRow(pgxmock.NewRows(userColumns()), 1, "alice"))

		id := int64(1)
		username := "alice"
		_, err := repo.Find(ctx, auth.LookupKey{ID: &id, Username: &username})
		require.NoError(t, err)
	})

	t.Run("maps no rows to not found", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("ghost").
			WillReturnRows(pgxmock.NewRows(userColumns()))

		_, err := repo.Find(ctx, auth.ByUsername("ghost"))
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("rejects empty key", func(t *testing.T) {
		_, repo := newMockRepo(t)

		_, err := repo.Find(ctx, auth.LookupKey{})
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("lists newest first", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		rows := pgxmock.NewRows(userColumns())
		rows = sampleRow(rows, 2, "bob")
		rows = sampleRow(rows, 1, "alice")
		mock.ExpectQuery(`SELECT (.+) FROM users ORDER BY id DESC`).
			WillReturnRows(rows)

		users, err := repo.List(ctx, auth.ListQuery{})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "bob", users[0].Username)
	})

	t.Run("applies filters and window", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(`WHERE department = \$1 ORDER BY id DESC LIMIT \$2 OFFSET \$3`).
			WithArgs("CS", 6, 5).
			WillReturnRows(pgxmock.NewRows(userColumns()))

		_, err := repo.List(ctx, auth.ListQuery{Department: "CS", Begin: 5, End: 10})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates query error", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.List(ctx, auth.ListQuery{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates existing user", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec(`UPDATE users SET`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Update(ctx, &auth.User{ID: 1, Username: "alice"})
		require.NoError(t, err)
	})

	t.Run("maps zero rows to not found", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec(`UPDATE users SET`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Update(ctx, &auth.User{ID: 99, Username: "ghost"})
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("maps unique violation to duplicate", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec(`UPDATE users SET`).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := repo.Update(ctx, &auth.User{ID: 1, Username: "taken"})
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicate)
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites digest and audit fields", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		actor := int64(1)
		mock.ExpectExec(`UPDATE users SET password_hash = \$2`).
			WithArgs(int64(7), "$argon2id$fresh", &actor).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdatePassword(ctx, 7, "$argon2id$fresh", &actor)
		require.NoError(t, err)
	})

	t.Run("maps zero rows to not found", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec(`UPDATE users SET password_hash = \$2`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdatePassword(ctx, 99, "$argon2id$fresh", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the removed record", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(`DELETE FROM users WHERE id = \$1 RETURNING`).
			WithArgs(int64(7)).
			WillReturnRows(sampleRow(pgxmock.NewRows(userColumns()), 7, "bob"))

		user, err := repo.Delete(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "bob", user.Username)
	})

	t.Run("maps no rows to not found", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(`DELETE FROM users WHERE id = \$1 RETURNING`).
			WithArgs(int64(99)).
			WillReturnRows(pgxmock.NewRows(userColumns()))

		_, err := repo.Delete(ctx, 99)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}
