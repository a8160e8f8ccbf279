// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/rosterd/rosterd/internal/auth"
)

// userColumns is the scan order shared by every user query. "group" is
// quoted because it is a reserved word.
const userColumns = `id, username, email, phone, name, department, class, "group", role, tags, password_hash, created_at, updated_at, updated_by`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool DB
}

// DB is the pgx query surface the repository needs. Satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// NewUserRepositoryWithDB creates a UserRepository over any DB. Tests use
// this to substitute pgxmock.
func NewUserRepositoryWithDB(db DB) *UserRepository {
	return &UserRepository{pool: db}
}

// Create stores a new user and fills in its assigned ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (
			username, email, phone, name, department, class, "group",
			role, tags, password_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`,
		user.Username,
		user.Email,
		user.Phone,
		user.Name,
		user.Department,
		user.Class,
		user.Group,
		string(user.Role),
		user.Tags,
		user.PasswordHash,
	)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_DUPLICATE").
				With("username", user.Username).
				Wrap(auth.ErrDuplicate)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return nil
}

// Find retrieves the user matching every set field of key. Username and
// email match case-insensitively.
func (r *UserRepository) Find(ctx context.Context, key auth.LookupKey) (*auth.User, error) {
	if key.IsZero() {
		return nil, oops.Code("USER_EMPTY_KEY").Wrap(auth.ErrNotFound)
	}

	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if key.ID != nil {
		args = append(args, *key.ID)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}
	if key.Username != nil {
		args = append(args, *key.Username)
		where = append(where, fmt.Sprintf("LOWER(username) = LOWER($%d)", len(args)))
	}
	if key.Email != nil {
		args = append(args, *key.Email)
		where = append(where, fmt.Sprintf("LOWER(email) = LOWER($%d)", len(args)))
	}

	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+strings.Join(where, " AND "),
		args...)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_FAILED").
			With("operation", "find user").
			Wrap(err)
	}
	return user, nil
}

// List retrieves users matching the query, newest accounts first.
// Begin/End bound the window by row offset, both inclusive; a zero End
// leaves the window open-ended.
func (r *UserRepository) List(ctx context.Context, q auth.ListQuery) ([]*auth.User, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if q.Username != "" {
		args = append(args, q.Username)
		where = append(where, fmt.Sprintf("LOWER(username) = LOWER($%d)", len(args)))
	}
	if q.Department != "" {
		args = append(args, q.Department)
		where = append(where, fmt.Sprintf("department = $%d", len(args)))
	}
	if q.Class != "" {
		args = append(args, q.Class)
		where = append(where, fmt.Sprintf("class = $%d", len(args)))
	}
	if q.Group != "" {
		args = append(args, q.Group)
		where = append(where, fmt.Sprintf(`"group" = $%d`, len(args)))
	}

	sql := `SELECT ` + userColumns + ` FROM users`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY id DESC`
	if q.End > 0 {
		args = append(args, q.End-q.Begin+1)
		sql += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if q.Begin > 0 {
		args = append(args, q.Begin)
		sql += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "list users").
			Wrap(err)
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, oops.Code("USER_LIST_FAILED").
				With("operation", "scan user").
				Wrap(scanErr)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "iterate users").
			Wrap(err)
	}
	return users, nil
}

// Update rewrites an existing user record.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET
			username = $2,
			email = $3,
			phone = $4,
			name = $5,
			department = $6,
			class = $7,
			"group" = $8,
			role = $9,
			tags = $10,
			password_hash = $11,
			updated_at = now(),
			updated_by = $12
		WHERE id = $1
	`,
		user.ID,
		user.Username,
		user.Email,
		user.Phone,
		user.Name,
		user.Department,
		user.Class,
		user.Group,
		string(user.Role),
		user.Tags,
		user.PasswordHash,
		user.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_DUPLICATE").
				With("username", user.Username).
				Wrap(auth.ErrDuplicate)
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", user.ID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", user.ID).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePassword overwrites only the password digest and audit fields.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedBy *int64) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now(), updated_by = $3
		WHERE id = $1
	`, id, passwordHash, updatedBy)
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a user and returns the removed record.
func (r *UserRepository) Delete(ctx context.Context, id int64) (*auth.User, error) {
	row := r.pool.QueryRow(ctx,
		`DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("id", id).
			Wrap(err)
	}
	return user, nil
}

// scanUser scans a single row in userColumns order. Callers are
// responsible for handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		user auth.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Phone,
		&user.Name,
		&user.Department,
		&user.Class,
		&user.Group,
		&role,
		&user.Tags,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	user.Role = auth.Role(role)
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
