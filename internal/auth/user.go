// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/samber/oops"
)

// Role is a user's primary privilege level.
type Role string

// The primary role universe. Every session token enumerates all of these
// as allowed roles for the downstream authorizer.
const (
	RoleStudent   Role = "student"
	RoleCounselor Role = "counselor"
	RoleTeacher   Role = "teacher"
	RoleRoot      Role = "root"
)

// Roles lists the primary role universe in declaration order.
func Roles() []Role {
	return []Role{RoleStudent, RoleCounselor, RoleTeacher, RoleRoot}
}

// Valid reports whether r is a member of the role universe.
func (r Role) Valid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

// Auxiliary role tags grant resource-specific privileges (content editing,
// inventory keeping, event organizing). They never widen directory access.
const (
	TagWriter    = "writer"
	TagEditor    = "editor"
	TagKeeper    = "keeper"
	TagOrganizer = "organizer"

	// TagRoot marks resource-level administration. Distinct from RoleRoot:
	// as a tag it grants nothing directory-wide.
	TagRoot = "root"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that start with a letter and contain
// only letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// User is a membership-directory account. PasswordHash is the only
// persisted form of the secret and must never be serialized outward.
type User struct {
	ID           int64
	Username     string
	Email        *string
	Phone        *string
	Name         string
	Department   string
	Class        string
	Group        string
	Role         Role
	Tags         []string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UpdatedBy    *int64
}

// ValidateUsername validates a username against directory rules:
// MinUsernameLength to MaxUsernameLength characters, starting with a
// letter, containing only letters, numbers, and underscores.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Wrap(ErrValidation)
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Wrap(ErrValidation)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Wrap(ErrValidation)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").Wrap(ErrValidation)
	}
	return nil
}

// LookupKey identifies a user by at most one value each of id, username,
// and email. All set fields must match (equality); the zero value matches
// nothing and is rejected by repositories.
type LookupKey struct {
	ID       *int64
	Username *string
	Email    *string
}

// IsZero reports whether no lookup field is set.
func (k LookupKey) IsZero() bool {
	return k.ID == nil && k.Username == nil && k.Email == nil
}

// ByID returns a LookupKey matching the given id.
func ByID(id int64) LookupKey { return LookupKey{ID: &id} }

// ByUsername returns a LookupKey matching the given username.
func ByUsername(username string) LookupKey { return LookupKey{Username: &username} }

// ByEmail returns a LookupKey matching the given email.
func ByEmail(email string) LookupKey { return LookupKey{Email: &email} }

// ListQuery selects users for directory listings. Zero-valued fields are
// not filtered on. Begin/End bound the result window by row offset,
// newest accounts first.
type ListQuery struct {
	Username   string
	Department string
	Class      string
	Group      string
	Begin      int
	End        int
}

// UserRepository is the credential store collaborator. It only ever sees
// password digests, never plaintext, and offers equality lookups plus
// atomic single-record writes.
type UserRepository interface {
	// Create stores a new user and assigns its ID.
	Create(ctx context.Context, user *User) error

	// Find retrieves the user matching every set field of key.
	// Returns ErrNotFound if no user matches.
	Find(ctx context.Context, key LookupKey) (*User, error)

	// List retrieves users matching the query, newest first.
	List(ctx context.Context, q ListQuery) ([]*User, error)

	// Update rewrites an existing user record.
	Update(ctx context.Context, user *User) error

	// UpdatePassword overwrites only the password digest and audit fields.
	UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedBy *int64) error

	// Delete removes a user and returns the removed record.
	Delete(ctx context.Context, id int64) (*User, error)
}
