// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// Mailer delivers reset messages. The credential core composes the
// message; transport is the implementation's concern.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// resetMailSubject and resetMailBody compose the reset message. The link
// target is the directory frontend, which extracts the token and posts it
// back with the new password.
const (
	resetMailSubject = "Password reset"
	resetMailBody    = `<p>A password reset was requested for your account.</p>` +
		`<p><a href="%s/%s">Reset your password</a></p>` +
		`<p>The link is valid for 15 minutes. If you did not request this, ignore this message.</p>`
)

// Service provides credential operations: registration, login, password
// reset, and directory record maintenance.
type Service struct {
	users        UserRepository
	hasher       PasswordHasher
	tokens       *TokenService
	mailer       Mailer
	resetBaseURL string
	logger       *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithResetBaseURL sets the frontend URL reset links point at.
func WithResetBaseURL(url string) ServiceOption {
	return func(s *Service) { s.resetBaseURL = url }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a new Service. All collaborators are required.
func NewService(users UserRepository, hasher PasswordHasher, tokens *TokenService, mailer Mailer, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("token service is required")
	}
	if mailer == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("mailer is required")
	}
	s := &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username   string
	Password   string
	Email      *string
	Phone      *string
	Name       string
	Department string
	Class      string
}

// Register creates a new account. New accounts always start in the
// "student" group and role regardless of who creates them; promotion is a
// separate update by root.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, ErrEmptyPassword) {
			return nil, oops.Code("AUTH_INVALID_PASSWORD").Wrap(ErrValidation)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &User{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		Name:         in.Name,
		Department:   in.Department,
		Class:        in.Class,
		Group:        string(RoleStudent),
		Role:         RoleStudent,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username))
	return user, nil
}

// Login authenticates the user identified by key and returns the user
// record with a fresh session token. A missing user fails with
// ErrNotFound and a wrong password with ErrInvalidCredentials; callers
// surface the two differently.
func (s *Service) Login(ctx context.Context, key LookupKey, password string) (*User, string, error) {
	if key.IsZero() {
		return nil, "", oops.Code("AUTH_EMPTY_KEY").Wrap(ErrValidation)
	}

	user, err := s.users.Find(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", err
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find user").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}
	if !valid {
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	// Re-hash legacy digests with the current scheme. Login succeeds
	// regardless of whether the upgrade sticks.
	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			if upErr := s.users.UpdatePassword(ctx, user.ID, newHash, nil); upErr == nil {
				user.PasswordHash = newHash
			}
		}
	}

	token, err := s.tokens.IssueSession(user)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "login succeeded",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username))
	return user, token, nil
}

// RequestReset mints a reset token for the user identified by key and
// mails it to the address on file. Fails with ErrNotFound when no user
// matches and ErrNoEmail when the matched user has no address.
func (s *Service) RequestReset(ctx context.Context, key LookupKey) error {
	if key.IsZero() {
		return oops.Code("AUTH_EMPTY_KEY").Wrap(ErrValidation)
	}

	user, err := s.users.Find(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "find user").
			Wrap(err)
	}
	if user.Email == nil || *user.Email == "" {
		return oops.Code("RESET_NO_EMAIL").Wrap(ErrNoEmail)
	}

	// The token embeds the lookup key as supplied, not the resolved
	// record, so confirmation repeats the same lookup.
	token, err := s.tokens.IssueReset(key)
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "issue reset token").
			Wrap(err)
	}

	body := fmt.Sprintf(resetMailBody, s.resetBaseURL, token)
	if err := s.mailer.Send(ctx, *user.Email, resetMailSubject, body); err != nil {
		return oops.Code("RESET_MAIL_FAILED").
			With("operation", "send mail").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "reset token issued",
		slog.Int64("user_id", user.ID))
	return nil
}

// ProbeReset verifies a reset token without consuming it, returning its
// claims. Frontends call this before showing the new-password form.
func (s *Service) ProbeReset(token string) (*ResetClaims, error) {
	return s.tokens.VerifyReset(token)
}

// ConfirmReset verifies a reset token and overwrites the password of the
// user its embedded key identifies. The token is not invalidated; it
// stays usable until its lifetime elapses.
func (s *Service) ConfirmReset(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return oops.Code("AUTH_INVALID_PASSWORD").Wrap(ErrValidation)
	}

	claims, err := s.tokens.VerifyReset(token)
	if err != nil {
		return err
	}

	user, err := s.users.Find(ctx, claims.Key())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return oops.Code("RESET_CONFIRM_FAILED").
			With("operation", "find user").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_CONFIRM_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash, nil); err != nil {
		return oops.Code("RESET_CONFIRM_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset",
		slog.Int64("user_id", user.ID))
	return nil
}

// UpdateInput carries a partial directory record update. Nil fields are
// left unchanged; Tags nil means unchanged, empty means cleared.
type UpdateInput struct {
	Username   *string
	Email      *string
	Phone      *string
	Name       *string
	Department *string
	Class      *string
	Group      *string
	Role       *Role
	Tags       []string
	Password   *string
}

// Update applies a partial update to the user with the given id on behalf
// of actor. Non-root actors cannot change group or role; those fields are
// dropped from the update rather than rejected. A new password is
// re-hashed. Returns the updated record.
func (s *Service) Update(ctx context.Context, actor *SessionClaims, id int64, in UpdateInput) (*User, error) {
	if actor == nil {
		return nil, oops.Code("AUTH_NIL_ACTOR").Errorf("update requires an authenticated actor")
	}

	user, err := s.users.Find(ctx, ByID(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("AUTH_UPDATE_FAILED").
			With("operation", "find user").
			Wrap(err)
	}

	if in.Username != nil {
		if err := ValidateUsername(*in.Username); err != nil {
			return nil, err
		}
		user.Username = *in.Username
	}
	if in.Email != nil {
		user.Email = in.Email
	}
	if in.Phone != nil {
		user.Phone = in.Phone
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Department != nil {
		user.Department = *in.Department
	}
	if in.Class != nil {
		user.Class = *in.Class
	}
	if actor.Role == RoleRoot {
		if in.Group != nil {
			user.Group = *in.Group
		}
		if in.Role != nil {
			user.Role = *in.Role
		}
		if in.Tags != nil {
			user.Tags = in.Tags
		}
	}
	if in.Password != nil {
		hash, hashErr := s.hasher.Hash(*in.Password)
		if hashErr != nil {
			if errors.Is(hashErr, ErrEmptyPassword) {
				return nil, oops.Code("AUTH_INVALID_PASSWORD").Wrap(ErrValidation)
			}
			return nil, oops.Code("AUTH_UPDATE_FAILED").
				With("operation", "hash password").
				Wrap(hashErr)
		}
		user.PasswordHash = hash
	}

	actorID := actor.UserID
	user.UpdatedBy = &actorID

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, oops.Code("AUTH_UPDATE_FAILED").
			With("operation", "update user").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user updated",
		slog.Int64("user_id", user.ID),
		slog.Int64("updated_by", actor.UserID))
	return user, nil
}

// Get retrieves the user matching key. Fails with ErrNotFound when no
// user matches.
func (s *Service) Get(ctx context.Context, key LookupKey) (*User, error) {
	if key.IsZero() {
		return nil, oops.Code("AUTH_EMPTY_KEY").Wrap(ErrValidation)
	}
	user, err := s.users.Find(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("AUTH_GET_FAILED").
			With("operation", "find user").
			Wrap(err)
	}
	return user, nil
}

// List retrieves users matching the query, newest first.
func (s *Service) List(ctx context.Context, q ListQuery) ([]*User, error) {
	users, err := s.users.List(ctx, q)
	if err != nil {
		return nil, oops.Code("AUTH_LIST_FAILED").
			With("operation", "list users").
			Wrap(err)
	}
	return users, nil
}

// Delete removes the user with the given id and returns the removed
// record. Fails with ErrNotFound when no such user exists.
func (s *Service) Delete(ctx context.Context, id int64) (*User, error) {
	user, err := s.users.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("AUTH_DELETE_FAILED").
			With("operation", "delete user").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.Int64("user_id", id))
	return user, nil
}
