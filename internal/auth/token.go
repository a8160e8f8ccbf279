// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token lifetimes. Neither class is renewed or revoked server-side;
// invalidation is purely by elapsed time.
const (
	SessionTokenExpiry = 12 * time.Hour
	ResetTokenExpiry   = 15 * time.Minute
)

// resetAction is the tag embedded in every reset token. It is the only
// thing preventing a reset token from being reinterpreted as a session
// token under the shared signing key.
const resetAction = "reset"

// DirectoryClaims is the downstream-authorization block embedded in every
// session token. The directory builds it verbatim for a dependent
// authorization system and never interprets it itself.
type DirectoryClaims struct {
	AllowedRoles []string `json:"x-hasura-allowed-roles"`
	DefaultRole  string   `json:"x-hasura-default-role"`
	UserID       string   `json:"x-hasura-user-id"`
}

// SessionClaims is the claim set of a session token.
type SessionClaims struct {
	UserID    int64           `json:"id"`
	Username  string          `json:"username"`
	Name      string          `json:"name"`
	Email     *string         `json:"email,omitempty"`
	Phone     *string         `json:"phone,omitempty"`
	Group     string          `json:"group"`
	Role      Role            `json:"role"`
	Directory DirectoryClaims `json:"https://hasura.io/jwt/claims"`

	// Action is never set on session tokens. It is decoded so a reset
	// token presented here is recognized and rejected.
	Action string `json:"action,omitempty"`

	jwt.RegisteredClaims
}

// ResetClaims is the claim set of a reset token: exactly the lookup key
// the reset request supplied, plus the fixed action tag. Verifying one
// proves only "this token authorizes resetting the password for the named
// lookup key within the window"; it carries no other privilege.
type ResetClaims struct {
	UserID   *int64  `json:"id,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Action   string  `json:"action"`

	jwt.RegisteredClaims
}

// Key returns the lookup key embedded in the claims.
func (c *ResetClaims) Key() LookupKey {
	return LookupKey{ID: c.UserID, Username: c.Username, Email: c.Email}
}

// TokenService mints and verifies both token classes with one
// process-wide secret, loaded once at startup. Issuance and verification
// are pure and stateless; they may run on any goroutine without
// coordination.
type TokenService struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithSessionTTL overrides the session token lifetime.
func WithSessionTTL(d time.Duration) TokenOption {
	return func(s *TokenService) { s.sessionTTL = d }
}

// WithResetTTL overrides the reset token lifetime.
func WithResetTTL(d time.Duration) TokenOption {
	return func(s *TokenService) { s.resetTTL = d }
}

// WithClock overrides the time source. Tests use this to cross expiry
// boundaries deterministically.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret []byte, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_NO_SECRET").Errorf("signing secret is required")
	}
	s := &TokenService{
		secret:     secret,
		sessionTTL: SessionTokenExpiry,
		resetTTL:   ResetTokenExpiry,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueSession mints a signed session token for the user.
func (s *TokenService) IssueSession(user *User) (string, error) {
	now := s.now()

	allowed := make([]string, 0, len(Roles()))
	for _, r := range Roles() {
		allowed = append(allowed, string(r))
	}

	claims := &SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
		Phone:    user.Phone,
		Group:    user.Group,
		Role:     user.Role,
		Directory: DirectoryClaims{
			AllowedRoles: allowed,
			DefaultRole:  string(user.Role),
			UserID:       strconv.FormatInt(user.ID, 10),
		},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("class", "session").Wrap(err)
	}
	return token, nil
}

// VerifySession verifies a session token and returns its claims.
// Fails with ErrTokenMalformed, ErrTokenSignature, or ErrTokenExpired;
// a reset token presented here fails with ErrTokenAction. Role and
// identity semantics are the caller's responsibility.
func (s *TokenService) VerifySession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.Action != "" {
		return nil, oops.Code("TOKEN_WRONG_CLASS").With("class", "session").Wrap(ErrTokenAction)
	}
	return claims, nil
}

// IssueReset mints a signed reset token scoped to the supplied lookup key.
func (s *TokenService) IssueReset(key LookupKey) (string, error) {
	if key.IsZero() {
		return "", oops.Code("TOKEN_EMPTY_KEY").Wrap(ErrValidation)
	}
	now := s.now()

	claims := &ResetClaims{
		UserID:   key.ID,
		Username: key.Username,
		Email:    key.Email,
		Action:   resetAction,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("class", "reset").Wrap(err)
	}
	return token, nil
}

// VerifyReset verifies a reset token and returns its claims. In addition
// to the session verification failures, a token without the "reset"
// action tag (a session token, say) fails with ErrTokenAction.
func (s *TokenService) VerifyReset(token string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.Action != resetAction {
		return nil, oops.Code("TOKEN_WRONG_CLASS").With("class", "reset").Wrap(ErrTokenAction)
	}
	if claims.Key().IsZero() {
		return nil, oops.Code("TOKEN_EMPTY_KEY").With("class", "reset").Wrap(ErrTokenMalformed)
	}
	return claims, nil
}

// parse verifies signature and expiry, folding jwt library errors into
// the package's three token error kinds.
func (s *TokenService) parse(token string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return oops.Code("TOKEN_EXPIRED").Wrap(ErrTokenExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return oops.Code("TOKEN_BAD_SIGNATURE").Wrap(ErrTokenSignature)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return oops.Code("TOKEN_MALFORMED").Wrap(ErrTokenMalformed)
	default:
		return oops.Code("TOKEN_MALFORMED").Wrap(ErrTokenMalformed)
	}
}
