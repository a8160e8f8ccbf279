// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package auth

import "errors"

// Sentinel errors for the credential core. The HTTP boundary maps these to
// status codes; callers check them with errors.Is through any oops wrapping.
var (
	// ErrNotFound is returned when no user matches a lookup key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a username or email is already taken.
	ErrDuplicate = errors.New("already exists")

	// ErrInvalidCredentials is returned on a password mismatch. It carries
	// no detail so the response body cannot distinguish which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoEmail is returned when a reset is requested for a user without
	// an email on file; without a delivery channel the reset is impossible.
	ErrNoEmail = errors.New("user has no email")

	// ErrValidation is returned for missing or malformed request input.
	ErrValidation = errors.New("invalid input")
)

// Token verification errors. VerifySession and VerifyReset return exactly
// one of these for any failing token.
var (
	// ErrTokenMalformed is returned when the credential is not a
	// well-formed signed structure.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenSignature is returned when the signature does not verify
	// against the process-wide secret.
	ErrTokenSignature = errors.New("token signature invalid")

	// ErrTokenExpired is returned when the token's lifetime has elapsed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenAction is returned when a token of the wrong class is
	// presented: a reset token without the "reset" action tag, or a
	// session token carrying one. With both classes signed by the same
	// key, the claim shape is the only thing keeping them apart.
	ErrTokenAction = errors.New("token action mismatch")
)
