// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

// Package auth issues and validates identity credentials for the
// membership directory.
//
// # Domain Types
//
// User is the directory's account record. Its password digest is the only
// persisted form of the secret; plaintext never leaves the request that
// carried it.
//
// # Services
//
//   - PasswordHasher - salted one-way hashing and timing-safe verification
//   - TokenService - signed session tokens (12h) and reset tokens (15m)
//   - Service - login, registration, and the password-reset flow
//
// Session and reset tokens are stateless JWTs signed with one process-wide
// secret. They are never persisted and expire only by elapsed time; a reset
// token can therefore be replayed within its validity window because there
// is no consumption ledger. That is current, documented behavior, not an
// oversight.
package auth
