// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

// Package access provides role-based authorization for the directory API.
//
// Every protected operation declares a set of allowed role names. Beyond the
// primary role names the set may contain the "self" sentinel, which admits
// any authenticated caller provisionally: the request only succeeds if the
// handler later proves the caller owns the targeted record. Evaluation is a
// pure set check; ownership is the second phase because the target is not
// known until the handler has resolved it.
package access

import (
	"errors"

	"github.com/samber/oops"

	"github.com/rosterd/rosterd/internal/auth"
)

// Self is the sentinel role name admitting a caller to operate on their own
// record only.
const Self = "self"

// ErrForbidden is returned when an authenticated caller is not admitted.
// A plain sentinel, wrapped with oops at return sites; an oops-built
// sentinel would satisfy errors.Is against every other oops error.
var ErrForbidden = errors.New("forbidden")

// Decision is the outcome of evaluating a caller's role against an
// operation's allowed set.
type Decision int

const (
	// Denied means the caller is not admitted.
	Denied Decision = iota

	// AllowedDirect means the caller's role is in the allowed set; no
	// ownership proof is needed.
	AllowedDirect

	// AllowedPendingOwnership means the caller is admitted only through the
	// "self" sentinel and must prove ownership of the target record.
	AllowedPendingOwnership
)

// Evaluate checks role against the allowed set. A direct role match wins
// over the "self" sentinel, so a caller whose role is listed never carries
// an ownership obligation. An empty allowed set is an identity-only gate:
// any authenticated caller is admitted directly.
func Evaluate(role auth.Role, allowed []string) Decision {
	if len(allowed) == 0 {
		return AllowedDirect
	}

	pending := false
	for _, name := range allowed {
		if name == string(role) {
			return AllowedDirect
		}
		if name == Self {
			pending = true
		}
	}
	if pending {
		return AllowedPendingOwnership
	}
	return Denied
}

// Grant is an admitted caller: the verified session claims plus any
// outstanding ownership obligation.
type Grant struct {
	Claims  *auth.SessionClaims
	pending bool
}

// NewGrant creates a Grant from a non-denying decision.
func NewGrant(claims *auth.SessionClaims, decision Decision) *Grant {
	return &Grant{
		Claims:  claims,
		pending: decision == AllowedPendingOwnership,
	}
}

// RequireOwner discharges the grant against the targeted record. Directly
// admitted callers pass for any target; provisionally admitted callers pass
// only for their own record.
func (g *Grant) RequireOwner(targetID int64) error {
	if !g.pending {
		return nil
	}
	if g.Claims.UserID == targetID {
		return nil
	}
	return oops.Code("ACCESS_NOT_OWNER").
		With("target_id", targetID).
		Wrap(ErrForbidden)
}
