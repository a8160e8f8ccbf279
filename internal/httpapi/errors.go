// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rosterd/rosterd/internal/access"
	"github.com/rosterd/rosterd/internal/auth"
	"github.com/rosterd/rosterd/pkg/errutil"
)

// writeError maps domain errors to responses. Bodies carry a short label
// only and never internal detail. Ownership failures map to 401, matching
// the login-credential tier rather than the role tier.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, auth.ErrNoEmail):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, auth.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrTokenSignature),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenAction),
		errors.Is(err, access.ErrForbidden):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		errutil.LogError(s.logger, "request failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
