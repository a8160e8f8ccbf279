// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package access

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rosterd/rosterd/internal/auth"
)

// Context keys for values set by the middleware.
const (
	grantKey    = "access.grant"
	identityKey = "access.identity"
)

// Require admits only callers whose verified session claims pass Evaluate
// against allowed. Absent, malformed, or expired credentials get 401;
// authenticated callers outside the allowed set get 403. The resulting
// Grant is stored on the request context for GrantFrom.
func Require(tokens *auth.TokenService, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		claims, err := tokens.VerifySession(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		decision := Evaluate(claims.Role, allowed)
		if decision == Denied {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set(grantKey, NewGrant(claims, decision))
		c.Set(identityKey, claims)
		c.Next()
	}
}

// Optional decodes credentials when present and valid, and otherwise lets
// the request through anonymously. Handlers read the result with
// IdentityFrom; a bad token is indistinguishable from no token.
func Optional(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := tokens.VerifySession(token); err == nil {
				c.Set(identityKey, claims)
			}
		}
		c.Next()
	}
}

// GrantFrom returns the Grant stored by Require.
func GrantFrom(c *gin.Context) (*Grant, bool) {
	v, ok := c.Get(grantKey)
	if !ok {
		return nil, false
	}
	grant, ok := v.(*Grant)
	return grant, ok
}

// IdentityFrom returns the verified session claims, whether they came from
// Require or Optional.
func IdentityFrom(c *gin.Context) (*auth.SessionClaims, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.SessionClaims)
	return claims, ok
}

// bearerToken extracts the credential from the Authorization header. The
// "Bearer" prefix is optional; older directory clients send the raw token.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return header
}
