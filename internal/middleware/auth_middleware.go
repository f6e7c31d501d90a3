// Package middleware holds the gin middleware of the callable API:
// authentication, role checks, rate limiting and request logging.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
	"github.com/01moynul/artisansloom-golang/internal/auth"
	"github.com/01moynul/artisansloom-golang/internal/models"
)

// CallerKey is the gin context key holding the authenticated models.Caller.
const CallerKey = "caller"

// Abort writes err as a callable error body and stops the chain.
func Abort(c *gin.Context, err error) {
	status, body := apperrors.ToStatus(err)
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware requires a valid bearer token and stores the caller in
// the context under CallerKey.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Read the header ---
		token, ok := bearerToken(c)
		if !ok {
			Abort(c, apperrors.Unauthenticated("auth", "authentication required"))
			return
		}

		// 2. --- Validate ---
		caller, err := tokens.ValidateToken(token)
		if err != nil {
			Abort(c, apperrors.Unauthenticated("auth", "invalid or expired token"))
			return
		}

		// 3. --- Hand the caller to the handlers ---
		c.Set(CallerKey, caller)
		c.Next()
	}
}

// OptionalAuth stores the caller when a valid token is present and lets
// anonymous requests through. A malformed token is still rejected.
func OptionalAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		AuthMiddleware(tokens)(c)
	}
}

// RequireRole allows only callers holding one of roles. It must run after
// AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			Abort(c, apperrors.Unauthenticated("auth", "authentication required"))
			return
		}
		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}
		Abort(c, apperrors.PermissionDenied("auth", "role %s may not call this operation", caller.Role))
	}
}

// CallerFrom returns the caller stored by AuthMiddleware.
func CallerFrom(c *gin.Context) (models.Caller, bool) {
	raw, exists := c.Get(CallerKey)
	if !exists {
		return models.Caller{}, false
	}
	caller, ok := raw.(models.Caller)
	return caller, ok
}
