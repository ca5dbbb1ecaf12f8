// Package middleware provides Gin HTTP middleware for session authentication,
// rate limiting, request correlation, metrics and security headers.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Recovery → RequestID → Metrics → Logger → CORS → Security → Auth → RateLimit → Handler
//
// Security headers run before auth so they appear on 401/403 responses too.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hookline/hookline/internal/auth"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "user_id"
	EmailKey  = "email"
)

// AuthMiddleware requires a valid "Bearer <token>" session. A missing token is
// rejected with 401 and an invalid or expired one with 403. On success the
// token's user id and email are stored under UserIDKey and EmailKey.
//
// The user is not loaded from the store here; handlers that need the record
// (e.g. /api/auth/me) look it up and report 404 when it no longer exists.
func AuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Access token required",
			})
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value, or ""
// when the header is absent or uses another scheme.
func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// UserID returns the authenticated user's id. It is empty outside routes
// guarded by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
