package middleware

import (
	"net/http"
	"strings"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	"ezstream/pkg/errors"
	"ezstream/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	sessionKey = "session"
	tokenKey   = "session_token"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware resolves the bearer token to a live session. Requests
// without one are rejected the same way the desktop flow rejects a stream
// request made before authenticating.
func AuthMiddleware(tokens ports.SessionTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			_ = c.Error(errors.WrapError(domain.ErrNotAuthenticated, errors.ErrCodeUnauthorized,
				"Please authenticate first", http.StatusUnauthorized))
			c.Abort()
			return
		}

		token, ok := BearerToken(c)
		if !ok {
			_ = c.Error(errors.NewUnauthorizedError("invalid authorization header format"))
			c.Abort()
			return
		}

		session, err := tokens.Resolve(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Set(tokenKey, token)
		c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), string(session.ID)))
		c.Next()
	}
}

// SessionFromContext returns the session stored by AuthMiddleware.
func SessionFromContext(c *gin.Context) (*domain.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*domain.Session)
	return session, ok
}

// TokenFromContext returns the raw bearer token accepted by AuthMiddleware.
func TokenFromContext(c *gin.Context) string {
	return c.GetString(tokenKey)
}
