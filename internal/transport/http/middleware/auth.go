package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/charon/internal/domain"
	ctxlog "github.com/ErlanBelekov/charon/internal/log"
	"github.com/ErlanBelekov/charon/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	errUnauthorized = "Unauthorized"

	// UserIDKey holds the signed-in user's id in the gin context.
	UserIDKey = "userID"
)

// SessionResolver is satisfied by *session.Manager.
type SessionResolver interface {
	Resolve(ctx context.Context, raw string) (session.Claims, error)
}

// Session resolves the session cookie, or a Bearer token for API clients,
// and sets UserIDKey. Requests without a valid session pass through
// anonymously.
func Session(resolver SessionResolver, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := RawSession(c)
		if raw == "" {
			c.Next()
			return
		}

		claims, err := resolver.Resolve(c.Request.Context(), raw)
		if err != nil {
			if !errors.Is(err, domain.ErrSessionInvalid) {
				logger.ErrorContext(c.Request.Context(), "resolve session", "error", err)
			}
			c.Next()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(ctxlog.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// RequireSession aborts with 401 unless Session found a signed-in user.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(UserIDKey) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}
		c.Next()
	}
}

// RawSession returns the signed session presented by the request: the
// session cookie, else a Bearer token. Empty when neither is present.
func RawSession(c *gin.Context) string {
	if v, err := c.Cookie(session.CookieName); err == nil && v != "" {
		return v
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
