package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ErlanBelekov/charon/internal/domain"
	"github.com/ErlanBelekov/charon/internal/session"
	"github.com/ErlanBelekov/charon/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

// sessionIssuer is the subset of session.Manager the handler needs.
type sessionIssuer interface {
	Issue(ctx context.Context, userID string) (string, session.Claims, error)
	Revoke(ctx context.Context, raw string) error
	TTL() time.Duration
}

// cookieSession binds auth flows to the client's session cookie.
type cookieSession struct {
	c        *gin.Context
	sessions sessionIssuer
	secure   bool
}

// Bind replaces any existing session with a fresh one for user.
func (s *cookieSession) Bind(ctx context.Context, user *domain.User) error {
	if old := middleware.RawSession(s.c); old != "" {
		if err := s.sessions.Revoke(ctx, old); err != nil {
			return err
		}
	}

	raw, _, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return err
	}

	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(session.CookieName, raw, int(s.sessions.TTL().Seconds()), "/", "", s.secure, true)
	return nil
}

// Destroy clears the cookie and revokes the server-side record of whichever
// session the request presented, cookie or Bearer.
func (s *cookieSession) Destroy(ctx context.Context) error {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(session.CookieName, "", -1, "/", "", s.secure, true)

	raw := middleware.RawSession(s.c)
	if raw == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, raw)
}
