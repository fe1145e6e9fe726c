// Package session issues and resolves signed session cookies backed by a
// server-side store, so a signed-out cookie stops working before it expires.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/ErlanBelekov/charon/internal/clock"
	"github.com/ErlanBelekov/charon/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// CookieName is the cookie carrying the signed session value.
const CookieName = "charon_session"

// ErrNotFound is returned by a Store when the session id has no live record.
var ErrNotFound = errors.New("session not found")

type Store interface {
	Put(ctx context.Context, sid, userID string, ttl time.Duration) error
	Get(ctx context.Context, sid string) (string, error)
	Delete(ctx context.Context, sid string) error
}

// Claims identify the user and the server-side session behind a cookie.
type Claims struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

type Manager struct {
	store Store
	key   []byte
	ttl   time.Duration
	clock clock.Clock
}

func NewManager(store Store, key []byte, ttl time.Duration, clk clock.Clock) *Manager {
	return &Manager{store: store, key: key, ttl: ttl, clock: clk}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue records a new session for userID and returns the signed cookie value.
func (m *Manager) Issue(ctx context.Context, userID string) (string, Claims, error) {
	now := m.clock.Now()
	c := Claims{
		UserID:    userID,
		SessionID: uuid.NewString(),
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Put(ctx, c.SessionID, userID, m.ttl); err != nil {
		return "", Claims{}, err
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": c.UserID,
		"sid": c.SessionID,
		"iat": now.Unix(),
		"exp": c.ExpiresAt.Unix(),
	})
	signed, err := t.SignedString(m.key)
	if err != nil {
		return "", Claims{}, oops.Code("SESSION_SIGN_FAILED").Wrapf(err, "sign session")
	}
	return signed, c, nil
}

// Resolve verifies the cookie and that its session is still live.
// Any rejection wraps domain.ErrSessionInvalid.
func (m *Manager) Resolve(ctx context.Context, raw string) (Claims, error) {
	c, err := m.parse(raw)
	if err != nil {
		return Claims{}, err
	}

	userID, err := m.store.Get(ctx, c.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Claims{}, oops.Code("SESSION_REVOKED").With("sid", c.SessionID).Wrap(domain.ErrSessionInvalid)
		}
		return Claims{}, err
	}
	if userID != c.UserID {
		return Claims{}, oops.Code("SESSION_SUBJECT_MISMATCH").With("sid", c.SessionID).Wrap(domain.ErrSessionInvalid)
	}
	return c, nil
}

// Revoke deletes the session behind raw. Cookies that do not verify are
// ignored; there is nothing to revoke.
func (m *Manager) Revoke(ctx context.Context, raw string) error {
	c, err := m.parse(raw)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, c.SessionID)
}

func (m *Manager) parse(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, oops.Code("SESSION_MISSING").Wrap(domain.ErrSessionInvalid)
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Claims{}, oops.Code("SESSION_TOKEN_INVALID").Wrap(domain.ErrSessionInvalid)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, oops.Code("SESSION_TOKEN_INVALID").Wrap(domain.ErrSessionInvalid)
	}

	sub, _ := claims["sub"].(string)
	sid, _ := claims["sid"].(string)
	if sub == "" || sid == "" {
		return Claims{}, oops.Code("SESSION_TOKEN_INVALID").Wrap(domain.ErrSessionInvalid)
	}

	c := Claims{UserID: sub, SessionID: sid}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
