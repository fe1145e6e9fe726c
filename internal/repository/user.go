package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/charon/internal/domain"
)

// UserRepository persists users and their pending reset grant.
// Lookups return domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByResetToken(ctx context.Context, token string) (*domain.User, error)

	// Create inserts a new user. Returns domain.ErrUserExists when the
	// username or email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// SetResetToken stores token and expire on the user owning email in a
	// single atomic write and returns the updated user.
	SetResetToken(ctx context.Context, email, token string, expire time.Time) (*domain.User, error)

	// ConsumeResetToken sets passwordHash and clears the reset pair, but only
	// if token is still stored and not expired at now. Returns
	// domain.ErrTokenNotFound when no such grant exists any more, so at most
	// one caller can consume a token.
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*domain.User, error)

	// ClearExpiredResetTokens drops up to limit reset grants that expired
	// before now and returns how many were cleared.
	ClearExpiredResetTokens(ctx context.Context, now time.Time, limit int) (int, error)
}
