package domain

import (
	"context"
	"time"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	ResetToken   *string
	ResetExpire  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPendingReset reports whether a reset token is currently stored for the user.
func (u *User) HasPendingReset() bool {
	return u.ResetToken != nil && u.ResetExpire != nil
}

// ResetExpiredAt reports whether the pending reset is no longer usable at now.
// The expiry instant itself is still valid.
func (u *User) ResetExpiredAt(now time.Time) bool {
	if u.ResetExpire == nil {
		return true
	}
	return now.After(*u.ResetExpire)
}

// Session is the caller's per-connection session the auth flows mutate.
type Session interface {
	Bind(ctx context.Context, user *User) error
	Destroy(ctx context.Context) error
}
