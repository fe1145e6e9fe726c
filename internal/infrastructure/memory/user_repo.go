// Package memory holds an in-process UserRepository used for local
// development without Postgres and for exercising the auth flows in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ErlanBelekov/charon/internal/domain"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

type UserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]*domain.User),
		now:   time.Now,
	}
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(domain.ErrUserNotFound)
	}
	return clone(u), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(func(u *domain.User) bool { return strings.EqualFold(u.Username, username) })
	if u == nil {
		return nil, oops.Code("USER_NOT_FOUND").With("username", username).Wrap(domain.ErrUserNotFound)
	}
	return clone(u), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
	if u == nil {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(domain.ErrUserNotFound)
	}
	return clone(u), nil
}

func (r *UserRepository) FindByResetToken(_ context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByToken(token)
	if u == nil {
		return nil, oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(domain.ErrTokenNotFound)
	}
	return clone(u), nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	taken := r.find(func(u *domain.User) bool {
		return strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email)
	})
	if taken != nil {
		return nil, oops.Code("USER_CONFLICT").With("username", user.Username).Wrap(domain.ErrUserExists)
	}

	now := r.now()
	created := &domain.User{
		ID:           uuid.NewString(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[created.ID] = created
	return clone(created), nil
}

func (r *UserRepository) SetResetToken(_ context.Context, email, token string, expire time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
	if u == nil {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(domain.ErrUserNotFound)
	}

	u.ResetToken = &token
	u.ResetExpire = &expire
	u.UpdatedAt = r.now()
	return clone(u), nil
}

func (r *UserRepository) ConsumeResetToken(_ context.Context, token, passwordHash string, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByToken(token)
	if u == nil || u.ResetExpiredAt(now) {
		return nil, oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(domain.ErrTokenNotFound)
	}

	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetExpire = nil
	u.UpdatedAt = r.now()
	return clone(u), nil
}

func (r *UserRepository) ClearExpiredResetTokens(_ context.Context, now time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*domain.User
	for _, u := range r.users {
		if u.ResetExpire != nil && u.ResetExpire.Before(now) {
			expired = append(expired, u)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ResetExpire.Before(*expired[j].ResetExpire) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	for _, u := range expired {
		u.ResetToken = nil
		u.ResetExpire = nil
		u.UpdatedAt = r.now()
	}
	return len(expired), nil
}

func (r *UserRepository) find(match func(*domain.User) bool) *domain.User {
	for _, u := range r.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (r *UserRepository) findByToken(token string) *domain.User {
	if token == "" {
		return nil
	}
	return r.find(func(u *domain.User) bool { return u.ResetToken != nil && *u.ResetToken == token })
}

func clone(u *domain.User) *domain.User {
	c := *u
	if u.ResetToken != nil {
		tok := *u.ResetToken
		c.ResetToken = &tok
	}
	if u.ResetExpire != nil {
		exp := *u.ResetExpire
		c.ResetExpire = &exp
	}
	return &c
}
