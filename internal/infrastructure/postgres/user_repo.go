package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/ErlanBelekov/charon/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/oops"
)

// pool is the subset of *pgxpool.Pool the repositories use, so tests can
// substitute pgxmock.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id::text, username, email, password_hash, reset_token, reset_expire, created_at, updated_at`

type UserRepository struct {
	pool pool
}

func NewUserRepository(pool pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(domain.ErrUserNotFound)
	}

	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.scanOne(row, "find user by id", domain.ErrUserNotFound)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
	return r.scanOne(row, "find user by username", domain.ErrUserNotFound)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return r.scanOne(row, "find user by email", domain.ErrUserNotFound)
}

func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(domain.ErrTokenNotFound)
	}

	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token = $1`, token)
	return r.scanOne(row, "find user by reset token", domain.ErrTokenNotFound)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		user.Username, user.Email, user.PasswordHash,
	)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("USER_CONFLICT").
				With("username", user.Username).
				With("constraint", pgErr.ConstraintName).
				Wrap(domain.ErrUserExists)
		}
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return created, nil
}

// SetResetToken is a single UPDATE ... RETURNING, so concurrent forgot
// requests for one account serialize on the row lock and the last writer's
// token/expiry pair is what remains.
func (r *UserRepository) SetResetToken(ctx context.Context, email, token string, expire time.Time) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET    reset_token  = $2,
		       reset_expire = $3,
		       updated_at   = NOW()
		WHERE  lower(email) = lower($1)
		RETURNING `+userColumns,
		email, token, expire,
	)
	return r.scanOne(row, "set reset token", domain.ErrUserNotFound)
}

// ConsumeResetToken re-checks the token inside the UPDATE. A second
// concurrent consumer blocks on the row lock, then re-evaluates the WHERE
// clause against the cleared row and matches nothing.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET    password_hash = $2,
		       reset_token   = NULL,
		       reset_expire  = NULL,
		       updated_at    = NOW()
		WHERE  reset_token  = $1
		  AND  reset_expire >= $3
		RETURNING `+userColumns,
		token, passwordHash, now,
	)
	return r.scanOne(row, "consume reset token", domain.ErrTokenNotFound)
}

func (r *UserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET    reset_token  = NULL,
		       reset_expire = NULL,
		       updated_at   = NOW()
		WHERE id IN (
			SELECT id FROM users
			WHERE  reset_expire < $1
			ORDER BY reset_expire ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, now, limit)
	if err != nil {
		return 0, oops.Code("RESET_TOKEN_CLEANUP_FAILED").
			With("operation", "clear expired reset tokens").
			Wrap(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *UserRepository) scanOne(row pgx.Row, operation string, notFound error) (*domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oops.Code("NOT_FOUND").With("operation", operation).Wrap(notFound)
		}
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", operation).Wrap(err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u           domain.User
		resetToken  pgtype.Text
		resetExpire pgtype.Timestamptz
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&resetToken,
		&resetExpire,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resetToken.Valid && resetExpire.Valid {
		tok := resetToken.String
		exp := resetExpire.Time
		u.ResetToken = &tok
		u.ResetExpire = &exp
	}
	return &u, nil
}
