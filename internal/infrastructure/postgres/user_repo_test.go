package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ErlanBelekov/charon/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

var userColumnNames = []string{
	"id", "username", "email", "password_hash", "reset_token", "reset_expire", "created_at", "updated_at",
}

func userRow(resetToken any, resetExpire any) *pgxmock.Rows {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return pgxmock.NewRows(userColumnNames).
		AddRow(testUserID, "alice1", "a@example.com", "$argon2id$hash", resetToken, resetExpire, now, now)
}

func newMockRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func TestUserRepository_FindByUsername(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE lower\(username\) = lower\(\$1\)`).
					WithArgs("Alice1").
					WillReturnRows(userRow(nil, nil))
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE lower\(username\)`).
					WithArgs("Alice1").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setupMock(mock)

			u, err := repo.FindByUsername(context.Background(), "Alice1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, testUserID, u.ID)
				assert.Equal(t, "alice1", u.Username)
				assert.False(t, u.HasPendingReset())
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_FindByUsername_DriverErrorIsDependency(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT .+ FROM users`).
		WithArgs("alice1").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.FindByUsername(context.Background(), "alice1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, domain.KindDependency, domain.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_RejectsNonUUIDWithoutQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByResetToken_ScansPendingReset(t *testing.T) {
	repo, mock := newMockRepo(t)
	expire := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE reset_token = \$1`).
		WithArgs("tok").
		WillReturnRows(userRow(
			pgtype.Text{String: "tok", Valid: true},
			pgtype.Timestamptz{Time: expire, Valid: true},
		))

	u, err := repo.FindByResetToken(context.Background(), "tok")
	require.NoError(t, err)
	require.True(t, u.HasPendingReset())
	assert.Equal(t, "tok", *u.ResetToken)
	assert.True(t, expire.Equal(*u.ResetExpire))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByResetToken_EmptyTokenSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.FindByResetToken(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrTokenNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantKind  domain.ErrorKind
	}{
		{
			name: "inserted",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice1", "a@example.com", "$argon2id$hash").
					WillReturnRows(userRow(nil, nil))
			},
		},
		{
			name: "unique violation maps to conflict",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice1", "a@example.com", "$argon2id$hash").
					WillReturnError(&pgconn.PgError{
						Code:           pgerrcode.UniqueViolation,
						ConstraintName: "users_username_lower_key",
					})
			},
			wantErr:  domain.ErrUserExists,
			wantKind: domain.KindConflict,
		},
		{
			name: "other failure is dependency error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice1", "a@example.com", "$argon2id$hash").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.CheckViolation})
			},
			wantKind: domain.KindDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setupMock(mock)

			created, err := repo.Create(context.Background(), &domain.User{
				Username:     "alice1",
				Email:        "a@example.com",
				PasswordHash: "$argon2id$hash",
			})
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantKind, domain.KindOf(err))
			case tt.wantKind != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, domain.KindOf(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, testUserID, created.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_SetResetToken(t *testing.T) {
	expire := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("updates in one statement", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`UPDATE users\s+SET\s+reset_token\s+= \$2`).
			WithArgs("a@example.com", "tok", expire).
			WillReturnRows(userRow(
				pgtype.Text{String: "tok", Valid: true},
				pgtype.Timestamptz{Time: expire, Valid: true},
			))

		u, err := repo.SetResetToken(context.Background(), "a@example.com", "tok", expire)
		require.NoError(t, err)
		assert.Equal(t, "tok", *u.ResetToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`UPDATE users`).
			WithArgs("x@example.com", "tok", expire).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.SetResetToken(context.Background(), "x@example.com", "tok", expire)
		require.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_ConsumeResetToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("consumed", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`(?s)UPDATE users\s+SET\s+password_hash = \$2,\s+reset_token\s+= NULL.+WHERE\s+reset_token\s+= \$1\s+AND\s+reset_expire >= \$3`).
			WithArgs("tok", "newhash", now).
			WillReturnRows(userRow(nil, nil))

		u, err := repo.ConsumeResetToken(context.Background(), "tok", "newhash", now)
		require.NoError(t, err)
		assert.False(t, u.HasPendingReset())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already consumed or expired", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`UPDATE users`).
			WithArgs("tok", "newhash", now).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.ConsumeResetToken(context.Background(), "tok", "newhash", now)
		require.ErrorIs(t, err, domain.ErrTokenNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_ClearExpiredResetTokens(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("reports rows cleared", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`(?s)UPDATE users.+FOR UPDATE SKIP LOCKED`).
			WithArgs(now, 50).
			WillReturnResult(pgxmock.NewResult("UPDATE", 3))

		n, err := repo.ClearExpiredResetTokens(context.Background(), now, 50)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE users`).
			WithArgs(now, 50).
			WillReturnError(errors.New("timeout"))

		_, err := repo.ClearExpiredResetTokens(context.Background(), now, 50)
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
