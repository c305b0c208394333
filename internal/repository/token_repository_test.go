package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTokenRepo(t *testing.T, now time.Time) (*TokenRepo, sqlmock.Sqlmock) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	repo.now = func() time.Time { return now }
	return repo, mock
}

func TestValidateRefresh(t *testing.T) {
	now := time.Date(2027, 3, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"user_id", "expires_at", "revoked_at"}

	cases := []struct {
		name    string
		rows    *sqlmock.Rows
		wantID  uint64
		wantErr error
	}{
		{"valid", sqlmock.NewRows(cols).AddRow(4, now.Add(time.Hour), nil), 4, nil},
		{"expired", sqlmock.NewRows(cols).AddRow(4, now.Add(-time.Hour), nil), 0, ErrNotFound},
		{"revoked", sqlmock.NewRows(cols).AddRow(4, now.Add(time.Hour), now.Add(-time.Minute)), 0, ErrNotFound},
		{"unknown", sqlmock.NewRows(cols), 0, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := fixedTokenRepo(t, now)
			mock.ExpectQuery(`FROM refresh_tokens WHERE token_hash=\?`).WithArgs("h").WillReturnRows(tc.rows)

			id, err := repo.ValidateRefresh(context.Background(), "h")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestRevokeByHash(t *testing.T) {
	repo, mock := fixedTokenRepo(t, time.Now())
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP\(\) WHERE token_hash=\?`).
		WithArgs("h").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeByHash(context.Background(), "h"))
}

func TestRevokeByHashAlreadyRevoked(t *testing.T) {
	repo, mock := fixedTokenRepo(t, time.Now())
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP\(\) WHERE token_hash=\? AND revoked_at IS NULL`).
		WithArgs("h").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.RevokeByHash(context.Background(), "h"), ErrNotFound)
}

func TestConsumeVerification(t *testing.T) {
	now := time.Date(2027, 3, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"id", "user_id", "expires_at", "used_at"}

	t.Run("valid", func(t *testing.T) {
		repo, mock := fixedTokenRepo(t, now)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM verification_tokens WHERE token_hash=\? LIMIT 1 FOR UPDATE`).
			WithArgs("h").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 9, now.Add(time.Hour), nil))
		mock.ExpectExec(`UPDATE verification_tokens SET used_at=UTC_TIMESTAMP\(\) WHERE id=\?`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		id, err := repo.ConsumeVerification(context.Background(), "h")
		require.NoError(t, err)
		assert.Equal(t, uint64(9), id)
	})

	t.Run("used", func(t *testing.T) {
		repo, mock := fixedTokenRepo(t, now)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM verification_tokens`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 9, now.Add(time.Hour), now.Add(-time.Hour)))
		mock.ExpectRollback()

		_, err := repo.ConsumeVerification(context.Background(), "h")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
