package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/swing-festival-finder/internal/auth"
)

var userCols = []string{"id", "email", "name", "password_hash", "email_verified_at", "created_at", "updated_at"}

func TestUserCreate(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO users \(email, name, password_hash\)`).
		WithArgs("ada@example.com", "Ada", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(`FROM users WHERE id=\? LIMIT 1`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(7, "ada@example.com", "Ada", "hash", nil, now, now))

	u, err := NewUserRepo(db).Create(context.Background(), "  Ada@Example.com ", " Ada ", "lindyhop42", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.False(t, u.Verified())
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := NewUserRepo(db).Create(context.Background(), "ada@example.com", "", "lindyhop42", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	hash, err := auth.HashPassword("lindyhop42", bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`FROM users WHERE email=\?`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(7, "ada@example.com", "Ada", hash, now, now, now))
	mock.ExpectQuery(`FROM users WHERE email=\?`).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	repo := NewUserRepo(db)
	u, err := repo.GetByEmail(context.Background(), "ADA@example.com")
	require.NoError(t, err)
	assert.True(t, u.Verified())
	assert.True(t, auth.VerifyPassword(u.PasswordHash, "lindyhop42"))

	_, err = repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserMarkVerified(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE users SET email_verified_at=UTC_TIMESTAMP\(\) WHERE id=\? AND email_verified_at IS NULL`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, NewUserRepo(db).MarkVerified(context.Background(), 7))
}
