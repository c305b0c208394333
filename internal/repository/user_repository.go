package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/swing-festival-finder/internal/auth"
	"github.com/iliyamo/swing-festival-finder/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, name, password_hash, email_verified_at, created_at, updated_at"

// NormalizeEmail trims and lower-cases an address before storage or lookup.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes password, inserts the user and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, email, name, password string, cost int) (model.User, error) {
	email = NormalizeEmail(email)
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash) VALUES (?,?,?)",
		email, strings.TrimSpace(name), hash)
	if err != nil {
		return model.User{}, mapWriteErr(err, ErrEmailExists)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getBy(ctx, "email=?", NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getBy(ctx, "id=?", id)
}

func (r *UserRepo) getBy(ctx context.Context, where string, arg any) (model.User, error) {
	var (
		u        model.User
		verified sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &verified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if verified.Valid {
		t := verified.Time
		u.EmailVerifiedAt = &t
	}
	return u, nil
}

// MarkVerified stamps email_verified_at unless it is already set.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email_verified_at=UTC_TIMESTAMP() WHERE id=? AND email_verified_at IS NULL", id)
	return err
}
