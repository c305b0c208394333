package model

import "time"

// User represents an account as stored in the `users` table. The JSON
// view of a user is built by handlers; PasswordHash never leaves the
// repository layer.
//
// Fields:
//
//	Email           – unique, stored lower-cased.
//	PasswordHash    – bcrypt hash of the password.
//	EmailVerifiedAt – when the address was confirmed; nil until then.
type User struct {
	ID              uint64     // users.id
	Email           string     // users.email
	Name            string     // users.name
	PasswordHash    string     // users.password_hash
	EmailVerifiedAt *time.Time // users.email_verified_at (nullable)
	CreatedAt       time.Time  // users.created_at
	UpdatedAt       time.Time  // users.updated_at
}

// Verified reports whether the user confirmed their e-mail address.
func (u User) Verified() bool { return u.EmailVerifiedAt != nil }

// Session is the authenticated identity attached to a request.
type Session struct {
	User SessionUser `json:"user"`
}

type SessionUser struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}
