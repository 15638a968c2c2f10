package model

import "time"

// Roles carried in session tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an account record as stored in the `users` table.
// PasswordHash is empty for walk-up users created by a booking; such a user
// cannot log in until a password is set through the reset flow.
//
// Fields:
//
//	ID                  – primary key identifier of the user.
//	Name                – display name.
//	Email               – normalized (trimmed, lower-cased) unique address.
//	PasswordHash        – bcrypt hash, never serialized.
//	Role                – USER or ADMIN.
//	ResetTokenHash      – SHA-256 hex of the outstanding reset token, if any.
//	ResetTokenExpiresAt – instant after which the reset token is rejected.
//	Bookings            – back-reference list; filled on login, empty for a new user.
type User struct {
	ID                  uint64     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Role                string     `db:"role" json:"role"`
	ResetTokenHash      *string    `db:"reset_token_hash" json:"-"`
	ResetTokenExpiresAt *time.Time `db:"reset_token_expires_at" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
	Bookings            []uint64   `db:"-" json:"bookings"`
}

// HasPassword reports whether the user can authenticate with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
