package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinebook/internal/model"
)

const userColumns = `id, name, email, password_hash, role, reset_token_hash, reset_token_expires_at, created_at, updated_at`

// UserRepo persists users and their booking back-references.
type UserRepo struct{ db sqlx.ExtContext }

// NormalizeEmail trims and lower-cases an address; every lookup and insert
// goes through it so uniqueness is case and whitespace insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u and fills in its ID and timestamps.  A second user with
// the same normalized email yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		u.Name, u.Email, u.PasswordHash, u.Role, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, r.db, &u,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return u, notFound(err)
}

// GetByResetTokenHash finds the user holding the given reset token hash.
// Expiry is checked by the caller so the comparison uses one clock.
func (r *UserRepo) GetByResetTokenHash(ctx context.Context, hash string) (model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, r.db, &u,
		"SELECT "+userColumns+" FROM users WHERE reset_token_hash=? LIMIT 1", hash)
	return u, notFound(err)
}

// SetResetToken stores a reset token hash and its expiry, replacing any
// previous token.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, hash string, expiresAt time.Time) error {
	return r.exec1(ctx,
		"UPDATE users SET reset_token_hash=?, reset_token_expires_at=?, updated_at=? WHERE id=?",
		hash, expiresAt.UTC(), time.Now().UTC(), id)
}

// ConsumeResetToken replaces the password hash and clears the reset token
// in one statement, but only while tokenHash is still the user's unexpired
// token at now.  A token that was already consumed, replaced or has expired
// matches no row and yields ErrNotFound, so each token works once.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, id uint64, tokenHash, passwordHash string, now time.Time) error {
	now = now.UTC()
	return r.exec1(ctx,
		`UPDATE users SET password_hash=?, reset_token_hash=NULL, reset_token_expires_at=NULL, updated_at=?
		 WHERE id=? AND reset_token_hash=? AND reset_token_expires_at > ?`,
		passwordHash, now, id, tokenHash, now)
}

// AppendBooking adds bookingID to the end of the user's back-reference list.
func (r *UserRepo) AppendBooking(ctx context.Context, userID, bookingID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_bookings (user_id, booking_id) VALUES (?,?)", userID, bookingID)
	return err
}

// BookingIDs returns the user's back-reference list in append order.
func (r *UserRepo) BookingIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := sqlx.SelectContext(ctx, r.db, &ids,
		"SELECT booking_id FROM user_bookings WHERE user_id=? ORDER BY id", userID)
	return ids, err
}

// exec1 runs an UPDATE that must match a row; zero affected rows maps to
// ErrNotFound.
func (r *UserRepo) exec1(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
