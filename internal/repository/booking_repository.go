package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinebook/internal/model"
)

const bookingColumns = `id, name, email, seats, show_date, show_time, movie_id, movie_title, created_at`

// BookingRepo persists bookings.  Rows are insert-only.
type BookingRepo struct{ db sqlx.ExtContext }

// Create inserts b and fills in its ID and CreatedAt.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (name, email, seats, show_date, show_time, movie_id, movie_title, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		b.Name, b.Email, b.Seats, b.Date, b.Time, b.MovieID, b.MovieTitle, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt = now
	return nil
}

// List returns every booking, newest first.  There is no pagination; the
// admin view filters client side.
func (r *BookingRepo) List(ctx context.Context) ([]model.Booking, error) {
	out := []model.Booking{}
	err := sqlx.SelectContext(ctx, r.db, &out,
		"SELECT "+bookingColumns+" FROM bookings ORDER BY created_at DESC, id DESC")
	return out, err
}

// ListByUser follows the user's back-reference list.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	out := []model.Booking{}
	err := sqlx.SelectContext(ctx, r.db, &out,
		`SELECT b.id, b.name, b.email, b.seats, b.show_date, b.show_time, b.movie_id, b.movie_title, b.created_at
		 FROM user_bookings ub
		 JOIN bookings b ON b.id = ub.booking_id
		 WHERE ub.user_id=?
		 ORDER BY ub.id`, userID)
	return out, err
}
