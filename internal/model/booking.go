package model

import (
	"fmt"
	"time"
)

// Booking records a ticket purchase.  It is immutable once created and is
// not tied to individual seats, so two bookings may claim the same seats.
type Booking struct {
	ID         uint64    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Seats      int       `db:"seats" json:"seats"`
	Date       string    `db:"show_date" json:"date"`
	Time       string    `db:"show_time" json:"time"`
	MovieID    string    `db:"movie_id" json:"movieId"` // external catalog id
	MovieTitle string    `db:"movie_title" json:"movieTitle"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Summary is the comment text of the review seeded for a booking.
func (b Booking) Summary() string {
	return fmt.Sprintf("Booked %d seat(s) for %s", b.Seats, b.MovieTitle)
}
