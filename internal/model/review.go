package model

import "time"

// Rating bounds enforced for reviews.
const (
	MinRating = 1
	MaxRating = 10
)

// Review is a free-text comment on a movie, scoped by external catalog id.
// Author holds the email of the user who wrote it.
type Review struct {
	ID        uint64    `db:"id" json:"id"`
	MovieID   string    `db:"movie_id" json:"movieId"`
	Author    string    `db:"author" json:"user"`
	Comment   string    `db:"comment" json:"comment"`
	Rating    *int      `db:"rating" json:"rating,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
