package model

import "time"

// Placeholder metadata for movies created implicitly by a booking.
const (
	PlaceholderPoster   = "default.jpg"
	PlaceholderLanguage = "Unknown"
	PlaceholderGenre    = "Unknown"
)

// Movie is a catalog entry keyed by the external catalog id (TMDBID).
type Movie struct {
	ID        uint64    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Poster    string    `db:"poster" json:"poster"`
	Language  string    `db:"language" json:"language"`
	Genre     string    `db:"genre" json:"genre"`
	TMDBID    string    `db:"tmdb_id" json:"tmdbId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Bookings  []uint64  `db:"-" json:"bookings"`
}
