package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinebook/internal/model"
)

const movieColumns = `id, title, poster, language, genre, tmdb_id, created_at, updated_at`

// MovieRepo persists catalog movies keyed by external catalog id.
type MovieRepo struct{ db sqlx.ExtContext }

// List returns every movie, newest first.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	out := []model.Movie{}
	err := sqlx.SelectContext(ctx, r.db, &out,
		"SELECT "+movieColumns+" FROM movies ORDER BY created_at DESC, id DESC")
	return out, err
}

// Create inserts m; a duplicate TMDBID yields ErrDuplicate.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	m.TMDBID = strings.TrimSpace(m.TMDBID)
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO movies (title, poster, language, genre, tmdb_id, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		m.Title, m.Poster, m.Language, m.Genre, m.TMDBID, now, now)
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
	m.ID = uint64(id)
	m.CreatedAt, m.UpdatedAt = now, now
	return nil
}

func (r *MovieRepo) GetByTMDBID(ctx context.Context, tmdbID string) (model.Movie, error) {
	var m model.Movie
	err := sqlx.GetContext(ctx, r.db, &m,
		"SELECT "+movieColumns+" FROM movies WHERE tmdb_id=? LIMIT 1", strings.TrimSpace(tmdbID))
	return m, notFound(err)
}

// Delete removes a movie and its back-reference rows.  Bookings themselves
// are left alone; they still carry the catalog id and title.  Run it inside
// Store.InTx so both deletes commit together.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM movie_bookings WHERE movie_id=?", id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
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

// AppendBooking adds bookingID to the end of the movie's back-reference list.
func (r *MovieRepo) AppendBooking(ctx context.Context, movieID, bookingID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO movie_bookings (movie_id, booking_id) VALUES (?,?)", movieID, bookingID)
	return err
}

// BookingIDsByMovie returns every movie's back-reference list keyed by
// movie id, each list in append order.  Movies without bookings are absent.
func (r *MovieRepo) BookingIDsByMovie(ctx context.Context) (map[uint64][]uint64, error) {
	var rows []struct {
		MovieID   uint64 `db:"movie_id"`
		BookingID uint64 `db:"booking_id"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows,
		"SELECT movie_id, booking_id FROM movie_bookings ORDER BY id"); err != nil {
		return nil, err
	}
	out := make(map[uint64][]uint64)
	for _, row := range rows {
		out[row.MovieID] = append(out[row.MovieID], row.BookingID)
	}
	return out, nil
}
