package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinebook/internal/model"
)

// ReviewRepo persists reviews scoped by external catalog id.
type ReviewRepo struct{ db sqlx.ExtContext }

func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (movie_id, author, comment, rating, created_at) VALUES (?,?,?,?,?)",
		rv.MovieID, rv.Author, rv.Comment, rv.Rating, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	rv.CreatedAt = now
	return nil
}

// ListByMovie returns reviews for a catalog id, newest first.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID string) ([]model.Review, error) {
	out := []model.Review{}
	err := sqlx.SelectContext(ctx, r.db, &out,
		`SELECT id, movie_id, author, comment, rating, created_at
		 FROM reviews WHERE movie_id=? ORDER BY created_at DESC, id DESC`, movieID)
	return out, err
}
