package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinebook/internal/model"
	"github.com/iliyamo/cinebook/internal/repository"
)

// ReviewInput is the payload of AddReview.  Author is the authenticated
// user's email, never taken from the request body.
type ReviewInput struct {
	MovieID string
	Author  string
	Comment string
	Rating  *int
}

type ReviewService struct {
	store *repository.Store
}

func NewReviewService(store *repository.Store) *ReviewService {
	return &ReviewService{store: store}
}

// ListReviews returns the reviews of a catalog movie, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, movieID string) ([]model.Review, error) {
	movieID = strings.TrimSpace(movieID)
	if err := s.requireMovie(ctx, movieID); err != nil {
		return nil, err
	}
	reviews, err := s.store.Reviews.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) AddReview(ctx context.Context, in ReviewInput) (model.Review, error) {
	rv := model.Review{
		MovieID: strings.TrimSpace(in.MovieID),
		Author:  repository.NormalizeEmail(in.Author),
		Comment: strings.TrimSpace(in.Comment),
		Rating:  in.Rating,
	}
	if rv.MovieID == "" || rv.Author == "" || rv.Comment == "" {
		return model.Review{}, fail(ErrInvalidRequest, "movieId and comment are required")
	}
	if rv.Rating != nil && (*rv.Rating < model.MinRating || *rv.Rating > model.MaxRating) {
		return model.Review{}, fail(ErrInvalidRequest, fmt.Sprintf("rating must be between %d and %d", model.MinRating, model.MaxRating))
	}
	if err := s.requireMovie(ctx, rv.MovieID); err != nil {
		return model.Review{}, err
	}
	if err := s.store.Reviews.Create(ctx, &rv); err != nil {
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}
	return rv, nil
}

func (s *ReviewService) requireMovie(ctx context.Context, movieID string) error {
	if movieID == "" {
		return fail(ErrInvalidRequest, "movieId is required")
	}
	_, err := s.store.Movies.GetByTMDBID(ctx, movieID)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ErrNotFound, "movie not found")
	}
	if err != nil {
		return fmt.Errorf("lookup movie: %w", err)
	}
	return nil
}
