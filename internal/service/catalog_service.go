package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinebook/internal/logger"
	"github.com/iliyamo/cinebook/internal/model"
	"github.com/iliyamo/cinebook/internal/repository"
	"github.com/iliyamo/cinebook/internal/tmdb"
)

// MovieDetailsSource looks up catalog metadata for a movie.  *tmdb.Client
// satisfies it.
type MovieDetailsSource interface {
	Details(ctx context.Context, id string) (*tmdb.MovieDetails, error)
}

// MovieInput is the payload of AddMovie.
type MovieInput struct {
	Title    string
	Poster   string
	Language string
	Genre    string
	TMDBID   string
}

// MovieStore is the movie storage EnsureMovie needs.  *repository.MovieRepo
// satisfies it, both on the pool and inside a transaction.
type MovieStore interface {
	GetByTMDBID(ctx context.Context, tmdbID string) (model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
}

// MovieMeta is the catalog metadata stored with a lazily created movie.
type MovieMeta struct {
	Poster, Language, Genre string
}

func placeholderMeta() MovieMeta {
	return MovieMeta{
		Poster:   model.PlaceholderPoster,
		Language: model.PlaceholderLanguage,
		Genre:    model.PlaceholderGenre,
	}
}

type CatalogService struct {
	store   *repository.Store
	details MovieDetailsSource
}

// NewCatalogService returns a catalog service.  details may be nil, in which
// case lazily created movies always get placeholder metadata.
func NewCatalogService(store *repository.Store, details MovieDetailsSource) *CatalogService {
	return &CatalogService{store: store, details: details}
}

// ListMovies returns every movie, newest first, each with its booking
// back-reference list.
func (s *CatalogService) ListMovies(ctx context.Context) ([]model.Movie, error) {
	movies, err := s.store.Movies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	refs, err := s.store.Movies.BookingIDsByMovie(ctx)
	if err != nil {
		return nil, fmt.Errorf("list movie bookings: %w", err)
	}
	for i := range movies {
		movies[i].Bookings = refs[movies[i].ID]
		if movies[i].Bookings == nil {
			movies[i].Bookings = []uint64{}
		}
	}
	return movies, nil
}

func (s *CatalogService) AddMovie(ctx context.Context, in MovieInput) (model.Movie, error) {
	m := model.Movie{
		Title:    strings.TrimSpace(in.Title),
		Poster:   strings.TrimSpace(in.Poster),
		Language: strings.TrimSpace(in.Language),
		Genre:    strings.TrimSpace(in.Genre),
		TMDBID:   strings.TrimSpace(in.TMDBID),
	}
	if m.Title == "" || m.Poster == "" || m.Language == "" || m.Genre == "" || m.TMDBID == "" {
		return model.Movie{}, fail(ErrInvalidRequest, "title, poster, language, genre and tmdbId are required")
	}
	if err := s.store.Movies.Create(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Movie{}, fail(ErrConflict, "movie already exists")
		}
		return model.Movie{}, fmt.Errorf("create movie: %w", err)
	}
	m.Bookings = []uint64{}
	return m, nil
}

// DeleteMovie removes the movie and its back-reference rows.  Bookings keep
// the catalog id and title they were made with.
func (s *CatalogService) DeleteMovie(ctx context.Context, id uint64) error {
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		return tx.Movies.Delete(ctx, id)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ErrNotFound, "movie not found")
	}
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	return nil
}

// lookupMeta fetches poster, language and first genre from the external
// catalog.  Missing fields and failures fall back to placeholders.
func (s *CatalogService) lookupMeta(ctx context.Context, tmdbID string) MovieMeta {
	meta := placeholderMeta()
	if s.details == nil {
		return meta
	}
	d, err := s.details.Details(ctx, tmdbID)
	if err != nil {
		if !errors.Is(err, tmdb.ErrNotConfigured) {
			logger.WarnContext(ctx, "movie metadata lookup failed", "tmdb_id", tmdbID, "error", err)
		}
		return meta
	}
	if p := tmdb.PosterURL(d.PosterPath); p != "" {
		meta.Poster = p
	}
	if d.OriginalLanguage != "" {
		meta.Language = d.OriginalLanguage
	}
	if g := d.PrimaryGenre(); g != "" {
		meta.Genre = g
	}
	return meta
}

// EnsureMovie returns the movie for tmdbID, creating it with meta when it
// does not exist.  created reports which branch ran.  Like EnsureUser, a lost
// insert race surfaces as repository.ErrDuplicate for the caller to retry.
func EnsureMovie(ctx context.Context, movies MovieStore, tmdbID, title string, meta MovieMeta) (m model.Movie, created bool, err error) {
	tmdbID = strings.TrimSpace(tmdbID)
	title = strings.TrimSpace(title)
	if tmdbID == "" || title == "" {
		return model.Movie{}, false, fail(ErrInvalidRequest, "movieId and movieTitle are required")
	}
	m, err = movies.GetByTMDBID(ctx, tmdbID)
	if err == nil {
		return m, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Movie{}, false, fmt.Errorf("lookup movie: %w", err)
	}

	m = model.Movie{Title: title, Poster: meta.Poster, Language: meta.Language, Genre: meta.Genre, TMDBID: tmdbID}
	if err := movies.Create(ctx, &m); err != nil {
		return model.Movie{}, false, fmt.Errorf("create movie: %w", err)
	}
	return m, true, nil
}
