package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/cinebook/internal/model"
	"github.com/iliyamo/cinebook/internal/repository"
	"github.com/iliyamo/cinebook/internal/testutil"
	"github.com/iliyamo/cinebook/internal/tmdb"
)

func TestCatalogAddListDelete(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewCatalogService(store, nil)
	ctx := context.Background()

	in := MovieInput{Title: "Dune", Poster: "p.jpg", Language: "en", Genre: "Sci-Fi", TMDBID: "42"}
	m, err := svc.AddMovie(ctx, in)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err = svc.AddMovie(ctx, in)
	assertKind(t, err, ErrConflict)

	bad := in
	bad.Genre = " "
	_, err = svc.AddMovie(ctx, bad)
	assertKind(t, err, ErrInvalidRequest)

	second, _ := svc.AddMovie(ctx, MovieInput{Title: "Arrival", Poster: "a.jpg", Language: "en", Genre: "Drama", TMDBID: "7"})
	list, err := svc.ListMovies(ctx)
	if err != nil || len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("list = %+v, %v", list, err)
	}
	if list[0].Bookings == nil || len(list[0].Bookings) != 0 {
		t.Fatalf("movie without bookings should carry an empty list: %+v", list[0])
	}

	if err := svc.DeleteMovie(ctx, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertKind(t, svc.DeleteMovie(ctx, m.ID), ErrNotFound)
}

func TestEnsureMovie(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	meta := MovieMeta{Poster: "p.jpg", Language: "en", Genre: "Sci-Fi"}

	m, created, err := EnsureMovie(ctx, store.Movies, " 42", "Dune", meta)
	if err != nil || !created {
		t.Fatalf("ensure = %+v, %v, %v", m, created, err)
	}
	if m.TMDBID != "42" || m.Poster != "p.jpg" || m.Genre != "Sci-Fi" {
		t.Fatalf("movie = %+v", m)
	}

	again, created, err := EnsureMovie(ctx, store.Movies, "42", "Other title", placeholderMeta())
	if err != nil || created || again.ID != m.ID || again.Title != "Dune" || again.Poster != "p.jpg" {
		t.Fatalf("second ensure = %+v, %v, %v", again, created, err)
	}

	_, _, err = EnsureMovie(ctx, store.Movies, "43", "", meta)
	assertKind(t, err, ErrInvalidRequest)
}

// racingMovies misses the lookup and then loses the insert.
type racingMovies struct{}

func (racingMovies) GetByTMDBID(context.Context, string) (model.Movie, error) {
	return model.Movie{}, repository.ErrNotFound
}

func (racingMovies) Create(context.Context, *model.Movie) error {
	return repository.ErrDuplicate
}

func TestEnsureMovieReportsLostInsertRace(t *testing.T) {
	_, _, err := EnsureMovie(context.Background(), racingMovies{}, "42", "Dune", placeholderMeta())
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate for the caller to retry", err)
	}
}

func TestLookupMeta(t *testing.T) {
	details := &fakeDetails{err: errors.New("upstream 500")}
	svc := NewCatalogService(testutil.NewStore(t), details)
	ctx := context.Background()

	if got := svc.lookupMeta(ctx, "42"); got != placeholderMeta() {
		t.Fatalf("meta on failure = %+v", got)
	}

	details.err = nil
	details.d = &tmdb.MovieDetails{
		PosterPath:       "/x.jpg",
		OriginalLanguage: "en",
		Genres:           []tmdb.Genre{{Name: "Science Fiction"}, {Name: "Drama"}},
	}
	want := MovieMeta{Poster: tmdb.ImageBaseURL + "/x.jpg", Language: "en", Genre: "Science Fiction"}
	if got := svc.lookupMeta(ctx, "42"); got != want {
		t.Fatalf("meta = %+v, want %+v", got, want)
	}
	if details.calls != 2 {
		t.Fatalf("details calls = %d", details.calls)
	}
}
