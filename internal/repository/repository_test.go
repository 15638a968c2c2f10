package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/cinebook/internal/model"
	"github.com/iliyamo/cinebook/internal/repository"
	"github.com/iliyamo/cinebook/internal/testutil"
)

func TestUserRepo_CreateNormalizesAndRejectsDuplicates(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	u := &model.User{Name: "Ann", Email: "  Ann@X.com ", PasswordHash: "h"}
	if err := store.Users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 || u.Email != "ann@x.com" || u.Role != model.RoleUser {
		t.Fatalf("unexpected user after create: %+v", u)
	}

	dup := &model.User{Name: "Other", Email: "ANN@x.com"}
	if err := store.Users.Create(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate create err = %v, want ErrDuplicate", err)
	}

	got, err := store.Users.GetByEmail(ctx, " ann@X.COM")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "h" {
		t.Fatalf("got %+v", got)
	}

	if _, err := store.Users.GetByEmail(ctx, "nobody@x.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing user err = %v, want ErrNotFound", err)
	}
}

func TestUserRepo_ResetTokenLifecycle(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	u := &model.User{Name: "Ann", Email: "ann@x.com", PasswordHash: "old"}
	if err := store.Users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	exp := time.Now().Add(time.Hour).UTC()
	if err := store.Users.SetResetToken(ctx, u.ID, "abc", exp); err != nil {
		t.Fatalf("set reset token: %v", err)
	}
	got, err := store.Users.GetByResetTokenHash(ctx, "abc")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got.ResetTokenExpiresAt == nil || got.ResetTokenExpiresAt.Unix() != exp.Unix() {
		t.Fatalf("expiry = %v, want %v", got.ResetTokenExpiresAt, exp)
	}

	now := time.Now()
	if err := store.Users.ConsumeResetToken(ctx, u.ID, "wrong", "new", now); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("consume with wrong hash err = %v", err)
	}
	if err := store.Users.ConsumeResetToken(ctx, u.ID, "abc", "new", exp.Add(time.Second)); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("consume after expiry err = %v", err)
	}
	if err := store.Users.ConsumeResetToken(ctx, u.ID, "abc", "new", now); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if _, err := store.Users.GetByResetTokenHash(ctx, "abc"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("token should be cleared, err = %v", err)
	}
	got, _ = store.Users.GetByEmail(ctx, "ann@x.com")
	if got.PasswordHash != "new" || got.ResetTokenHash != nil || got.ResetTokenExpiresAt != nil {
		t.Fatalf("reset fields not cleared: %+v", got)
	}

	if err := store.Users.ConsumeResetToken(ctx, u.ID, "abc", "again", now); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second consume err = %v", err)
	}
	got, _ = store.Users.GetByEmail(ctx, "ann@x.com")
	if got.PasswordHash != "new" {
		t.Fatalf("second consume changed the password to %q", got.PasswordHash)
	}
}

func TestMovieRepo_UniqueCatalogIDAndDelete(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	m := &model.Movie{Title: "Dune", Poster: "p.jpg", Language: "en", Genre: "Sci-Fi", TMDBID: "42"}
	if err := store.Movies.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Movies.Create(ctx, &model.Movie{Title: "Dune 2", Poster: "p", Language: "en", Genre: "g", TMDBID: " 42 "}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate tmdb id err = %v", err)
	}

	b := &model.Booking{Name: "Bob", Email: "bob@x.com", Seats: 2, Date: "2024-05-01", Time: "7:00 PM", MovieID: "42", MovieTitle: "Dune"}
	if err := store.Bookings.Create(ctx, b); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if err := store.Movies.AppendBooking(ctx, m.ID, b.ID); err != nil {
		t.Fatalf("append booking: %v", err)
	}

	other := &model.Movie{Title: "Arrival", Poster: "a.jpg", Language: "en", Genre: "Drama", TMDBID: "7"}
	if err := store.Movies.Create(ctx, other); err != nil {
		t.Fatalf("create other: %v", err)
	}
	refs, err := store.Movies.BookingIDsByMovie(ctx)
	if err != nil || len(refs) != 1 || len(refs[m.ID]) != 1 || refs[m.ID][0] != b.ID {
		t.Fatalf("BookingIDsByMovie = %v, %v", refs, err)
	}

	err = store.InTx(ctx, func(tx *repository.Store) error {
		return tx.Movies.Delete(ctx, m.ID)
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Movies.GetByTMDBID(ctx, "42"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("movie still present: %v", err)
	}
	if n := testutil.Count(t, store.DB(), "movie_bookings"); n != 0 {
		t.Fatalf("movie_bookings rows = %d, want 0", n)
	}
	if n := testutil.Count(t, store.DB(), "bookings"); n != 1 {
		t.Fatalf("bookings rows = %d, want 1 (bookings survive movie deletion)", n)
	}
	if err := store.Movies.Delete(ctx, m.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestBookingRepo_ListNewestFirstAndByUser(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	u := &model.User{Name: "Bob", Email: "bob@x.com"}
	if err := store.Users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	var ids []uint64
	for i := 0; i < 3; i++ {
		b := &model.Booking{Name: "Bob", Email: "bob@x.com", Seats: i + 1, Date: "2024-05-01", Time: "7:00 PM", MovieID: "42", MovieTitle: "Dune"}
		if err := store.Bookings.Create(ctx, b); err != nil {
			t.Fatalf("create booking: %v", err)
		}
		if err := store.Users.AppendBooking(ctx, u.ID, b.ID); err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, b.ID)
	}

	all, err := store.Bookings.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Fatalf("list order = %v, want newest first of %v", bookingIDs(all), ids)
	}

	mine, err := store.Bookings.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(mine) != 3 || mine[0].ID != ids[0] {
		t.Fatalf("back-reference order = %v, want %v", bookingIDs(mine), ids)
	}
	refs, err := store.Users.BookingIDs(ctx, u.ID)
	if err != nil || len(refs) != 3 || refs[1] != ids[1] {
		t.Fatalf("BookingIDs = %v, %v", refs, err)
	}
}

func TestReviewRepo_ListByMovie(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	ten := 10
	for _, rv := range []*model.Review{
		{MovieID: "42", Author: "a@x.com", Comment: "first", Rating: &ten},
		{MovieID: "42", Author: "b@x.com", Comment: "second"},
		{MovieID: "7", Author: "c@x.com", Comment: "other"},
	} {
		if err := store.Reviews.Create(ctx, rv); err != nil {
			t.Fatalf("create review: %v", err)
		}
	}
	got, err := store.Reviews.ListByMovie(ctx, "42")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Comment != "second" || got[1].Comment != "first" {
		t.Fatalf("reviews = %+v", got)
	}
	if got[0].Rating != nil || got[1].Rating == nil || *got[1].Rating != 10 {
		t.Fatalf("ratings not round-tripped: %+v", got)
	}
}

func TestStore_InTxRollsBackOnError(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Bookings.Create(ctx, &model.Booking{Name: "n", Email: "e", Seats: 1, Date: "d", Time: "t", MovieID: "1", MovieTitle: "m"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want boom", err)
	}
	if n := testutil.Count(t, store.DB(), "bookings"); n != 0 {
		t.Fatalf("bookings after rollback = %d, want 0", n)
	}
}

func bookingIDs(bs []model.Booking) []uint64 {
	out := make([]uint64, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.ID)
	}
	return out
}
