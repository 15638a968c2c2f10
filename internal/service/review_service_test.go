package service

import (
	"context"
	"testing"

	"github.com/iliyamo/cinebook/internal/testutil"
)

func TestReviews(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	_, err := svc.ListReviews(ctx, "42")
	assertKind(t, err, ErrNotFound)
	_, err = svc.AddReview(ctx, ReviewInput{MovieID: "42", Author: "a@x.com", Comment: "great"})
	assertKind(t, err, ErrNotFound)

	if _, _, err := EnsureMovie(ctx, store.Movies, "42", "Dune", placeholderMeta()); err != nil {
		t.Fatalf("ensure movie: %v", err)
	}

	for _, r := range []int{0, 11, -3} {
		r := r
		_, err := svc.AddReview(ctx, ReviewInput{MovieID: "42", Author: "a@x.com", Comment: "c", Rating: &r})
		assertKind(t, err, ErrInvalidRequest)
	}
	_, err = svc.AddReview(ctx, ReviewInput{MovieID: "42", Author: "a@x.com", Comment: " "})
	assertKind(t, err, ErrInvalidRequest)

	seven := 7
	if _, err := svc.AddReview(ctx, ReviewInput{MovieID: "42", Author: "A@x.com", Comment: "first", Rating: &seven}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddReview(ctx, ReviewInput{MovieID: "42", Author: "b@x.com", Comment: "second"}); err != nil {
		t.Fatalf("add unrated: %v", err)
	}

	list, err := svc.ListReviews(ctx, "42")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Comment != "second" || list[1].Author != "a@x.com" || *list[1].Rating != 7 {
		t.Fatalf("reviews = %+v", list)
	}
}
