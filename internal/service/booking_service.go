package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinebook/internal/logger"
	"github.com/iliyamo/cinebook/internal/model"
	"github.com/iliyamo/cinebook/internal/queue"
	"github.com/iliyamo/cinebook/internal/repository"
)

// EventPublisher receives booking events after commit.  *queue.Publisher
// satisfies it.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

// BookingInput is the payload of CreateBooking.
type BookingInput struct {
	Name       string
	Email      string
	Seats      int
	Date       string
	Time       string
	MovieID    string
	MovieTitle string
}

func (in BookingInput) normalized() BookingInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = repository.NormalizeEmail(in.Email)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.MovieID = strings.TrimSpace(in.MovieID)
	in.MovieTitle = strings.TrimSpace(in.MovieTitle)
	return in
}

func (in BookingInput) complete() bool {
	return in.Name != "" && in.Email != "" && in.Seats > 0 && in.Date != "" &&
		in.Time != "" && in.MovieID != "" && in.MovieTitle != ""
}

// BookingOptions switch the optional branches of CreateBooking.
type BookingOptions struct {
	AllowWalkUp bool // create unknown users instead of failing with NotFound
	SeedReview  bool // add the "Booked N seat(s)" review for every booking
}

// BookingResult describes everything CreateBooking wrote.
type BookingResult struct {
	Booking  model.Booking
	User     model.User
	Movie    model.Movie
	Review   *model.Review
	NewUser  bool
	NewMovie bool
}

type BookingService struct {
	store   *repository.Store
	catalog *CatalogService
	events  EventPublisher
	opts    BookingOptions
}

// NewBookingService wires the booking workflow.  events may be nil.
func NewBookingService(store *repository.Store, catalog *CatalogService, events EventPublisher, opts BookingOptions) *BookingService {
	return &BookingService{store: store, catalog: catalog, events: events, opts: opts}
}

// CreateBooking resolves the user and movie, records the booking, links it
// from both back-reference lists and optionally seeds a review, all in one
// transaction.  Catalog metadata is fetched before the transaction opens.
func (s *BookingService) CreateBooking(ctx context.Context, in BookingInput) (BookingResult, error) {
	in = in.normalized()
	if !in.complete() {
		return BookingResult{}, fail(ErrInvalidRequest, "all fields are required")
	}

	meta := placeholderMeta()
	if _, err := s.store.Movies.GetByTMDBID(ctx, in.MovieID); errors.Is(err, repository.ErrNotFound) {
		meta = s.catalog.lookupMeta(ctx, in.MovieID)
	} else if err != nil {
		return BookingResult{}, fmt.Errorf("lookup movie: %w", err)
	}

	var res BookingResult
	err := retryOnDuplicate(ctx, bookingAttempts, func() error {
		res = BookingResult{}
		return s.store.InTx(ctx, func(tx *repository.Store) error {
			return s.record(ctx, tx, in, meta, &res)
		})
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return BookingResult{}, err
		}
		logger.ErrorContext(ctx, "booking rolled back", "error", err, "movie_id", in.MovieID)
		return BookingResult{}, fmt.Errorf("booking failed: %w", err)
	}

	logger.InfoContext(ctx, "booking created",
		"booking_id", res.Booking.ID, "user_id", res.User.ID, "movie_id", in.MovieID,
		"new_user", res.NewUser, "new_movie", res.NewMovie)
	s.publish(ctx, res)
	return res, nil
}

// record performs the writes of one booking attempt on tx.
func (s *BookingService) record(ctx context.Context, tx *repository.Store, in BookingInput, meta MovieMeta, res *BookingResult) error {
	var err error
	res.User, res.NewUser, err = EnsureUser(ctx, tx.Users, in.Name, in.Email, s.opts.AllowWalkUp)
	if err != nil {
		return err
	}
	res.Movie, res.NewMovie, err = EnsureMovie(ctx, tx.Movies, in.MovieID, in.MovieTitle, meta)
	if err != nil {
		return err
	}

	res.Booking = model.Booking{
		Name:       in.Name,
		Email:      in.Email,
		Seats:      in.Seats,
		Date:       in.Date,
		Time:       in.Time,
		MovieID:    in.MovieID,
		MovieTitle: in.MovieTitle,
	}
	if err := tx.Bookings.Create(ctx, &res.Booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	if err := tx.Users.AppendBooking(ctx, res.User.ID, res.Booking.ID); err != nil {
		return fmt.Errorf("link booking to user: %w", err)
	}
	if err := tx.Movies.AppendBooking(ctx, res.Movie.ID, res.Booking.ID); err != nil {
		return fmt.Errorf("link booking to movie: %w", err)
	}

	if s.opts.SeedReview {
		rating := model.MaxRating
		rv := model.Review{
			MovieID: in.MovieID,
			Author:  in.Email,
			Comment: res.Booking.Summary(),
			Rating:  &rating,
		}
		if err := tx.Reviews.Create(ctx, &rv); err != nil {
			return fmt.Errorf("seed review: %w", err)
		}
		res.Review = &rv
	}
	return nil
}

// bookingAttempts bounds CreateBooking retries after losing a user or movie
// insert race; the second attempt runs in a fresh transaction and sees the
// row the winner committed.
const bookingAttempts = 2

func retryOnDuplicate(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !errors.Is(err, repository.ErrDuplicate) || i+1 == attempts {
			return err
		}
		logger.WarnContext(ctx, "lost a concurrent insert, retrying", "attempt", i+1)
	}
	return err
}

// publish is best effort: a broker outage never fails a committed booking.
func (s *BookingService) publish(ctx context.Context, res BookingResult) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	ev := queue.BookingCreatedEvent{
		BookingID:  res.Booking.ID,
		UserID:     res.User.ID,
		Email:      res.Booking.Email,
		Name:       res.Booking.Name,
		MovieID:    res.Booking.MovieID,
		MovieTitle: res.Booking.MovieTitle,
		Seats:      res.Booking.Seats,
		Date:       res.Booking.Date,
		Time:       res.Booking.Time,
		NewUser:    res.NewUser,
		NewMovie:   res.NewMovie,
		CreatedAt:  res.Booking.CreatedAt.Format(time.RFC3339),
	}
	if err := s.events.PublishBookingCreated(ctx, ev); err != nil {
		logger.WarnContext(ctx, "booking event not published", "booking_id", ev.BookingID, "error", err)
	}
}

// ListBookings returns every booking, newest first.
func (s *BookingService) ListBookings(ctx context.Context) ([]model.Booking, error) {
	out, err := s.store.Bookings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

// ListUserBookings follows the user's back-reference list.
func (s *BookingService) ListUserBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
	out, err := s.store.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	return out, nil
}
