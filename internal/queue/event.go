// Package queue defines message payloads exchanged over the message broker
// together with the publisher used by the booking flow and the background
// consumer that keeps the booking log.
package queue

// BookingQueue is the durable queue carrying BookingCreatedEvent messages.
const BookingQueue = "booking.created"

// BookingCreatedEvent is published after a booking transaction commits.  It
// carries enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingCreatedEvent struct {
	BookingID  uint64 `json:"booking_id"`
	UserID     uint64 `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	MovieID    string `json:"movie_id"`
	MovieTitle string `json:"movie_title"`
	Seats      int    `json:"seats"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	NewUser    bool   `json:"new_user"`
	NewMovie   bool   `json:"new_movie"`
	CreatedAt  string `json:"created_at"`
}
