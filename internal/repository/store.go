package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Store groups the repositories over one handle.  A Store returned to an
// InTx callback is bound to the transaction, so every repository call made
// through it commits or rolls back together.
type Store struct {
	db *sqlx.DB
	tx *sqlx.Tx

	Users    *UserRepo
	Movies   *MovieRepo
	Bookings *BookingRepo
	Reviews  *ReviewRepo
}

// NewStore wires all repositories to db.
func NewStore(db *sqlx.DB) *Store {
	s := &Store{db: db}
	s.bind(db)
	return s
}

func (s *Store) bind(q sqlx.ExtContext) {
	s.Users = &UserRepo{db: q}
	s.Movies = &MovieRepo{db: q}
	s.Bookings = &BookingRepo{db: q}
	s.Reviews = &ReviewRepo{db: q}
}

// DB exposes the underlying handle for health checks and tests.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// InTx runs fn inside a database transaction.  If fn returns an error or
// panics the transaction is rolled back; otherwise it is committed.  Calling
// InTx on a store that is already transactional reuses the transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	txStore := &Store{db: s.db, tx: tx}
	txStore.bind(tx)
	if err := fn(txStore); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
