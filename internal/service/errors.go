// Package service implements the account, catalog, booking and review
// workflows on top of the repository layer.
package service

import "errors"

// Error kinds.  Every failure a workflow reports on purpose wraps exactly one
// of these; anything else is an internal error.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidOrExpired = errors.New("invalid or expired")
)

// Error carries a user-facing message together with its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}
