// Package mailer delivers password-reset links out of band.
package mailer

import "context"

// Sender delivers a password reset link to a user.
type Sender interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error
}
