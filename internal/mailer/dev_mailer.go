package mailer

import (
	"context"

	"github.com/iliyamo/cinebook/internal/logger"
)

// DevMailer writes reset links to the log instead of sending them.  It must
// only be wired outside production since the link grants account access.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error {
	logger.InfoContext(ctx, "[DEV MAIL] password reset",
		"to", toEmail,
		"name", toName,
		"reset_url", resetURL,
	)
	return nil
}

// Discard accepts and drops every message.  Production falls back to it
// when no mail provider is configured, so reset links are never logged.
type Discard struct{}

func (Discard) SendPasswordReset(ctx context.Context, toEmail, _, _ string) error {
	logger.WarnContext(ctx, "no mail provider configured, password reset email dropped", "to", toEmail)
	return nil
}
