package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

// ErrNotConfigured is returned by MailerSendClient when it lacks an API key
// or sender address.
var ErrNotConfigured = errors.New("mailersend not configured")

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from:    mailersend.From{Name: fromName, Email: fromEmail},
	}
	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

// Enabled reports whether the client has credentials to send.
func (m *MailerSendClient) Enabled() bool { return m.enabled }

func (m *MailerSendClient) SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error {
	if !m.enabled {
		return ErrNotConfigured
	}
	subject, text, html := resetMessage(toName, resetURL)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	msg.SetText(text)
	msg.SetHTML(html)

	if _, err := m.client.Email.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailersend send: %w", err)
	}
	return nil
}

func resetMessage(name, resetURL string) (subject, text, html string) {
	subject = "Reset your Cinebook password"
	text = fmt.Sprintf("Hi %s,\n\nUse this link to choose a new password: %s\n\nThe link expires in one hour. If you did not ask for it, ignore this email.", name, resetURL)
	html = fmt.Sprintf(`
		<h2>Password reset</h2>
		<p>Hi %s,</p>
		<p><a href="%s">Choose a new password</a></p>
		<p>The link expires in one hour. If you did not ask for it, ignore this email.</p>
	`, name, resetURL)
	return subject, text, html
}
