// Package mail composes and delivers outbound email.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ResetSubject is the subject line for password-reset mail.
const ResetSubject = "Password Reset Request"

// ResetBody renders the body of a password-reset email pointing at resetURL.
func ResetBody(resetURL string) string {
	return fmt.Sprintf(`To reset your password, visit the following link:
%s

If you did not make this request then simply ignore this email and no changes will be made.
`, resetURL)
}

// SMTPMailer sends mail through a plain-auth SMTP relay. There is no retry;
// a failed delivery is the caller's to log and drop.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer constructs an SMTPMailer.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

// Send delivers one message to a single recipient.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them, for local
// development without SMTP credentials.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs the message instead of delivering it.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("outbound email (log only; configure SMTP for real delivery)")
	return nil
}
