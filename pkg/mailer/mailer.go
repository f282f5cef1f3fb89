package mailer

import (
	"context"
	"errors"
	"strings"
)

// Config holds sender identity shared by all transports.
type Config struct {
	SenderEmail string `env:"SENDER_EMAIL" envDefault:"rebecca@sensiq.ae"`
	SenderName  string `env:"SENDER_NAME"`
	ReplyTo     string `env:"MAILER_REPLY_TO"`
}

// From returns the formatted sender address.
func (c Config) From() string {
	return Recipient(c.SenderName, c.SenderEmail)
}

// Mailer validates messages, fills in the sender and hands them to a
// transport.
type Mailer struct {
	sender Sender
	config Config
}

// New creates a Mailer sending through sender.
func New(sender Sender, cfg Config) *Mailer {
	return &Mailer{sender: sender, config: cfg}
}

// From returns the formatted default sender address.
func (m *Mailer) From() string {
	return m.config.From()
}

// Prepare fills the sender defaults and validates email.
func (m *Mailer) Prepare(email *Email) error {
	if strings.TrimSpace(email.From) == "" {
		email.From = m.config.From()
	}
	if email.ReplyTo == "" {
		email.ReplyTo = m.config.ReplyTo
	}
	return email.Validate()
}

// Send prepares email and delivers it.
func (m *Mailer) Send(ctx context.Context, email *Email) error {
	if err := m.Prepare(email); err != nil {
		return err
	}
	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}
