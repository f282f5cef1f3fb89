// Package resend delivers mailer.Email messages through the Resend API.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/sensiq/coldmail/pkg/mailer"
)

// Config holds Resend credentials.
type Config struct {
	APIKey string `env:"RESEND_API_KEY"`
}

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	client *resend.Client
}

// New creates a new Resend sender.
func New(cfg Config) *Sender {
	return &Sender{client: resend.NewClient(cfg.APIKey)}
}

// Send implements mailer.Sender. Inline attachments keep their content id,
// so cid: references in the HTML resolve the same way as over SMTP.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	req := &resend.SendEmailRequest{
		From:        email.From,
		To:          email.To,
		Subject:     email.Subject,
		Html:        email.HTML,
		Text:        email.Text,
		ReplyTo:     email.ReplyTo,
		Headers:     email.Headers,
		Attachments: attachments(email.Inline),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}

func attachments(inline []mailer.Attachment) []*resend.Attachment {
	if len(inline) == 0 {
		return nil
	}
	out := make([]*resend.Attachment, len(inline))
	for i, a := range inline {
		out[i] = &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
			ContentId:   a.ContentID,
		}
	}
	return out
}
