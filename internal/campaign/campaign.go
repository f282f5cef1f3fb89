// Package campaign turns generated content into deliverable messages. It is
// shared by the single-send API, the CLI and the bulk job runner.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sensiq/coldmail/internal/content"
	"github.com/sensiq/coldmail/pkg/mailer"
)

var ErrInvalidRecipient = errors.New("campaign: invalid recipient")

// structureLines is how much of a built message the diagnostics return.
const structureLines = 20

// Composer generates email content.
type Composer interface {
	Compose(ctx context.Context, req content.Request) (*content.Email, error)
	Validate(req content.Request) error
}

// Images supplies the inline images.
type Images interface {
	Inline() ([]mailer.Attachment, error)
	InlineAvailable() []mailer.Attachment
	EmbedDataURLs(html string) string
	Preflight() error
}

// Service builds, previews and sends emails.
type Service struct {
	composer Composer
	images   Images
	mailer   *mailer.Mailer
	log      *slog.Logger
}

// New creates a Service.
func New(composer Composer, images Images, m *mailer.Mailer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{composer: composer, images: images, mailer: m, log: log}
}

// Preview is the rendered email as shown to an operator.
type Preview struct {
	Subject string
	Body    string
}

// Preview renders req for a browser: cid: images become data URLs and the
// recipient placeholder is filled from to, or left visible when to is empty.
func (s *Service) Preview(ctx context.Context, req content.Request, to string) (*Preview, error) {
	email, err := s.composer.Compose(ctx, req)
	if err != nil {
		return nil, err
	}

	name := content.RecipientPlaceholder
	if strings.TrimSpace(to) != "" {
		name = content.DisplayName(to)
	}
	body := content.Personalize(email.HTML, name)
	return &Preview{Subject: email.Subject, Body: s.images.EmbedDataURLs(body)}, nil
}

// Build composes req for the recipient to and attaches the inline images.
func (s *Service) Build(ctx context.Context, req content.Request, to string) (*mailer.Email, error) {
	addr, err := mailer.ParseAddress(to)
	if err != nil {
		return nil, errors.Join(ErrInvalidRecipient, err)
	}

	email, err := s.composer.Compose(ctx, req)
	if err != nil {
		return nil, err
	}
	inline, err := s.images.Inline()
	if err != nil {
		return nil, err
	}

	name := content.DisplayName(addr)
	return &mailer.Email{
		To:      []string{addr},
		Subject: email.Subject,
		HTML:    content.Personalize(email.HTML, name),
		Text:    content.Personalize(email.Text, name),
		Inline:  inline,
	}, nil
}

// Send builds and delivers one email.
func (s *Service) Send(ctx context.Context, req content.Request, to string) error {
	msg, err := s.Build(ctx, req, to)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "email sent",
		slog.String("to", msg.To[0]),
		slog.String("email_type", req.Normalize().EmailType))
	return nil
}

// Validate checks req without generating content.
func (s *Service) Validate(req content.Request) error {
	return s.composer.Validate(req)
}

// Preflight implements the job dispatcher check run before a bulk send.
func (s *Service) Preflight(context.Context) error {
	return s.images.Preflight()
}

// Dispatch implements the job dispatcher row send.
func (s *Service) Dispatch(ctx context.Context, req content.Request, to string) error {
	return s.Send(ctx, req, to)
}

// Diagnostic describes a message built for inspection only.
type Diagnostic struct {
	Structure              []string
	ProductImageReferenced bool
	BodyExcerpt            string
}

// Test addresses used by the diagnostics.
const (
	diagnosticAddress = "test@example.com"
	diagnosticName    = "Test User"
)

// TestStructure builds the product email and returns the head of the MIME
// message.
func (s *Service) TestStructure(ctx context.Context) (*Diagnostic, error) {
	email, err := s.composer.Compose(ctx, content.Request{EmailType: content.TypeProduct})
	if err != nil {
		return nil, err
	}
	return s.diagnose(email, "Test Email Structure")
}

// TestRegular generates a regular email for a sample recipient and returns
// the head of the MIME message plus an excerpt of the body.
func (s *Service) TestRegular(ctx context.Context) (*Diagnostic, error) {
	email, err := s.composer.Compose(ctx, content.Request{
		EmailType:     content.TypeRegular,
		RecipientType: content.DefaultRecipientType,
		Country:       content.DefaultCountry,
		Language:      content.DefaultLanguage,
	})
	if err != nil {
		return nil, err
	}
	email.HTML = content.Personalize(email.HTML, diagnosticName)
	email.Text = content.Personalize(email.Text, diagnosticName)

	d, err := s.diagnose(email, email.Subject)
	if err != nil {
		return nil, err
	}
	d.ProductImageReferenced = strings.Contains(email.HTML, "cid:"+content.CIDProduct)
	d.BodyExcerpt = excerpt(email.HTML, 1000)
	return d, nil
}

func (s *Service) diagnose(email *content.Email, subject string) (*Diagnostic, error) {
	msg := &mailer.Email{
		From:    diagnosticAddress,
		To:      []string{diagnosticAddress},
		Subject: subject,
		HTML:    email.HTML,
		Text:    email.Text,
		Inline:  s.images.InlineAvailable(),
	}
	raw, err := mailer.Build(msg)
	if err != nil {
		return nil, fmt.Errorf("campaign: build diagnostic message: %w", err)
	}
	return &Diagnostic{Structure: head(raw, structureLines)}, nil
}

func head(raw []byte, n int) []string {
	lines := strings.SplitN(string(raw), "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// excerpt cuts s to at most n bytes on a rune boundary and marks the cut.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s + "..."
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
