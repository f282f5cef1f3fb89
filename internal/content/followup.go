package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sensiq/coldmail/pkg/sanitizer"
)

// FollowupProvider renders the staged follow-up emails.
type FollowupProvider struct {
	catalog   *Catalog
	templates *Templates
	log       *slog.Logger
}

// NewFollowupProvider creates the follow-up provider.
func NewFollowupProvider(c *Catalog, log *slog.Logger) *FollowupProvider {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &FollowupProvider{catalog: c, templates: NewTemplates(c), log: log}
}

// Compose implements Provider. The stage is required; country and recipient
// fall back to the catalog defaults.
func (p *FollowupProvider) Compose(ctx context.Context, req Request) (*Email, error) {
	if req.FollowupStage == "" {
		return nil, ErrStageRequired
	}
	stage, ok := p.catalog.Stage(req.FollowupStage)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, req.FollowupStage)
	}

	country, ok := p.catalog.Country(req.Country)
	if !ok {
		p.log.WarnContext(ctx, "unknown country, using default",
			slog.String("country", req.Country), slog.String("default", country.Key))
	}
	recipient, ok := p.catalog.Recipient(req.RecipientType)
	if !ok {
		p.log.WarnContext(ctx, "unknown recipient type, using default",
			slog.String("recipient_type", req.RecipientType), slog.String("default", recipient.Key))
	}

	intro := p.catalog.Followup.Intros[recipient.Key][stage.Key]
	fc := p.catalog.Followup.Content[country.Key][recipient.Key]

	body, err := p.templates.Followup(intro, fc, stage.MainContent)
	if err != nil {
		return nil, err
	}

	subject := stage.SubjectPrefix + country.Fill(p.catalog.Followup.Subject)
	return &Email{
		Subject: strings.TrimSpace(subject),
		HTML:    body,
		Text:    sanitizer.PlainText(body),
	}, nil
}
