package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sensiq/coldmail/internal/vector"
)

// RegularProvider generates the cold email introduction with a language model.
type RegularProvider struct {
	catalog   *Catalog
	templates *Templates
	llm       Completer
	retriever Retriever
	log       *slog.Logger
}

// RegularOption configures the regular provider.
type RegularOption func(*RegularProvider)

// WithRetriever grounds the prompt in knowledge-base text.
func WithRetriever(r Retriever) RegularOption {
	return func(p *RegularProvider) {
		p.retriever = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RegularOption {
	return func(p *RegularProvider) {
		if l != nil {
			p.log = l
		}
	}
}

// NewRegularProvider creates the regular provider.
func NewRegularProvider(c *Catalog, llm Completer, opts ...RegularOption) *RegularProvider {
	p := &RegularProvider{
		catalog:   c,
		templates: NewTemplates(c),
		llm:       llm,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Compose implements Provider. Retrieval failures degrade to a prompt
// without background; model failures are returned as ErrGeneration.
func (p *RegularProvider) Compose(ctx context.Context, req Request) (*Email, error) {
	recipient, ok := p.catalog.Recipient(req.RecipientType)
	if !ok {
		p.log.WarnContext(ctx, "unknown recipient type, using default",
			slog.String("recipient_type", req.RecipientType),
			slog.String("default", recipient.Key))
	}
	country, ok := p.catalog.Country(req.Country)
	if !ok {
		p.log.WarnContext(ctx, "unknown country, using default",
			slog.String("country", req.Country),
			slog.String("default", country.Key))
	}

	var knowledge vector.Knowledge
	if p.retriever != nil {
		k, err := p.retriever.Retrieve(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.log.WarnContext(ctx, "knowledge retrieval failed", slog.Any("error", err))
		} else {
			knowledge = k
		}
	}

	prompt := BuildPrompt(p.catalog, recipient, country, req.Language, knowledge)
	raw, err := p.llm.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	subject, body := ParseCompletion(raw, p.catalog.Regular.Subject)
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: empty email body", ErrGeneration)
	}

	htmlBody, err := p.templates.Regular(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	p.log.DebugContext(ctx, "regular email generated",
		slog.String("recipient_type", recipient.Key),
		slog.String("country", country.Key),
		slog.String("language", req.Language),
		slog.Int("body_lines", strings.Count(body, "\n")+1))

	return &Email{Subject: subject, HTML: htmlBody, Text: body}, nil
}
