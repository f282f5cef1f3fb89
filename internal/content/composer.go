package content

import (
	"context"
	"fmt"
)

// Composer dispatches a Request to the provider registered for its email
// type.
type Composer struct {
	catalog   *Catalog
	providers map[string]Provider
}

// NewComposer registers the product and follow-up providers for c plus the
// given regular provider. A nil regular provider leaves regular emails
// unsupported.
func NewComposer(c *Catalog, regular Provider, extra ...ComposerOption) *Composer {
	m := &Composer{catalog: c, providers: map[string]Provider{
		TypeProduct:  NewProductProvider(c),
		TypeFollowup: NewFollowupProvider(c, nil),
	}}
	if regular != nil {
		m.providers[TypeRegular] = regular
	}
	for _, opt := range extra {
		opt(m)
	}
	return m
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithProvider registers p for emailType, replacing any existing provider.
func WithProvider(emailType string, p Provider) ComposerOption {
	return func(c *Composer) {
		c.providers[emailType] = p
	}
}

// Catalog returns the catalog the composer renders from.
func (c *Composer) Catalog() *Catalog {
	return c.catalog
}

// Compose normalizes req and builds the email.
func (c *Composer) Compose(ctx context.Context, req Request) (*Email, error) {
	req = req.Normalize()
	p, ok := c.providers[req.EmailType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEmailType, req.EmailType)
	}
	return p.Compose(ctx, req)
}

// Validate reports request errors that can be detected without generating
// anything. It is used before a bulk job is queued.
func (c *Composer) Validate(req Request) error {
	req = req.Normalize()
	if _, ok := c.providers[req.EmailType]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEmailType, req.EmailType)
	}
	if req.EmailType == TypeFollowup {
		if req.FollowupStage == "" {
			return ErrStageRequired
		}
		if _, ok := c.catalog.Stage(req.FollowupStage); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidStage, req.FollowupStage)
		}
	}
	return nil
}
