// Package api exposes the campaign and job tracker over JSON HTTP routes.
package api

import (
	"context"

	"dario.cat/mergo"

	"github.com/sensiq/coldmail/internal/assets"
	"github.com/sensiq/coldmail/internal/campaign"
	"github.com/sensiq/coldmail/internal/content"
	"github.com/sensiq/coldmail/internal/journal"
)

// Campaign composes and sends single emails.
type Campaign interface {
	Preview(ctx context.Context, req content.Request, to string) (*campaign.Preview, error)
	Send(ctx context.Context, req content.Request, to string) error
	Validate(req content.Request) error
	TestStructure(ctx context.Context) (*campaign.Diagnostic, error)
	TestRegular(ctx context.Context) (*campaign.Diagnostic, error)
}

// Deliveries lists journaled row outcomes.
type Deliveries interface {
	List(ctx context.Context, jobID string) ([]journal.Delivery, error)
}

// Images opens stored image assets by file name.
type Images interface {
	Open(name string) (assets.Image, error)
}

var defaultRequest = content.Request{
	EmailType:     content.DefaultEmailType,
	RecipientType: content.DefaultRecipientType,
	Country:       content.DefaultCountry,
	Language:      content.DefaultLanguage,
}

// withDefaults fills empty request fields. FollowupStage has no default.
func withDefaults(req content.Request) (content.Request, error) {
	if err := mergo.Merge(&req, defaultRequest); err != nil {
		return req, err
	}
	return req, nil
}
