package content

import (
	"context"
	"errors"
	"strings"

	"github.com/sensiq/coldmail/internal/vector"
)

// Email types.
const (
	TypeRegular  = "regular"
	TypeProduct  = "product"
	TypeFollowup = "followup"
)

// Request defaults.
const (
	DefaultEmailType     = TypeRegular
	DefaultRecipientType = "municipality"
	DefaultCountry       = "UAE"
	DefaultLanguage      = "English"
)

// RecipientPlaceholder is left in bodies rendered without a recipient.
const RecipientPlaceholder = "[recipient_name]"

var (
	// ErrInvalidRequest is the parent of every request validation error.
	ErrInvalidRequest   = errors.New("content: invalid request")
	ErrUnknownEmailType = wrapInvalid("unknown email type")
	ErrStageRequired    = wrapInvalid("Follow-up stage is required for follow-up emails")
	ErrInvalidStage     = wrapInvalid("invalid follow-up stage")

	ErrGeneration = errors.New("content: generation failed")
	ErrCatalog    = errors.New("content: invalid catalog")
)

type invalidError struct{ msg string }

func (e *invalidError) Error() string { return e.msg }

func (e *invalidError) Is(target error) bool { return target == ErrInvalidRequest }

func wrapInvalid(msg string) error { return &invalidError{msg: msg} }

// Request selects the email to build. Empty fields take the defaults above,
// except FollowupStage which is required for follow-ups.
type Request struct {
	EmailType     string `json:"emailType"`
	RecipientType string `json:"recipientType"`
	Country       string `json:"country"`
	Language      string `json:"language"`
	FollowupStage string `json:"followupStage"`
}

// Normalize fills empty fields with defaults and lower-cases the keys.
func (r Request) Normalize() Request {
	r.EmailType = strings.ToLower(strings.TrimSpace(r.EmailType))
	if r.EmailType == "" {
		r.EmailType = DefaultEmailType
	}
	r.RecipientType = strings.ToLower(strings.TrimSpace(r.RecipientType))
	if r.RecipientType == "" {
		r.RecipientType = DefaultRecipientType
	}
	r.Country = strings.TrimSpace(r.Country)
	if r.Country == "" {
		r.Country = DefaultCountry
	}
	r.Language = strings.TrimSpace(r.Language)
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	r.FollowupStage = strings.ToLower(strings.TrimSpace(r.FollowupStage))
	return r
}

// Email is the generated content. Text is the plain-text alternative.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

// Provider produces an Email for a normalized Request.
type Provider interface {
	Compose(ctx context.Context, req Request) (*Email, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (*Email, error)

func (f ProviderFunc) Compose(ctx context.Context, req Request) (*Email, error) {
	return f(ctx, req)
}

// Completer is the language model used by the regular provider.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Retriever supplies background knowledge for the regular provider.
type Retriever interface {
	Retrieve(ctx context.Context) (vector.Knowledge, error)
}
