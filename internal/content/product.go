package content

import (
	"context"
	"sync"

	"github.com/sensiq/coldmail/pkg/sanitizer"
)

// ProductProvider renders the product announcement. The output does not
// depend on the request, so it is rendered once and reused.
type ProductProvider struct {
	catalog   *Catalog
	templates *Templates

	once  sync.Once
	email *Email
	err   error
}

// NewProductProvider creates the product provider.
func NewProductProvider(c *Catalog) *ProductProvider {
	return &ProductProvider{catalog: c, templates: NewTemplates(c)}
}

// Compose implements Provider.
func (p *ProductProvider) Compose(_ context.Context, _ Request) (*Email, error) {
	p.once.Do(func() {
		body, err := p.templates.Product()
		if err != nil {
			p.err = err
			return
		}
		p.email = &Email{
			Subject: p.catalog.Product.Subject,
			HTML:    body,
			Text:    sanitizer.PlainText(body),
		}
	})
	if p.err != nil {
		return nil, p.err
	}
	out := *p.email
	return &out, nil
}
