package content

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/sensiq/coldmail/pkg/mailer"
	"github.com/sensiq/coldmail/pkg/sanitizer"
)

//go:embed templates/*
var templatesFS embed.FS

// Template names.
const (
	layoutTemplate   = "layout.html"
	productTemplate  = "product.html"
	followupTemplate = "followup.html"
	stylesheet       = "styles.css"
)

// Content ids of the inline images referenced by the templates.
const (
	CIDLogo    = "logo"
	CIDCover   = "cover"
	CIDProduct = "product"
)

// Templates renders the embedded email documents.
type Templates struct {
	catalog  *Catalog
	renderer *mailer.Renderer
	md       goldmark.Markdown
}

// NewTemplates creates a Templates bound to c.
func NewTemplates(c *Catalog) *Templates {
	return &Templates{
		catalog:  c,
		renderer: mailer.NewRenderer(templatesFS, "templates"),
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// render fills name with vars plus the shared styles and contact details.
func (t *Templates) render(name string, vars mailer.Vars) (string, error) {
	styles, err := t.renderer.Render(stylesheet, nil)
	if err != nil {
		return "", err
	}

	c := t.catalog
	all := mailer.Vars{
		"styles":        styles,
		"company":       html.EscapeString(c.Company.Name),
		"sender_name":   html.EscapeString(c.Company.SenderName),
		"sender_title":  html.EscapeString(c.Company.SenderTitle),
		"phone":         html.EscapeString(c.Company.Phone),
		"phone_link":    c.Company.PhoneLink,
		"whatsapp":      html.EscapeString(c.Company.WhatsApp),
		"whatsapp_link": c.Links.WhatsApp,
		"website":       c.Links.Website,
		"website_label": html.EscapeString(c.Company.WebsiteLabel),
		"calendar_link": c.Links.Calendar,
		"trial_link":    c.Links.Trial,
	}
	for k, v := range vars {
		all[k] = v
	}
	return t.renderer.Render(name, all)
}

// inline renders one line of markdown to an HTML fragment without the
// paragraph wrapper.
func (t *Templates) inline(line string) string {
	var buf bytes.Buffer
	if err := t.md.Convert([]byte(line), &buf); err != nil {
		return html.EscapeString(line)
	}
	out := strings.TrimSpace(buf.String())
	out = strings.TrimPrefix(out, "<p>")
	out = strings.TrimSuffix(out, "</p>")
	return out
}

// Regular lays out generated plain text in the branded shell. Lines are
// mapped to blocks: the greeting is followed by the product showcase, ✅
// lines become feature items inside the "Why" box, the "We make it easy"
// line becomes the call-to-action box, and the link lines it replaces are
// dropped.
func (t *Templates) Regular(body string) (string, error) {
	var (
		parts   []string
		greeted bool
		boxOpen bool
	)
	closeBox := func() {
		if boxOpen {
			parts = append(parts, "</div></div>")
			boxOpen = false
		}
	}

	for _, line := range strings.Split(body, "\n") {
		p := strings.TrimSpace(line)
		if p == "" {
			continue
		}
		lower := strings.ToLower(p)

		switch {
		case !greeted && strings.HasPrefix(p, "Hi "):
			greeted = true
			parts = append(parts, textBlock(t.inline(p)), t.showcase())
		case strings.Contains(p, "Why SensIQ?") || strings.HasPrefix(p, "Why SN10"):
			closeBox()
			parts = append(parts, fmt.Sprintf(`<div class="info-box"><div class="info-box-title">%s</div><div class="info-box-content">`, t.inline(p)))
			boxOpen = true
		case strings.HasPrefix(p, "✅"):
			parts = append(parts, fmt.Sprintf(`<div class="feature-item">%s</div>`, t.inline(p)))
		case strings.Contains(p, "We make it easy"):
			closeBox()
			parts = append(parts, t.ctaBox())
		case strings.Contains(p, "Looking forward"):
			closeBox()
			parts = append(parts, `<div class="signature-box"><div class="contact-info">`, textBlock(t.inline(p)), "</div></div>")
		case strings.Contains(lower, "visit our website"):
			closeBox()
			parts = append(parts, t.websiteBox())
		case strings.HasPrefix(p, "📅"), strings.HasPrefix(p, "📱"), strings.HasPrefix(p, "🎟"):
		default:
			parts = append(parts, textBlock(t.inline(p)))
		}
	}
	closeBox()

	fragment := sanitizer.EmailHTML(strings.Join(parts, "\n"))
	return t.render(layoutTemplate, mailer.Vars{"content": fragment})
}

func textBlock(s string) string {
	return `<div class="content-text">` + s + `</div>`
}

func (t *Templates) showcase() string {
	p := t.catalog.Product
	return fmt.Sprintf(`<div class="product-showcase">
<img src="cid:%s" alt="%s Smart Sensor" class="product-image">
<h2 class="product-title">%s Smart Waste Sensor</h2>
<p class="product-subtitle">Advanced IoT-powered waste management solution</p>
</div>`, CIDProduct, html.EscapeString(p.Name), html.EscapeString(p.Name))
}

func (t *Templates) ctaBox() string {
	l := t.catalog.Links
	return fmt.Sprintf(`<div class="info-box">
<div class="info-box-title">Get Started with a Free Demo or Trial!</div>
<div class="info-box-content">
<p>We make it easy for you to explore how our solution fits your needs:</p>
<div class="cta-buttons">
<a href="%s" class="cta-link" target="_blank"><span class="cta-emoji">📅</span><span>Schedule a Meeting/Demo</span></a>
<a href="%s" class="cta-link" target="_blank"><span class="cta-emoji">📱</span><span>WhatsApp or Call Us</span></a>
<a href="%s" class="cta-link" target="_blank"><span class="cta-emoji">🎟</span><span>Request a Free Trial</span></a>
</div>
</div>
</div>`, l.Calendar, l.WhatsApp, l.Trial)
}

func (t *Templates) websiteBox() string {
	return fmt.Sprintf(`<div class="website-box">
<div class="website-text">You can also visit our website for more details:</div>
<a href="%s" class="logo-link" target="_blank"><img src="cid:%s" alt="%s Website" class="website-logo"></a>
</div>`, t.catalog.Links.Website, CIDLogo, html.EscapeString(t.catalog.Company.Name))
}

// Product renders the product announcement.
func (t *Templates) Product() (string, error) {
	p := t.catalog.Product

	var specs strings.Builder
	for _, cat := range p.Specs {
		fmt.Fprintf(&specs, `<div class="content-text"><h3 style="color: #0ef0a1;">%s</h3><ul class="spec-list">`, html.EscapeString(SpecLabel(cat.Category)))
		for _, item := range cat.Items {
			fmt.Fprintf(&specs, `<li><strong class="spec-label">%s:</strong> %s</li>`,
				html.EscapeString(SpecLabel(item.Key)), html.EscapeString(item.Value))
		}
		specs.WriteString("</ul></div>\n")
	}

	var features strings.Builder
	features.WriteString(`<ul class="spec-list">`)
	for _, f := range p.Features {
		fmt.Fprintf(&features, `<li style="color: #9ba6b7;">• %s</li>`, html.EscapeString(f))
	}
	features.WriteString("</ul>")

	return t.render(productTemplate, mailer.Vars{
		"product_name":     html.EscapeString(p.Name),
		"product_subtitle": html.EscapeString(p.Subtitle),
		"product_image":    "cid:" + CIDProduct,
		"technical_specs":  specs.String(),
		"key_features":     features.String(),
	})
}

// Followup renders the follow-up email. The recipient placeholder is kept
// for Personalize.
func (t *Templates) Followup(intro string, fc CountryFollowup, mainContent string) (string, error) {
	return t.render(followupTemplate, mailer.Vars{
		"followup_intro":           html.EscapeString(intro),
		"country_specific_content": html.EscapeString(fc.Content),
		"main_content":             t.mainContent(mainContent),
		"cta_message":              html.EscapeString(fc.CTA),
	})
}

// mainContent turns stage copy into HTML: ✅ lines become feature items,
// other lines become text blocks.
func (t *Templates) mainContent(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "✅"):
			parts = append(parts, fmt.Sprintf(`<div class="feature-item">%s</div>`, html.EscapeString(line)))
		default:
			parts = append(parts, textBlock(html.EscapeString(line)))
		}
	}
	return strings.Join(parts, "\n")
}
