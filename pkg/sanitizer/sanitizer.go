// Package sanitizer holds the bluemonday policies applied to generated mail
// HTML and the plain-text fallback derived from it.
package sanitizer

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	emailOnce   sync.Once
	emailPolicy *bluemonday.Policy
	strict      = bluemonday.StrictPolicy()

	dataImage  = regexp.MustCompile(`^data:image/(png|jpe?g|gif);base64,[A-Za-z0-9+/=]+$`)
	cidRef     = regexp.MustCompile(`^cid:[A-Za-z0-9._-]+$`)
	blockTags  = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/h[1-6]|/li|/tr)\b[^>]*>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Email returns the policy for generated email bodies. It keeps layout
// markup, inline styles and class names, links with http(s) or mailto
// targets, and images whose source is a cid: reference or an inline data URL.
func Email() *bluemonday.Policy {
	emailOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("div", "span", "center", "hr", "h1", "h2", "h3", "h4")
		p.AllowAttrs("class").Globally()
		p.AllowAttrs("style").Globally()
		p.AllowStyling()
		p.AllowURLSchemes("http", "https", "mailto", "cid")
		p.AllowAttrs("src").Matching(regexp.MustCompile(dataImage.String() + "|" + cidRef.String())).OnElements("img")
		p.AllowAttrs("alt", "width", "height").OnElements("img")
		p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
		p.RequireNoFollowOnLinks(false)
		p.AllowDataURIImages()
		emailPolicy = p
	})
	return emailPolicy
}

// EmailHTML sanitizes a generated email fragment.
func EmailHTML(s string) string {
	return Email().Sanitize(s)
}

// PlainText strips all markup, keeping one line per block element.
func PlainText(s string) string {
	s = blockTags.ReplaceAllString(s, "$0\n")
	s = html.UnescapeString(strict.Sanitize(s))

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}
