package content

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FallbackName is used when no name can be derived from an address.
const FallbackName = "Valued Professional"

// DisplayName derives a greeting name from an email address: the local part
// without digits, with '.', '_' and '-' as word breaks, cut to the first two
// words that contain a letter. Each word gets an upper-case first letter and
// a lower-case rest.
func DisplayName(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")

	local = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsDigit(r):
			return -1
		case r == '.' || r == '_' || r == '-':
			return ' '
		}
		return r
	}, local)

	words := slices.DeleteFunc(strings.Fields(local), func(w string) bool {
		return strings.IndexFunc(w, unicode.IsLetter) < 0
	})
	if len(words) == 0 {
		return FallbackName
	}
	if len(words) > 2 {
		words = words[:2]
	}

	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	_, n := utf8.DecodeRuneInString(w)
	return cases.Upper(language.English).String(w[:n]) + cases.Lower(language.English).String(w[n:])
}

// Personalize replaces the recipient placeholders in s with name.
func Personalize(s, name string) string {
	return strings.NewReplacer(
		"{{recipient_name}}", name,
		RecipientPlaceholder, name,
	).Replace(s)
}
