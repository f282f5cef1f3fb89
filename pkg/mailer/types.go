package mailer

import (
	"fmt"
	"net/mail"
	"strings"
)

// Email is a fully prepared message ready for a transport.
type Email struct {
	Headers map[string]string // Custom headers
	Subject string
	HTML    string
	Text    string // Optional plain text alternative
	From    string // Overrides the transport's default sender
	ReplyTo string
	To      []string
	Inline  []Attachment // Parts referenced from HTML via cid:
}

// Attachment is an inline MIME part.
type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string // Referenced as cid:<ContentID>
	Content     []byte
}

// Validate checks the fields every transport requires.
func (e *Email) Validate() error {
	if len(e.To) == 0 {
		return ErrNoRecipient
	}
	for _, to := range e.To {
		if _, err := ParseAddress(to); err != nil {
			return err
		}
	}
	if strings.TrimSpace(e.Subject) == "" {
		return ErrNoSubject
	}
	if strings.TrimSpace(e.HTML) == "" {
		return ErrNoContent
	}
	return nil
}

// ParseAddress parses a single RFC 5322 address and returns the bare
// addr-spec (user@domain).
func ParseAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	return addr.Address, nil
}

// Recipient formats a name and email into RFC 5322 address format.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}
