// Package mailer defines the outgoing email model and the transports that
// deliver it.
//
// An Email carries an HTML body, an optional plain text alternative and
// inline attachments referenced from the HTML by Content-ID (cid:logo).
// Transports implement Sender: the smtp subpackage speaks SMTP with
// STARTTLS, the resend subpackage uses the Resend HTTP API.
//
// Build renders an Email into a MIME message with the layout
//
//	multipart/alternative
//	├── text/plain            (only when Text is set)
//	└── multipart/related
//	    ├── text/html
//	    └── image/* ...       (one part per inline attachment)
//
// Renderer substitutes {{name}} placeholders in HTML templates loaded from an
// fs.FS and caches parsed templates.
package mailer
