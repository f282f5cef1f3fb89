package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const base64LineLength = 76

// Build renders email as an RFC 5322 message. email.From must be set.
func Build(email *Email) ([]byte, error) {
	return build(email, time.Now())
}

func build(email *Email, now time.Time) ([]byte, error) {
	from, err := mail.ParseAddress(email.From)
	if err != nil {
		return nil, fmt.Errorf("%w: from %q: %v", ErrBuildFailed, email.From, err)
	}

	var buf bytes.Buffer
	alt := multipart.NewWriter(&buf)

	writeHeader(&buf, "From", from.String())
	writeHeader(&buf, "To", strings.Join(email.To, ", "))
	if email.ReplyTo != "" {
		writeHeader(&buf, "Reply-To", email.ReplyTo)
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	writeHeader(&buf, "Date", now.Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", messageID(from.Address))
	writeHeader(&buf, "MIME-Version", "1.0")

	keys := make([]string, 0, len(email.Headers))
	for k := range email.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeHeader(&buf, k, email.Headers[k])
	}

	writeHeader(&buf, "Content-Type", "multipart/alternative; boundary="+alt.Boundary())
	buf.WriteString("\r\n")

	if email.Text != "" {
		if err := writeQuotedPart(alt, "text/plain; charset=utf-8", email.Text); err != nil {
			return nil, err
		}
	}

	related, err := buildRelated(email)
	if err != nil {
		return nil, err
	}
	part, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"multipart/related; boundary=" + related.boundary},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	if _, err := part.Write(related.body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	if err := alt.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	return buf.Bytes(), nil
}

type relatedPart struct {
	boundary string
	body     []byte
}

// buildRelated renders the HTML body and its inline images into a
// standalone multipart/related body.
func buildRelated(email *Email) (*relatedPart, error) {
	var buf bytes.Buffer
	rel := multipart.NewWriter(&buf)

	if err := writeQuotedPart(rel, "text/html; charset=utf-8", email.HTML); err != nil {
		return nil, err
	}

	for _, a := range email.Inline {
		contentType := a.ContentType
		if contentType == "" {
			contentType = mime.TypeByExtension(extension(a.Filename))
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		part, err := rel.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", contentType, a.Filename)},
			"Content-Transfer-Encoding": {"base64"},
			"Content-ID":                {"<" + a.ContentID + ">"},
			"Content-Disposition":       {fmt.Sprintf("inline; filename=%q", a.Filename)},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
		}
		if err := writeBase64(part, a.Content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
		}
	}

	if err := rel.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	return &relatedPart{boundary: rel.Boundary(), body: buf.Bytes()}, nil
}

func writeQuotedPart(w *multipart.Writer, contentType, body string) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := io.WriteString(qp, body); err != nil {
		return fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	if err := qp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	return nil
}

func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > base64LineLength {
		if _, err := io.WriteString(w, encoded[:base64LineLength]+"\r\n"); err != nil {
			return err
		}
		encoded = encoded[base64LineLength:]
	}
	_, err := io.WriteString(w, encoded+"\r\n")
	return err
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndexByte(from, '@'); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return "<" + uuid.NewString() + "@" + domain + ">"
}

func extension(filename string) string {
	if dot := strings.LastIndexByte(filename, '.'); dot >= 0 {
		return strings.ToLower(filename[dot:])
	}
	return ""
}
