package mailer

import "errors"

var (
	// ErrNoRecipient indicates no recipient was specified.
	ErrNoRecipient = errors.New("mailer: email must have at least one recipient")

	// ErrInvalidAddress indicates a recipient or sender address failed to parse.
	ErrInvalidAddress = errors.New("mailer: invalid email address")

	// ErrNoSubject indicates no subject was provided.
	ErrNoSubject = errors.New("mailer: email must have a subject")

	// ErrNoContent indicates no HTML content was provided.
	ErrNoContent = errors.New("mailer: email must have HTML content")

	// ErrTemplateNotFound indicates the template file was not found.
	ErrTemplateNotFound = errors.New("mailer: template not found")

	// ErrBuildFailed indicates the MIME message could not be assembled.
	ErrBuildFailed = errors.New("mailer: failed to build message")

	// ErrSendFailed indicates the transport rejected the message.
	ErrSendFailed = errors.New("mailer: failed to send email")
)
