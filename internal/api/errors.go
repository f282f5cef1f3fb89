package api

import (
	"errors"
	"net/http"

	"github.com/sensiq/coldmail/internal"
	"github.com/sensiq/coldmail/internal/assets"
	"github.com/sensiq/coldmail/internal/batch"
	"github.com/sensiq/coldmail/internal/campaign"
	"github.com/sensiq/coldmail/internal/content"
	"github.com/sensiq/coldmail/internal/tracker"
	"github.com/sensiq/coldmail/middlewares"
	"github.com/sensiq/coldmail/pkg/mailer"
	"github.com/sensiq/coldmail/pkg/storage"
)

// User-facing messages.
const (
	msgJSONRequired     = "Invalid request format. JSON required."
	msgNoData           = "No data provided"
	msgMissingParams    = "Missing required parameters"
	msgEmailRequired    = "Email address is required"
	msgInvalidEmail     = "Invalid email address"
	msgNoFilePart       = "No file part in the request"
	msgNoFileSelected   = "No file selected"
	msgInvalidFormat    = "Invalid file format. Please upload an Excel (.xlsx, .xls) or CSV file"
	msgFileTooLarge     = "File is too large. The limit is 16MB"
	msgMissingColumn    = "Column not found in the uploaded file"
	msgInvalidJobID     = "Invalid job ID"
	msgJobNotFound      = "Job not found"
	msgAlreadyStarted   = "Job has already been started"
	msgNotRunning       = "Job is not running"
	msgQueueFull        = "Too many jobs in progress. Please try again later."
	msgTimeout          = "Operation timed out. Please try again."
	msgGenerationFailed = "Failed to generate email content"
	msgSendFailed       = "Failed to send email. Check server logs for details."
	msgAssetsMissing    = "Required email images are missing"
	msgFileNotFound     = "File not found"
)

// ErrorHandler maps domain errors to HTTP errors and renders them with
// internal.DefaultErrorHandler.
func ErrorHandler(c internal.Context, err error) error {
	return internal.DefaultErrorHandler(c, Classify(err))
}

// Classify converts err into an *internal.HTTPError when it matches a known
// domain error. Unknown errors are returned unchanged and render as 500.
func Classify(err error) error {
	if internal.AsHTTPError(err) != nil {
		return err
	}

	cause := internal.WithError(err)

	var verr *storage.FileValidationError
	var maxErr *http.MaxBytesError

	switch {
	case middlewares.IsTimeoutError(err):
		return internal.ErrGatewayTimeout(msgTimeout, cause)

	case errors.Is(err, content.ErrInvalidRequest):
		return internal.ErrBadRequest(err.Error(), cause)
	case errors.Is(err, campaign.ErrInvalidRecipient), errors.Is(err, mailer.ErrInvalidAddress):
		return internal.ErrBadRequest(msgInvalidEmail, cause)

	case errors.Is(err, batch.ErrMissingColumn):
		return internal.ErrBadRequest(msgMissingColumn, cause)
	case errors.Is(err, batch.ErrInvalidFormat), errors.Is(err, batch.ErrNoHeader):
		return internal.ErrBadRequest(msgInvalidFormat, cause)
	case errors.As(err, &maxErr):
		return internal.ErrRequestTooLarge(msgFileTooLarge, cause)
	case errors.As(err, &verr):
		switch verr.Code {
		case storage.ErrCodeFileTooLarge:
			return internal.ErrRequestTooLarge(msgFileTooLarge, cause)
		case storage.ErrCodeInvalidExtension:
			return internal.ErrBadRequest(msgInvalidFormat, cause)
		}
		return internal.ErrBadRequest(verr.Message, cause)

	case errors.Is(err, tracker.ErrNotFound):
		return internal.ErrNotFound(msgJobNotFound, cause)
	case errors.Is(err, tracker.ErrAlreadyStarted):
		return internal.ErrConflict(msgAlreadyStarted, cause)
	case errors.Is(err, tracker.ErrNotRunning):
		return internal.ErrConflict(msgNotRunning, cause)
	case errors.Is(err, tracker.ErrQueueFull):
		return internal.ErrServiceUnavailable(msgQueueFull, cause)

	case errors.Is(err, content.ErrGeneration):
		return internal.ErrInternal(msgGenerationFailed, cause)
	case errors.Is(err, mailer.ErrSendFailed):
		return internal.ErrInternal(msgSendFailed, cause)
	case errors.Is(err, assets.ErrMissing):
		return internal.ErrInternal(msgAssetsMissing, cause)
	}

	return err
}
