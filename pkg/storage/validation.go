package storage

import (
	"fmt"
	"mime"
	"path"
	"slices"
	"strings"
)

// Error codes for FileValidationError.
const (
	ErrCodeFileTooLarge     = "file_too_large"
	ErrCodeEmptyFile        = "empty_file"
	ErrCodeInvalidExtension = "invalid_extension"
)

// FileValidationError is returned when an upload fails a ValidationRule.
type FileValidationError struct {
	Code    string
	Message string
}

func (e *FileValidationError) Error() string {
	return e.Message
}

// ValidationRule checks an upload before it is stored.
type ValidationRule interface {
	Validate(filename string, size int64) error
}

// RuleFunc adapts a function to ValidationRule.
type RuleFunc func(filename string, size int64) error

func (f RuleFunc) Validate(filename string, size int64) error {
	return f(filename, size)
}

// Validate runs rules in order and returns the first failure.
func Validate(filename string, size int64, rules ...ValidationRule) error {
	for _, rule := range rules {
		if err := rule.Validate(filename, size); err != nil {
			return err
		}
	}
	return nil
}

// MaxSize rejects files larger than limit bytes.
func MaxSize(limit int64) ValidationRule {
	return RuleFunc(func(_ string, size int64) error {
		if size > limit {
			return &FileValidationError{
				Code:    ErrCodeFileTooLarge,
				Message: fmt.Sprintf("file size %d exceeds limit of %d bytes", size, limit),
			}
		}
		return nil
	})
}

// NotEmpty rejects empty files.
func NotEmpty() ValidationRule {
	return RuleFunc(func(_ string, size int64) error {
		if size <= 0 {
			return &FileValidationError{Code: ErrCodeEmptyFile, Message: "file is empty"}
		}
		return nil
	})
}

// AllowedExtensions accepts only the listed extensions, compared case-insensitively.
func AllowedExtensions(exts ...string) ValidationRule {
	allowed := make([]string, len(exts))
	for i, e := range exts {
		allowed[i] = strings.ToLower(e)
	}
	return RuleFunc(func(filename string, _ int64) error {
		ext := strings.ToLower(path.Ext(filename))
		if ext == "" || !slices.Contains(allowed, ext) {
			return &FileValidationError{
				Code:    ErrCodeInvalidExtension,
				Message: fmt.Sprintf("file type %q not allowed, use one of %s", ext, strings.Join(allowed, ", ")),
			}
		}
		return nil
	})
}

// ContentType derives a MIME type from the file extension.
func ContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	}
	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
