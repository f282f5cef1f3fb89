package storage

// Option configures Put operations.
type Option func(*putOptions)

type putOptions struct {
	filename        string
	contentType     string
	validationRules []ValidationRule
}

func newPutOptions(key string, opts []Option) *putOptions {
	o := &putOptions{filename: key}
	for _, opt := range opts {
		opt(o)
	}
	if o.contentType == "" {
		o.contentType = ContentType(o.filename)
	}
	return o
}

// WithFilename records the original filename. Validation and content type
// detection use it instead of the key.
func WithFilename(name string) Option {
	return func(o *putOptions) {
		o.filename = name
	}
}

// WithContentType overrides the content type derived from the filename.
func WithContentType(ct string) Option {
	return func(o *putOptions) {
		o.contentType = ct
	}
}

// WithValidation adds rules checked before anything is written.
// A failing rule aborts the upload with a *FileValidationError.
func WithValidation(rules ...ValidationRule) Option {
	return func(o *putOptions) {
		o.validationRules = append(o.validationRules, rules...)
	}
}
