package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUpstream      = errors.New("vector: upstream request failed")
	ErrIndexNotFound = errors.New("vector: index not found")
	ErrNotReady      = errors.New("vector: index not ready")
	ErrDimension     = errors.New("vector: embedding dimension mismatch")
)

// Config holds Pinecone settings.
type Config struct {
	APIKey     string        `env:"PINECONE_API_KEY,required,notEmpty"`
	ControlURL string        `env:"PINECONE_CONTROL_URL" envDefault:"https://api.pinecone.io"`
	APIVersion string        `env:"PINECONE_API_VERSION" envDefault:"2025-04"`
	Index      string        `env:"PINECONE_INDEX" envDefault:"components-db"`
	Dimension  int           `env:"PINECONE_DIMENSION" envDefault:"384"`
	Metric     string        `env:"PINECONE_METRIC" envDefault:"cosine"`
	Cloud      string        `env:"PINECONE_CLOUD" envDefault:"aws"`
	Region     string        `env:"PINECONE_REGION" envDefault:"us-east-1"`
	EmbedModel string        `env:"PINECONE_EMBED_MODEL" envDefault:"llama-text-embed-v2"`
	Timeout    time.Duration `env:"PINECONE_TIMEOUT" envDefault:"30s"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vector: pinecone status %d: %s", e.Status, e.Body)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUpstream || (target == ErrIndexNotFound && e.Status == http.StatusNotFound)
}

// Client is a minimal Pinecone REST client.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a Client.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) controlURL(path string) string {
	return strings.TrimRight(c.cfg.ControlURL, "/") + path
}

// do sends a JSON request and decodes a JSON response into out when out is
// not nil.
func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	reqID := uuid.NewString()
	start := time.Now()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("vector: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("vector: build request: %w", err)
	}
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Pinecone-API-Version", c.cfg.APIVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.ErrorContext(ctx, "vector.http.send_error",
			slog.String("req_id", reqID),
			slog.String("method", method),
			slog.String("url", url),
			slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	c.log.DebugContext(ctx, "vector.http.response",
		slog.String("req_id", reqID),
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	if resp.StatusCode/100 != 2 {
		if len(raw) > 2048 {
			raw = raw[:2048]
		}
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}
