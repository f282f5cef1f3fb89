// Package llm is a client for OpenAI-compatible chat completion APIs,
// configured for Groq by default.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	ErrUpstream      = errors.New("llm: upstream request failed")
	ErrEmptyResponse = errors.New("llm: response has no content")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: upstream status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUpstream
}

// Config holds chat completion settings.
type Config struct {
	APIKey      string        `env:"GROQ_API_KEY,required,notEmpty"`
	BaseURL     string        `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	Model       string        `env:"GROQ_MODEL" envDefault:"DeepSeek-R1-Distill-Llama-70B"`
	Temperature float64       `env:"GROQ_TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int           `env:"GROQ_MAX_TOKENS" envDefault:"1000"`
	Timeout     time.Duration `env:"GROQ_TIMEOUT" envDefault:"60s"`
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Client calls the chat completions endpoint.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
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

// Chat sends messages and returns the trimmed content of the first choice.
func (c *Client) Chat(ctx context.Context, messages ...Message) (string, error) {
	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, err := SendJSON(ctx, c.http, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body, headers, c.log)
	if err != nil {
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// Complete sends a system and a user prompt.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	return c.Chat(ctx,
		Message{Role: "system", Content: system},
		Message{Role: "user", Content: prompt},
	)
}
