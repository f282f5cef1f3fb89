package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensiq/coldmail/internal/llm"
)

func TestClient_Complete(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Subject: Hello\n\nHi there  "}}]}`))
	}))
	defer srv.Close()

	c := llm.New(llm.Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/",
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   1000,
	})

	out, err := c.Complete(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "Subject: Hello\n\nHi there", out)

	assert.Equal(t, "test-model", got["model"])
	assert.InDelta(t, 0.7, got["temperature"], 0.0001)
	assert.EqualValues(t, 1000, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user prompt", msgs[1].(map[string]any)["content"])
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"non 2xx", http.StatusTooManyRequests, `{"error":"rate limited"}`, llm.ErrUpstream},
		{"no choices", http.StatusOK, `{"choices":[]}`, llm.ErrEmptyResponse},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"   "}}]}`, llm.ErrEmptyResponse},
		{"bad json", http.StatusOK, `not json`, llm.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := llm.New(llm.Config{APIKey: "k", BaseURL: srv.URL})
			_, err := c.Complete(context.Background(), "s", "u")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	err := &llm.StatusError{Code: 500, Body: "boom"}
	assert.ErrorIs(t, err, llm.ErrUpstream)
	assert.Contains(t, err.Error(), "500")
}
