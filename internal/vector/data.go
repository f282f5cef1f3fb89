package vector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Vector is a stored record.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is one query hit.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// Text returns the "text" metadata field, if any.
func (m Match) Text() string {
	s, _ := m.Metadata["text"].(string)
	return s
}

// Stats is the describe_index_stats response.
type Stats struct {
	Dimension        int     `json:"dimension"`
	IndexFullness    float64 `json:"indexFullness"`
	TotalVectorCount int     `json:"totalVectorCount"`
}

type upsertRequest struct {
	Vectors []Vector `json:"vectors"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

// upsertBatch bounds the request size of a single upsert call.
const upsertBatch = 100

// Index is a handle to a named index. The data-plane host is resolved
// lazily through the control plane and remembered once found.
type Index struct {
	client *Client
	name   string

	mu   sync.Mutex
	host string
}

// Index returns a handle for the named index.
func (c *Client) Index(name string) *Index {
	return &Index{client: c, name: name}
}

// Name returns the index name.
func (ix *Index) Name() string {
	return ix.name
}

func (ix *Index) resolve(ctx context.Context) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.host != "" {
		return ix.host, nil
	}
	model, err := ix.client.DescribeIndex(ctx, ix.name)
	if err != nil {
		return "", err
	}
	if model.Host == "" {
		return "", ErrNotReady
	}
	ix.host = model.Host
	return ix.host, nil
}

// reset forgets the resolved host, e.g. after the index was recreated.
func (ix *Index) reset() {
	ix.mu.Lock()
	ix.host = ""
	ix.mu.Unlock()
}

func (ix *Index) url(ctx context.Context, path string) (string, error) {
	host, err := ix.resolve(ctx)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return strings.TrimRight(host, "/") + path, nil
}

// Upsert writes vectors in batches.
func (ix *Index) Upsert(ctx context.Context, vectors []Vector) error {
	u, err := ix.url(ctx, "/vectors/upsert")
	if err != nil {
		return err
	}
	for start := 0; start < len(vectors); start += upsertBatch {
		batch := vectors[start:min(start+upsertBatch, len(vectors))]
		if err := ix.client.do(ctx, http.MethodPost, u, upsertRequest{Vectors: batch}, nil); err != nil {
			return fmt.Errorf("vector: upsert %s: %w", ix.name, err)
		}
	}
	return nil
}

// Query returns the topK nearest matches with metadata.
func (ix *Index) Query(ctx context.Context, values []float32, topK int) ([]Match, error) {
	u, err := ix.url(ctx, "/query")
	if err != nil {
		return nil, err
	}
	var out queryResponse
	in := queryRequest{Vector: values, TopK: topK, IncludeMetadata: true}
	if err := ix.client.do(ctx, http.MethodPost, u, in, &out); err != nil {
		return nil, fmt.Errorf("vector: query %s: %w", ix.name, err)
	}
	return out.Matches, nil
}

// Stats returns index statistics.
func (ix *Index) Stats(ctx context.Context) (*Stats, error) {
	u, err := ix.url(ctx, "/describe_index_stats")
	if err != nil {
		return nil, err
	}
	var out Stats
	if err := ix.client.do(ctx, http.MethodPost, u, struct{}{}, &out); err != nil {
		return nil, fmt.Errorf("vector: stats %s: %w", ix.name, err)
	}
	return &out, nil
}

// Search embeds query and returns the text of the topK matches.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]string, error) {
	embeddings, err := ix.client.Embed(ctx, InputQuery, query)
	if err != nil {
		return nil, err
	}
	matches, err := ix.Query(ctx, embeddings[0], topK)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := m.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	return texts, nil
}

// Ensure creates the index when it does not exist and waits until it is
// ready. It reports whether the index was created.
func (ix *Index) Ensure(ctx context.Context, poll time.Duration) (bool, error) {
	_, err := ix.client.DescribeIndex(ctx, ix.name)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, ErrIndexNotFound):
		return false, err
	}

	if _, err := ix.client.CreateIndex(ctx, ix.name); err != nil {
		return false, fmt.Errorf("vector: create %s: %w", ix.name, err)
	}
	ix.reset()
	if _, err := ix.client.WaitReady(ctx, ix.name, poll); err != nil {
		return true, err
	}
	return true, nil
}

// Recreate deletes the index, waits for the deletion to finish and creates
// it again.
func (ix *Index) Recreate(ctx context.Context, poll time.Duration) error {
	if err := ix.client.DeleteIndex(ctx, ix.name); err != nil {
		return fmt.Errorf("vector: delete %s: %w", ix.name, err)
	}
	ix.reset()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		_, err := ix.client.DescribeIndex(ctx, ix.name)
		if errors.Is(err, ErrIndexNotFound) {
			break
		}
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	_, err := ix.Ensure(ctx, poll)
	return err
}
