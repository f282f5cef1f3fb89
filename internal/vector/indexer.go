package vector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Chunk is a piece of the knowledge base ready to be embedded.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Split breaks text into chunks at blank lines. Chunks are numbered
// chunk_0, chunk_1, ... in order of appearance.
func Split(text string) []Chunk {
	var (
		chunks  []Chunk
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			ID:   fmt.Sprintf("chunk_%d", len(chunks)),
			Text: strings.Join(current, "\n"),
		})
		current = nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return chunks
}

// Indexer loads chunks into an index.
type Indexer struct {
	client *Client
	index  *Index
	poll   time.Duration
	log    *slog.Logger
}

// NewIndexer creates an Indexer for the configured index.
func NewIndexer(c *Client, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Indexer{
		client: c,
		index:  c.Index(c.cfg.Index),
		poll:   2 * time.Second,
		log:    log,
	}
}

// Index returns the handle the indexer writes to.
func (ix *Indexer) Index() *Index {
	return ix.index
}

// Load makes sure the index exists and upserts chunks. With force the index
// is deleted and recreated first, dropping stale entries.
func (ix *Indexer) Load(ctx context.Context, chunks []Chunk, force bool) (int, error) {
	if force {
		ix.log.InfoContext(ctx, "recreating index", slog.String("index", ix.index.Name()))
		if err := ix.index.Recreate(ctx, ix.poll); err != nil {
			return 0, err
		}
	} else {
		created, err := ix.index.Ensure(ctx, ix.poll)
		if err != nil {
			return 0, err
		}
		if created {
			ix.log.InfoContext(ctx, "index created", slog.String("index", ix.index.Name()))
		}
	}

	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := ix.client.Embed(ctx, InputPassage, texts...)
	if err != nil {
		return 0, err
	}

	vectors := make([]Vector, len(chunks))
	for i, c := range chunks {
		meta := map[string]any{"text": c.Text}
		for k, v := range c.Metadata {
			meta[k] = v
		}
		vectors[i] = Vector{ID: c.ID, Values: embeddings[i], Metadata: meta}
	}
	if err := ix.index.Upsert(ctx, vectors); err != nil {
		return 0, err
	}

	ix.log.InfoContext(ctx, "chunks indexed",
		slog.String("index", ix.index.Name()),
		slog.Int("count", len(vectors)))
	return len(vectors), nil
}

// Probe runs query against the index and returns the raw matches.
func (ix *Indexer) Probe(ctx context.Context, query string, topK int) ([]Match, error) {
	embeddings, err := ix.client.Embed(ctx, InputQuery, query)
	if err != nil {
		return nil, err
	}
	return ix.index.Query(ctx, embeddings[0], topK)
}
