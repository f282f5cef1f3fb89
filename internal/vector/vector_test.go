package vector_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensiq/coldmail/internal/vector"
)

// fakePinecone serves the control plane, the inference API and the data
// plane from one server. The index host points back at the same server.
type fakePinecone struct {
	t      *testing.T
	srv    *httptest.Server
	mu     sync.Mutex
	exists bool
	stored map[string]vector.Vector
	calls  []string
	dim    int
}

func newFakePinecone(t *testing.T, exists bool) *fakePinecone {
	f := &fakePinecone{t: t, exists: exists, stored: map[string]vector.Vector{}, dim: 4}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePinecone) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	assert.Equal(f.t, "test-key", r.Header.Get("Api-Key"))
	assert.NotEmpty(f.t, r.Header.Get("X-Pinecone-API-Version"))
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	switch {
	case r.URL.Path == "/indexes/kb" && r.Method == http.MethodGet:
		if !f.exists {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{
			"name": "kb", "dimension": f.dim, "host": f.srv.URL,
			"status": map[string]any{"ready": true, "state": "Ready"},
		})
	case r.URL.Path == "/indexes/kb" && r.Method == http.MethodDelete:
		f.exists = false
		f.stored = map[string]vector.Vector{}
		w.WriteHeader(http.StatusAccepted)
	case r.URL.Path == "/indexes" && r.Method == http.MethodPost:
		var in map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(f.t, "cosine", in["metric"])
		assert.EqualValues(f.t, f.dim, in["dimension"])
		f.exists = true
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"name": "kb"})
	case r.URL.Path == "/embed":
		var in struct {
			Model      string         `json:"model"`
			Parameters map[string]any `json:"parameters"`
			Inputs     []struct {
				Text string `json:"text"`
			} `json:"inputs"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(f.t, "llama-text-embed-v2", in.Model)
		assert.Equal(f.t, "END", in.Parameters["truncate"])
		data := make([]map[string]any, len(in.Inputs))
		for i, input := range in.Inputs {
			data[i] = map[string]any{"values": embed(input.Text, f.dim)}
		}
		writeJSON(w, map[string]any{"data": data})
	case r.URL.Path == "/vectors/upsert":
		var in struct {
			Vectors []vector.Vector `json:"vectors"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		for _, v := range in.Vectors {
			f.stored[v.ID] = v
		}
		writeJSON(w, map[string]any{"upsertedCount": len(in.Vectors)})
	case r.URL.Path == "/query":
		var in struct {
			TopK int `json:"topK"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		var matches []map[string]any
		for id, v := range f.stored {
			if len(matches) == in.TopK {
				break
			}
			matches = append(matches, map[string]any{"id": id, "score": 0.9, "metadata": v.Metadata})
		}
		writeJSON(w, map[string]any{"matches": matches})
	case r.URL.Path == "/describe_index_stats":
		writeJSON(w, map[string]any{"dimension": f.dim, "totalVectorCount": len(f.stored)})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakePinecone) client() *vector.Client {
	return vector.NewClient(vector.Config{
		APIKey:     "test-key",
		ControlURL: f.srv.URL,
		APIVersion: "2025-04",
		Index:      "kb",
		Dimension:  f.dim,
		Metric:     "cosine",
		Cloud:      "aws",
		Region:     "us-east-1",
		EmbedModel: "llama-text-embed-v2",
	})
}

func (f *fakePinecone) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakePinecone) get(id string) (vector.Vector, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.stored[id]
	return v, ok
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func embed(text string, dim int) []float32 {
	out := make([]float32, dim)
	for i := range out {
		out[i] = float32(len(text)%(i+2)) / 10
	}
	return out
}

func TestSplit(t *testing.T) {
	t.Parallel()

	chunks := vector.Split("1. Company\nSensIQ builds sensors\n\n   \n2. Products\nSN10\r\n\r\n3. Contact\n")
	require.Len(t, chunks, 3)
	assert.Equal(t, "chunk_0", chunks[0].ID)
	assert.Equal(t, "1. Company\nSensIQ builds sensors", chunks[0].Text)
	assert.Equal(t, "2. Products\nSN10", chunks[1].Text)
	assert.Equal(t, "chunk_2", chunks[2].ID)

	assert.Empty(t, vector.Split("\n\n  \n"))
}

func TestIndexer_LoadCreatesMissingIndex(t *testing.T) {
	t.Parallel()

	f := newFakePinecone(t, false)
	ix := vector.NewIndexer(f.client(), nil)

	n, err := ix.Load(context.Background(), vector.Split("a\n\nb"), false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.True(t, f.called("POST /indexes"))
	first, _ := f.get("chunk_0")
	assert.Equal(t, "a", first.Metadata["text"])
	second, _ := f.get("chunk_1")
	assert.Len(t, second.Values, 4)

	stats, err := ix.Index().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalVectorCount)
}

func TestIndexer_ForceRecreates(t *testing.T) {
	t.Parallel()

	f := newFakePinecone(t, true)
	f.stored["stale"] = vector.Vector{ID: "stale", Metadata: map[string]any{"text": "old"}}
	ix := vector.NewIndexer(f.client(), nil)

	chunk := vector.Chunk{ID: "sn10_details", Text: "SN10 details", Metadata: map[string]any{"type": "product_info"}}
	n, err := ix.Load(context.Background(), []vector.Chunk{chunk}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.True(t, f.called("DELETE /indexes/kb"))
	_, ok := f.get("stale")
	assert.False(t, ok)
	sn10, ok := f.get("sn10_details")
	require.True(t, ok)
	assert.Equal(t, "product_info", sn10.Metadata["type"])
	assert.Equal(t, "SN10 details", sn10.Metadata["text"])

	matches, err := ix.Probe(context.Background(), "SN10", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "SN10 details", matches[0].Text())
}

func TestIndex_SearchMissingIndex(t *testing.T) {
	t.Parallel()

	f := newFakePinecone(t, false)
	_, err := f.client().Index("kb").Search(context.Background(), "SN10", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, vector.ErrIndexNotFound)
	assert.ErrorIs(t, err, vector.ErrUpstream)
}

func TestClient_EmbedDimensionMismatch(t *testing.T) {
	t.Parallel()

	f := newFakePinecone(t, true)
	cfg := f.client().Config()
	cfg.Dimension = 8
	c := vector.NewClient(cfg)

	_, err := c.Embed(context.Background(), vector.InputQuery, "hello")
	assert.ErrorIs(t, err, vector.ErrDimension)
}

type fakeSearcher struct {
	calls atomic.Int32
	fail  bool
}

func (s *fakeSearcher) Search(_ context.Context, query string, topK int) ([]string, error) {
	s.calls.Add(1)
	if s.fail {
		return nil, errors.New("boom")
	}
	out := make([]string, topK)
	for i := range out {
		out[i] = query
	}
	return out, nil
}

func TestRetriever_Retrieve(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{}
	r := vector.NewRetriever(s, vector.WithRand(func(int) int { return 0 }))

	k, err := r.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, vector.CompanyQueries[0], k.Company)
	assert.Equal(t, vector.SolutionQueries[0], k.Solutions)
	assert.Equal(t, vector.ProductQueries[0], k.Products)
	assert.False(t, k.Empty())
	assert.EqualValues(t, 3, s.calls.Load())

	_, err = r.Retrieve(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, s.calls.Load(), "second retrieval is served from cache")
}

func TestRetriever_TopKVaries(t *testing.T) {
	t.Parallel()

	r := vector.NewRetriever(&fakeSearcher{}, vector.WithRand(func(n int) int { return n - 1 }))

	k, err := r.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Len(t, strings.Split(k.Solutions, "\n"), 2)
	assert.Len(t, strings.Split(k.Company, "\n"), 1)
}

func TestRetriever_Error(t *testing.T) {
	t.Parallel()

	r := vector.NewRetriever(&fakeSearcher{fail: true})
	k, err := r.Retrieve(context.Background())
	require.Error(t, err)
	assert.True(t, k.Empty())
}
