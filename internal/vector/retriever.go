package vector

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sensiq/coldmail/pkg/cache"
)

// Knowledge is the background text handed to the email prompt.
type Knowledge struct {
	Company   string
	Solutions string
	Products  string
}

// Empty reports whether no text was retrieved.
func (k Knowledge) Empty() bool {
	return k.Company == "" && k.Solutions == "" && k.Products == ""
}

// Searcher returns the text of the topK entries closest to query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]string, error)
}

// Query pools. One query per category is picked at random on every call so
// consecutive emails draw on different parts of the knowledge base.
var (
	CompanyQueries = []string{
		"SensIQ company information contact details",
		"SensIQ company overview background mission",
		"SensIQ business description expertise",
		"SensIQ company profile and specialization",
	}
	SolutionQueries = []string{
		"Smart waste management solutions features benefits",
		"Waste management technology advantages implementation",
		"SensIQ waste management innovation benefits",
		"Waste optimization solutions key features",
	}
	ProductQueries = []string{
		"SensIQ products SN10 RFID specifications",
		"SN10 sensor system capabilities features",
		"RFID waste management technology details",
		"Smart waste sensor technical advantages",
	}
)

// ProductInfoQuery looks up the manually indexed SN10 details.
const ProductInfoQuery = "SensIQ Product Details SN10"

// Retriever gathers Knowledge from a Searcher, caching results per query.
type Retriever struct {
	search Searcher
	loader *cache.Loader[[]string]
	log    *slog.Logger
	intn   func(n int) int
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithCache caches search results in c for ttl.
func WithCache(c cache.Cache[[]string], ttl time.Duration) RetrieverOption {
	return func(r *Retriever) {
		if c != nil {
			r.loader = cache.NewLoader(c, ttl)
		}
	}
}

// WithRetrieverLogger sets the logger.
func WithRetrieverLogger(l *slog.Logger) RetrieverOption {
	return func(r *Retriever) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRand replaces the random source used to pick queries and topK.
func WithRand(intn func(n int) int) RetrieverOption {
	return func(r *Retriever) {
		if intn != nil {
			r.intn = intn
		}
	}
}

// NewRetriever creates a Retriever. Without WithCache an in-memory cache
// with a ten minute TTL is used.
func NewRetriever(s Searcher, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		search: s,
		log:    slog.New(slog.DiscardHandler),
		intn:   rand.IntN,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loader == nil {
		r.loader = cache.NewLoader[[]string](cache.NewMemory[[]string](), 10*time.Minute)
	}
	return r
}

// Retrieve runs the company, solution and product lookups in parallel.
func (r *Retriever) Retrieve(ctx context.Context) (Knowledge, error) {
	var (
		k        Knowledge
		company  = r.pick(CompanyQueries)
		solution = r.pick(SolutionQueries)
		product  = r.pick(ProductQueries)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		k.Company, err = r.lookup(gctx, company, 1)
		return err
	})
	g.Go(func() (err error) {
		k.Solutions, err = r.lookup(gctx, solution, 1+r.intn(2))
		return err
	})
	g.Go(func() (err error) {
		k.Products, err = r.lookup(gctx, product, 1+r.intn(2))
		return err
	})
	if err := g.Wait(); err != nil {
		return Knowledge{}, err
	}

	r.log.DebugContext(ctx, "vector.retrieve",
		slog.String("company_query", company),
		slog.String("solution_query", solution),
		slog.String("product_query", product))
	return k, nil
}

func (r *Retriever) lookup(ctx context.Context, query string, topK int) (string, error) {
	key := fmt.Sprintf("%d:%s", topK, query)
	texts, err := r.loader.Load(ctx, key, func(ctx context.Context) ([]string, error) {
		return r.search.Search(ctx, query, topK)
	})
	if err != nil {
		return "", fmt.Errorf("vector: retrieve %q: %w", query, err)
	}
	return strings.Join(texts, "\n"), nil
}

func (r *Retriever) pick(pool []string) string {
	return pool[r.intn(len(pool))]
}
