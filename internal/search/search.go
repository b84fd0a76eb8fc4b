// Package search embeds records into three typed collections and answers
// free-text aesthetic queries with ranked, comparable similarity scores.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/ports"
	"StyleTranslator/internal/state"
)

const (
	CollectionItems       = "clothing_items"
	CollectionBrands      = "brands"
	CollectionDiscussions = "discussions"

	defaultBatchSize = 64
)

var (
	// ErrIndexUnavailable wraps embedding or vector index failures.
	ErrIndexUnavailable  = errors.New("index unavailable")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrBadMetadata       = errors.New("bad metadata")
)

// Collections lists every collection the adapter manages.
func Collections() []string {
	return []string{CollectionItems, CollectionBrands, CollectionDiscussions}
}

// Result is a decoded, ranked record.
type Result[T domain.Record] struct {
	Record     T       `json:"record"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// Comprehensive holds one ranked list per record type. The lists are never merged.
type Comprehensive struct {
	Query       string                           `json:"query"`
	Items       []Result[domain.ClothingItem]    `json:"items"`
	Brands      []Result[domain.Brand]           `json:"brands"`
	Discussions []Result[domain.StyleDiscussion] `json:"discussions"`
}

// Counts is the number of indexed records per collection.
type Counts struct {
	Items       int `json:"items"`
	Brands      int `json:"brands"`
	Discussions int `json:"discussions"`
}

type Adapter struct {
	embedder  ports.Embedder
	index     ports.VectorIndex
	batchSize int
	logger    *slog.Logger
}

func New(embedder ports.Embedder, index ports.VectorIndex, batchSize int, logger *slog.Logger) *Adapter {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{embedder: embedder, index: index, batchSize: batchSize, logger: logger}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIndexUnavailable, op, err)
}

func knownCollection(name string) bool {
	switch name {
	case CollectionItems, CollectionBrands, CollectionDiscussions:
		return true
	}
	return false
}

// upsert embeds texts in batches and writes them with their metadata.
func (a *Adapter) upsert(ctx context.Context, collection string, ids, texts []string, metadata []map[string]string) (int, error) {
	written := 0
	for start := 0; start < len(ids); start += a.batchSize {
		end := min(start+a.batchSize, len(ids))
		vectors, err := a.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return written, unavailable("embed "+collection, err)
		}
		if err := a.index.Upsert(ctx, collection, ids[start:end], vectors, metadata[start:end]); err != nil {
			return written, unavailable("upsert "+collection, err)
		}
		written += end - start
		a.logger.Debug("indexed batch", "collection", collection, "count", end-start, "total", written)
	}
	return written, nil
}

func (a *Adapter) IndexItems(ctx context.Context, items []domain.ClothingItem) (int, error) {
	ids := make([]string, len(items))
	texts := make([]string, len(items))
	meta := make([]map[string]string, len(items))
	for i, item := range items {
		ids[i], texts[i], meta[i] = item.ID, ItemText(item), EncodeItem(item)
	}
	return a.upsert(ctx, CollectionItems, ids, texts, meta)
}

func (a *Adapter) IndexBrands(ctx context.Context, brands []domain.Brand) (int, error) {
	ids := make([]string, len(brands))
	texts := make([]string, len(brands))
	meta := make([]map[string]string, len(brands))
	for i, b := range brands {
		ids[i], texts[i], meta[i] = b.ID, BrandText(b), EncodeBrand(b)
	}
	return a.upsert(ctx, CollectionBrands, ids, texts, meta)
}

func (a *Adapter) IndexDiscussions(ctx context.Context, discussions []domain.StyleDiscussion) (int, error) {
	ids := make([]string, len(discussions))
	texts := make([]string, len(discussions))
	meta := make([]map[string]string, len(discussions))
	for i, d := range discussions {
		ids[i], texts[i], meta[i] = d.ID, DiscussionText(d), EncodeDiscussion(d)
	}
	return a.upsert(ctx, CollectionDiscussions, ids, texts, meta)
}

// IndexState indexes every collection of st and stops at the first failure.
func (a *Adapter) IndexState(ctx context.Context, st *state.State) (Counts, error) {
	var c Counts
	var err error
	if c.Items, err = a.IndexItems(ctx, st.Items); err != nil {
		return c, err
	}
	if c.Brands, err = a.IndexBrands(ctx, st.Brands); err != nil {
		return c, err
	}
	if c.Discussions, err = a.IndexDiscussions(ctx, st.Discussions); err != nil {
		return c, err
	}
	a.logger.Info("index built",
		"items", c.Items, "brands", c.Brands, "discussions", c.Discussions,
		"embedder", a.embedder.Name(), "projection", ProjectionVersion)
	return c, nil
}

// Search returns up to k ranked matches. An empty or never populated
// collection yields an empty list and no error.
func (a *Adapter) Search(ctx context.Context, collection, query string, k int, filter map[string]string) ([]Match, error) {
	if !knownCollection(collection) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if k <= 0 {
		return []Match{}, nil
	}
	vector, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, unavailable("embed query", err)
	}
	var where map[string]string
	if len(filter) > 0 {
		where = make(map[string]string, len(filter))
		for key, v := range filter {
			where[key] = encodeString(v)
		}
	}
	hits, err := a.index.Query(ctx, collection, vector, k, where)
	if err != nil {
		return nil, unavailable("query "+collection, err)
	}
	return Rank(hits), nil
}

func decodeAll[T domain.Record](matches []Match, decode func(map[string]string) (T, error)) ([]Result[T], error) {
	out := make([]Result[T], 0, len(matches))
	for _, m := range matches {
		rec, err := decode(m.Metadata)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", m.ID, err)
		}
		out = append(out, Result[T]{Record: rec, Distance: m.Distance, Similarity: m.Similarity})
	}
	return out, nil
}

func (a *Adapter) SearchItems(ctx context.Context, query string, k int, filter map[string]string) ([]Result[domain.ClothingItem], error) {
	matches, err := a.Search(ctx, CollectionItems, query, k, filter)
	if err != nil {
		return nil, err
	}
	return decodeAll(matches, DecodeItem)
}

func (a *Adapter) SearchBrands(ctx context.Context, query string, k int) ([]Result[domain.Brand], error) {
	matches, err := a.Search(ctx, CollectionBrands, query, k, nil)
	if err != nil {
		return nil, err
	}
	return decodeAll(matches, DecodeBrand)
}

func (a *Adapter) SearchDiscussions(ctx context.Context, query string, k int) ([]Result[domain.StyleDiscussion], error) {
	matches, err := a.Search(ctx, CollectionDiscussions, query, k, nil)
	if err != nil {
		return nil, err
	}
	return decodeAll(matches, DecodeDiscussion)
}

// ComprehensiveSearch runs three independent searches for one query.
func (a *Adapter) ComprehensiveSearch(ctx context.Context, query string, nItems, nBrands, nDiscussions int) (Comprehensive, error) {
	res := Comprehensive{Query: query}
	var err error
	if res.Items, err = a.SearchItems(ctx, query, nItems, nil); err != nil {
		return Comprehensive{}, err
	}
	if res.Brands, err = a.SearchBrands(ctx, query, nBrands); err != nil {
		return Comprehensive{}, err
	}
	if res.Discussions, err = a.SearchDiscussions(ctx, query, nDiscussions); err != nil {
		return Comprehensive{}, err
	}
	return res, nil
}

func (a *Adapter) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	var err error
	if c.Items, err = a.index.Count(ctx, CollectionItems); err != nil {
		return c, unavailable("count", err)
	}
	if c.Brands, err = a.index.Count(ctx, CollectionBrands); err != nil {
		return c, unavailable("count", err)
	}
	if c.Discussions, err = a.index.Count(ctx, CollectionDiscussions); err != nil {
		return c, unavailable("count", err)
	}
	return c, nil
}

// Clear drops all three collections.
func (a *Adapter) Clear(ctx context.Context) error {
	for _, name := range Collections() {
		if err := a.index.DeleteCollection(ctx, name); err != nil {
			return unavailable("delete "+name, err)
		}
	}
	a.logger.Info("index cleared")
	return nil
}
