// Package chromem stores vectors in an embedded chromem-go database persisted on disk.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/philippgille/chromem-go"

	"StyleTranslator/internal/infrastructure/vectorindex"
	"StyleTranslator/internal/ports"
)

// errNoEmbedding is returned if chromem ever asks to embed text; vectors are always supplied.
var errNoEmbedding = errors.New("chromem: embedding is done by the caller")

// Index is a persistent chromem-go database. Path "" keeps it in memory.
type Index struct {
	db     *chromem.DB
	logger *slog.Logger
}

var _ ports.VectorIndex = (*Index)(nil)

func New(path string, compress bool, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return &Index{db: chromem.NewDB(), logger: logger}, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create vector db dir %s: %w", path, err)
	}
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("open chromem db %s: %w", path, err)
	}
	logger.Info("vector index opened", "backend", "chromem", "path", path, "collections", len(db.ListCollections()))
	return &Index{db: db, logger: logger}, nil
}

func noEmbedding(context.Context, string) ([]float32, error) { return nil, errNoEmbedding }

func (x *Index) Upsert(ctx context.Context, collection string, ids []string, vectors [][]float32, metadata []map[string]string) error {
	if err := vectorindex.CheckBatch(ids, vectors, metadata); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	col, err := x.db.GetOrCreateCollection(collection, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("collection %s: %w", collection, err)
	}
	docs := make([]chromem.Document, len(ids))
	for i, id := range ids {
		var meta map[string]string
		if metadata != nil {
			meta = vectorindex.CopyMetadata(metadata[i])
		}
		content := meta["text"]
		if content == "" {
			content = id
		}
		docs[i] = chromem.Document{
			ID:        id,
			Content:   content,
			Metadata:  meta,
			Embedding: vectorindex.Normalize(vectors[i]),
		}
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add documents to %s: %w", collection, err)
	}
	return nil
}

func (x *Index) Query(ctx context.Context, collection string, vector []float32, k int, filter map[string]string) ([]ports.Hit, error) {
	col := x.db.GetCollection(collection, noEmbedding)
	if col == nil || k <= 0 {
		return []ports.Hit{}, nil
	}
	count := col.Count()
	if count == 0 {
		return []ports.Hit{}, nil
	}
	if k > count {
		k = count
	}
	var where map[string]string
	if len(filter) > 0 {
		where = filter
	}
	results, err := col.QueryEmbedding(ctx, vectorindex.Normalize(vector), k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	hits := make([]ports.Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, ports.Hit{
			ID:       r.ID,
			Metadata: vectorindex.CopyMetadata(r.Metadata),
			Distance: vectorindex.DistanceFromCosine(float64(r.Similarity)),
		})
	}
	return hits, nil
}

func (x *Index) Count(_ context.Context, collection string) (int, error) {
	col := x.db.GetCollection(collection, noEmbedding)
	if col == nil {
		return 0, nil
	}
	return col.Count(), nil
}

func (x *Index) DeleteCollection(_ context.Context, collection string) error {
	if x.db.GetCollection(collection, noEmbedding) == nil {
		return nil
	}
	if err := x.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	x.logger.Info("vector collection deleted", "collection", collection)
	return nil
}
