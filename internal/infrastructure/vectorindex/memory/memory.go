// Package memory is an exact in-process vector index used in tests and
// for small runs where no persistence is wanted.
package memory

import (
	"context"
	"sort"
	"sync"

	"StyleTranslator/internal/infrastructure/vectorindex"
	"StyleTranslator/internal/ports"
)

type entry struct {
	vector   []float32
	metadata map[string]string
}

type Index struct {
	mu          sync.RWMutex
	collections map[string]map[string]entry
}

var _ ports.VectorIndex = (*Index)(nil)

func New() *Index {
	return &Index{collections: make(map[string]map[string]entry)}
}

// Upsert replaces entries with the same id.
func (x *Index) Upsert(ctx context.Context, collection string, ids []string, vectors [][]float32, metadata []map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := vectorindex.CheckBatch(ids, vectors, metadata); err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	col, ok := x.collections[collection]
	if !ok {
		col = make(map[string]entry)
		x.collections[collection] = col
	}
	for i, id := range ids {
		var meta map[string]string
		if metadata != nil {
			meta = metadata[i]
		}
		col[id] = entry{vector: vectorindex.Normalize(vectors[i]), metadata: vectorindex.CopyMetadata(meta)}
	}
	return nil
}

func (x *Index) Query(ctx context.Context, collection string, vector []float32, k int, filter map[string]string) ([]ports.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []ports.Hit{}, nil
	}
	q := vectorindex.Normalize(vector)

	x.mu.RLock()
	defer x.mu.RUnlock()
	col := x.collections[collection]
	hits := make([]ports.Hit, 0, len(col))
	for id, e := range col {
		if !vectorindex.Matches(e.metadata, filter) {
			continue
		}
		hits = append(hits, ports.Hit{
			ID:       id,
			Metadata: vectorindex.CopyMetadata(e.metadata),
			Distance: vectorindex.SquaredL2(q, e.vector),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (x *Index) Count(_ context.Context, collection string) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.collections[collection]), nil
}

func (x *Index) DeleteCollection(_ context.Context, collection string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.collections, collection)
	return nil
}
