// Package qdrant stores vectors in a Qdrant server over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"StyleTranslator/internal/infrastructure/vectorindex"
	"StyleTranslator/internal/ports"
)

// idKey is the payload field holding the caller's id; Qdrant only accepts UUID or integer ids.
const idKey = "_id"

type Config struct {
	Host   string
	Port   int
	UseTLS bool
	APIKey string
}

type Index struct {
	client *qdrant.Client
	logger *slog.Logger

	mu    sync.Mutex
	known map[string]bool
}

var _ ports.VectorIndex = (*Index)(nil)

func New(cfg Config, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	if !cfg.UseTLS {
		logger.Warn("qdrant connection is not encrypted", "host", cfg.Host, "port", cfg.Port)
	}
	return &Index{client: client, logger: logger, known: make(map[string]bool)}, nil
}

func (x *Index) Close() error { return x.client.Close() }

// PointID maps an arbitrary record id to a stable UUID.
func PointID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func buildFilter(filter map[string]string) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for k, v := range filter {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   k,
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: v}},
				},
			},
		})
	}
	return &qdrant.Filter{Must: conditions}
}

func buildPayload(id string, meta map[string]string) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(meta)+1)
	for k, v := range meta {
		payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	}
	payload[idKey] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: id}}
	return payload
}

// readPayload splits a point payload back into the caller's id and string metadata.
func readPayload(payload map[string]*qdrant.Value) (string, map[string]string) {
	meta := make(map[string]string, len(payload))
	var id string
	for k, v := range payload {
		s, ok := v.GetKind().(*qdrant.Value_StringValue)
		if !ok {
			continue
		}
		if k == idKey {
			id = s.StringValue
			continue
		}
		meta[k] = s.StringValue
	}
	return id, meta
}

func (x *Index) exists(ctx context.Context, collection string) (bool, error) {
	x.mu.Lock()
	known := x.known[collection]
	x.mu.Unlock()
	if known {
		return true, nil
	}
	_, err := x.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == grpccodes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("collection info %s: %w", collection, err)
	}
	x.mu.Lock()
	x.known[collection] = true
	x.mu.Unlock()
	return true, nil
}

func (x *Index) ensure(ctx context.Context, collection string, size int) error {
	ok, err := x.exists(ctx, collection)
	if err != nil || ok {
		return err
	}
	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(size),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}
	x.mu.Lock()
	x.known[collection] = true
	x.mu.Unlock()
	x.logger.Info("vector collection created", "collection", collection, "dimension", size)
	return nil
}

func (x *Index) Upsert(ctx context.Context, collection string, ids []string, vectors [][]float32, metadata []map[string]string) error {
	if err := vectorindex.CheckBatch(ids, vectors, metadata); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := x.ensure(ctx, collection, len(vectors[0])); err != nil {
		return err
	}
	points := make([]*qdrant.PointStruct, len(ids))
	for i, id := range ids {
		var meta map[string]string
		if metadata != nil {
			meta = metadata[i]
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(id)),
			Vectors: qdrant.NewVectors(vectorindex.Normalize(vectors[i])...),
			Payload: buildPayload(id, meta),
		}
	}
	wait := true
	if _, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           &wait,
	}); err != nil {
		return fmt.Errorf("upsert into %s: %w", collection, err)
	}
	return nil
}

func (x *Index) Query(ctx context.Context, collection string, vector []float32, k int, filter map[string]string) ([]ports.Hit, error) {
	if k <= 0 {
		return []ports.Hit{}, nil
	}
	ok, err := x.exists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []ports.Hit{}, nil
	}
	points, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vectorindex.Normalize(vector)...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(filter),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	hits := make([]ports.Hit, 0, len(points))
	for _, p := range points {
		id, meta := readPayload(p.GetPayload())
		hits = append(hits, ports.Hit{
			ID:       id,
			Metadata: meta,
			Distance: vectorindex.DistanceFromCosine(float64(p.GetScore())),
		})
	}
	return hits, nil
}

func (x *Index) Count(ctx context.Context, collection string) (int, error) {
	ok, err := x.exists(ctx, collection)
	if err != nil || !ok {
		return 0, err
	}
	n, err := x.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return int(n), nil
}

func (x *Index) DeleteCollection(ctx context.Context, collection string) error {
	ok, err := x.exists(ctx, collection)
	if err != nil || !ok {
		return err
	}
	if err := x.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	x.mu.Lock()
	delete(x.known, collection)
	x.mu.Unlock()
	x.logger.Info("vector collection deleted", "collection", collection)
	return nil
}
