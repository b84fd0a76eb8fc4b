package ports

import (
	"context"
	"errors"
	"time"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/state"
)

// ErrMissingCredentials is returned by gated providers when their credentials are absent.
var ErrMissingCredentials = errors.New("missing credentials")

// CheckpointStore persists and restores the whole pipeline state.
type CheckpointStore interface {
	Save(st *state.State) error
	Load() (*state.State, error)
}

// Exporter writes operator-facing files for a state.
type Exporter interface {
	Export(st *state.State) error
}

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Hit is one nearest-neighbour result. Distance is non-negative and 0 means identical.
type Hit struct {
	ID       string
	Metadata map[string]string
	Distance float64
}

// VectorIndex stores vectors with scalar metadata in named collections.
// Querying a missing or empty collection returns no hits and no error.
type VectorIndex interface {
	Upsert(ctx context.Context, collection string, ids []string, vectors [][]float32, metadata []map[string]string) error
	Query(ctx context.Context, collection string, vector []float32, k int, filter map[string]string) ([]Hit, error)
	Count(ctx context.Context, collection string) (int, error)
	DeleteCollection(ctx context.Context, collection string) error
}

// ReportStore keeps a history of pipeline runs for operators.
type ReportStore interface {
	Record(ctx context.Context, runID string, summary domain.Summary, stats domain.Stats) error
	LastRun(ctx context.Context) (RunReport, error)
}

// RunReport is one persisted run summary.
type RunReport struct {
	RunID     string
	CreatedAt string
	Summary   domain.Summary
	Errors    []domain.StageError
}

// MetricsSink receives pipeline counters.
type MetricsSink interface {
	RecordAdmitted(kind domain.Kind, source string)
	RecordRejected(kind domain.Kind)
	RecordStageError(stage string)
	RecordCheckpoint(ok bool)
}

// Scheduler calls job periodically until stopped.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
