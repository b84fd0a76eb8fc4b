// Package checkpoint persists the pipeline state as a single JSON document.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/ports"
	"StyleTranslator/internal/state"
)

// FileName is the checkpoint document inside the output directory.
const FileName = "checkpoint.json"

type document struct {
	Items       []domain.ClothingItem    `json:"items"`
	Brands      []domain.Brand           `json:"brands"`
	Discussions []domain.StyleDiscussion `json:"discussions"`
	Stats       domain.Stats             `json:"stats"`
	Timestamp   string                   `json:"timestamp"`
}

// FileStore writes checkpoints with a temp-file-then-rename swap.
type FileStore struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

var (
	_ ports.CheckpointStore = (*FileStore)(nil)
	_ ports.Exporter        = (*FileStore)(nil)
)

// NewFileStore keeps checkpoints under dir.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, now: time.Now, logger: logger}
}

// Path returns the checkpoint location.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Save writes the full state. A failed save leaves the previous checkpoint untouched.
func (s *FileStore) Save(st *state.State) error {
	doc := document{
		Items:       nonNil(st.Items),
		Brands:      nonNil(st.Brands),
		Discussions: nonNil(st.Discussions),
		Stats:       st.Stats,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	}
	if err := writeJSONAtomic(s.dir, FileName, doc); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	s.logger.Debug("checkpoint saved", "items", len(doc.Items), "brands", len(doc.Brands), "discussions", len(doc.Discussions))
	return nil
}

// Load reads the last checkpoint and rebuilds derived indexes. A missing file yields an empty state.
func (s *FileStore) Load() (*state.State, error) {
	raw, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return state.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", s.Path(), err)
	}

	st := &state.State{
		Items:       doc.Items,
		Brands:      doc.Brands,
		Discussions: doc.Discussions,
		Stats:       doc.Stats,
	}
	st.Rebuild()
	s.logger.Info("checkpoint loaded", "items", len(st.Items), "brands", len(st.Brands), "discussions", len(st.Discussions), "timestamp", doc.Timestamp)
	return st, nil
}

// Export writes the export files next to the checkpoint.
func (s *FileStore) Export(st *state.State) error {
	if err := Export(s.dir, st); err != nil {
		return err
	}
	s.logger.Info("export written", "dir", s.dir, "items", len(st.Items), "brands", len(st.Brands), "discussions", len(st.Discussions))
	return nil
}

// Export writes items.json, brands.json, discussions.json and the stats report into dir.
func Export(dir string, st *state.State) error {
	files := []struct {
		name string
		v    any
	}{
		{"items.json", nonNil(st.Items)},
		{"brands.json", nonNil(st.Brands)},
		{"discussions.json", nonNil(st.Discussions)},
		{"stats.json", newReport(st)},
	}
	for _, f := range files {
		if err := writeJSONAtomic(dir, f.name, f.v); err != nil {
			return fmt.Errorf("export %s: %w", f.name, err)
		}
	}
	return nil
}

type report struct {
	TotalItems       int                 `json:"total_items"`
	TotalBrands      int                 `json:"total_brands"`
	TotalDiscussions int                 `json:"total_discussions"`
	Sources          map[string]int      `json:"sources"`
	Errors           []domain.StageError `json:"errors"`
}

func newReport(st *state.State) report {
	return report{
		TotalItems:       len(st.Items),
		TotalBrands:      len(st.Brands),
		TotalDiscussions: len(st.Discussions),
		Sources:          st.Stats.Sources,
		Errors:           nonNil(st.Stats.Errors),
	}
}

func writeJSONAtomic(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
