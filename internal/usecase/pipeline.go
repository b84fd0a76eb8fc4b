package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/ports"
	"StyleTranslator/internal/scanner"
	"StyleTranslator/internal/search"
	"StyleTranslator/internal/state"
)

const defaultCheckpointInterval = 100

// ErrUnknownStage is returned by RunStage when no stage or source matches.
var ErrUnknownStage = errors.New("unknown stage")

// Normalizer turns untyped provider output into canonical records.
type Normalizer interface {
	Normalize(raw scanner.Record) (domain.Record, error)
}

// Indexer pushes the whole state into the semantic index.
type Indexer interface {
	IndexState(ctx context.Context, st *state.State) (search.Counts, error)
}

// Settings are the tunables of a run.
type Settings struct {
	CheckpointInterval int
	MinItemsPerBrand   int
	GapFillProvider    string
	GapFillBrands      []string
	IndexAfterRun      bool
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Stages     []scanner.Stage
	Registry   *scanner.Registry
	Normalizer Normalizer
	Checkpoint ports.CheckpointStore
	Exporter   ports.Exporter
	Indexer    Indexer
	Reports    ports.ReportStore
	Metrics    ports.MetricsSink
	Settings   Settings
	Logger     *slog.Logger
}

// Pipeline implements the ingestion workflow: ordered source stages, gap
// filling, brand profile synthesis and the final checkpoint.
type Pipeline struct {
	stages     []scanner.Stage
	registry   *scanner.Registry
	normalizer Normalizer
	checkpoint ports.CheckpointStore
	exporter   ports.Exporter
	indexer    Indexer
	reports    ports.ReportStore
	metrics    ports.MetricsSink
	settings   Settings
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	progress Progress
	st       *state.State

	sinceSave   int
	savedOnce   bool
	lastSaveErr error
	credSkipped map[string]bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	settings := deps.Settings
	if settings.CheckpointInterval <= 0 {
		settings.CheckpointInterval = defaultCheckpointInterval
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Pipeline{
		stages:      deps.Stages,
		registry:    deps.Registry,
		normalizer:  deps.Normalizer,
		checkpoint:  deps.Checkpoint,
		exporter:    deps.Exporter,
		indexer:     deps.Indexer,
		reports:     deps.Reports,
		metrics:     metrics,
		settings:    settings,
		logger:      logger,
		now:         time.Now,
		progress:    Progress{Phase: PhaseIdle, StageIndex: -1},
		credSkipped: map[string]bool{},
	}
}

// Preflight fails when a required stage's provider is missing credentials.
func (p *Pipeline) Preflight() error {
	for _, stage := range p.stages {
		if !stage.Required {
			continue
		}
		checker, ok := stage.Provider.(scanner.CredentialChecker)
		if !ok {
			continue
		}
		if err := checker.CheckCredentials(); err != nil {
			return fmt.Errorf("required source %s: %w", stage.Source, err)
		}
	}
	return nil
}

// State loads the checkpoint on first use and returns the live state.
func (p *Pipeline) State() (*state.State, error) {
	if p.st != nil {
		return p.st, nil
	}
	if p.checkpoint == nil {
		p.st = state.New()
		return p.st, nil
	}
	st, err := p.checkpoint.Load()
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	p.st = st
	return st, nil
}

// RunFull runs every stage, then gap filling, then profile synthesis.
// Stage failures are recorded in the stats and never abort the run.
func (p *Pipeline) RunFull(ctx context.Context) (domain.Summary, error) {
	st, err := p.begin()
	if err != nil {
		return domain.Summary{}, err
	}
	started := p.now()
	p.logger.Info("pipeline started", "stages", len(p.stages), "items", len(st.Items), "brands", len(st.Brands))

	for i, stage := range p.stages {
		if ctx.Err() != nil {
			break
		}
		p.setProgress(PhaseRunningSource, i, stage.Name)
		p.runStage(ctx, st, stage)
		p.setProgress(PhaseBetweenSources, i, stage.Name)
	}
	if ctx.Err() == nil {
		p.fillBrandGaps(ctx, st)
	}
	if ctx.Err() == nil {
		p.buildBrandProfiles(st)
	}

	summary, err := p.finalize(ctx, st)
	p.logger.Info("pipeline finished",
		"items", summary.TotalItems, "brands", summary.TotalBrands, "discussions", summary.TotalDiscussions,
		"errors", summary.Errors, "elapsed", p.now().Sub(started).String())
	if err != nil {
		return summary, err
	}
	return summary, ctx.Err()
}

// RunStage runs the stages matching name: either one stage name
// ("source/target") or every stage of a source.
func (p *Pipeline) RunStage(ctx context.Context, name string) (domain.Summary, error) {
	var selected []int
	for i, stage := range p.stages {
		if stage.Name == name || stage.Source == name {
			selected = append(selected, i)
		}
	}
	if len(selected) == 0 {
		return domain.Summary{}, fmt.Errorf("%w: %s", ErrUnknownStage, name)
	}

	st, err := p.begin()
	if err != nil {
		return domain.Summary{}, err
	}
	for _, i := range selected {
		if ctx.Err() != nil {
			break
		}
		stage := p.stages[i]
		p.setProgress(PhaseRunningSource, i, stage.Name)
		p.runStage(ctx, st, stage)
		p.setProgress(PhaseBetweenSources, i, stage.Name)
	}
	summary, err := p.finalize(ctx, st)
	if err != nil {
		return summary, err
	}
	return summary, ctx.Err()
}

// FillBrandGaps runs only the gap filling pass.
func (p *Pipeline) FillBrandGaps(ctx context.Context) (GapReport, error) {
	st, err := p.begin()
	if err != nil {
		return GapReport{}, err
	}
	report := p.fillBrandGaps(ctx, st)
	_, err = p.finalize(ctx, st)
	return report, err
}

// BuildBrandProfiles runs only brand profile synthesis and returns how many brands were added.
func (p *Pipeline) BuildBrandProfiles(ctx context.Context) (int, error) {
	st, err := p.begin()
	if err != nil {
		return 0, err
	}
	added := p.buildBrandProfiles(st)
	_, err = p.finalize(ctx, st)
	return added, err
}

// IndexAll rebuilds the semantic index from the current state.
func (p *Pipeline) IndexAll(ctx context.Context) (search.Counts, error) {
	if p.indexer == nil {
		return search.Counts{}, fmt.Errorf("semantic index is not configured")
	}
	st, err := p.State()
	if err != nil {
		return search.Counts{}, err
	}
	counts, err := p.indexer.IndexState(ctx, st)
	if err != nil {
		return counts, fmt.Errorf("index state: %w", err)
	}
	return counts, nil
}

// Progress reports the current phase.
func (p *Pipeline) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

func (p *Pipeline) begin() (*state.State, error) {
	st, err := p.State()
	if err != nil {
		return nil, err
	}
	p.sinceSave = 0
	p.savedOnce = false
	p.lastSaveErr = nil
	p.credSkipped = map[string]bool{}
	p.setProgress(PhaseIdle, -1, "")
	return st, nil
}

func (p *Pipeline) setProgress(phase Phase, index int, stage string) {
	p.mu.Lock()
	p.progress = Progress{Phase: phase, StageIndex: index, Stage: stage}
	p.mu.Unlock()
}

// runStage drains one provider sequence through normalize and admit.
func (p *Pipeline) runStage(ctx context.Context, st *state.State, stage scanner.Stage) {
	logger := p.logger.With("stage", stage.Name)
	if p.credSkipped[stage.Source] {
		logger.Debug("stage skipped, credentials missing")
		return
	}
	if stage.Provider == nil {
		p.stageError(st, stage.Name, fmt.Errorf("no provider for stage"))
		return
	}

	admitted, err := p.ingest(ctx, st, stage.Provider, stage.Request)
	switch {
	case errors.Is(err, ports.ErrMissingCredentials):
		p.credSkipped[stage.Source] = true
		logger.Warn("stage skipped", "reason", err.Error())
		st.RecordError(stage.Name, err.Error())
		p.metrics.RecordStageError(stage.Name)
	case err != nil:
		p.stageError(st, stage.Name, err)
	}
	logger.Info("stage finished", "admitted", admitted)
	p.save(st)
}

func (p *Pipeline) stageError(st *state.State, stage string, err error) {
	p.logger.Error("stage failed", "stage", stage, "error", err)
	st.RecordError(stage, err.Error())
	p.metrics.RecordStageError(stage)
}

// ingest returns the number of admitted records and the provider's terminal error.
// Records yielded before the error are kept.
func (p *Pipeline) ingest(ctx context.Context, st *state.State, provider scanner.Provider, req scanner.Request) (int, error) {
	admitted := 0
	for raw, err := range provider.Fetch(ctx, req) {
		if err != nil {
			return admitted, err
		}
		if p.admit(st, raw) {
			admitted++
		}
		if ctx.Err() != nil {
			return admitted, ctx.Err()
		}
	}
	return admitted, nil
}

func (p *Pipeline) admit(st *state.State, raw scanner.Record) bool {
	rec, err := p.normalizer.Normalize(raw)
	if err != nil {
		p.logger.Debug("record skipped", "source", raw.Source, "error", err)
		p.metrics.RecordRejected(raw.Kind)
		return false
	}
	if !st.Admit(rec) {
		p.metrics.RecordRejected(rec.RecordKind())
		return false
	}
	p.metrics.RecordAdmitted(rec.RecordKind(), sourceOf(rec))
	if _, ok := rec.(domain.ClothingItem); !ok {
		return true
	}
	p.sinceSave++
	if p.sinceSave >= p.settings.CheckpointInterval {
		p.save(st)
	}
	return true
}

func sourceOf(rec domain.Record) string {
	var src string
	switch r := rec.(type) {
	case domain.ClothingItem:
		src = r.SourceType
	case domain.Brand:
		src = r.SourceType
	case domain.StyleDiscussion:
		src = r.SourceType
	}
	if src == "" {
		return "unknown"
	}
	return src
}

// save never fails the run; the previous checkpoint stays valid on error.
func (p *Pipeline) save(st *state.State) {
	p.sinceSave = 0
	if p.checkpoint == nil {
		return
	}
	if err := p.checkpoint.Save(st); err != nil {
		p.lastSaveErr = err
		p.logger.Error("checkpoint failed", "error", err)
		p.metrics.RecordCheckpoint(false)
		return
	}
	p.savedOnce = true
	p.lastSaveErr = nil
	p.metrics.RecordCheckpoint(true)
}

// finalize writes the last checkpoint, exports, indexes and records the run.
// Only a run that never managed to checkpoint returns an error.
func (p *Pipeline) finalize(ctx context.Context, st *state.State) (domain.Summary, error) {
	p.setProgress(PhaseFinalizing, -1, "")
	defer p.setProgress(PhaseDone, -1, "")

	if p.settings.IndexAfterRun && p.indexer != nil && ctx.Err() == nil {
		if _, err := p.indexer.IndexState(ctx, st); err != nil {
			p.logger.Warn("indexing deferred", "error", err)
			st.RecordError("index", err.Error())
			p.metrics.RecordStageError("index")
		}
	}

	p.save(st)
	if p.checkpoint != nil && !p.savedOnce {
		return st.Summary(), fmt.Errorf("no checkpoint written: %w", p.lastSaveErr)
	}

	if p.exporter != nil {
		if err := p.exporter.Export(st); err != nil {
			p.logger.Error("export failed", "error", err)
		}
	}

	summary := st.Summary()
	if p.reports != nil {
		// Recorded even when the run was cancelled.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := p.reports.Record(rctx, p.runID(), summary, st.Stats); err != nil {
			p.logger.Error("run report failed", "error", err)
		}
	}
	return summary, nil
}

func (p *Pipeline) runID() string {
	return p.now().UTC().Format("20060102T150405Z") + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

type nopMetrics struct{}

func (nopMetrics) RecordAdmitted(domain.Kind, string) {}
func (nopMetrics) RecordRejected(domain.Kind)         {}
func (nopMetrics) RecordStageError(string)            {}
func (nopMetrics) RecordCheckpoint(bool)              {}
