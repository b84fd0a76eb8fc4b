package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"StyleTranslator/internal/config"
	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/embedding/hashing"
	"StyleTranslator/internal/embedding/openai"
	"StyleTranslator/internal/extract"
	"StyleTranslator/internal/infrastructure/checkpoint"
	"StyleTranslator/internal/infrastructure/httpfetch"
	"StyleTranslator/internal/infrastructure/parser"
	"StyleTranslator/internal/infrastructure/report"
	"StyleTranslator/internal/infrastructure/scheduler"
	"StyleTranslator/internal/infrastructure/vectorindex/chromem"
	"StyleTranslator/internal/infrastructure/vectorindex/memory"
	"StyleTranslator/internal/infrastructure/vectorindex/qdrant"
	"StyleTranslator/internal/logging"
	"StyleTranslator/internal/metrics"
	"StyleTranslator/internal/normalize"
	"StyleTranslator/internal/ports"
	"StyleTranslator/internal/scanner"
	"StyleTranslator/internal/search"
	"StyleTranslator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	pipeline   *usecase.Pipeline
	search     *search.Adapter
	checkpoint *checkpoint.FileStore
	reports    *report.Store
	metrics    *metrics.Metrics
	closers    []func() error
}

// Stats is the operator view of the checkpoint, the index and the last run.
type Stats struct {
	Checkpoint domain.Summary   `json:"checkpoint"`
	Index      search.Counts    `json:"index"`
	IndexErr   error            `json:"-"`
	IndexError string           `json:"index_error,omitempty"`
	LastRun    *ports.RunReport `json:"last_run,omitempty"`
}

// New builds every adapter from cfg. The vector index and the embedder are
// created eagerly; network backends connect lazily on first use.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, nil)
	}
	a := &Application{cfg: cfg, logger: baseLogger, metrics: metrics.New()}

	keywords := extract.New(cfg.Pipeline.ExtraBrands...)
	registry := a.registry(keywords)
	stages, err := parser.BuildStages(registry, cfg.Sources, baseLogger.With("component", "source"))
	if err != nil {
		return nil, err
	}

	a.checkpoint = checkpoint.NewFileStore(cfg.Pipeline.OutputDir, baseLogger.With("component", "checkpoint"))

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	index, err := a.newVectorIndex()
	if err != nil {
		return nil, err
	}
	a.search = search.New(embedder, index, cfg.Embedder.BatchSize, baseLogger.With("component", "search"))

	var reports ports.ReportStore
	if cfg.Report.DSN != "" {
		store, err := report.Open(ctx, cfg.Report.Driver, cfg.Report.DSN, baseLogger.With("component", "report"))
		if err != nil {
			baseLogger.Warn("run history disabled", "error", err)
		} else {
			a.reports = store
			reports = store
			a.closers = append(a.closers, store.Close)
		}
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Stages:     stages,
		Registry:   registry,
		Normalizer: normalize.New(keywords),
		Checkpoint: a.checkpoint,
		Exporter:   a.checkpoint,
		Indexer:    a.search,
		Reports:    reports,
		Metrics:    a.metrics,
		Settings: usecase.Settings{
			CheckpointInterval: cfg.Pipeline.CheckpointInterval,
			MinItemsPerBrand:   cfg.Pipeline.MinItemsPerBrand,
			GapFillProvider:    cfg.Pipeline.GapFillProvider,
			GapFillBrands:      cfg.Pipeline.GapFillBrands,
			IndexAfterRun:      cfg.Pipeline.IndexAfterRun,
		},
		Logger: baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

func (a *Application) fetcher(provider string) *httpfetch.Fetcher {
	h := a.cfg.HTTP
	return httpfetch.New(httpfetch.Options{
		UserAgent:         h.UserAgent,
		Timeout:           h.Timeout,
		RequestsPerMinute: h.RequestsPerMinute,
		PoliteDelay:       h.PoliteDelay,
		MaxRetries:        h.MaxRetries,
	}, nil, a.logger.With("component", "fetch."+provider))
}

func (a *Application) registry(keywords *extract.Keywords) *scanner.Registry {
	log := func(name string) *slog.Logger { return a.logger.With("component", "source."+name) }
	reg := scanner.NewRegistry()
	reg.Register(parser.NewCatalog(log("catalog")))
	reg.Register(parser.NewStorefront(a.fetcher("storefront"), log("storefront")))
	reg.Register(parser.NewMarketplace(a.fetcher("marketplace"), a.cfg.HTTP.MarketplaceSearchURL, log("marketplace")))
	reg.Register(parser.NewForum(a.fetcher("forum"), keywords, log("forum")))
	reg.Register(parser.NewReddit(parser.RedditConfig{
		ClientID:     a.cfg.Reddit.ClientID,
		ClientSecret: a.cfg.Reddit.ClientSecret,
		TokenURL:     a.cfg.Reddit.TokenURL,
		APIURL:       a.cfg.Reddit.APIURL,
	}, a.fetcher("reddit"), log("reddit")))
	return reg
}

func newEmbedder(cfg config.Config) (ports.Embedder, error) {
	e := cfg.Embedder
	switch e.Type {
	case "hashing", "":
		return hashing.New(e.Dimension), nil
	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:   e.BaseURL,
			APIKey:    e.APIKey,
			Model:     e.Model,
			Dimension: e.Dimension,
			BatchSize: e.BatchSize,
			Timeout:   e.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder type %q", e.Type)
	}
}

func (a *Application) newVectorIndex() (ports.VectorIndex, error) {
	v := a.cfg.VectorIndex
	logger := a.logger.With("component", "vectorindex."+v.Type)
	switch v.Type {
	case "memory":
		return memory.New(), nil
	case "chromem", "":
		return chromem.New(v.Path, v.Compress, logger)
	case "qdrant":
		idx, err := qdrant.New(qdrant.Config{
			Host:   v.Qdrant.Host,
			Port:   v.Qdrant.Port,
			UseTLS: v.Qdrant.UseTLS,
			APIKey: v.Qdrant.APIKey,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, idx.Close)
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown vector index type %q", v.Type)
	}
}

// Close releases database and network handles.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config { return a.cfg }

// Pipeline exposes the ingestion use case for single-phase commands.
func (a *Application) Pipeline() *usecase.Pipeline { return a.pipeline }

// Search exposes the semantic index adapter.
func (a *Application) Search() *search.Adapter { return a.search }

// Preflight must pass before any ingestion command.
func (a *Application) Preflight() error { return a.pipeline.Preflight() }

// Run performs one full pipeline execution and flushes metrics.
func (a *Application) Run(ctx context.Context) (domain.Summary, error) {
	if err := a.Preflight(); err != nil {
		return domain.Summary{}, err
	}
	summary, err := a.pipeline.RunFull(ctx)
	a.flushMetrics()
	return summary, err
}

// RunEvery repeats full runs every interval until ctx ends.
func (a *Application) RunEvery(ctx context.Context, interval time.Duration) error {
	if err := a.Preflight(); err != nil {
		return err
	}
	ticker := scheduler.NewTicker(interval)
	sched := usecase.NewScheduler(ticker, a.pipeline, func(summary domain.Summary, err error) {
		a.flushMetrics()
		a.logger.Info("run complete", "items", summary.TotalItems, "brands", summary.TotalBrands, "next_in", interval.String())
	}, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ticker.Done()
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// RunSource runs the stages of one source or one "source/target" stage.
func (a *Application) RunSource(ctx context.Context, name string) (domain.Summary, error) {
	if err := a.Preflight(); err != nil {
		return domain.Summary{}, err
	}
	summary, err := a.pipeline.RunStage(ctx, name)
	a.flushMetrics()
	return summary, err
}

func (a *Application) flushMetrics() {
	path := a.cfg.Report.MetricsFile
	if path == "" {
		return
	}
	if err := a.metrics.WriteTextfile(path); err != nil {
		a.logger.Warn("metrics not written", "error", err)
	}
}

// Stats gathers counts without failing when the index is unreachable.
func (a *Application) Stats(ctx context.Context) (Stats, error) {
	st, err := a.pipeline.State()
	if err != nil {
		return Stats{}, err
	}
	out := Stats{Checkpoint: st.Summary()}
	out.Index, out.IndexErr = a.search.Counts(ctx)
	if out.IndexErr != nil {
		out.IndexError = out.IndexErr.Error()
	}
	if a.reports != nil {
		last, err := a.reports.LastRun(ctx)
		switch {
		case err == nil:
			out.LastRun = &last
		case !errors.Is(err, report.ErrNoRuns):
			a.logger.Warn("run history unavailable", "error", err)
		}
	}
	return out, nil
}

// Export writes the JSON export files for the current checkpoint.
func (a *Application) Export() (string, error) {
	st, err := a.pipeline.State()
	if err != nil {
		return "", err
	}
	if err := a.checkpoint.Export(st); err != nil {
		return "", err
	}
	return a.cfg.Pipeline.OutputDir, nil
}

// LoadFile indexes a JSON array of records of one collection kind ("items",
// "brands" or "discussions"), as written by Export. The checkpoint is not touched.
func (a *Application) LoadFile(ctx context.Context, path, kind string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("load: %w", err)
	}
	switch kind {
	case "items":
		items, err := decodeRecords[domain.ClothingItem](raw, path)
		if err != nil {
			return 0, err
		}
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.NewString()
			}
		}
		return a.search.IndexItems(ctx, items)
	case "brands":
		brands, err := decodeRecords[domain.Brand](raw, path)
		if err != nil {
			return 0, err
		}
		for i := range brands {
			if brands[i].ID == "" {
				brands[i].ID = uuid.NewString()
			}
		}
		return a.search.IndexBrands(ctx, brands)
	case "discussions":
		discussions, err := decodeRecords[domain.StyleDiscussion](raw, path)
		if err != nil {
			return 0, err
		}
		for i := range discussions {
			if discussions[i].ID == "" {
				discussions[i].ID = uuid.NewString()
			}
		}
		return a.search.IndexDiscussions(ctx, discussions)
	default:
		return 0, fmt.Errorf("load: unknown type %q (want items, brands or discussions)", kind)
	}
}

func decodeRecords[T domain.Record](raw []byte, path string) ([]T, error) {
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return out, nil
}
