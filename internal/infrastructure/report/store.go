// Package report keeps a history of pipeline runs in SQLite or Postgres so
// operators can inspect the last run without opening the checkpoint.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/ports"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// ErrNoRuns is returned by LastRun before any run was recorded.
var ErrNoRuns = errors.New("no runs recorded")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		total_items INTEGER NOT NULL,
		total_brands INTEGER NOT NULL,
		total_discussions INTEGER NOT NULL,
		unique_brands INTEGER NOT NULL,
		errors INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS run_sources (
		run_id TEXT NOT NULL,
		source TEXT NOT NULL,
		records INTEGER NOT NULL,
		PRIMARY KEY (run_id, source)
	)`,
	`CREATE TABLE IF NOT EXISTS run_errors (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		stage TEXT NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
}

type Store struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.ReportStore = (*Store)(nil)

// Open connects to the report database and creates the tables if needed.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var placeholders sq.PlaceholderFormat
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		placeholders = sq.Question
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	case DriverPostgres:
		placeholders = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported report driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open report db: %w", err)
	}
	s := NewStore(db, placeholders, logger)
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an already opened database.
func NewStore(db *sql.DB, placeholders sq.PlaceholderFormat, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholders),
		now:    time.Now,
		logger: logger,
	}
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate report db: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record stores one run: its summary, per-source counts and stage errors.
func (s *Store) Record(ctx context.Context, runID string, summary domain.Summary, stats domain.Stats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run := s.sb.Insert("runs").
		Columns("run_id", "created_at", "total_items", "total_brands", "total_discussions", "unique_brands", "errors").
		Values(runID, s.now().UTC().Format(timeLayout), summary.TotalItems, summary.TotalBrands,
			summary.TotalDiscussions, summary.UniqueBrands, summary.Errors)
	if err := exec(ctx, tx, run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(summary.Sources) > 0 {
		names := make([]string, 0, len(summary.Sources))
		for name := range summary.Sources {
			names = append(names, name)
		}
		sort.Strings(names)
		sources := s.sb.Insert("run_sources").Columns("run_id", "source", "records")
		for _, name := range names {
			sources = sources.Values(runID, name, summary.Sources[name])
		}
		if err := exec(ctx, tx, sources); err != nil {
			return fmt.Errorf("insert run sources: %w", err)
		}
	}

	if len(stats.Errors) > 0 {
		errs := s.sb.Insert("run_errors").Columns("run_id", "seq", "stage", "message")
		for i, e := range stats.Errors {
			errs = errs.Values(runID, i, e.Stage, e.Message)
		}
		if err := exec(ctx, tx, errs); err != nil {
			return fmt.Errorf("insert run errors: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	s.logger.Info("run recorded", "run_id", runID, "items", summary.TotalItems, "errors", len(stats.Errors))
	return nil
}

func exec(ctx context.Context, tx *sql.Tx, b sq.InsertBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// LastRun returns the most recently recorded run.
func (s *Store) LastRun(ctx context.Context) (ports.RunReport, error) {
	query, args, err := s.sb.
		Select("run_id", "created_at", "total_items", "total_brands", "total_discussions", "unique_brands", "errors").
		From("runs").
		OrderBy("created_at DESC", "run_id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return ports.RunReport{}, fmt.Errorf("build last run query: %w", err)
	}

	var r ports.RunReport
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&r.RunID, &r.CreatedAt,
		&r.Summary.TotalItems, &r.Summary.TotalBrands, &r.Summary.TotalDiscussions,
		&r.Summary.UniqueBrands, &r.Summary.Errors,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RunReport{}, ErrNoRuns
	}
	if err != nil {
		return ports.RunReport{}, fmt.Errorf("query last run: %w", err)
	}

	if r.Summary.Sources, err = s.sources(ctx, r.RunID); err != nil {
		return ports.RunReport{}, err
	}
	if r.Errors, err = s.stageErrors(ctx, r.RunID); err != nil {
		return ports.RunReport{}, err
	}
	return r, nil
}

func (s *Store) sources(ctx context.Context, runID string) (map[string]int, error) {
	query, args, err := s.sb.Select("source", "records").From("run_sources").
		Where(sq.Eq{"run_id": runID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sources query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (s *Store) stageErrors(ctx context.Context, runID string) ([]domain.StageError, error) {
	query, args, err := s.sb.Select("stage", "message").From("run_errors").
		Where(sq.Eq{"run_id": runID}).OrderBy("seq").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build errors query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query errors: %w", err)
	}
	defer rows.Close()

	out := []domain.StageError{}
	for rows.Next() {
		var e domain.StageError
		if err := rows.Scan(&e.Stage, &e.Message); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
