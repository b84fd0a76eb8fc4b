package parser

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/scanner"
)

// catalogFile is the curated seed format: brands with their items, plus free discussions.
type catalogFile struct {
	Brands      []catalogBrand   `yaml:"brands"`
	Items       []map[string]any `yaml:"items"`
	Discussions []map[string]any `yaml:"discussions"`
}

type catalogBrand struct {
	Fields map[string]any   `yaml:",inline"`
	Items  []map[string]any `yaml:"items"`
}

// Catalog reads brands, items and discussions from a local YAML seed file.
type Catalog struct {
	logger *slog.Logger
}

var _ scanner.Provider = (*Catalog)(nil)

// NewCatalog builds the seed provider.
func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{logger: logger}
}

// Name identifies the provider inside the registry.
func (c *Catalog) Name() string { return "catalog" }

// Fetch yields each brand followed by its items, then loose items and discussions.
// MaxResults caps the number of item records.
func (c *Catalog) Fetch(ctx context.Context, req scanner.Request) iter.Seq2[scanner.Record, error] {
	path := option(req.Options, "path", req.Target.URL)
	if path == "" {
		return scanner.Failed(fmt.Errorf("catalog target %q has no path", req.Target.Name))
	}
	source := option(req.Options, "source_type", c.Name())

	return func(yield func(scanner.Record, error) bool) {
		raw, err := os.ReadFile(path)
		if err != nil {
			yield(scanner.Record{}, fmt.Errorf("read catalog: %w", err))
			return
		}
		var file catalogFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			yield(scanner.Record{}, fmt.Errorf("parse catalog %s: %w", path, err))
			return
		}

		items := 0
		emit := func(kind domain.Kind, fields map[string]any) bool {
			if ctx.Err() != nil {
				yield(scanner.Record{}, ctx.Err())
				return false
			}
			if kind == domain.KindItem {
				if req.MaxResults > 0 && items >= req.MaxResults {
					return true
				}
				items++
			}
			return yield(scanner.Record{Kind: kind, Source: source, Fields: fields}, nil)
		}

		for _, b := range file.Brands {
			if !emit(domain.KindBrand, b.Fields) {
				return
			}
			name, _ := b.Fields["name"].(string)
			for _, item := range b.Items {
				if _, ok := item["brand"]; !ok && item != nil {
					item["brand"] = name
				}
				if !emit(domain.KindItem, item) {
					return
				}
			}
		}
		for _, item := range file.Items {
			if !emit(domain.KindItem, item) {
				return
			}
		}
		for _, d := range file.Discussions {
			if !emit(domain.KindDiscussion, d) {
				return
			}
		}
		c.logger.Debug("catalog read", "path", path, "brands", len(file.Brands), "items", items, "discussions", len(file.Discussions))
	}
}
