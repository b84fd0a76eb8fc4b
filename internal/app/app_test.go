package app_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StyleTranslator/internal/app"
	"StyleTranslator/internal/config"
)

const seed = `
brands:
  - name: Our Legacy
    description: minimalist scandinavian tailoring
    price_range: premium
    items:
      - id: ol-1
        name: Borrowed Shirt
        description: oversized white cotton shirt
        price_usd: 240
items:
  - id: uq-1
    name: Crew Neck T-Shirt
    brand: Uniqlo
    price_usd: 19.9
discussions:
  - id: d-1
    title: Minimalist scandinavian basics
    content: Our Legacy shirts with Uniqlo tees.
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(seed), 0o644))

	return config.Config{
		Logging: config.LoggingConfig{Level: "error"},
		Pipeline: config.PipelineConfig{
			OutputDir:          filepath.Join(dir, "out"),
			CheckpointInterval: 100,
			IndexAfterRun:      true,
		},
		Sources: []config.SourceConfig{{
			Name:     "seed",
			Provider: "catalog",
			Targets:  []config.TargetConfig{{Name: "samples", URL: catalog}},
		}},
		Embedder:    config.EmbedderConfig{Type: "hashing", Dimension: 128},
		VectorIndex: config.VectorIndexConfig{Type: "memory"},
		Search:      config.SearchConfig{Items: 5, Brands: 5, Discussions: 5},
		Report: config.ReportConfig{
			Driver:      "sqlite",
			DSN:         filepath.Join(dir, "report.db"),
			MetricsFile: filepath.Join(dir, "metrics", "styletranslator.prom"),
		},
	}
}

func TestApplicationRunIndexesAndReports(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	a, err := app.New(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	summary, err := a.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalItems)
	assert.Equal(t, 1, summary.TotalDiscussions)
	// Uniqlo is known only through an item and gets a synthesized profile.
	assert.Equal(t, 2, summary.TotalBrands)

	stats, err := a.Stats(ctx)
	require.NoError(t, err)
	require.NoError(t, stats.IndexErr)
	assert.Equal(t, 2, stats.Index.Items)
	assert.Equal(t, 2, stats.Index.Brands)
	assert.Equal(t, 1, stats.Index.Discussions)
	require.NotNil(t, stats.LastRun)
	assert.Equal(t, 2, stats.LastRun.Summary.TotalItems)

	res, err := a.Search().SearchItems(ctx, "white cotton shirt", 1, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "ol-1", res[0].Record.ID)

	assert.FileExists(t, cfg.Report.MetricsFile)

	dir, err := a.Export()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "items.json"))
}

func TestNewRejectsUnknownBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.VectorIndex.Type = "faiss"
	_, err := app.New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unknown vector index type")

	cfg = testConfig(t)
	cfg.Embedder.Type = "word2vec"
	_, err = app.New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unknown embedder type")
}

func TestExportThenLoadIntoFreshIndex(t *testing.T) {
	ctx := context.Background()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	src, err := app.New(ctx, testConfig(t), quiet)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	_, err = src.Run(ctx)
	require.NoError(t, err)
	dir, err := src.Export()
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Report.DSN = ""
	dst, err := app.New(ctx, cfg, quiet)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dst.Close() })

	for kind, want := range map[string]int{"items": 2, "brands": 2, "discussions": 1} {
		n, err := dst.LoadFile(ctx, filepath.Join(dir, kind+".json"), kind)
		require.NoError(t, err, kind)
		assert.Equal(t, want, n, kind)
	}

	res, err := dst.Search().SearchItems(ctx, "white cotton shirt", 1, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "ol-1", res[0].Record.ID)
	assert.Equal(t, []string{"white"}, res[0].Record.Colors)

	brands, err := dst.Search().SearchBrands(ctx, "minimalist scandinavian", 2)
	require.NoError(t, err)
	assert.Len(t, brands, 2)

	_, err = dst.LoadFile(ctx, filepath.Join(dir, "items.json"), "outfits")
	assert.ErrorContains(t, err, "unknown type")
}
