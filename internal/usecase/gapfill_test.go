package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/scanner"
	"StyleTranslator/internal/state"
	"StyleTranslator/internal/usecase"
)

func seeded(counts map[string]int) *state.State {
	st := state.New()
	for brand, n := range counts {
		for i := range n {
			st.AdmitItem(domain.ClothingItem{
				ID: fmt.Sprintf("%s-%d", brand, i), Name: fmt.Sprintf("Piece %d", i),
				Brand: brand, Category: "shirt", SourceType: "catalog",
			})
		}
	}
	return st
}

// marketplace returns up to supply fresh items per query, capped by MaxResults.
func marketplace(supply int) *fakeProvider {
	return &fakeProvider{name: "marketplace", fetch: func(req scanner.Request) ([]scanner.Record, error) {
		n := min(supply, req.MaxResults)
		out := make([]scanner.Record, 0, n)
		for i := range n {
			out = append(out, itemRecord(req.Query, fmt.Sprintf("Listing %d", i), "jacket", nil))
		}
		return out, nil
	}}
}

func gapPipeline(st *state.State, fallback *fakeProvider, settings usecase.Settings) *usecase.Pipeline {
	reg := scanner.NewRegistry()
	reg.Register(fallback)
	settings.GapFillProvider = fallback.Name()
	return newPipeline(nil, reg, &memCheckpoint{initial: st}, settings)
}

func TestGapFillRequestsExactlyMissingAndToleratesEmpty(t *testing.T) {
	t.Parallel()

	fallback := marketplace(0)
	p := gapPipeline(seeded(map[string]int{"Acme": 2, "Kapital": 3}), fallback, usecase.Settings{MinItemsPerBrand: 3})

	report, err := p.FillBrandGaps(context.Background())
	require.NoError(t, err)

	require.Len(t, fallback.requests, 1)
	assert.Equal(t, "Acme", fallback.requests[0].Query)
	assert.Equal(t, 1, fallback.requests[0].MaxResults)
	assert.Equal(t, "gapfill/Acme", fallback.requests[0].Stage)

	require.Len(t, report.Brands, 1)
	assert.Equal(t, usecase.GapFill{Brand: "Acme", Had: 2, Requested: 1, Added: 0}, report.Brands[0])

	st, _ := p.State()
	assert.Equal(t, 2, st.ItemCountsByBrand()["Acme"])
	assert.Empty(t, st.Stats.Errors)
}

func TestGapFillReachesThreshold(t *testing.T) {
	t.Parallel()

	fallback := marketplace(10)
	p := gapPipeline(seeded(map[string]int{"Acme": 1}), fallback, usecase.Settings{MinItemsPerBrand: 4})

	_, err := p.FillBrandGaps(context.Background())
	require.NoError(t, err)

	st, _ := p.State()
	assert.Equal(t, 4, st.ItemCountsByBrand()["Acme"])
	assert.Equal(t, 3, fallback.requests[0].MaxResults)

	_, err = p.FillBrandGaps(context.Background())
	require.NoError(t, err)
	assert.Len(t, fallback.requests, 1, "brand at threshold is not fetched again")
}

func TestGapFillUsesConfiguredBrandList(t *testing.T) {
	t.Parallel()

	fallback := marketplace(5)
	p := gapPipeline(seeded(map[string]int{"Acme": 1}), fallback,
		usecase.Settings{MinItemsPerBrand: 2, GapFillBrands: []string{"Visvim"}})

	_, err := p.FillBrandGaps(context.Background())
	require.NoError(t, err)
	require.Len(t, fallback.requests, 1)
	assert.Equal(t, "Visvim", fallback.requests[0].Query)
	assert.Equal(t, 2, fallback.requests[0].MaxResults)
}

func TestGapFillErrorIsRecordedPerBrand(t *testing.T) {
	t.Parallel()

	fallback := &fakeProvider{name: "marketplace", fetch: func(req scanner.Request) ([]scanner.Record, error) {
		if req.Query == "Acme" {
			return nil, errors.New("blocked")
		}
		return []scanner.Record{itemRecord(req.Query, "Listing", "jacket", nil)}, nil
	}}
	p := gapPipeline(seeded(map[string]int{"Acme": 0, "Kapital": 1}), fallback, usecase.Settings{MinItemsPerBrand: 2})
	st, _ := p.State()
	st.AdmitBrand(domain.Brand{ID: "brand_acme", Name: "Acme"})

	report, err := p.FillBrandGaps(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Brands, 2)
	require.Len(t, st.Stats.Errors, 1)
	assert.Equal(t, "gapfill/Acme", st.Stats.Errors[0].Stage)
	assert.Equal(t, 2, st.ItemCountsByBrand()["Kapital"])
}
