package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/state"
	"StyleTranslator/internal/usecase"
)

func TestPriceBucketBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		prices []float64
		want   string
	}{
		{nil, domain.PriceMid},
		{[]float64{500}, domain.PricePremium},
		{[]float64{500.01}, domain.PriceLuxury},
		{[]float64{200}, domain.PriceMid},
		{[]float64{200.5}, domain.PricePremium},
		{[]float64{50}, domain.PriceMid},
		{[]float64{49.99}, domain.PriceBudget},
		{[]float64{100, 1100}, domain.PriceLuxury},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, usecase.PriceBucket(tc.prices), "prices %v", tc.prices)
	}
}

func price(v float64) *float64 { return &v }

func TestSynthesizeBrand(t *testing.T) {
	t.Parallel()

	items := []domain.ClothingItem{
		{Brand: "Our Legacy", Category: "shirt", Fit: "boxy", StyleTags: []string{"minimalist", "scandinavian"},
			Colors: []string{"ecru"}, Materials: []string{"cotton"}, PriceUSD: price(250)},
		{Brand: "Our Legacy", Category: "pants", Fit: "relaxed", StyleTags: []string{"minimalist"},
			Colors: []string{"black", "ecru"}, PriceUSD: price(350)},
		{Brand: "Our Legacy", Category: "shirt"},
	}
	agg := usecase.AggregateItems("Our Legacy", items)
	assert.Equal(t, []string{"shirt", "pants"}, agg.Categories)
	assert.Equal(t, []string{"ecru", "black"}, agg.Colors)
	assert.Equal(t, []string{"cotton"}, agg.Materials)
	assert.Equal(t, []float64{250, 350}, agg.Prices)

	b := usecase.SynthesizeBrand(agg, "2026-01-01T00:00:00Z")
	assert.Equal(t, "brand_our_legacy", b.ID)
	assert.Equal(t, "Our Legacy brand profile generated from 3 items.", b.Description)
	assert.Equal(t, []string{"minimalist", "scandinavian"}, b.Aesthetics)
	assert.Equal(t, []string{"boxy", "relaxed"}, b.TypicalFits)
	assert.Equal(t, []string{"shirt", "pants"}, b.SignatureItems)
	assert.Equal(t, domain.PricePremium, b.PriceRange)
	assert.Equal(t, usecase.SourceSynthesized, b.SourceType)
	assert.Empty(t, b.OriginCountry)
}

func TestSynthesizeBrandTruncatesSamples(t *testing.T) {
	t.Parallel()

	var items []domain.ClothingItem
	for _, c := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		items = append(items, domain.ClothingItem{Brand: "X", Category: c, Fit: c,
			StyleTags: []string{c + "1", c + "2"}})
	}
	b := usecase.SynthesizeBrand(usecase.AggregateItems("X", items), "")
	assert.Len(t, b.SignatureItems, 5)
	assert.Len(t, b.TypicalFits, 5)
	assert.Len(t, b.Aesthetics, 10)
}

func TestBuildBrandProfilesFirstWriteWins(t *testing.T) {
	t.Parallel()

	st := state.New()
	st.AdmitItem(domain.ClothingItem{ID: "1", Name: "Tee", Brand: "Acme", Category: "t-shirt", PriceUSD: price(30)})
	st.AdmitItem(domain.ClothingItem{ID: "2", Name: "Coat", Brand: "Curated", Category: "jacket"})
	st.AdmitBrand(domain.Brand{ID: "brand_curated", Name: "Curated", Description: "hand written", PriceRange: domain.PriceLuxury})

	p := newPipeline(nil, nil, &memCheckpoint{initial: st}, usecase.Settings{})
	added, err := p.BuildBrandProfiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	require.Len(t, st.Brands, 2)
	assert.Equal(t, "hand written", st.Brands[0].Description)
	assert.Equal(t, "Acme", st.Brands[1].Name)
	assert.Equal(t, domain.PriceBudget, st.Brands[1].PriceRange)

	assert.False(t, st.AdmitBrand(domain.Brand{ID: "brand_acme", Name: "Acme", Description: "late explicit"}))
	assert.Equal(t, "Acme brand profile generated from 1 items.", st.Brands[1].Description)

	added, err = p.BuildBrandProfiles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, added)
}
