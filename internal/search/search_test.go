package search_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/embedding/hashing"
	"StyleTranslator/internal/infrastructure/vectorindex/memory"
	"StyleTranslator/internal/ports"
	"StyleTranslator/internal/search"
	"StyleTranslator/internal/state"
)

func price(v float64) *float64 { return &v }

func sampleState() *state.State {
	st := state.New()
	st.AdmitItem(domain.ClothingItem{
		ID: "i1", Name: "Merino Crew Knit", Brand: "Norse Projects", Category: "sweater",
		Description: "Minimalist Scandinavian knit in soft merino",
		StyleTags:   []string{"minimalist", "scandinavian"}, Colors: []string{"navy"}, Materials: []string{"wool"},
		PriceUSD: price(180), SourceType: "catalog",
	})
	st.AdmitItem(domain.ClothingItem{
		ID: "i2", Name: "Coverall Jacket", Brand: "Kapital", Category: "jacket",
		Description: "Japanese workwear chore coat in indigo canvas",
		StyleTags:   []string{"workwear", "japanese"}, Colors: []string{"indigo"}, Materials: []string{"canvas"},
		SourceType: "catalog",
	})
	st.AdmitItem(domain.ClothingItem{
		ID: "i3", Name: "Track Pant", Brand: "Acme", Category: "pants",
		Description: "Loud streetwear nylon track pant",
		StyleTags:   []string{"streetwear"}, SourceType: "catalog",
	})
	st.AdmitBrand(domain.Brand{
		ID: "brand_norse_projects", Name: "Norse Projects", Description: "Scandinavian minimalist label",
		Aesthetics: []string{"minimalist", "scandinavian"}, PriceRange: domain.PricePremium, OriginCountry: "Denmark",
	})
	st.AdmitDiscussion(domain.StyleDiscussion{
		ID: "d1", Title: "Best minimalist scandinavian brands?", Content: "Looking for clean basics",
		StyleDescriptors: []string{"minimalist"}, MentionedBrands: []string{"Norse Projects"}, Upvotes: 12,
	})
	return st
}

func newAdapter(t *testing.T) *search.Adapter {
	t.Helper()
	a := search.New(hashing.New(256), memory.New(), 2, nil)
	counts, err := a.IndexState(context.Background(), sampleState())
	require.NoError(t, err)
	require.Equal(t, search.Counts{Items: 3, Brands: 1, Discussions: 1}, counts)
	return a
}

func TestSearchItemsOrderedBySimilarity(t *testing.T) {
	t.Parallel()

	a := newAdapter(t)
	results, err := a.SearchItems(context.Background(), "minimalist scandinavian", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "i1", results[0].Record.ID)
	assert.Equal(t, []string{"minimalist", "scandinavian"}, results[0].Record.StyleTags)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
	for _, r := range results {
		assert.Greater(t, r.Similarity, 0.0)
		assert.LessOrEqual(t, r.Similarity, 1.0)
	}
}

func TestSearchItemsWithBrandFilter(t *testing.T) {
	t.Parallel()

	a := newAdapter(t)
	results, err := a.SearchItems(context.Background(), "minimalist scandinavian", 10, map[string]string{"brand": "Kapital"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "i2", results[0].Record.ID)
}

func TestComprehensiveSearchKeepsListsSeparate(t *testing.T) {
	t.Parallel()

	a := newAdapter(t)
	res, err := a.ComprehensiveSearch(context.Background(), "scandinavian minimalist", 2, 5, 3)
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	require.Len(t, res.Brands, 1)
	assert.Equal(t, "Norse Projects", res.Brands[0].Record.Name)
	require.Len(t, res.Discussions, 1)
	assert.Equal(t, 12, res.Discussions[0].Record.Upvotes)
}

func TestEmptyCollectionReturnsEmptyList(t *testing.T) {
	t.Parallel()

	a := search.New(hashing.New(32), memory.New(), 0, nil)
	res, err := a.ComprehensiveSearch(context.Background(), "anything", 10, 5, 3)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Empty(t, res.Brands)
	assert.Empty(t, res.Discussions)

	counts, err := a.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, search.Counts{}, counts)
}

func TestUnknownCollection(t *testing.T) {
	t.Parallel()

	a := search.New(hashing.New(32), memory.New(), 0, nil)
	_, err := a.Search(context.Background(), "shoes", "boots", 3, nil)
	require.ErrorIs(t, err, search.ErrUnknownCollection)
}

type brokenEmbedder struct{ err error }

func (b brokenEmbedder) Name() string   { return "broken" }
func (b brokenEmbedder) Dimension() int { return 8 }
func (b brokenEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, b.err
}
func (b brokenEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, b.err
}

var _ ports.Embedder = brokenEmbedder{}

func TestIndexUnavailableIsSurfaced(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	a := search.New(brokenEmbedder{err: cause}, memory.New(), 0, nil)

	_, err := a.SearchItems(context.Background(), "workwear", 5, nil)
	require.ErrorIs(t, err, search.ErrIndexUnavailable)
	require.ErrorIs(t, err, cause)

	_, err = a.IndexState(context.Background(), sampleState())
	require.ErrorIs(t, err, search.ErrIndexUnavailable)
}

func TestClearDropsCollections(t *testing.T) {
	t.Parallel()

	a := newAdapter(t)
	require.NoError(t, a.Clear(context.Background()))
	counts, err := a.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, search.Counts{}, counts)
}
