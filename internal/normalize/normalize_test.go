package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/scanner"
)

func fixedNormalizer() *Normalizer {
	n := New(nil)
	n.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return n
}

func TestNormalizeItemFillsGaps(t *testing.T) {
	t.Parallel()

	rec, err := fixedNormalizer().Normalize(scanner.Record{
		Kind:   domain.KindItem,
		Source: "marketplace",
		Fields: map[string]any{
			"name":      "Vintage Relaxed Olive Wool Field Jacket",
			"brand":     "Acme",
			"price_usd": "$1,250.00",
		},
	})
	require.NoError(t, err)

	item, ok := rec.(domain.ClothingItem)
	require.True(t, ok)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "jacket", item.Category)
	assert.Equal(t, "relaxed", item.Fit)
	assert.Equal(t, []string{"olive"}, item.Colors)
	assert.Equal(t, []string{"wool"}, item.Materials)
	assert.Equal(t, []string{"vintage", "military"}, item.StyleTags)
	assert.Equal(t, "marketplace", item.SourceType)
	assert.Equal(t, item.Name, item.Description)
	assert.Equal(t, "2026-03-01T12:00:00Z", item.CreatedAt)
	price, ok := item.Price()
	require.True(t, ok)
	assert.InDelta(t, 1250.0, price, 1e-9)
}

func TestNormalizeItemKeepsProvidedLists(t *testing.T) {
	t.Parallel()

	rec, err := fixedNormalizer().Normalize(scanner.Record{
		Kind: domain.KindItem,
		Fields: map[string]any{
			"id":         "item-1",
			"name":       "Black Overshirt",
			"brand":      "Acme",
			"category":   "Shirt",
			"colors":     []any{"ecru", "ecru", " navy "},
			"style_tags": "minimal, japanese",
		},
	})
	require.NoError(t, err)

	item := rec.(domain.ClothingItem)
	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, "shirt", item.Category)
	assert.Equal(t, []string{"ecru", "navy"}, item.Colors)
	assert.Equal(t, []string{"minimal", "japanese"}, item.StyleTags)
	assert.Equal(t, "unknown", item.SourceType)
	assert.Nil(t, item.PriceUSD)
}

func TestNormalizeRejectsIncompleteRecords(t *testing.T) {
	t.Parallel()

	n := fixedNormalizer()
	cases := []scanner.Record{
		{Kind: domain.KindItem, Fields: map[string]any{"name": "No brand"}},
		{Kind: domain.KindBrand, Fields: map[string]any{"description": "nameless"}},
		{Kind: domain.KindDiscussion, Fields: map[string]any{"content": "untitled"}},
		{Kind: "hat", Fields: map[string]any{"name": "x"}},
		{Kind: domain.KindItem},
	}
	for _, raw := range cases {
		_, err := n.Normalize(raw)
		assert.ErrorIs(t, err, ErrInvalidRecord)
	}
}

func TestNormalizeBrandDefaults(t *testing.T) {
	t.Parallel()

	rec, err := fixedNormalizer().Normalize(scanner.Record{
		Kind: domain.KindBrand,
		Fields: map[string]any{
			"name":        "Our Legacy",
			"description": "Minimalist Scandinavian label",
			"price_range": "expensive",
		},
	})
	require.NoError(t, err)

	brand := rec.(domain.Brand)
	assert.Equal(t, "brand_our_legacy", brand.ID)
	assert.Equal(t, domain.PriceMid, brand.PriceRange)
	assert.Equal(t, []string{"minimalist", "scandinavian"}, brand.Aesthetics)
	assert.NotNil(t, brand.SimilarBrands)
}

func TestNormalizeDiscussionExtractsMentionsAndTruncates(t *testing.T) {
	t.Parallel()

	body := "Our Legacy vs Norse Projects for minimalist knitwear. " + strings.Repeat("x", 6000)
	rec, err := fixedNormalizer().Normalize(scanner.Record{
		Kind: domain.KindDiscussion,
		Fields: map[string]any{
			"title":   "Scandi sweaters",
			"content": body,
			"upvotes": 42.0,
		},
	})
	require.NoError(t, err)

	d := rec.(domain.StyleDiscussion)
	assert.Len(t, []rune(d.Content), domain.MaxDiscussionContent)
	assert.Equal(t, []string{"Our Legacy", "Norse Projects"}, d.MentionedBrands)
	assert.Equal(t, []string{"sweater", "knitwear"}, d.MentionedItems)
	assert.Contains(t, d.StyleDescriptors, "minimalist")
	assert.Equal(t, 42, d.Upvotes)
}

func TestBrandID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "brand_engineered_garments", BrandID(" Engineered Garments "))
}

func TestNormalizeDropsNonFiniteNumbers(t *testing.T) {
	t.Parallel()

	var fields []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(`
- {name: Tee A, brand: Acme, price_usd: .nan}
- {name: Tee B, brand: Acme, price_usd: .inf}
- {name: Tee C, brand: Acme, price_usd: -.inf}
`), &fields))

	for _, f := range fields {
		rec, err := fixedNormalizer().Normalize(scanner.Record{Kind: domain.KindItem, Fields: f})
		require.NoError(t, err)
		item := rec.(domain.ClothingItem)
		assert.Nil(t, item.PriceUSD, item.Name)
		_, err = json.Marshal(item)
		assert.NoError(t, err, item.Name)
	}

	rec, err := fixedNormalizer().Normalize(scanner.Record{
		Kind:   domain.KindDiscussion,
		Fields: map[string]any{"title": "Thread", "upvotes": math.NaN(), "num_comments": math.Inf(1)},
	})
	require.NoError(t, err)
	d := rec.(domain.StyleDiscussion)
	assert.Zero(t, d.Upvotes)
	assert.Zero(t, d.NumComments)
}
