package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StyleTranslator/internal/domain"
)

func acmeJacket(id, description string) domain.ClothingItem {
	return domain.ClothingItem{
		ID:          id,
		Name:        "Work Jacket",
		Brand:       "Acme",
		Category:    "jacket",
		Description: description,
		SourceType:  "catalog",
	}
}

func TestAdmitItemIsIdempotentOnDedupKey(t *testing.T) {
	t.Parallel()

	s := New()
	assert.True(t, s.AdmitItem(acmeJacket("1", "first")))
	assert.False(t, s.AdmitItem(acmeJacket("2", "second")))

	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Stats.ItemsScraped)
	assert.Equal(t, 1, s.Stats.Sources["catalog"])
}

func TestThreeAcmeDuplicatesAdmitOnlyFirst(t *testing.T) {
	t.Parallel()

	s := New()
	admitted := 0
	for _, item := range []domain.ClothingItem{
		acmeJacket("a", "one"),
		acmeJacket("b", "two"),
		{ID: "c", Name: "WORK JACKET", Brand: "acme", Category: "Jacket", Description: "three"},
	} {
		if s.Admit(item) {
			admitted++
		}
	}

	assert.Equal(t, 1, admitted)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "a", s.Items[0].ID)
	assert.Equal(t, "one", s.Items[0].Description)
}

func TestAdmitBrandFirstWriteWins(t *testing.T) {
	t.Parallel()

	s := New()
	assert.True(t, s.AdmitBrand(domain.Brand{ID: "b1", Name: "Acme", Description: "synthesized"}))
	assert.False(t, s.AdmitBrand(domain.Brand{ID: "b2", Name: "Acme", Description: "curated"}))
	assert.True(t, s.AdmitBrand(domain.Brand{ID: "b3", Name: "acme"}))

	assert.Equal(t, "synthesized", s.Brands[0].Description)
	assert.True(t, s.HasBrand("Acme"))
	assert.Len(t, s.Brands, 2)
}

func TestDiscussionsAlwaysAdmit(t *testing.T) {
	t.Parallel()

	s := New()
	d := domain.StyleDiscussion{ID: "d", Title: "same"}
	assert.True(t, s.AdmitDiscussion(d))
	assert.True(t, s.AdmitDiscussion(d))
	assert.Len(t, s.Discussions, 2)
}

func TestRebuildRestoresDerivedSets(t *testing.T) {
	t.Parallel()

	s := &State{
		Items:  []domain.ClothingItem{acmeJacket("1", "x"), acmeJacket("2", "dup")},
		Brands: []domain.Brand{{Name: "Orslow"}},
	}
	s.Rebuild()

	assert.Len(t, s.Items, 1)
	assert.Equal(t, []string{"Acme", "Orslow"}, s.DiscoveredBrands())
	assert.False(t, s.AdmitItem(acmeJacket("3", "again")))
	assert.False(t, s.AdmitBrand(domain.Brand{Name: "Orslow"}))
	assert.NotNil(t, s.Stats.Sources)
	assert.Equal(t, map[string]int{"Acme": 1}, s.ItemCountsByBrand())
}

func TestSummaryAndErrors(t *testing.T) {
	t.Parallel()

	s := New()
	s.AdmitItem(acmeJacket("1", "x"))
	s.AdmitBrand(domain.Brand{Name: "Orslow", SourceType: "catalog"})
	s.AdmitDiscussion(domain.StyleDiscussion{Title: "Fit check", SourceType: "reddit"})
	s.RecordError("storefront/jackets", "timeout")

	sum := s.Summary()
	assert.Equal(t, 1, sum.TotalItems)
	assert.Equal(t, 1, sum.TotalBrands)
	assert.Equal(t, 2, sum.UniqueBrands)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, map[string]int{"catalog": 1}, sum.Sources, "only items are counted per source")
	assert.Equal(t, []domain.StageError{{Stage: "storefront/jackets", Message: "timeout"}}, s.Stats.Errors)
}
