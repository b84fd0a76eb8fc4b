package usecase

import (
	"fmt"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/normalize"
	"StyleTranslator/internal/state"
)

// SourceSynthesized tags brands built from their items.
const SourceSynthesized = "synthesized"

const (
	maxAesthetics     = 10
	maxTypicalFits    = 5
	maxSignatureItems = 5
)

// Aggregate is the union of a brand's item attributes, in first-seen order.
type Aggregate struct {
	Brand      string
	ItemCount  int
	Categories []string
	Colors     []string
	Materials  []string
	StyleTags  []string
	Fits       []string
	Prices     []float64
}

type orderedSet struct {
	seen   map[string]struct{}
	values []string
}

func (s *orderedSet) add(values ...string) {
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.values = append(s.values, v)
	}
}

// AggregateItems folds the items of one brand.
func AggregateItems(brand string, items []domain.ClothingItem) Aggregate {
	var categories, colors, materials, tags, fits orderedSet
	agg := Aggregate{Brand: brand, ItemCount: len(items)}
	for _, item := range items {
		categories.add(item.Category)
		colors.add(item.Colors...)
		materials.add(item.Materials...)
		tags.add(item.StyleTags...)
		fits.add(item.Fit)
		if p, ok := item.Price(); ok && p > 0 {
			agg.Prices = append(agg.Prices, p)
		}
	}
	agg.Categories = categories.values
	agg.Colors = colors.values
	agg.Materials = materials.values
	agg.StyleTags = tags.values
	agg.Fits = fits.values
	return agg
}

// PriceBucket maps an average price to a range. Boundaries are exclusive:
// 500 is premium, 200 and 50 are mid. No prices means mid.
func PriceBucket(prices []float64) string {
	if len(prices) == 0 {
		return domain.PriceMid
	}
	var sum float64
	for _, p := range prices {
		sum += p
	}
	avg := sum / float64(len(prices))
	switch {
	case avg > 500:
		return domain.PriceLuxury
	case avg > 200:
		return domain.PricePremium
	case avg < 50:
		return domain.PriceBudget
	default:
		return domain.PriceMid
	}
}

// SynthesizeBrand builds a compact brand profile from an aggregate.
func SynthesizeBrand(agg Aggregate, createdAt string) domain.Brand {
	return domain.Brand{
		ID:             normalize.BrandID(agg.Brand),
		Name:           agg.Brand,
		Description:    fmt.Sprintf("%s brand profile generated from %d items.", agg.Brand, agg.ItemCount),
		Aesthetics:     head(agg.StyleTags, maxAesthetics),
		TypicalFits:    head(agg.Fits, maxTypicalFits),
		PriceRange:     PriceBucket(agg.Prices),
		SignatureItems: head(agg.Categories, maxSignatureItems),
		SimilarBrands:  []string{},
		SourceType:     SourceSynthesized,
		CreatedAt:      createdAt,
	}
}

func head(values []string, n int) []string {
	out := make([]string, 0, min(len(values), n))
	for i := 0; i < len(values) && i < n; i++ {
		out = append(out, values[i])
	}
	return out
}

// buildBrandProfiles synthesizes a Brand for every item brand without one.
// Synthesized brands go through the same admit path, so an explicit brand
// arriving later for the same name is dropped.
func (p *Pipeline) buildBrandProfiles(st *state.State) int {
	createdAt := p.now().UTC().Format("2006-01-02T15:04:05Z07:00")
	grouped := st.ItemsByBrand()
	added := 0
	for _, brand := range itemBrandsInOrder(st) {
		if st.HasBrand(brand) {
			continue
		}
		profile := SynthesizeBrand(AggregateItems(brand, grouped[brand]), createdAt)
		if st.AdmitBrand(profile) {
			added++
			p.metrics.RecordAdmitted(domain.KindBrand, SourceSynthesized)
		}
	}
	p.logger.Info("brand profiles built", "added", added, "brands", len(st.Brands))
	p.save(st)
	return added
}

// itemBrandsInOrder lists item brands by first appearance.
func itemBrandsInOrder(st *state.State) []string {
	var names orderedSet
	for _, item := range st.Items {
		names.add(item.Brand)
	}
	return names.values
}
