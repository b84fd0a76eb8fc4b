// Package state holds the pipeline's accumulated records and the derived
// dedup indexes. The derived sets are always rebuildable from the collections.
package state

import (
	"sort"

	"StyleTranslator/internal/domain"
)

// State is the unit that gets checkpointed.
type State struct {
	Items       []domain.ClothingItem
	Brands      []domain.Brand
	Discussions []domain.StyleDiscussion
	Stats       domain.Stats

	itemKeys   map[string]struct{}
	brandNames map[string]struct{}
	discovered map[string]struct{}
}

// New returns an empty state.
func New() *State {
	s := &State{Stats: domain.NewStats()}
	s.Rebuild()
	return s
}

// Rebuild recomputes the dedup sets and per-kind counters from the collections.
// Items that collide on the dedup key are dropped, keeping the first.
func (s *State) Rebuild() {
	s.itemKeys = make(map[string]struct{}, len(s.Items))
	s.brandNames = make(map[string]struct{}, len(s.Brands))
	s.discovered = map[string]struct{}{}
	if s.Stats.Sources == nil {
		s.Stats.Sources = map[string]int{}
	}
	if s.Stats.Errors == nil {
		s.Stats.Errors = []domain.StageError{}
	}

	items := s.Items[:0]
	for _, item := range s.Items {
		key := item.DedupKey()
		if _, dup := s.itemKeys[key]; dup {
			continue
		}
		s.itemKeys[key] = struct{}{}
		s.discovered[item.Brand] = struct{}{}
		items = append(items, item)
	}
	s.Items = items

	brands := s.Brands[:0]
	for _, brand := range s.Brands {
		if _, dup := s.brandNames[brand.DedupKey()]; dup {
			continue
		}
		s.brandNames[brand.DedupKey()] = struct{}{}
		s.discovered[brand.Name] = struct{}{}
		brands = append(brands, brand)
	}
	s.Brands = brands

	s.Stats.ItemsScraped = len(s.Items)
	s.Stats.BrandsDiscovered = len(s.Brands)
	s.Stats.DiscussionsCollected = len(s.Discussions)
}

// Admit routes a record to its dedup rule and reports whether it was added.
func (s *State) Admit(rec domain.Record) bool {
	switch r := rec.(type) {
	case domain.ClothingItem:
		return s.AdmitItem(r)
	case domain.Brand:
		return s.AdmitBrand(r)
	case domain.StyleDiscussion:
		return s.AdmitDiscussion(r)
	default:
		return false
	}
}

// AdmitItem adds item unless an item with the same dedup key is already present.
func (s *State) AdmitItem(item domain.ClothingItem) bool {
	key := item.DedupKey()
	if _, dup := s.itemKeys[key]; dup {
		return false
	}
	s.itemKeys[key] = struct{}{}
	s.discovered[item.Brand] = struct{}{}
	s.Items = append(s.Items, item)
	s.Stats.ItemsScraped++
	s.Stats.Sources[item.SourceType]++
	return true
}

// AdmitBrand adds brand unless the exact name is already present.
func (s *State) AdmitBrand(brand domain.Brand) bool {
	key := brand.DedupKey()
	if _, dup := s.brandNames[key]; dup {
		return false
	}
	s.brandNames[key] = struct{}{}
	s.discovered[brand.Name] = struct{}{}
	s.Brands = append(s.Brands, brand)
	s.Stats.BrandsDiscovered++
	return true
}

// AdmitDiscussion always adds d.
func (s *State) AdmitDiscussion(d domain.StyleDiscussion) bool {
	s.Discussions = append(s.Discussions, d)
	s.Stats.DiscussionsCollected++
	return true
}

// HasBrand reports whether a Brand record with this exact name exists.
func (s *State) HasBrand(name string) bool {
	_, ok := s.brandNames[name]
	return ok
}

// DiscoveredBrands lists every brand name seen on an item or brand record, sorted.
func (s *State) DiscoveredBrands() []string {
	names := make([]string, 0, len(s.discovered))
	for name := range s.discovered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ItemCountsByBrand counts items per brand name.
func (s *State) ItemCountsByBrand() map[string]int {
	counts := map[string]int{}
	for _, item := range s.Items {
		counts[item.Brand]++
	}
	return counts
}

// ItemsByBrand groups items by brand, preserving admission order.
func (s *State) ItemsByBrand() map[string][]domain.ClothingItem {
	grouped := map[string][]domain.ClothingItem{}
	for _, item := range s.Items {
		grouped[item.Brand] = append(grouped[item.Brand], item)
	}
	return grouped
}

// RecordError appends a stage failure to the run statistics.
func (s *State) RecordError(stage, message string) {
	s.Stats.Errors = append(s.Stats.Errors, domain.StageError{Stage: stage, Message: message})
}

// Summary rolls the state up for operators.
func (s *State) Summary() domain.Summary {
	sources := make(map[string]int, len(s.Stats.Sources))
	for k, v := range s.Stats.Sources {
		sources[k] = v
	}
	return domain.Summary{
		TotalItems:       len(s.Items),
		TotalBrands:      len(s.Brands),
		TotalDiscussions: len(s.Discussions),
		UniqueBrands:     len(s.discovered),
		Sources:          sources,
		Errors:           len(s.Stats.Errors),
	}
}
