package domain

import "strings"

// ClothingItem is a single garment observed at some provider.
type ClothingItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Fit         string   `json:"fit,omitempty"`
	StyleTags   []string `json:"style_tags"`
	Colors      []string `json:"colors"`
	Materials   []string `json:"materials"`
	PriceUSD    *float64 `json:"price_usd"`
	SourceURL   string   `json:"source_url,omitempty"`
	SourceType  string   `json:"source_type"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

func (ClothingItem) RecordKind() Kind    { return KindItem }
func (i ClothingItem) RecordID() string { return i.ID }

// DedupKey identifies the real-world product: brand, name and category, case folded.
func (i ClothingItem) DedupKey() string {
	return strings.ToLower(i.Brand + "|" + i.Name + "|" + i.Category)
}

// Price returns the price and whether one is known.
func (i ClothingItem) Price() (float64, bool) {
	if i.PriceUSD == nil {
		return 0, false
	}
	return *i.PriceUSD, true
}
