package domain

// Brand is an aesthetic profile, either supplied by a provider or synthesized
// from the brand's ingested items.
type Brand struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Aesthetics     []string `json:"aesthetics"`
	TypicalFits    []string `json:"typical_fits"`
	PriceRange     string   `json:"price_range"`
	OriginCountry  string   `json:"origin_country,omitempty"`
	SignatureItems []string `json:"signature_items"`
	SimilarBrands  []string `json:"similar_brands"`
	SourceURL      string   `json:"source_url,omitempty"`
	SourceType     string   `json:"source_type"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

func (Brand) RecordKind() Kind    { return KindBrand }
func (b Brand) RecordID() string { return b.ID }

// DedupKey is the brand name exactly as first observed.
func (b Brand) DedupKey() string { return b.Name }
