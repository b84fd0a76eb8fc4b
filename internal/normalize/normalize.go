// Package normalize converts untyped provider output into canonical records.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/extract"
	"StyleTranslator/internal/scanner"
)

// ErrInvalidRecord marks a raw record that lacks required fields; callers skip it.
var ErrInvalidRecord = errors.New("invalid record")

// Extractor derives style attributes from free text.
type Extractor interface {
	Attributes(text string) extract.Attributes
	Category(text string) string
	Brands(text string) []string
	StyleDescriptors(text string) []string
	ItemTypes(text string) []string
}

// Normalizer builds canonical records, filling gaps with the extractor.
type Normalizer struct {
	extractor Extractor
	now       func() time.Time
}

// New wires an extractor; nil selects the built-in keyword tables.
func New(extractor Extractor) *Normalizer {
	if extractor == nil {
		extractor = extract.New()
	}
	return &Normalizer{extractor: extractor, now: time.Now}
}

// Normalize converts one raw record into its canonical shape.
func (n *Normalizer) Normalize(raw scanner.Record) (domain.Record, error) {
	if raw.Fields == nil {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidRecord)
	}
	var (
		rec domain.Record
		err error
	)
	switch raw.Kind {
	case domain.KindItem:
		rec, err = n.item(raw)
	case domain.KindBrand:
		rec, err = n.brand(raw)
	case domain.KindDiscussion:
		rec, err = n.discussion(raw)
	default:
		err = fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, raw.Kind)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (n *Normalizer) item(raw scanner.Record) (domain.ClothingItem, error) {
	f := raw.Fields
	item := domain.ClothingItem{
		ID:          fieldString(f, "id"),
		Name:        fieldString(f, "name"),
		Brand:       fieldString(f, "brand"),
		Category:    strings.ToLower(fieldString(f, "category")),
		Description: fieldString(f, "description"),
		Fit:         fieldString(f, "fit"),
		StyleTags:   fieldStrings(f, "style_tags"),
		Colors:      fieldStrings(f, "colors"),
		Materials:   fieldStrings(f, "materials"),
		PriceUSD:    fieldPrice(f, "price_usd"),
		SourceURL:   fieldString(f, "source_url"),
		SourceType:  sourceType(f, raw.Source),
		CreatedAt:   n.createdAt(f),
	}
	if item.Name == "" || item.Brand == "" {
		return domain.ClothingItem{}, fmt.Errorf("%w: item needs name and brand", ErrInvalidRecord)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Description == "" {
		item.Description = item.Name
	}

	text := item.Name + " " + item.Description
	if item.Category == "" {
		item.Category = n.extractor.Category(item.Name)
		if item.Category == "other" {
			item.Category = n.extractor.Category(text)
		}
	}
	attrs := n.extractor.Attributes(text)
	if item.Fit == "" {
		item.Fit = attrs.Fit
	}
	if len(item.Colors) == 0 {
		item.Colors = attrs.Colors
	}
	if len(item.Materials) == 0 {
		item.Materials = attrs.Materials
	}
	if len(item.StyleTags) == 0 {
		item.StyleTags = attrs.StyleTags
	}
	item.Colors = orEmpty(item.Colors)
	item.Materials = orEmpty(item.Materials)
	item.StyleTags = orEmpty(item.StyleTags)
	return item, nil
}

func (n *Normalizer) brand(raw scanner.Record) (domain.Brand, error) {
	f := raw.Fields
	brand := domain.Brand{
		ID:             fieldString(f, "id"),
		Name:           fieldString(f, "name"),
		Description:    fieldString(f, "description"),
		Aesthetics:     orEmpty(fieldStrings(f, "aesthetics")),
		TypicalFits:    orEmpty(fieldStrings(f, "typical_fits")),
		PriceRange:     strings.ToLower(fieldString(f, "price_range")),
		OriginCountry:  fieldString(f, "origin_country"),
		SignatureItems: orEmpty(fieldStrings(f, "signature_items")),
		SimilarBrands:  orEmpty(fieldStrings(f, "similar_brands")),
		SourceURL:      fieldString(f, "source_url"),
		SourceType:     sourceType(f, raw.Source),
		CreatedAt:      n.createdAt(f),
	}
	if brand.Name == "" {
		return domain.Brand{}, fmt.Errorf("%w: brand needs a name", ErrInvalidRecord)
	}
	if brand.ID == "" {
		brand.ID = BrandID(brand.Name)
	}
	if !domain.ValidPriceRange(brand.PriceRange) {
		brand.PriceRange = domain.PriceMid
	}
	if len(brand.Aesthetics) == 0 && brand.Description != "" {
		brand.Aesthetics = orEmpty(n.extractor.StyleDescriptors(brand.Description))
	}
	return brand, nil
}

func (n *Normalizer) discussion(raw scanner.Record) (domain.StyleDiscussion, error) {
	f := raw.Fields
	d := domain.StyleDiscussion{
		ID:               fieldString(f, "id"),
		Title:            fieldString(f, "title"),
		Content:          domain.TruncateContent(fieldString(f, "content"), domain.MaxDiscussionContent),
		MentionedBrands:  fieldStrings(f, "mentioned_brands"),
		MentionedItems:   fieldStrings(f, "mentioned_items"),
		StyleDescriptors: fieldStrings(f, "style_descriptors"),
		SourceURL:        fieldString(f, "source_url"),
		SourceType:       sourceType(f, raw.Source),
		Subreddit:        fieldString(f, "subreddit"),
		Upvotes:          fieldInt(f, "upvotes"),
		NumComments:      fieldInt(f, "num_comments"),
		CreatedAt:        n.createdAt(f),
	}
	if d.Title == "" {
		return domain.StyleDiscussion{}, fmt.Errorf("%w: discussion needs a title", ErrInvalidRecord)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	text := d.Title + " " + d.Content
	if len(d.MentionedBrands) == 0 {
		d.MentionedBrands = n.extractor.Brands(text)
	}
	if len(d.MentionedItems) == 0 {
		d.MentionedItems = n.extractor.ItemTypes(text)
	}
	if len(d.StyleDescriptors) == 0 {
		d.StyleDescriptors = n.extractor.StyleDescriptors(text)
	}
	d.MentionedBrands = orEmpty(d.MentionedBrands)
	d.MentionedItems = orEmpty(d.MentionedItems)
	d.StyleDescriptors = orEmpty(d.StyleDescriptors)
	return d, nil
}

func (n *Normalizer) createdAt(fields map[string]any) string {
	if v := fieldString(fields, "created_at"); v != "" {
		return v
	}
	return n.now().UTC().Format(time.RFC3339)
}

func sourceType(fields map[string]any, fallback string) string {
	if v := fieldString(fields, "source_type"); v != "" {
		return v
	}
	if fallback != "" {
		return fallback
	}
	return "unknown"
}

// BrandID derives the stable brand id: "brand_" plus the lower-cased name with spaces as underscores.
func BrandID(name string) string {
	return "brand_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
