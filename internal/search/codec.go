package search

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"StyleTranslator/internal/domain"
)

// Vector indexes only keep scalar metadata, so list fields are stored as
// tagged JSON strings. Plain strings that happen to start with a tag are escaped.
const (
	listTag   = "list:"
	stringTag = "str:"

	metaKind    = "kind"
	metaVersion = "projection_version"
	metaText    = "text"
)

func encodeString(s string) string {
	if strings.HasPrefix(s, listTag) || strings.HasPrefix(s, stringTag) {
		return stringTag + s
	}
	return s
}

func decodeString(s string) string {
	return strings.TrimPrefix(s, stringTag)
}

func encodeList(values []string) string {
	b, _ := json.Marshal(values)
	return listTag + string(b)
}

func decodeList(s string) ([]string, error) {
	raw, ok := strings.CutPrefix(s, listTag)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a list", ErrBadMetadata, s)
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMetadata, err)
	}
	return out, nil
}

func decodeInt(meta map[string]string, key string) (int, error) {
	v, ok := meta[key]
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadMetadata, key, err)
	}
	return n, nil
}

// listDecoder collects the first decode failure so field assignment stays flat.
type listDecoder struct {
	meta map[string]string
	err  error
}

func (d *listDecoder) list(key string) []string {
	v, ok := d.meta[key]
	if !ok || d.err != nil {
		return nil
	}
	out, err := decodeList(v)
	if err != nil {
		d.err = fmt.Errorf("%s: %w", key, err)
	}
	return out
}

func (d *listDecoder) str(key string) string { return decodeString(d.meta[key]) }

// EncodeItem flattens an item into scalar metadata.
func EncodeItem(item domain.ClothingItem) map[string]string {
	meta := map[string]string{
		metaKind:      string(domain.KindItem),
		metaVersion:   ProjectionVersion,
		metaText:      ItemText(item),
		"id":          encodeString(item.ID),
		"name":        encodeString(item.Name),
		"brand":       encodeString(item.Brand),
		"category":    encodeString(item.Category),
		"description": encodeString(item.Description),
		"fit":         encodeString(item.Fit),
		"style_tags":  encodeList(item.StyleTags),
		"colors":      encodeList(item.Colors),
		"materials":   encodeList(item.Materials),
		"source_url":  encodeString(item.SourceURL),
		"source_type": encodeString(item.SourceType),
		"created_at":  encodeString(item.CreatedAt),
	}
	if p, ok := item.Price(); ok {
		meta["price_usd"] = strconv.FormatFloat(p, 'g', -1, 64)
	}
	return meta
}

func DecodeItem(meta map[string]string) (domain.ClothingItem, error) {
	d := &listDecoder{meta: meta}
	item := domain.ClothingItem{
		ID:          d.str("id"),
		Name:        d.str("name"),
		Brand:       d.str("brand"),
		Category:    d.str("category"),
		Description: d.str("description"),
		Fit:         d.str("fit"),
		StyleTags:   d.list("style_tags"),
		Colors:      d.list("colors"),
		Materials:   d.list("materials"),
		SourceURL:   d.str("source_url"),
		SourceType:  d.str("source_type"),
		CreatedAt:   d.str("created_at"),
	}
	if d.err != nil {
		return domain.ClothingItem{}, d.err
	}
	if v, ok := meta["price_usd"]; ok && v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.ClothingItem{}, fmt.Errorf("%w: price_usd: %v", ErrBadMetadata, err)
		}
		item.PriceUSD = &p
	}
	return item, nil
}

func EncodeBrand(b domain.Brand) map[string]string {
	return map[string]string{
		metaKind:          string(domain.KindBrand),
		metaVersion:       ProjectionVersion,
		metaText:          BrandText(b),
		"id":              encodeString(b.ID),
		"name":            encodeString(b.Name),
		"description":     encodeString(b.Description),
		"aesthetics":      encodeList(b.Aesthetics),
		"typical_fits":    encodeList(b.TypicalFits),
		"price_range":     encodeString(b.PriceRange),
		"origin_country":  encodeString(b.OriginCountry),
		"signature_items": encodeList(b.SignatureItems),
		"similar_brands":  encodeList(b.SimilarBrands),
		"source_url":      encodeString(b.SourceURL),
		"source_type":     encodeString(b.SourceType),
		"created_at":      encodeString(b.CreatedAt),
	}
}

func DecodeBrand(meta map[string]string) (domain.Brand, error) {
	d := &listDecoder{meta: meta}
	b := domain.Brand{
		ID:             d.str("id"),
		Name:           d.str("name"),
		Description:    d.str("description"),
		Aesthetics:     d.list("aesthetics"),
		TypicalFits:    d.list("typical_fits"),
		PriceRange:     d.str("price_range"),
		OriginCountry:  d.str("origin_country"),
		SignatureItems: d.list("signature_items"),
		SimilarBrands:  d.list("similar_brands"),
		SourceURL:      d.str("source_url"),
		SourceType:     d.str("source_type"),
		CreatedAt:      d.str("created_at"),
	}
	if d.err != nil {
		return domain.Brand{}, d.err
	}
	return b, nil
}

// EncodeDiscussion stores the truncated content too, so a hit can be shown without a checkpoint lookup.
func EncodeDiscussion(disc domain.StyleDiscussion) map[string]string {
	return map[string]string{
		metaKind:            string(domain.KindDiscussion),
		metaVersion:         ProjectionVersion,
		metaText:            DiscussionText(disc),
		"id":                encodeString(disc.ID),
		"title":             encodeString(disc.Title),
		"content":           encodeString(disc.Content),
		"mentioned_brands":  encodeList(disc.MentionedBrands),
		"mentioned_items":   encodeList(disc.MentionedItems),
		"style_descriptors": encodeList(disc.StyleDescriptors),
		"source_url":        encodeString(disc.SourceURL),
		"source_type":       encodeString(disc.SourceType),
		"subreddit":         encodeString(disc.Subreddit),
		"upvotes":           strconv.Itoa(disc.Upvotes),
		"num_comments":      strconv.Itoa(disc.NumComments),
		"created_at":        encodeString(disc.CreatedAt),
	}
}

func DecodeDiscussion(meta map[string]string) (domain.StyleDiscussion, error) {
	d := &listDecoder{meta: meta}
	disc := domain.StyleDiscussion{
		ID:               d.str("id"),
		Title:            d.str("title"),
		Content:          d.str("content"),
		MentionedBrands:  d.list("mentioned_brands"),
		MentionedItems:   d.list("mentioned_items"),
		StyleDescriptors: d.list("style_descriptors"),
		SourceURL:        d.str("source_url"),
		SourceType:       d.str("source_type"),
		Subreddit:        d.str("subreddit"),
		CreatedAt:        d.str("created_at"),
	}
	if d.err != nil {
		return domain.StyleDiscussion{}, d.err
	}
	var err error
	if disc.Upvotes, err = decodeInt(meta, "upvotes"); err != nil {
		return domain.StyleDiscussion{}, err
	}
	if disc.NumComments, err = decodeInt(meta, "num_comments"); err != nil {
		return domain.StyleDiscussion{}, err
	}
	return disc, nil
}
