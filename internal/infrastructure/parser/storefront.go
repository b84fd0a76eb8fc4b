package parser

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/infrastructure/httpfetch"
	"StyleTranslator/internal/scanner"
)

// Default product card selectors, overridable per source through options.
const (
	defaultCardSelector  = `[data-test-id="ProductCard"], .product-card, .ProductCard`
	defaultBrandSelector = `[data-test-id="ProductCard__brand"], .brand`
	defaultNameSelector  = `[data-test-id="ProductCard__name"], .product-name, h3`
	defaultPriceSelector = `[data-test-id="ProductCard__price"], .price`
)

// Storefront crawls paginated retailer listing pages and yields one item per product card.
type Storefront struct {
	fetcher *httpfetch.Fetcher
	logger  *slog.Logger
}

var _ scanner.Provider = (*Storefront)(nil)

// NewStorefront wires the shared fetcher.
func NewStorefront(fetcher *httpfetch.Fetcher, logger *slog.Logger) *Storefront {
	if logger == nil {
		logger = slog.Default()
	}
	return &Storefront{fetcher: fetcher, logger: logger}
}

// Name identifies the provider inside the registry.
func (s *Storefront) Name() string { return "storefront" }

// Fetch walks listing pages of req.Target until MaxResults cards were read or a page is empty.
func (s *Storefront) Fetch(ctx context.Context, req scanner.Request) iter.Seq2[scanner.Record, error] {
	if req.Target.URL == "" {
		return scanner.Failed(fmt.Errorf("storefront target %q has no url", req.Target.Name))
	}
	limit := limitOrDefault(req.MaxResults, 200)
	maxPages := intOption(req.Options, "max_pages", 20)
	pageParam := option(req.Options, "page_param", "p")
	source := option(req.Options, "source_type", s.Name())

	return func(yield func(scanner.Record, error) bool) {
		count := 0
		for page := 1; page <= maxPages && count < limit; page++ {
			pageURL, err := buildPageURL(req.Target.URL, pageParam, page)
			if err != nil {
				yield(scanner.Record{}, err)
				return
			}
			doc, err := s.fetcher.Document(ctx, pageURL)
			if err != nil {
				yield(scanner.Record{}, fmt.Errorf("page %d: %w", page, err))
				return
			}

			cards := doc.Find(option(req.Options, "card_selector", defaultCardSelector))
			if cards.Length() == 0 {
				return
			}
			s.logger.Debug("storefront page", "target", req.Target.Name, "page", page, "cards", cards.Length())

			stop := false
			cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
				rec, ok := s.parseCard(card, pageURL, req, source)
				if !ok {
					return true
				}
				if !yield(rec, nil) {
					stop = true
					return false
				}
				count++
				return count < limit
			})
			if stop {
				return
			}
		}
	}
}

func (s *Storefront) parseCard(card *goquery.Selection, pageURL string, req scanner.Request, source string) (scanner.Record, bool) {
	brand := option(req.Options, "brand", selText(card, option(req.Options, "brand_selector", defaultBrandSelector)))
	name := selText(card, option(req.Options, "name_selector", defaultNameSelector))
	if name == "" || brand == "" {
		s.logger.Debug("skip product card", "target", req.Target.Name, "reason", "missing name or brand")
		return scanner.Record{}, false
	}

	href, _ := card.Find(option(req.Options, "link_selector", "a[href]")).First().Attr("href")
	fields := map[string]any{
		"name":        name,
		"brand":       brand,
		"description": selText(card, req.Options["description_selector"]),
		"source_url":  absoluteURL(pageURL, href),
	}
	if price := parsePrice(selText(card, option(req.Options, "price_selector", defaultPriceSelector))); price > 0 {
		fields["price_usd"] = price
	}
	if category := req.Options["category"]; category != "" {
		fields["category"] = category
	}
	return scanner.Record{Kind: domain.KindItem, Source: source, Fields: fields}, true
}
