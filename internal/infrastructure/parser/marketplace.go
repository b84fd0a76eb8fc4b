package parser

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/infrastructure/httpfetch"
	"StyleTranslator/internal/scanner"
)

const (
	defaultSearchURL        = "https://www.ebay.com/sch/i.html?_nkw={query}&_sacat=1059"
	defaultListingSelector  = ".s-item"
	defaultTitleSelector    = ".s-item__title"
	defaultListingPriceSel  = ".s-item__price"
	defaultMarketplacePager = "_pgn"
)

// Marketplace searches a broad second-hand marketplace for one brand at a time.
// It is the fallback provider for brand gap filling.
type Marketplace struct {
	fetcher   *httpfetch.Fetcher
	searchURL string
	logger    *slog.Logger
}

var _ scanner.Provider = (*Marketplace)(nil)

// NewMarketplace wires the shared fetcher; searchURL must contain {query}.
func NewMarketplace(fetcher *httpfetch.Fetcher, searchURL string, logger *slog.Logger) *Marketplace {
	if searchURL == "" {
		searchURL = defaultSearchURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Marketplace{fetcher: fetcher, searchURL: searchURL, logger: logger}
}

// Name identifies the provider inside the registry.
func (m *Marketplace) Name() string { return "marketplace" }

// Fetch searches for req.Query (or the target name) and yields listings whose title names the brand.
func (m *Marketplace) Fetch(ctx context.Context, req scanner.Request) iter.Seq2[scanner.Record, error] {
	brand := strings.TrimSpace(req.Query)
	if brand == "" {
		brand = strings.TrimSpace(req.Target.Name)
	}
	if brand == "" {
		return scanner.Failed(fmt.Errorf("marketplace search needs a brand"))
	}
	limit := limitOrDefault(req.MaxResults, 100)
	maxPages := intOption(req.Options, "max_pages", 10)
	source := option(req.Options, "source_type", m.Name())
	template := option(req.Options, "search_url", m.searchURL)
	if req.Target.URL != "" {
		template = req.Target.URL
	}
	searchURL := strings.ReplaceAll(template, "{query}", url.QueryEscape(brand))

	return func(yield func(scanner.Record, error) bool) {
		count := 0
		for page := 1; page <= maxPages && count < limit; page++ {
			pageURL, err := buildPageURL(searchURL, defaultMarketplacePager, page)
			if err != nil {
				yield(scanner.Record{}, err)
				return
			}
			doc, err := m.fetcher.Document(ctx, pageURL)
			if err != nil {
				yield(scanner.Record{}, fmt.Errorf("search %s page %d: %w", brand, page, err))
				return
			}

			found := 0
			stop := false
			doc.Find(option(req.Options, "listing_selector", defaultListingSelector)).EachWithBreak(func(_ int, listing *goquery.Selection) bool {
				rec, ok := m.parseListing(listing, pageURL, brand, source)
				if !ok {
					return true
				}
				if !yield(rec, nil) {
					stop = true
					return false
				}
				found++
				count++
				return count < limit
			})
			if stop || found == 0 {
				return
			}
		}
	}
}

func (m *Marketplace) parseListing(listing *goquery.Selection, pageURL, brand, source string) (scanner.Record, bool) {
	title := selText(listing, defaultTitleSelector)
	if title == "" || strings.EqualFold(title, "shop on ebay") {
		return scanner.Record{}, false
	}
	if !strings.Contains(strings.ToLower(title), strings.ToLower(brand)) {
		m.logger.Debug("skip listing", "brand", brand, "title", title)
		return scanner.Record{}, false
	}

	href, _ := listing.Find("a[href]").First().Attr("href")
	fields := map[string]any{
		"name":        title,
		"brand":       brand,
		"description": title,
		"source_url":  absoluteURL(pageURL, href),
	}
	if price := parsePrice(selText(listing, defaultListingPriceSel)); price > 0 {
		fields["price_usd"] = price
	}
	return scanner.Record{Kind: domain.KindItem, Source: source, Fields: fields}, true
}
